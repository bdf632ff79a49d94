package validation

const dishDefinition = `{
	"type": "object",
	"required": ["nombre", "categoria", "precio"],
	"properties": {
		"nombre":             {"type": "string", "minLength": 1},
		"categoria":          {"type": "string"},
		"precio":             {"type": "number", "minimum": 0},
		"descripcion":        {"type": ["string", "null"]},
		"imagen":             {"type": ["string", "null"]},
		"calorias":           {"type": ["integer", "null"], "minimum": 0},
		"tiempo_preparacion": {"type": ["integer", "null"], "minimum": 0},
		"ingredientes":       {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

// CatalogResponse validates {"platillos": Dish[]}.
var CatalogResponse = MustCompile("catalog_response", `{
	"type": "object",
	"required": ["platillos"],
	"properties": {
		"platillos": {"type": "array", "items": `+dishDefinition+`}
	}
}`)

// RecommendationResponse validates {"recomendaciones": Dish[]}; the array may be empty.
var RecommendationResponse = MustCompile("recommendation_response", `{
	"type": "object",
	"required": ["recomendaciones"],
	"properties": {
		"recomendaciones": {"type": "array", "items": `+dishDefinition+`}
	}
}`)

// PreferenceRequest checks structural shape only; values are not checked
// against any vocabulary.
var PreferenceRequest = MustCompile("preference_request", `{
	"type": "object",
	"required": ["preferencias_culturales", "presupuesto", "etiquetas_nutricionales"],
	"properties": {
		"preferencias_culturales": {"type": "array", "items": {"type": "string", "minLength": 1}, "uniqueItems": true},
		"estado_animo":            {"type": "string", "minLength": 1},
		"presupuesto":             {"type": "integer", "minimum": 0},
		"etiquetas_nutricionales": {"type": "array", "items": {"type": "string", "minLength": 1}, "uniqueItems": true}
	}
}`)

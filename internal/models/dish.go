// internal/models/dish.go
package models

// Dish is a single menu item. Name is the only identity; there is no numeric id.
// Optional fields are pointers so that "absent" and "zero" stay distinguishable.
type Dish struct {
	Name        string   `json:"nombre"`
	Category    string   `json:"categoria"`
	Price       float64  `json:"precio"`
	Description string   `json:"descripcion"`
	Image       string   `json:"imagen"`
	Calories    *int     `json:"calorias,omitempty"`
	PrepMinutes *int     `json:"tiempo_preparacion,omitempty"`
	Ingredients []string `json:"ingredientes,omitempty"`
}

// PrepMinutesOrZero treats a missing preparation time as 0.
func (d Dish) PrepMinutesOrZero() int {
	if d.PrepMinutes == nil {
		return 0
	}
	return *d.PrepMinutes
}

// Clone returns a copy that shares no memory with d.
func (d Dish) Clone() Dish {
	out := d
	if d.Calories != nil {
		v := *d.Calories
		out.Calories = &v
	}
	if d.PrepMinutes != nil {
		v := *d.PrepMinutes
		out.PrepMinutes = &v
	}
	if d.Ingredients != nil {
		out.Ingredients = append([]string(nil), d.Ingredients...)
	}
	return out
}

// Catalog is the ordered collection of dishes for a session.
type Catalog []Dish

// Clone copies the catalog so callers can never mutate the store's copy.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	for i, d := range c {
		out[i] = d.Clone()
	}
	return out
}

// Categories returns the distinct categories in catalog order.
func (c Catalog) Categories() []string {
	seen := make(map[string]bool, len(c))
	out := []string{}
	for _, d := range c {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	return out
}

// RecommendationSet is the ordered result of the most recent successful request.
type RecommendationSet []Dish

// Names returns the dish names in order.
func (r RecommendationSet) Names() []string {
	out := make([]string, 0, len(r))
	for _, d := range r {
		out = append(out, d.Name)
	}
	return out
}

// CatalogResponse is the body returned by the catalog endpoint.
type CatalogResponse struct {
	Dishes []Dish `json:"platillos"`
}

// RecommendationResponse is the body returned by the recommendation endpoint.
type RecommendationResponse struct {
	Recommendations []Dish `json:"recomendaciones"`
}

// IntPtr is a small helper for building optional fields.
func IntPtr(v int) *int {
	return &v
}

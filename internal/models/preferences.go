// internal/models/preferences.go
package models

import "sort"

const (
	// CategoryAll is the category sentinel that disables category filtering.
	CategoryAll = "all"
	// categoryAllLegacy is the sentinel used by the web client; accepted as an alias.
	categoryAllLegacy = "todos"

	DefaultBudget = 50
)

// Cultural preference values understood by the recommendation service.
const (
	CulturalVegetarian = "vegetariano"
	CulturalVegan      = "vegano"
	CulturalNoPork     = "sin_cerdo"
	CulturalNoSeafood  = "sin_mariscos"
)

// Mood values.
const (
	MoodLight  = "ligero"
	MoodEnergy = "energia"
)

// Nutritional tags.
const (
	NutritionLowFat      = "bajo_grasa"
	NutritionHighProtein = "alto_proteina"
	NutritionGlutenFree  = "sin_gluten"
	NutritionVegan       = "vegano"
)

// NormalizeCategory maps the legacy sentinel onto CategoryAll.
func NormalizeCategory(category string) string {
	if category == "" || category == categoryAllLegacy {
		return CategoryAll
	}
	return category
}

// FilterState is the user-selected category and budget ceiling.
type FilterState struct {
	Category string `json:"category"`
	Budget   int    `json:"budget"`
}

// DefaultFilterState returns {category: "all", budget: 50}.
func DefaultFilterState() FilterState {
	return FilterState{Category: CategoryAll, Budget: DefaultBudget}
}

// PreferenceForm holds the selections a submission is built from.
type PreferenceForm struct {
	Cultural    map[string]bool
	Mood        string
	Nutritional map[string]bool
}

// NewPreferenceForm returns an empty form.
func NewPreferenceForm() PreferenceForm {
	return PreferenceForm{
		Cultural:    map[string]bool{},
		Nutritional: map[string]bool{},
	}
}

// Clone deep-copies the form.
func (f PreferenceForm) Clone() PreferenceForm {
	out := NewPreferenceForm()
	for k, v := range f.Cultural {
		if v {
			out.Cultural[k] = true
		}
	}
	for k, v := range f.Nutritional {
		if v {
			out.Nutritional[k] = true
		}
	}
	out.Mood = f.Mood
	return out
}

// CulturalList returns the selected cultural preferences, sorted.
func (f PreferenceForm) CulturalList() []string {
	return setToSorted(f.Cultural)
}

// NutritionalList returns the selected nutritional tags, sorted.
func (f PreferenceForm) NutritionalList() []string {
	return setToSorted(f.Nutritional)
}

// Request builds the wire request for the given budget.
func (f PreferenceForm) Request(budget int) PreferenceRequest {
	req := PreferenceRequest{
		CulturalPreferences: f.CulturalList(),
		Budget:              budget,
		NutritionalTags:     f.NutritionalList(),
	}
	if f.Mood != "" {
		mood := f.Mood
		req.Mood = &mood
	}
	return req
}

// PreferenceRequest is the body POSTed to the recommendation endpoint.
type PreferenceRequest struct {
	CulturalPreferences []string `json:"preferencias_culturales"`
	Mood                *string  `json:"estado_animo,omitempty"`
	Budget              int      `json:"presupuesto"`
	NutritionalTags     []string `json:"etiquetas_nutricionales"`
}

// Normalized returns a copy whose sets are sorted, deduplicated and never nil.
func (r PreferenceRequest) Normalized() PreferenceRequest {
	out := r
	out.CulturalPreferences = dedupSorted(r.CulturalPreferences)
	out.NutritionalTags = dedupSorted(r.NutritionalTags)
	if r.Mood != nil {
		if *r.Mood == "" {
			out.Mood = nil
		} else {
			mood := *r.Mood
			out.Mood = &mood
		}
	}
	return out
}

func setToSorted(set map[string]bool) []string {
	out := []string{}
	for k, v := range set {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func dedupSorted(in []string) []string {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		if s != "" {
			set[s] = true
		}
	}
	return setToSorted(set)
}

package session

import "menu-advisor/internal/models"

// Event is a message consumed by the session loop.
type Event interface {
	eventName() string
}

// LoadCatalog fetches the catalog from the configured loader.
type LoadCatalog struct{}

// CatalogReplaced installs a catalog obtained elsewhere (file watcher).
type CatalogReplaced struct {
	Catalog models.Catalog
}

type SelectCategory struct {
	Category string
}

// ChangeBudget is clamped to 0..budget max.
type ChangeBudget struct {
	Budget int
}

type ToggleCultural struct {
	Value string
}

type ToggleNutritional struct {
	Tag string
}

// SelectMood sets the mood; an empty Mood clears it.
type SelectMood struct {
	Mood string
}

type SubmitPreferences struct{}

type ResetFilters struct{}

// Transcript is raw speech-to-text output.
type Transcript struct {
	Text string
}

type DismissNotification struct {
	ID string
}

type catalogLoaded struct {
	catalog models.Catalog
	err     error
}

type recommendationResolved struct {
	generation uint64
	set        models.RecommendationSet
	err        error
}

type barrier struct {
	done chan struct{}
}

func (LoadCatalog) eventName() string            { return "load_catalog" }
func (CatalogReplaced) eventName() string        { return "catalog_replaced" }
func (SelectCategory) eventName() string         { return "select_category" }
func (ChangeBudget) eventName() string           { return "change_budget" }
func (ToggleCultural) eventName() string         { return "toggle_cultural" }
func (ToggleNutritional) eventName() string      { return "toggle_nutritional" }
func (SelectMood) eventName() string             { return "select_mood" }
func (SubmitPreferences) eventName() string      { return "submit_preferences" }
func (ResetFilters) eventName() string           { return "reset_filters" }
func (Transcript) eventName() string             { return "transcript" }
func (DismissNotification) eventName() string    { return "dismiss_notification" }
func (catalogLoaded) eventName() string          { return "catalog_loaded" }
func (recommendationResolved) eventName() string { return "recommendation_resolved" }
func (barrier) eventName() string                { return "barrier" }

// Package store owns the session state: catalog, filters, preference form,
// recommendations and the request lifecycle.
package store

import (
	"sync"

	"menu-advisor/internal/models"
)

// State is a deep copy of everything the store owns.
type State struct {
	Catalog         models.Catalog
	Filter          models.FilterState
	Form            models.PreferenceForm
	Recommendations models.RecommendationSet
	Lifecycle       models.Lifecycle
}

// Store is the single source of truth. Mutators never render; callers
// recompute views from Snapshot.
type Store struct {
	mu sync.RWMutex

	defaults        models.FilterState
	catalog         models.Catalog
	filter          models.FilterState
	form            models.PreferenceForm
	recommendations models.RecommendationSet
	lifecycle       models.Lifecycle
}

// New returns a store with the default filter {all, 50}.
func New() *Store {
	return NewWithDefaults(models.DefaultFilterState())
}

// NewWithDefaults lets the configured default budget replace 50.
func NewWithDefaults(defaults models.FilterState) *Store {
	defaults.Category = models.NormalizeCategory(defaults.Category)
	if defaults.Budget < 0 {
		defaults.Budget = 0
	}
	return &Store{
		defaults: defaults,
		filter:   defaults,
		form:     models.NewPreferenceForm(),
	}
}

// Load replaces the catalog wholesale, clears recommendations and returns the
// lifecycle to Idle.
func (s *Store) Load(catalog models.Catalog) {
	next := catalog.Clone()
	if next == nil {
		next = models.Catalog{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = next
	s.recommendations = nil
	s.lifecycle = models.Lifecycle{Phase: models.PhaseIdle, Generation: s.lifecycle.Generation}
}

// SetCategory reports whether the category changed.
func (s *Store) SetCategory(category string) bool {
	category = models.NormalizeCategory(category)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter.Category == category {
		return false
	}
	s.filter.Category = category
	return true
}

// SetBudget clamps negative values to 0 and reports whether the budget changed.
func (s *Store) SetBudget(budget int) bool {
	if budget < 0 {
		budget = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter.Budget == budget {
		return false
	}
	s.filter.Budget = budget
	return true
}

// ApplyRecommendations swaps in the new set in one step.
func (s *Store) ApplyRecommendations(set models.RecommendationSet) {
	next := make(models.RecommendationSet, len(set))
	for i, d := range set {
		next[i] = d.Clone()
	}

	s.mu.Lock()
	s.recommendations = next
	s.mu.Unlock()
}

// Reset restores the default filter, clears the form and recommendations and
// returns the lifecycle to Idle. The generation is kept; a response for it is
// dropped because the phase is no longer Loading.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = s.defaults
	s.form = models.NewPreferenceForm()
	s.recommendations = nil
	s.lifecycle = models.Lifecycle{Phase: models.PhaseIdle, Generation: s.lifecycle.Generation}
}

// ToggleCultural flips membership of value and returns the new membership.
func (s *Store) ToggleCultural(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toggle(s.form.Cultural, value)
}

// ToggleNutritional flips membership of tag and returns the new membership.
func (s *Store) ToggleNutritional(tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toggle(s.form.Nutritional, tag)
}

// SetMood replaces any prior mood unconditionally.
func (s *Store) SetMood(mood string) {
	s.mu.Lock()
	s.form.Mood = mood
	s.mu.Unlock()
}

func toggle(set map[string]bool, key string) bool {
	if set[key] {
		delete(set, key)
		return false
	}
	set[key] = true
	return true
}

// Lifecycle returns the current lifecycle.
func (s *Store) Lifecycle() models.Lifecycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lifecycle
}

// SetLifecycle is used by the request pipeline only.
func (s *Store) SetLifecycle(lc models.Lifecycle) {
	s.mu.Lock()
	s.lifecycle = lc
	s.mu.Unlock()
}

// BeginRequest moves to Loading unless a request is already in flight.
// It returns the new generation and whether the transition happened.
func (s *Store) BeginRequest() (models.Lifecycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lifecycle.Phase == models.PhaseLoading {
		return s.lifecycle, false
	}
	s.lifecycle = models.Lifecycle{Phase: models.PhaseLoading, Generation: s.lifecycle.Generation + 1}
	return s.lifecycle, true
}

// Filter returns the current filter state.
func (s *Store) Filter() models.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Request builds a PreferenceRequest from the form and the budget slider.
func (s *Store) Request() models.PreferenceRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form.Request(s.filter.Budget)
}

// Recommendations returns a copy of the current set.
func (s *Store) Recommendations() models.RecommendationSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSet(s.recommendations)
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Catalog:         s.catalog.Clone(),
		Filter:          s.filter,
		Form:            s.form.Clone(),
		Recommendations: cloneSet(s.recommendations),
		Lifecycle:       s.lifecycle,
	}
}

func cloneSet(set models.RecommendationSet) models.RecommendationSet {
	if set == nil {
		return nil
	}
	out := make(models.RecommendationSet, len(set))
	for i, d := range set {
		out[i] = d.Clone()
	}
	return out
}

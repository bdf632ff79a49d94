package highlight

import (
	"sync"

	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/views"
	"menu-advisor/internal/models"
)

// Reconciler keeps menu highlighting in step with the recommendation set.
type Reconciler struct {
	mu      sync.Mutex
	surface render.Surface
	log     logger.Logger
	current []string
}

func NewReconciler(surface render.Surface, log logger.Logger) *Reconciler {
	return &Reconciler{
		surface: surface,
		log:     log.Component("highlight"),
	}
}

// Reconcile clears every previously highlighted name, then highlights the
// catalog entries named in set, in catalog order. Recommended dishes that are
// not in the catalog get no highlight.
func (r *Reconciler) Reconcile(catalog models.Catalog, set models.RecommendationSet) []string {
	next := views.Highlights(catalog, set)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.current {
		r.surface.Render(render.Instruction{Kind: render.ClearHighlight, Name: name})
	}
	for _, name := range next {
		r.surface.Render(render.Instruction{Kind: render.ApplyHighlight, Name: name})
	}

	if skipped := len(set) - len(next); skipped > 0 {
		r.log.Debug("recommended dishes without catalog entry", map[string]interface{}{
			"skipped": skipped,
		})
	}

	r.current = next
	return append([]string(nil), next...)
}

// Clear removes every highlight.
func (r *Reconciler) Clear() {
	r.Reconcile(nil, nil)
}

// Current returns the highlighted names.
func (r *Reconciler) Current() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.current...)
}

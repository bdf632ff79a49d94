// Package pipeline drives the recommendation request lifecycle:
// Idle/Success/Failed -> Loading -> Success|Failed, and Reset back to Idle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "menu-advisor/internal/common/errors"
	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/common/metrics"
	"menu-advisor/internal/common/observability"
	"menu-advisor/internal/common/validation"
	"menu-advisor/internal/engine/highlight"
	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/engine/views"
	"menu-advisor/internal/models"
)

const (
	LoadingMessage = "Buscando recomendaciones..."
	EmptyMessage   = "No se encontraron recomendaciones para tus filtros."
	FailureMessage = "Error al obtener recomendaciones. Intenta de nuevo."
)

// ErrRequestInFlight is returned by Begin while another request is Loading.
var ErrRequestInFlight = errors.New("recommendation request already in flight")

// Recommender fetches recommendations for one request.
type Recommender interface {
	Recommend(ctx context.Context, req models.PreferenceRequest) (models.RecommendationSet, error)
}

// Ticket identifies an accepted submission.
type Ticket struct {
	Generation uint64
	Request    models.PreferenceRequest
}

type Pipeline struct {
	store       *store.Store
	highlights  *highlight.Reconciler
	surface     render.Surface
	recommender Recommender
	reporter    *apperrors.Reporter
	obs         *observability.Observability
	log         logger.Logger

	mu        sync.Mutex
	startedAt time.Time
}

type Option func(*Pipeline)

// WithObservability records lifecycle transitions through otel.
func WithObservability(obs *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = obs }
}

func New(st *store.Store, hl *highlight.Reconciler, surface render.Surface, rec Recommender, log logger.Logger, opts ...Option) *Pipeline {
	log = log.Component("pipeline")
	p := &Pipeline{
		store:       st,
		highlights:  hl,
		surface:     surface,
		recommender: rec,
		reporter:    apperrors.NewReporter(log),
		log:         log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Begin validates req, moves the lifecycle to Loading and emits ShowLoading
// before any network call is made. A request made while Loading is rejected
// with ErrRequestInFlight and changes nothing.
func (p *Pipeline) Begin(req models.PreferenceRequest) (Ticket, error) {
	req = req.Normalized()
	if result := validation.PreferenceRequest.ValidateValue(req); !result.Valid {
		metrics.RecommendationRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		return Ticket{}, apperrors.NewInvalidPreferencesError(result.Error())
	}

	prev := p.store.Lifecycle()
	lc, ok := p.store.BeginRequest()
	if !ok {
		metrics.RecommendationRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		p.log.Warn("submission rejected while loading", map[string]interface{}{
			"generation": lc.Generation,
		})
		return Ticket{}, fmt.Errorf("%w: %w", ErrRequestInFlight, apperrors.NewRequestInFlightError(lc.Generation))
	}

	p.mu.Lock()
	p.startedAt = time.Now()
	p.mu.Unlock()

	p.transition(prev.Phase, lc.Phase)
	metrics.RecommendationsInFlight.Inc()
	p.surface.Render(render.Instruction{Kind: render.ShowLoading, Message: LoadingMessage})

	p.log.Debug("recommendation request started", map[string]interface{}{
		"generation": lc.Generation,
		"budget":     req.Budget,
	})
	return Ticket{Generation: lc.Generation, Request: req}, nil
}

// Fetch calls the recommender. It does not touch the store, so it can run on
// any goroutine.
func (p *Pipeline) Fetch(ctx context.Context, ticket Ticket) (models.RecommendationSet, error) {
	return p.recommender.Recommend(ctx, ticket.Request)
}

// Resolve applies the outcome of the request identified by generation. It
// returns false when the response is stale (the lifecycle moved on through a
// reset or a newer request) and was dropped.
func (p *Pipeline) Resolve(generation uint64, set models.RecommendationSet, err error) bool {
	lc := p.store.Lifecycle()
	if lc.Phase != models.PhaseLoading || lc.Generation != generation {
		metrics.RecommendationRequests.WithLabelValues(metrics.OutcomeStale).Inc()
		p.log.Info("dropping stale recommendation response", map[string]interface{}{
			"generation": generation,
			"current":    lc.Generation,
			"phase":      lc.Phase.String(),
		})
		return false
	}
	metrics.RecommendationsInFlight.Dec()

	if err != nil {
		stdErr := p.reporter.Report("recommend", err)
		p.store.SetLifecycle(models.Lifecycle{
			Phase:      models.PhaseFailed,
			Reason:     stdErr.Message,
			Generation: generation,
		})
		p.finish(metrics.OutcomeFailure, models.PhaseFailed)
		p.surface.Render(render.Instruction{Kind: render.ShowNoResults, Message: FailureMessage, IsError: true})
		return true
	}

	p.store.ApplyRecommendations(set)
	p.store.SetLifecycle(models.Lifecycle{Phase: models.PhaseSuccess, Generation: generation})

	state := p.store.Snapshot()
	p.highlights.Reconcile(state.Catalog, state.Recommendations)

	if len(state.Recommendations) == 0 {
		p.finish(metrics.OutcomeEmpty, models.PhaseSuccess)
		p.surface.Render(render.Instruction{Kind: render.ShowNoResults, Message: EmptyMessage})
		return true
	}

	p.finish(metrics.OutcomeSuccess, models.PhaseSuccess)
	p.surface.Render(render.Instruction{
		Kind:   render.ShowResults,
		Dishes: state.Recommendations,
		Label:  views.ResultsCountLabel(len(state.Recommendations)),
	})
	return true
}

// Reset returns to Idle from any phase, clearing recommendations, highlights
// and the results region. Calling it twice is the same as calling it once.
func (p *Pipeline) Reset() {
	prev := p.store.Lifecycle()
	if prev.Phase == models.PhaseLoading {
		metrics.RecommendationsInFlight.Dec()
	}
	p.store.Reset()
	p.highlights.Clear()
	p.surface.Render(render.Instruction{Kind: render.ClearResults})
	if prev.Phase != models.PhaseIdle {
		p.transition(prev.Phase, models.PhaseIdle)
	}
}

// Load installs a new catalog. Recommendations are dropped, highlights are
// cleared and any in-flight response becomes stale.
func (p *Pipeline) Load(catalog models.Catalog) {
	prev := p.store.Snapshot()
	if prev.Lifecycle.Phase == models.PhaseLoading {
		metrics.RecommendationsInFlight.Dec()
	}
	p.store.Load(catalog)
	p.highlights.Clear()
	if len(prev.Recommendations) > 0 || prev.Lifecycle.Phase != models.PhaseIdle {
		p.surface.Render(render.Instruction{Kind: render.ClearResults})
		p.transition(prev.Lifecycle.Phase, models.PhaseIdle)
	}
}

func (p *Pipeline) finish(outcome string, to models.Phase) {
	p.mu.Lock()
	elapsed := time.Since(p.startedAt)
	p.mu.Unlock()

	metrics.RecommendationRequests.WithLabelValues(outcome).Inc()
	metrics.RecommendationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	p.obs.RecordRequestDuration(context.Background(), elapsed, outcome)
	p.transition(models.PhaseLoading, to)

	p.log.Info("recommendation request finished", map[string]interface{}{
		"outcome":    outcome,
		"durationMs": elapsed.Milliseconds(),
	})
}

func (p *Pipeline) transition(from, to models.Phase) {
	p.obs.RecordTransition(context.Background(), from.String(), to.String())
}

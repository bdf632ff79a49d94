// Package session owns the event loop. Every store mutation happens on the
// goroutine running Run; network calls run elsewhere and post their result
// back as events.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	apperrors "menu-advisor/internal/common/errors"
	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/common/metrics"
	"menu-advisor/internal/common/observability"
	"menu-advisor/internal/engine/notify"
	"menu-advisor/internal/engine/pipeline"
	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/engine/views"
	"menu-advisor/internal/engine/voice"
	"menu-advisor/internal/models"
)

// LoadFailureMessage stays on screen until dismissed.
const LoadFailureMessage = "Error al cargar los datos. Por favor, recarga la página."

// ErrClosed is returned once Run has returned.
var ErrClosed = errors.New("session closed")

// CatalogLoader fetches the catalog.
type CatalogLoader interface {
	FetchCatalog(ctx context.Context) (models.Catalog, error)
}

type Session struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	notifier *notify.Channel
	interp   *voice.Interpreter
	surface  render.Surface
	loader   CatalogLoader
	obs      *observability.Observability
	reporter *apperrors.Reporter
	log      logger.Logger

	budgetMax int
	events    chan Event
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	pending   atomic.Int32
	workers   sync.WaitGroup
	ctx       context.Context
}

type Option func(*Session)

func WithCatalogLoader(l CatalogLoader) Option {
	return func(s *Session) { s.loader = l }
}

// WithBudgetMax sets the slider's upper bound. Zero means unbounded.
func WithBudgetMax(max int) Option {
	return func(s *Session) { s.budgetMax = max }
}

func WithObservability(obs *observability.Observability) Option {
	return func(s *Session) { s.obs = obs }
}

func WithInterpreter(i *voice.Interpreter) Option {
	return func(s *Session) { s.interp = i }
}

func New(st *store.Store, pl *pipeline.Pipeline, notifier *notify.Channel, surface render.Surface, log logger.Logger, opts ...Option) *Session {
	log = log.Component("session")
	s := &Session{
		store:    st,
		pipeline: pl,
		notifier: notifier,
		interp:   voice.NewInterpreter(),
		surface:  surface,
		reporter: apperrors.NewReporter(log),
		log:      log,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the store for read-only snapshots.
func (s *Session) Store() *store.Store {
	return s.store
}

// Dispatch enqueues ev. It returns false once the session has stopped.
func (s *Session) Dispatch(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Run processes events one at a time until ctx is cancelled. Outstanding
// fetches are cancelled through ctx and awaited before Run returns.
func (s *Session) Run(ctx context.Context) error {
	started := false
	s.startOnce.Do(func() { started = true })
	if !started {
		return errors.New("session already running")
	}

	s.ctx = ctx
	s.log.Info("session started", nil)
	s.emitViews()

	defer func() {
		s.closeOnce.Do(func() { close(s.done) })
		s.workers.Wait()
		s.notifier.Close()
		s.log.Info("session stopped", nil)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

// Flush waits until every event dispatched so far has been handled and no
// fetch is outstanding.
func (s *Session) Flush(ctx context.Context) error {
	for {
		done := make(chan struct{})
		if !s.Dispatch(barrier{done: done}) {
			return ErrClosed
		}
		select {
		case <-done:
		case <-s.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
		if s.pending.Load() == 0 {
			return nil
		}
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) handle(ev Event) {
	s.log.Debug("event", map[string]interface{}{"event": ev.eventName()})

	switch e := ev.(type) {
	case LoadCatalog:
		s.loadCatalog()
	case catalogLoaded:
		s.pending.Add(-1)
		if e.err != nil {
			s.reporter.Report("load_catalog", e.err)
			s.notifier.Persistent(LoadFailureMessage)
			return
		}
		s.installCatalog(e.catalog)
	case CatalogReplaced:
		s.installCatalog(e.Catalog)
	case SelectCategory:
		if s.store.SetCategory(e.Category) {
			s.emitViews()
		}
	case ChangeBudget:
		if s.store.SetBudget(s.clampBudget(e.Budget)) {
			s.emitViews()
		}
	case ToggleCultural:
		s.store.ToggleCultural(e.Value)
		s.emitViews()
	case ToggleNutritional:
		s.store.ToggleNutritional(e.Tag)
		s.emitViews()
	case SelectMood:
		s.store.SetMood(e.Mood)
		s.emitViews()
	case SubmitPreferences:
		_ = s.submit()
	case recommendationResolved:
		s.pending.Add(-1)
		if s.pipeline.Resolve(e.generation, e.set, e.err) {
			s.emitViews()
		}
	case ResetFilters:
		s.pipeline.Reset()
		s.emitViews()
	case Transcript:
		s.transcript(e.Text)
	case DismissNotification:
		s.notifier.Dismiss(e.ID)
	case barrier:
		close(e.done)
	default:
		s.log.Warn("unknown event", map[string]interface{}{"event": ev.eventName()})
	}
}

func (s *Session) loadCatalog() {
	if s.loader == nil {
		s.log.Warn("no catalog loader configured", nil)
		return
	}
	s.goFetch(func(ctx context.Context) Event {
		catalog, err := s.loader.FetchCatalog(ctx)
		return catalogLoaded{catalog: catalog, err: err}
	})
}

func (s *Session) installCatalog(catalog models.Catalog) {
	s.pipeline.Load(catalog)
	s.log.Info("catalog installed", map[string]interface{}{"dishes": len(catalog)})
	s.emitViews()
}

// submit starts a request. A submit while Loading is ignored; the surface is
// expected to have disabled the trigger.
func (s *Session) submit() error {
	ticket, err := s.pipeline.Begin(s.store.Request())
	if err != nil {
		if errors.Is(err, pipeline.ErrRequestInFlight) {
			s.log.Debug("submit ignored while loading", nil)
			return err
		}
		stdErr := s.reporter.Report("submit", err)
		s.notifier.Error(stdErr.Message)
		return err
	}

	s.goFetch(func(ctx context.Context) Event {
		set, err := s.pipeline.Fetch(ctx, ticket)
		return recommendationResolved{generation: ticket.Generation, set: set, err: err}
	})
	return nil
}

func (s *Session) goFetch(fetch func(ctx context.Context) Event) {
	s.pending.Add(1)
	s.workers.Add(1)
	ctx := s.ctx
	go func() {
		defer s.workers.Done()
		ev := fetch(ctx)
		if !s.Dispatch(ev) {
			s.pending.Add(-1)
		}
	}()
}

func (s *Session) transcript(text string) {
	result := s.interp.Interpret(text)
	metrics.VoiceCommands.WithLabelValues(result.Rule).Inc()
	s.obs.RecordVoiceRule(s.ctx, result.Rule)

	s.log.Info("voice command", map[string]interface{}{
		"transcript": result.Transcript,
		"rule":       result.Rule,
		"action":     result.Action.Kind.String(),
	})

	if err := voice.Apply(result.Action, voiceTarget{s}); err != nil && !errors.Is(err, pipeline.ErrRequestInFlight) {
		s.log.Debug("voice submit failed", map[string]interface{}{"error": err})
	}
	if result.Action.Kind == voice.ActionToggleCultural || result.Action.Kind == voice.ActionSetMood {
		s.emitViews()
	}
	s.notifier.Voice(result.Feedback())
}

func (s *Session) clampBudget(budget int) int {
	if budget < 0 {
		return 0
	}
	if s.budgetMax > 0 && budget > s.budgetMax {
		return s.budgetMax
	}
	return budget
}

// emitViews recomputes the derived view and sends menu, stats and budget.
func (s *Session) emitViews() {
	state := s.store.Snapshot()
	view := views.Compute(state)

	s.surface.Render(render.Instruction{Kind: render.ShowMenu, Dishes: view.Menu})
	s.surface.Render(render.Instruction{Kind: render.ShowStats, Stats: view.Stats, Label: view.CountLabel})
	s.surface.Render(render.Instruction{Kind: render.ShowBudget, Label: view.AvailabilityLabel, Budget: state.Filter.Budget})
}

// voiceTarget applies voice actions directly; the caller is already on the
// loop goroutine.
type voiceTarget struct {
	s *Session
}

func (t voiceTarget) ToggleCultural(value string) bool { return t.s.store.ToggleCultural(value) }
func (t voiceTarget) SetMood(mood string)              { t.s.store.SetMood(mood) }
func (t voiceTarget) Submit() error                    { return t.s.submit() }

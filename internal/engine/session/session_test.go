package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/engine/highlight"
	"menu-advisor/internal/engine/notify"
	"menu-advisor/internal/engine/pipeline"
	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLoader struct {
	catalog models.Catalog
	err     error
}

func (f *fakeLoader) FetchCatalog(ctx context.Context) (models.Catalog, error) {
	return f.catalog, f.err
}

// gatedRecommender blocks until release is closed or ctx ends.
type gatedRecommender struct {
	mu      sync.Mutex
	set     models.RecommendationSet
	err     error
	release chan struct{}
	calls   []models.PreferenceRequest
}

func (g *gatedRecommender) Recommend(ctx context.Context, req models.PreferenceRequest) (models.RecommendationSet, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	release := g.release
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set, g.err
}

func (g *gatedRecommender) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type harness struct {
	session  *Session
	store    *store.Store
	recorder *render.Recorder
	rec      *gatedRecommender
	loader   *fakeLoader
	notifier *notify.Channel
	cancel   context.CancelFunc
	errc     chan error
	stopOnce sync.Once
}

func testCatalog() models.Catalog {
	return models.Catalog{
		{Name: "Lomo Saltado", Category: "criolla", Price: 25, PrepMinutes: models.IntPtr(30)},
		{Name: "Ceviche", Category: "marina", Price: 30, PrepMinutes: models.IntPtr(15)},
	}
}

func startHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)
	st := store.New()
	recorder := render.NewRecorder()
	rec := &gatedRecommender{}
	loader := &fakeLoader{catalog: testCatalog()}
	notifier := notify.NewChannel(recorder, log, notify.WithDurations(time.Hour, time.Hour))
	pl := pipeline.New(st, highlight.NewReconciler(recorder, log), recorder, rec, log)
	s := New(st, pl, notifier, recorder, log, WithCatalogLoader(loader), WithBudgetMax(100))

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		session: s, store: st, recorder: recorder, rec: rec, loader: loader,
		notifier: notifier, cancel: cancel, errc: make(chan error, 1),
	}
	go func() { h.errc <- s.Run(ctx) }()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.stopOnce.Do(func() {
		h.cancel()
		<-h.errc
	})
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.session.Flush(ctx))
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	require.True(t, h.session.Dispatch(LoadCatalog{}))
	h.flush(t)
	h.recorder.Reset()
}

// ==========================
// Catalog loading
// ==========================

func TestSession_LoadCatalogEmitsViews(t *testing.T) {
	h := startHarness(t)
	require.True(t, h.session.Dispatch(LoadCatalog{}))
	h.flush(t)

	menu, ok := h.recorder.Last(render.ShowMenu)
	require.True(t, ok)
	assert.Len(t, menu.Dishes, 2)

	stats, _ := h.recorder.Last(render.ShowStats)
	assert.Equal(t, 2, stats.Stats.Count)
	assert.Equal(t, 23, stats.Stats.AvgPrepMinutes)
	assert.Equal(t, "2 platillos", stats.Label)

	budget, _ := h.recorder.Last(render.ShowBudget)
	assert.Equal(t, "2 platillos disponibles", budget.Label)
	assert.Equal(t, 50, budget.Budget)
}

func TestSession_LoadFailureIsPersistent(t *testing.T) {
	h := startHarness(t)
	h.loader.err = errors.New("status 503")

	require.True(t, h.session.Dispatch(LoadCatalog{}))
	h.flush(t)

	shown, ok := h.recorder.Last(render.ShowNotification)
	require.True(t, ok)
	assert.Equal(t, LoadFailureMessage, shown.Notification.Text)
	assert.Equal(t, render.NotificationError, shown.Notification.Kind)
	assert.Len(t, h.notifier.Active(), 1)
	assert.Empty(t, h.store.Snapshot().Catalog)

	require.True(t, h.session.Dispatch(DismissNotification{ID: shown.Notification.ID}))
	h.flush(t)
	assert.Empty(t, h.notifier.Active())
}

func TestSession_CatalogReplaced(t *testing.T) {
	h := startHarness(t)
	h.load(t)

	h.session.Dispatch(CatalogReplaced{Catalog: models.Catalog{{Name: "Causa", Category: "entradas", Price: 12}}})
	h.flush(t)

	menu, _ := h.recorder.Last(render.ShowMenu)
	require.Len(t, menu.Dishes, 1)
	assert.Equal(t, "Causa", menu.Dishes[0].Name)
}

// ==========================
// Filters
// ==========================

func TestSession_BudgetChangeUpdatesAvailability(t *testing.T) {
	h := startHarness(t)
	h.load(t)

	h.session.Dispatch(ChangeBudget{Budget: 28})
	h.flush(t)

	assert.Equal(t, []render.Kind{render.ShowMenu, render.ShowStats, render.ShowBudget}, h.recorder.Kinds())
	budget, _ := h.recorder.Last(render.ShowBudget)
	assert.Equal(t, "1 platillo disponible", budget.Label)
	assert.Len(t, h.recorder.OfKind(render.ShowMenu)[0].Dishes, 2, "budget does not filter the menu grid")
}

func TestSession_FilterEventsAreIdempotent(t *testing.T) {
	h := startHarness(t)
	h.load(t)

	h.session.Dispatch(SelectCategory{Category: "marina"})
	h.session.Dispatch(SelectCategory{Category: "marina"})
	h.session.Dispatch(ChangeBudget{Budget: 500})
	h.session.Dispatch(ChangeBudget{Budget: 100})
	h.flush(t)

	assert.Len(t, h.recorder.OfKind(render.ShowMenu), 2)
	menu, _ := h.recorder.Last(render.ShowMenu)
	require.Len(t, menu.Dishes, 1)
	assert.Equal(t, "Ceviche", menu.Dishes[0].Name)
	assert.Equal(t, 100, h.store.Filter().Budget)
}

// ==========================
// Recommendations
// ==========================

func TestSession_SubmitHighlightsResults(t *testing.T) {
	h := startHarness(t)
	h.load(t)
	h.rec.set = models.RecommendationSet{{Name: "Ceviche", Category: "marina", Price: 30}}

	h.session.Dispatch(SelectMood{Mood: models.MoodEnergy})
	h.session.Dispatch(ChangeBudget{Budget: 40})
	h.session.Dispatch(SubmitPreferences{})
	h.flush(t)

	require.Equal(t, 1, h.rec.callCount())
	req := h.rec.calls[0]
	assert.Equal(t, 40, req.Budget)
	require.NotNil(t, req.Mood)
	assert.Equal(t, models.MoodEnergy, *req.Mood)

	results, ok := h.recorder.Last(render.ShowResults)
	require.True(t, ok)
	assert.Equal(t, "1 platillo encontrado", results.Label)
	highlighted, ok := h.recorder.Last(render.ApplyHighlight)
	require.True(t, ok)
	assert.Equal(t, "Ceviche", highlighted.Name)
}

func TestSession_SubmitWhileLoadingIsIgnored(t *testing.T) {
	h := startHarness(t)
	h.load(t)
	h.rec.release = make(chan struct{})
	h.rec.set = models.RecommendationSet{{Name: "Ceviche"}}

	h.session.Dispatch(SubmitPreferences{})
	h.session.Dispatch(SubmitPreferences{})
	require.Eventually(t, func() bool { return h.rec.callCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, models.PhaseLoading, h.store.Lifecycle().Phase)
	assert.Len(t, h.recorder.OfKind(render.ShowLoading), 1)

	close(h.rec.release)
	h.flush(t)
	assert.Equal(t, 1, h.rec.callCount())
	assert.Equal(t, models.PhaseSuccess, h.store.Lifecycle().Phase)
}

func TestSession_ResetWhileLoadingDropsResponse(t *testing.T) {
	h := startHarness(t)
	h.load(t)
	h.rec.release = make(chan struct{})
	h.rec.set = models.RecommendationSet{{Name: "Ceviche"}}

	h.session.Dispatch(SubmitPreferences{})
	require.Eventually(t, func() bool { return h.rec.callCount() == 1 }, time.Second, 5*time.Millisecond)
	h.session.Dispatch(ResetFilters{})

	close(h.rec.release)
	h.flush(t)

	assert.Empty(t, h.recorder.OfKind(render.ShowResults))
	assert.Empty(t, h.store.Recommendations())
	assert.Equal(t, models.PhaseIdle, h.store.Lifecycle().Phase)
}

func TestSession_ResetRestoresDefaults(t *testing.T) {
	h := startHarness(t)
	h.load(t)
	h.rec.set = models.RecommendationSet{{Name: "Ceviche"}}

	h.session.Dispatch(SelectCategory{Category: "marina"})
	h.session.Dispatch(ChangeBudget{Budget: 10})
	h.session.Dispatch(ToggleCultural{Value: models.CulturalNoPork})
	h.session.Dispatch(ToggleNutritional{Tag: models.NutritionHighProtein})
	h.session.Dispatch(SubmitPreferences{})
	h.flush(t)
	require.NotEmpty(t, h.store.Recommendations())
	h.recorder.Reset()

	h.session.Dispatch(ResetFilters{})
	h.flush(t)

	state := h.store.Snapshot()
	assert.Equal(t, models.DefaultFilterState(), state.Filter)
	assert.Empty(t, state.Recommendations)
	assert.Empty(t, state.Form.Cultural)
	assert.Empty(t, state.Form.Nutritional)
	assert.Equal(t, []render.Kind{
		render.ClearHighlight, render.ClearResults,
		render.ShowMenu, render.ShowStats, render.ShowBudget,
	}, h.recorder.Kinds())
}

// ==========================
// Voice
// ==========================

func TestSession_TranscriptTogglesCultural(t *testing.T) {
	h := startHarness(t)
	h.load(t)

	h.session.Dispatch(Transcript{Text: "Quiero algo vegetariano por favor"})
	h.flush(t)
	assert.True(t, h.store.Snapshot().Form.Cultural[models.CulturalVegetarian])

	feedback, ok := h.recorder.Last(render.ShowNotification)
	require.True(t, ok)
	assert.Equal(t, `Comando reconocido: "quiero algo vegetariano por favor"`, feedback.Notification.Text)
	assert.Equal(t, render.NotificationVoice, feedback.Notification.Kind)

	h.session.Dispatch(Transcript{Text: "quiero algo vegetariano por favor"})
	h.flush(t)
	assert.False(t, h.store.Snapshot().Form.Cultural[models.CulturalVegetarian])
}

func TestSession_UnmatchedTranscriptOnlyGivesFeedback(t *testing.T) {
	h := startHarness(t)
	h.load(t)
	before := h.store.Snapshot()

	h.session.Dispatch(Transcript{Text: "buenas noches"})
	h.flush(t)

	assert.Equal(t, before, h.store.Snapshot())
	assert.Equal(t, []render.Kind{render.ShowNotification}, h.recorder.Kinds())
}

func TestSession_VoiceSubmitAndMood(t *testing.T) {
	h := startHarness(t)
	h.load(t)
	h.rec.set = models.RecommendationSet{}

	h.session.Dispatch(Transcript{Text: "algo con energía"})
	h.session.Dispatch(Transcript{Text: "recomiéndame algo"})
	h.flush(t)

	require.Equal(t, 1, h.rec.callCount())
	require.NotNil(t, h.rec.calls[0].Mood)
	assert.Equal(t, models.MoodEnergy, *h.rec.calls[0].Mood)

	noResults, ok := h.recorder.Last(render.ShowNoResults)
	require.True(t, ok)
	assert.Equal(t, pipeline.EmptyMessage, noResults.Message)
}

// ==========================
// Lifecycle
// ==========================

func TestSession_StopCancelsFetch(t *testing.T) {
	h := startHarness(t)
	h.load(t)
	h.rec.release = make(chan struct{})

	h.session.Dispatch(SubmitPreferences{})
	require.Eventually(t, func() bool { return h.rec.callCount() == 1 }, time.Second, 5*time.Millisecond)

	h.stop()
	assert.False(t, h.session.Dispatch(ResetFilters{}))
	assert.ErrorIs(t, h.session.Flush(context.Background()), ErrClosed)
}

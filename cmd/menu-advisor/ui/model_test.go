package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/session"
	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/engine/views"
	"menu-advisor/internal/models"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []session.Event
}

func (d *recordingDispatcher) Dispatch(ev session.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return true
}

func (d *recordingDispatcher) last(t *testing.T) session.Event {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.events)
	return d.events[len(d.events)-1]
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func testCatalog() models.Catalog {
	return models.Catalog{
		{Name: "Tacos al Pastor", Category: "platos", Price: 45, PrepMinutes: models.IntPtr(25)},
		{Name: "Guacamole", Category: "entradas", Price: 35, PrepMinutes: models.IntPtr(10)},
		{Name: "Flan", Category: "postres", Price: 30},
	}
}

func newTestModel(t *testing.T) (Model, *recordingDispatcher, *store.Store) {
	t.Helper()
	st := store.New()
	st.Load(testCatalog())
	d := &recordingDispatcher{}
	m := NewModel(NewChannelSurface(8), d, st.Snapshot, WithBudgetStep(10), WithStyles(NewStyles(LightTheme())))
	return m, d, st
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_AppliesViewInstructions(t *testing.T) {
	m, _, _ := newTestModel(t)
	catalog := testCatalog()

	m = update(t, m, instructionMsg{Kind: render.ShowMenu, Dishes: catalog})
	m = update(t, m, instructionMsg{Kind: render.ShowStats, Stats: views.Stats{Count: 3, AvgPrepMinutes: 12}, Label: "3 platillos"})
	m = update(t, m, instructionMsg{Kind: render.ShowBudget, Budget: 50, Label: "3 platillos disponibles"})

	out := m.View()
	assert.Contains(t, out, "Tacos al Pastor")
	assert.Contains(t, out, "Guacamole")
	assert.Contains(t, out, "3 platillos · tiempo promedio 12 min")
	assert.Contains(t, out, "$50")
	assert.Contains(t, out, "3 platillos disponibles")
	assert.Equal(t, 50, m.budget)
}

func TestModel_ResultsLifecycle(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, instructionMsg{Kind: render.ShowLoading, Message: "Buscando recomendaciones..."})
	assert.True(t, m.loading)
	assert.Contains(t, m.View(), "Buscando recomendaciones...")

	m = update(t, m, instructionMsg{
		Kind:   render.ShowResults,
		Dishes: []models.Dish{{Name: "Guacamole", Price: 35}},
		Label:  "1 platillo encontrado",
	})
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "1 platillo encontrado")

	m = update(t, m, instructionMsg{Kind: render.ShowNoResults, Message: "Error al obtener recomendaciones.", IsError: true})
	assert.Len(t, m.results, 1)
	assert.True(t, m.emptyIsError)
	assert.Contains(t, m.View(), "Error al obtener recomendaciones.")

	m = update(t, m, instructionMsg{Kind: render.ClearResults})
	assert.Empty(t, m.emptyText)
	assert.Empty(t, m.results)
	assert.NotContains(t, m.View(), "Error al obtener recomendaciones.")
	assert.NotContains(t, m.View(), "1 platillo encontrado")
}

func TestModel_FailedRequestKeepsPreviousResults(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, instructionMsg{
		Kind:   render.ShowResults,
		Dishes: []models.Dish{{Name: "Guacamole", Price: 35}},
		Label:  "1 platillo encontrado",
	})
	m = update(t, m, instructionMsg{Kind: render.ShowLoading, Message: "Buscando recomendaciones..."})

	out := m.renderResults()
	assert.Contains(t, out, "Buscando recomendaciones...")
	assert.Contains(t, out, "Guacamole", "results stay visible while the next request loads")

	m = update(t, m, instructionMsg{Kind: render.ShowNoResults, Message: "Error al obtener recomendaciones.", IsError: true})

	out = m.renderResults()
	assert.Contains(t, out, "Error al obtener recomendaciones.")
	assert.Contains(t, out, "1 platillo encontrado")
	assert.Contains(t, out, "Guacamole")
	assert.Less(t, strings.Index(out, "Error al obtener"), strings.Index(out, "Guacamole"))
}

func TestModel_EmptyResultReplacesPreviousResults(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, instructionMsg{
		Kind:   render.ShowResults,
		Dishes: []models.Dish{{Name: "Guacamole", Price: 35}},
		Label:  "1 platillo encontrado",
	})
	m = update(t, m, instructionMsg{Kind: render.ShowLoading})
	m = update(t, m, instructionMsg{Kind: render.ShowNoResults, Message: "No encontramos platillos."})

	out := m.renderResults()
	assert.Contains(t, out, "No encontramos platillos.")
	assert.NotContains(t, out, "Guacamole")
}

func TestModel_Highlights(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, instructionMsg{Kind: render.ApplyHighlight, Name: "Flan"})
	assert.True(t, m.highlights["Flan"])

	m = update(t, m, instructionMsg{Kind: render.ClearHighlight, Name: "Flan"})
	assert.False(t, m.highlights["Flan"])
}

func TestModel_NotificationsAndDismissKey(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = update(t, m, instructionMsg{Kind: render.ShowNotification, Notification: render.Notification{ID: "a", Text: "primero", Kind: render.NotificationVoice}})
	m = update(t, m, instructionMsg{Kind: render.ShowNotification, Notification: render.Notification{ID: "b", Text: "segundo", Kind: render.NotificationError}})
	assert.Contains(t, m.View(), "segundo")

	m = update(t, m, keyRunes("x"))
	assert.Equal(t, session.DismissNotification{ID: "b"}, d.last(t))

	m = update(t, m, instructionMsg{Kind: render.DismissNotification, Notification: render.Notification{ID: "b"}})
	require.Len(t, m.notifications, 1)
	assert.Equal(t, "a", m.notifications[0].ID)
}

func TestModel_KeyBindings(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want session.Event
	}{
		{name: "budget up", msg: keyRunes("+"), want: session.ChangeBudget{Budget: 60}},
		{name: "budget down", msg: keyRunes("-"), want: session.ChangeBudget{Budget: 40}},
		{name: "first cultural", msg: keyRunes("1"), want: session.ToggleCultural{Value: models.CulturalVegetarian}},
		{name: "last cultural", msg: keyRunes("4"), want: session.ToggleCultural{Value: models.CulturalNoSeafood}},
		{name: "first nutritional", msg: keyRunes("5"), want: session.ToggleNutritional{Tag: models.NutritionLowFat}},
		{name: "mood from none", msg: keyRunes("m"), want: session.SelectMood{Mood: models.MoodLight}},
		{name: "next category", msg: tea.KeyMsg{Type: tea.KeyRight}, want: session.SelectCategory{Category: "platos"}},
		{name: "previous category wraps", msg: tea.KeyMsg{Type: tea.KeyLeft}, want: session.SelectCategory{Category: "postres"}},
		{name: "submit", msg: tea.KeyMsg{Type: tea.KeyEnter}, want: session.SubmitPreferences{}},
		{name: "reset", msg: keyRunes("r"), want: session.ResetFilters{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, d, _ := newTestModel(t)
			m = update(t, m, instructionMsg{Kind: render.ShowBudget, Budget: 50})
			update(t, m, tt.msg)
			assert.Equal(t, tt.want, d.last(t))
		})
	}
}

func TestModel_MoodCyclesBackToNone(t *testing.T) {
	m, d, st := newTestModel(t)
	st.SetMood(models.MoodEnergy)

	update(t, m, keyRunes("m"))
	assert.Equal(t, session.SelectMood{Mood: ""}, d.last(t))
}

func TestModel_SubmitIgnoredWhileLoading(t *testing.T) {
	m, d, _ := newTestModel(t)
	m = update(t, m, instructionMsg{Kind: render.ShowLoading})

	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 0, d.count())
}

func TestModel_VoiceInput(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = update(t, m, keyRunes("v"))
	require.True(t, m.listening)

	m = update(t, m, keyRunes("algo vegano"))
	assert.Equal(t, 0, d.count(), "typing must not dispatch")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.listening)
	assert.Equal(t, session.Transcript{Text: "algo vegano"}, d.last(t))
}

func TestModel_VoiceInputCancel(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = update(t, m, keyRunes("v"))
	m = update(t, m, keyRunes("hola"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.listening)
	assert.Equal(t, 0, d.count())
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestChannelSurface(t *testing.T) {
	s := NewChannelSurface(1)
	s.Render(render.Instruction{Kind: render.ClearResults})

	msg := s.Next()()
	assert.Equal(t, instructionMsg{Kind: render.ClearResults}, msg)

	s.Close()
	s.Close()
	s.Render(render.Instruction{Kind: render.ShowMenu})
	s.Render(render.Instruction{Kind: render.ShowMenu})
	// a buffered instruction may still be delivered; after that Next yields nil
	for i := 0; i < 2; i++ {
		if s.Next()() == nil {
			return
		}
	}
	t.Fatal("Next kept delivering after Close")
}

func TestChannelSurface_RenderNeverBlocks(t *testing.T) {
	s := NewChannelSurface(1)
	defer s.Close()

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for i := 0; i < 500; i++ {
			s.Render(render.Instruction{Kind: render.ShowBudget, Budget: i})
		}
	}()

	select {
	case <-rendered:
	case <-time.After(2 * time.Second):
		t.Fatal("Render blocked with nobody reading")
	}

	for i := 0; i < 500; i++ {
		msg, ok := s.Next()().(instructionMsg)
		require.True(t, ok)
		require.Equal(t, i, msg.Budget, "instructions arrive in render order")
	}
}

func TestChannelSurface_NextWaitsForRender(t *testing.T) {
	s := NewChannelSurface(4)
	defer s.Close()

	got := make(chan tea.Msg, 1)
	go func() { got <- s.Next()() }()

	time.Sleep(20 * time.Millisecond)
	s.Render(render.Instruction{Kind: render.ShowLoading})

	select {
	case msg := <-got:
		assert.Equal(t, instructionMsg{Kind: render.ShowLoading}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not wake up")
	}
}

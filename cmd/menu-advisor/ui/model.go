package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/session"
	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/engine/views"
	"menu-advisor/internal/models"
)

// Dispatcher accepts user events; *session.Session implements it.
type Dispatcher interface {
	Dispatch(ev session.Event) bool
}

// Key order for the 1-4 and 5-8 toggles.
var (
	culturalKeys = []string{
		models.CulturalVegetarian,
		models.CulturalVegan,
		models.CulturalNoPork,
		models.CulturalNoSeafood,
	}
	nutritionalKeys = []string{
		models.NutritionLowFat,
		models.NutritionHighProtein,
		models.NutritionGlutenFree,
		models.NutritionVegan,
	}
	moodCycle = []string{"", models.MoodLight, models.MoodEnergy}
)

const helpText = "←/→ categoría · +/- presupuesto · 1-4 cultural · 5-8 nutricional · m ánimo · enter recomendar · r reiniciar · v voz · x cerrar aviso · q salir"

type Option func(*Model)

func WithBudgetStep(step int) Option {
	return func(m *Model) {
		if step > 0 {
			m.budgetStep = step
		}
	}
}

func WithStyles(s Styles) Option {
	return func(m *Model) { m.styles = s }
}

// Model renders whatever the session sends through the surface and turns
// keystrokes into session events. Form selections are read from store
// snapshots because the session has no instruction for them.
type Model struct {
	surface    *ChannelSurface
	dispatch   Dispatcher
	snapshot   func() store.State
	styles     Styles
	budgetStep int

	spinner   spinner.Model
	input     textinput.Model
	viewport  viewport.Model
	width     int
	height    int
	listening bool

	menu          []models.Dish
	stats         views.Stats
	countLabel    string
	budget        int
	availability  string
	loading       bool
	loadingText   string
	results       []models.Dish
	resultsLabel  string
	emptyText     string
	emptyIsError  bool
	highlights    map[string]bool
	notifications []render.Notification
}

func NewModel(surface *ChannelSurface, dispatch Dispatcher, snapshot func() store.State, opts ...Option) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "di un comando, p. ej. \"quiero algo vegetariano\""
	ti.CharLimit = 200

	m := Model{
		surface:    surface,
		dispatch:   dispatch,
		snapshot:   snapshot,
		styles:     DefaultStyles(),
		budgetStep: 5,
		spinner:    sp,
		input:      ti,
		viewport:   viewport.New(80, 12),
		highlights: map[string]bool{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.spinner.Style = m.styles.Spinner
	m.input.PromptStyle = m.styles.Prompt
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.surface.Next())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case instructionMsg:
		m.apply(render.Instruction(msg))
		return m, m.surface.Next()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-18, 5)
		m.viewport.SetContent(m.renderMenu())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.listening {
			return m.updateVoice(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		m.cycleCategory(-1)
	case "right", "l":
		m.cycleCategory(1)
	case "+", "=":
		m.send(session.ChangeBudget{Budget: m.budget + m.budgetStep})
	case "-", "_":
		m.send(session.ChangeBudget{Budget: m.budget - m.budgetStep})
	case "1", "2", "3", "4":
		m.send(session.ToggleCultural{Value: culturalKeys[key[0]-'1']})
	case "5", "6", "7", "8":
		m.send(session.ToggleNutritional{Tag: nutritionalKeys[key[0]-'5']})
	case "m":
		m.cycleMood()
	case "enter":
		// the trigger is disabled while a request is in flight
		if !m.loading {
			m.send(session.SubmitPreferences{})
		}
	case "r":
		m.send(session.ResetFilters{})
	case "v":
		m.listening = true
		m.input.Reset()
		return m, m.input.Focus()
	case "x":
		if n := len(m.notifications); n > 0 {
			m.send(session.DismissNotification{ID: m.notifications[n-1].ID})
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateVoice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.listening = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case tea.KeyEnter:
		text := m.input.Value()
		m.listening = false
		m.input.Blur()
		m.input.Reset()
		if strings.TrimSpace(text) != "" {
			m.send(session.Transcript{Text: text})
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) send(ev session.Event) {
	m.dispatch.Dispatch(ev)
}

func (m *Model) cycleCategory(delta int) {
	state := m.snapshot()
	categories := append([]string{models.CategoryAll}, state.Catalog.Categories()...)
	idx := 0
	for i, c := range categories {
		if c == state.Filter.Category {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(categories)) % len(categories)
	m.send(session.SelectCategory{Category: categories[idx]})
}

func (m *Model) cycleMood() {
	current := m.snapshot().Form.Mood
	idx := 0
	for i, mood := range moodCycle {
		if mood == current {
			idx = i
			break
		}
	}
	m.send(session.SelectMood{Mood: moodCycle[(idx+1)%len(moodCycle)]})
}

// apply folds one instruction into the model.
func (m *Model) apply(in render.Instruction) {
	switch in.Kind {
	case render.ShowMenu:
		m.menu = in.Dishes
	case render.ShowStats:
		m.stats = in.Stats
		m.countLabel = in.Label
	case render.ShowBudget:
		m.budget = in.Budget
		m.availability = in.Label
	case render.ShowLoading:
		m.loading = true
		m.loadingText = in.Message
		m.emptyText = ""
	case render.ShowResults:
		m.loading = false
		m.results = in.Dishes
		m.resultsLabel = in.Label
		m.emptyText = ""
	case render.ShowNoResults:
		m.loading = false
		m.emptyText = in.Message
		m.emptyIsError = in.IsError
		// a failed request leaves the previous results on screen
		if !in.IsError {
			m.results = nil
			m.resultsLabel = ""
		}
	case render.ClearResults:
		m.loading = false
		m.results = nil
		m.resultsLabel = ""
		m.emptyText = ""
	case render.ApplyHighlight:
		m.highlights[in.Name] = true
	case render.ClearHighlight:
		delete(m.highlights, in.Name)
	case render.ShowNotification:
		m.notifications = append(m.notifications, in.Notification)
	case render.DismissNotification:
		var kept []render.Notification
		for _, n := range m.notifications {
			if n.ID != in.Notification.ID {
				kept = append(kept, n)
			}
		}
		m.notifications = kept
	}
	m.viewport.SetContent(m.renderMenu())
}

func (m Model) View() string {
	state := m.snapshot()
	s := m.styles

	var b strings.Builder
	b.WriteString(s.Header.Render("Menú · " + state.Filter.Category))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Presupuesto %s · %s\n", s.Price.Render(fmt.Sprintf("$%d", m.budget)), m.availability))
	b.WriteString(m.renderForm(state.Form))
	b.WriteString(s.Panel.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(fmt.Sprintf("%s · tiempo promedio %d min", m.countLabel, m.stats.AvgPrepMinutes)))
	b.WriteString("\n\n")
	b.WriteString(m.renderResults())

	for _, n := range m.notifications {
		style := s.Voice
		if n.Kind == render.NotificationError {
			style = s.Error
		}
		b.WriteString(style.Render(n.Text))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.listening {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(s.Footer.Render(helpText))
	}
	return b.String()
}

func (m Model) renderForm(form models.PreferenceForm) string {
	s := m.styles
	box := func(label string, on bool, key int) string {
		if on {
			return s.Checked.Render(fmt.Sprintf("[x] %d %s", key, label))
		}
		return s.Body.Render(fmt.Sprintf("[ ] %d %s", key, label))
	}

	cultural := make([]string, len(culturalKeys))
	for i, v := range culturalKeys {
		cultural[i] = box(v, form.Cultural[v], i+1)
	}
	nutritional := make([]string, len(nutritionalKeys))
	for i, v := range nutritionalKeys {
		nutritional[i] = box(v, form.Nutritional[v], i+5)
	}
	mood := form.Mood
	if mood == "" {
		mood = "-"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(cultural, "  "),
		strings.Join(nutritional, "  "),
		"Ánimo: "+s.Checked.Render(mood),
	) + "\n"
}

func (m Model) renderMenu() string {
	s := m.styles
	lines := make([]string, 0, len(m.menu))
	for _, d := range m.menu {
		name := fmt.Sprintf("%-28s", d.Name)
		if m.highlights[d.Name] {
			name = s.Highlighted.Render(name)
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s",
			name,
			s.Price.Render(fmt.Sprintf("$%7.2f", d.Price)),
			s.Muted.Render(fmt.Sprintf("%s · %d min", d.Category, d.PrepMinutesOrZero())),
		))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderResults() string {
	s := m.styles
	var b strings.Builder
	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + m.loadingText + "\n")
	case m.emptyText != "" && m.emptyIsError:
		b.WriteString(s.Error.Render(m.emptyText) + "\n")
	case m.emptyText != "":
		b.WriteString(s.Muted.Render(m.emptyText) + "\n")
	}
	if len(m.results) > 0 {
		b.WriteString(s.Title.Render(m.resultsLabel))
		b.WriteString("\n")
		for _, d := range m.results {
			b.WriteString(fmt.Sprintf("  %s %s\n", d.Name, s.Price.Render(fmt.Sprintf("$%.2f", d.Price))))
		}
	}
	return b.String()
}

// Package render defines the instructions the engine sends to a presentation
// surface.
package render

import (
	"sync"

	"menu-advisor/internal/engine/views"
	"menu-advisor/internal/models"
)

type Kind int

const (
	ShowMenu Kind = iota
	ShowStats
	ShowBudget
	ShowLoading
	ShowResults
	ShowNoResults
	ClearResults
	ApplyHighlight
	ClearHighlight
	ShowNotification
	DismissNotification
)

var kindNames = [...]string{
	ShowMenu:            "show_menu",
	ShowStats:           "show_stats",
	ShowBudget:          "show_budget",
	ShowLoading:         "show_loading",
	ShowResults:         "show_results",
	ShowNoResults:       "show_no_results",
	ClearResults:        "clear_results",
	ApplyHighlight:      "apply_highlight",
	ClearHighlight:      "clear_highlight",
	ShowNotification:    "show_notification",
	DismissNotification: "dismiss_notification",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// NotificationKind distinguishes voice feedback from errors.
type NotificationKind string

const (
	NotificationVoice NotificationKind = "voice"
	NotificationError NotificationKind = "error"
)

// Notification is a user-visible message. A zero TTL means it stays until
// dismissed.
type Notification struct {
	ID   string
	Text string
	Kind NotificationKind
}

// Instruction is one render command. Only the fields relevant to Kind are set.
type Instruction struct {
	Kind         Kind
	Dishes       []models.Dish
	Stats        views.Stats
	Label        string
	Budget       int
	Message      string
	IsError      bool
	Name         string
	Notification Notification
}

// Surface consumes render instructions. Implementations must be safe for
// concurrent use: notification timers fire on their own goroutines.
type Surface interface {
	Render(Instruction)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Instruction)

func (f SurfaceFunc) Render(in Instruction) { f(in) }

// Fanout renders to every surface in order.
type Fanout []Surface

func (f Fanout) Render(in Instruction) {
	for _, s := range f {
		s.Render(in)
	}
}

// Recorder keeps every instruction it receives. It is the fake surface used
// throughout the engine tests.
type Recorder struct {
	mu           sync.Mutex
	instructions []Instruction
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Render(in Instruction) {
	r.mu.Lock()
	r.instructions = append(r.instructions, in)
	r.mu.Unlock()
}

// Instructions returns a copy of everything recorded so far.
func (r *Recorder) Instructions() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Instruction(nil), r.instructions...)
}

// Kinds returns the recorded kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.instructions))
	for i, in := range r.instructions {
		out[i] = in.Kind
	}
	return out
}

// OfKind returns the recorded instructions of one kind.
func (r *Recorder) OfKind(kind Kind) []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Instruction
	for _, in := range r.instructions {
		if in.Kind == kind {
			out = append(out, in)
		}
	}
	return out
}

// Last returns the most recent instruction of kind.
func (r *Recorder) Last(kind Kind) (Instruction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.instructions) - 1; i >= 0; i-- {
		if r.instructions[i].Kind == kind {
			return r.instructions[i], true
		}
	}
	return Instruction{}, false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.instructions = nil
	r.mu.Unlock()
}

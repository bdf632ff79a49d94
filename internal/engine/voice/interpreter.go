// Package voice maps speech transcripts to form actions through an ordered
// rule table. The first matching rule wins.
package voice

import (
	"fmt"
	"strings"

	"menu-advisor/internal/models"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionToggleCultural
	ActionSetMood
	ActionSubmit
)

func (k ActionKind) String() string {
	switch k {
	case ActionToggleCultural:
		return "toggle_cultural"
	case ActionSetMood:
		return "set_mood"
	case ActionSubmit:
		return "submit"
	default:
		return "none"
	}
}

// Action is what a transcript asks for. Value is the cultural preference or
// mood; it is empty for ActionSubmit and ActionNone.
type Action struct {
	Kind  ActionKind
	Value string
}

// Rule matches when the transcript contains any of Patterns.
type Rule struct {
	Name     string
	Patterns []string
	Action   Action
}

func (r Rule) matches(transcript string) bool {
	for _, p := range r.Patterns {
		if strings.Contains(transcript, p) {
			return true
		}
	}
	return false
}

var defaultRules = []Rule{
	{Name: "vegetarian", Patterns: []string{"vegetariano", "vegetariana"}, Action: Action{Kind: ActionToggleCultural, Value: models.CulturalVegetarian}},
	{Name: "vegan", Patterns: []string{"vegano", "vegana"}, Action: Action{Kind: ActionToggleCultural, Value: models.CulturalVegan}},
	{Name: "no_pork", Patterns: []string{"sin cerdo"}, Action: Action{Kind: ActionToggleCultural, Value: models.CulturalNoPork}},
	{Name: "no_seafood", Patterns: []string{"sin mariscos"}, Action: Action{Kind: ActionToggleCultural, Value: models.CulturalNoSeafood}},
	{Name: "light", Patterns: []string{"ligero", "ligera"}, Action: Action{Kind: ActionSetMood, Value: models.MoodLight}},
	{Name: "energy", Patterns: []string{"energía", "energia"}, Action: Action{Kind: ActionSetMood, Value: models.MoodEnergy}},
	{Name: "recommend", Patterns: []string{"recomienda", "recomiéndame"}, Action: Action{Kind: ActionSubmit}},
}

// Rules returns a copy of the built-in table in priority order.
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		r.Patterns = append([]string(nil), r.Patterns...)
		out[i] = r
	}
	return out
}

// NoMatch is the rule name reported when nothing matched.
const NoMatch = "none"

// Result is the outcome of interpreting one transcript.
type Result struct {
	Transcript string // lower-cased
	Rule       string
	Action     Action
}

// Matched reports whether a rule fired.
func (r Result) Matched() bool {
	return r.Action.Kind != ActionNone
}

// Feedback is the text shown to the user for every transcript, matched or not.
func (r Result) Feedback() string {
	return FeedbackText(r.Transcript)
}

func FeedbackText(transcript string) string {
	return fmt.Sprintf("Comando reconocido: \"%s\"", transcript)
}

type Interpreter struct {
	rules []Rule
}

// NewInterpreter uses the built-in table when rules is empty.
func NewInterpreter(rules ...Rule) *Interpreter {
	if len(rules) == 0 {
		rules = Rules()
	}
	return &Interpreter{rules: rules}
}

// Interpret lower-cases the transcript and returns the first matching rule's
// action, or ActionNone.
func (i *Interpreter) Interpret(transcript string) Result {
	lowered := strings.ToLower(strings.TrimSpace(transcript))
	for _, r := range i.rules {
		if r.matches(lowered) {
			return Result{Transcript: lowered, Rule: r.Name, Action: r.Action}
		}
	}
	return Result{Transcript: lowered, Rule: NoMatch, Action: Action{Kind: ActionNone}}
}

// Target is what actions are applied to.
type Target interface {
	ToggleCultural(value string) bool
	SetMood(mood string)
	Submit() error
}

// Apply performs the action against target. Only ActionSubmit can fail.
func Apply(action Action, target Target) error {
	switch action.Kind {
	case ActionToggleCultural:
		target.ToggleCultural(action.Value)
	case ActionSetMood:
		target.SetMood(action.Value)
	case ActionSubmit:
		return target.Submit()
	}
	return nil
}

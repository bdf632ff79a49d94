// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"menu-advisor/internal/common/validation"
	"menu-advisor/internal/engine/voice"
	"menu-advisor/internal/models"
)

// RuleRegistry is the on-disk form of a voice command table.
type RuleRegistry struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Rules       []RuleEntry `json:"rules"`
}

// RuleEntry is one rule. Action is one of the voice.ActionKind names
// ("toggle_cultural", "set_mood", "submit").
type RuleEntry struct {
	Name     string   `json:"name"`
	Patterns []string `json:"patterns"`
	Action   string   `json:"action"`
	Value    string   `json:"value,omitempty"`
}

var ruleSchema = validation.MustCompile("rule_registry", `{
	"type": "object",
	"required": ["rules"],
	"properties": {
		"version":     {"type": "string"},
		"lastUpdated": {"type": "string"},
		"rules": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "patterns", "action"],
				"properties": {
					"name":     {"type": "string", "minLength": 1},
					"patterns": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
					"action":   {"enum": ["toggle_cultural", "set_mood", "submit"]},
					"value":    {"type": "string"}
				}
			}
		}
	}
}`)

var (
	culturalValues = map[string]bool{
		models.CulturalVegetarian: true,
		models.CulturalVegan:      true,
		models.CulturalNoPork:     true,
		models.CulturalNoSeafood:  true,
	}
	moodValues = map[string]bool{
		models.MoodLight:  true,
		models.MoodEnergy: true,
	}
)

// LoadRegistry reads and validates a rule file.
func LoadRegistry(path string) (*RuleRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*RuleRegistry, error) {
	result := ruleSchema.ValidateBytes(data)
	if !result.Valid {
		return nil, fmt.Errorf("invalid rule registry: %s", result.Error())
	}

	var reg RuleRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode rule registry: %w", err)
	}
	for i, r := range reg.Rules {
		if err := checkValue(r); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
	}
	return &reg, nil
}

func checkValue(r RuleEntry) error {
	switch r.Action {
	case "toggle_cultural":
		if !culturalValues[r.Value] {
			return fmt.Errorf("unknown cultural preference %q", r.Value)
		}
	case "set_mood":
		if !moodValues[r.Value] {
			return fmt.Errorf("unknown mood %q", r.Value)
		}
	case "submit":
		if r.Value != "" {
			return fmt.Errorf("submit takes no value")
		}
	}
	return nil
}

// VoiceRules converts the registry into an interpreter table, keeping file
// order as priority order.
func (r *RuleRegistry) VoiceRules() []voice.Rule {
	out := make([]voice.Rule, 0, len(r.Rules))
	for _, e := range r.Rules {
		out = append(out, voice.Rule{
			Name:     e.Name,
			Patterns: append([]string(nil), e.Patterns...),
			Action:   voice.Action{Kind: actionKind(e.Action), Value: e.Value},
		})
	}
	return out
}

// FromRules is the inverse of VoiceRules; it is used to print the built-in table.
func FromRules(rules []voice.Rule) *RuleRegistry {
	reg := &RuleRegistry{Version: "builtin"}
	for _, r := range rules {
		reg.Rules = append(reg.Rules, RuleEntry{
			Name:     r.Name,
			Patterns: append([]string(nil), r.Patterns...),
			Action:   r.Action.Kind.String(),
			Value:    r.Action.Value,
		})
	}
	return reg
}

func actionKind(name string) voice.ActionKind {
	switch name {
	case "toggle_cultural":
		return voice.ActionToggleCultural
	case "set_mood":
		return voice.ActionSetMood
	case "submit":
		return voice.ActionSubmit
	}
	return voice.ActionNone
}

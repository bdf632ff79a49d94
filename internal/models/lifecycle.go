// internal/models/lifecycle.go
package models

// Phase is the state of the recommendation request lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Lifecycle is the most recent recommendation request state.
// Generation increases on every accepted submission.
type Lifecycle struct {
	Phase      Phase  `json:"phase"`
	Reason     string `json:"reason,omitempty"`
	Generation uint64 `json:"generation"`
}

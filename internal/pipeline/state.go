package pipeline

import "github.com/monsefu/resplan/internal/model"

// State is what a presenter should show for a plan request.
type State string

// Presentation states.
const (
	StateNoData   State = "no_data"
	StateFailed   State = "failed"
	StateDegraded State = "degraded"
	StateComplete State = "complete"
)

// StateOf classifies the outcome of a plan request.
func StateOf(p *model.Plan, err error) State {
	switch {
	case err != nil:
		return StateFailed
	case p == nil:
		return StateNoData
	case p.Degraded():
		return StateDegraded
	default:
		return StateComplete
	}
}

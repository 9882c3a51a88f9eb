package neural

import (
	"math"

	"github.com/pthm-cable/flappy/components"
)

// NumObservations is the size of the observation vector every policy is evaluated against.
const NumObservations = 3

// JumpThreshold is the policy output above which a bird jumps.
const JumpThreshold = 0.5

// Observation is the fixed input vector for a policy:
// bird y, distance to the gap top, distance to the gap bottom.
type Observation [NumObservations]float64

// Action is the discrete decision derived from a policy output.
type Action uint8

const (
	ActionNoOp Action = iota
	ActionJump
)

func (a Action) String() string {
	if a == ActionJump {
		return "jump"
	}
	return "noop"
}

// Policy is a black-box decision function supplied by the evolutionary driver.
// It returns a single scalar decision signal.
type Policy interface {
	Evaluate(obs Observation) (float64, error)
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc func(obs Observation) (float64, error)

// Evaluate calls f.
func (f PolicyFunc) Evaluate(obs Observation) (float64, error) {
	return f(obs)
}

// Observe builds the observation for a bird at height y looking at the lead pipe.
func Observe(y float64, lead components.Pipe) Observation {
	return Observation{
		y,
		math.Abs(y - lead.Height),
		math.Abs(y - lead.Bottom),
	}
}

// Decide maps a policy output to an action. Non-finite outputs never jump.
func Decide(output float64) Action {
	if math.IsNaN(output) || math.IsInf(output, 0) {
		return ActionNoOp
	}
	if output > JumpThreshold {
		return ActionJump
	}
	return ActionNoOp
}

// ToInputs returns the sensor values for a network: the observation followed by the bias.
func (o Observation) ToInputs() []float64 {
	return []float64{o[0], o[1], o[2], 1.0}
}

package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/flappy/neural"
)

// errInvalidOutput is reported for a policy output that is NaN or infinite.
var errInvalidOutput = errors.New("policy output is not finite")

// decide evaluates a policy and maps its output to an action. Any failure,
// including a panicking policy, yields ActionNoOp together with the error.
func decide(p neural.Policy, obs neural.Observation) (action neural.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action, err = neural.ActionNoOp, fmt.Errorf("policy panicked: %v", r)
		}
	}()

	out, err := p.Evaluate(obs)
	if err != nil {
		return neural.ActionNoOp, err
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return neural.ActionNoOp, fmt.Errorf("%w: %v", errInvalidOutput, out)
	}
	return neural.Decide(out), nil
}

package neural

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/flappy/components"
)

func TestObserve(t *testing.T) {
	lead := components.Pipe{X: 300, Height: 250, Bottom: 450}

	tests := []struct {
		name string
		y    float64
		want Observation
	}{
		{"inside gap", 350, Observation{350, 100, 100}},
		{"above gap", 100, Observation{100, 150, 350}},
		{"below gap", 600, Observation{600, 350, 150}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Observe(tt.y, lead); got != tt.want {
				t.Errorf("Observe(%v) = %v, want %v", tt.y, got, tt.want)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		output float64
		want   Action
	}{
		{0.0, ActionNoOp},
		{0.5, ActionNoOp},
		{0.5000001, ActionJump},
		{1.0, ActionJump},
		{-3, ActionNoOp},
		{math.NaN(), ActionNoOp},
		{math.Inf(1), ActionNoOp},
		{math.Inf(-1), ActionNoOp},
	}

	for _, tt := range tests {
		if got := Decide(tt.output); got != tt.want {
			t.Errorf("Decide(%v) = %v, want %v", tt.output, got, tt.want)
		}
	}
}

func TestPolicyFunc(t *testing.T) {
	var seen Observation
	p := PolicyFunc(func(obs Observation) (float64, error) {
		seen = obs
		return 0.9, nil
	})

	obs := Observation{1, 2, 3}
	out, err := p.Evaluate(obs)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out != 0.9 || seen != obs {
		t.Errorf("got output %v for %v", out, seen)
	}

	boom := errors.New("boom")
	failing := PolicyFunc(func(Observation) (float64, error) { return 0, boom })
	if _, err := failing.Evaluate(obs); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestObservationToInputs(t *testing.T) {
	in := Observation{5, 6, 7}.ToInputs()
	if len(in) != BrainInputs {
		t.Fatalf("expected %d inputs, got %d", BrainInputs, len(in))
	}
	if in[BrainInputs-1] != 1.0 {
		t.Errorf("expected bias 1.0, got %v", in[BrainInputs-1])
	}
}

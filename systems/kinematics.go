// Package systems contains the simulation rules: kinematics, collisions and the pipe stream.
package systems

import (
	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// Advance moves a bird one tick along its jump arc and returns the applied displacement.
//
// The displacement law is d = vel*t + accel*t², capped at MaxDisplacement, with an extra
// UpwardBoost when moving up. Tilt is cosmetic and has no effect on the arc.
func Advance(pos *components.Position, fl *components.Flight, tilt *components.Tilt, p config.BirdConfig) float64 {
	fl.Ticks++
	t := float64(fl.Ticks)

	d := fl.Vel*t + p.Acceleration*t*t
	if d >= p.MaxDisplacement {
		d = p.MaxDisplacement
	}
	if d < 0 {
		d -= p.UpwardBoost
	}

	pos.Y += d

	if d < 0 || pos.Y < fl.RefHeight+p.TiltHold {
		if tilt.Angle < p.MaxRotation {
			tilt.Angle = p.MaxRotation
		}
	} else if tilt.Angle > p.MinRotation {
		tilt.Angle -= p.RotationVelocity
		if tilt.Angle < p.MinRotation {
			tilt.Angle = p.MinRotation
		}
	}

	return d
}

// Impulse applies a jump: the only control action a bird has.
func Impulse(pos *components.Position, fl *components.Flight, p config.BirdConfig) {
	fl.Vel = p.JumpVelocity
	fl.Ticks = 0
	fl.RefHeight = pos.Y
}

// ScrollBase moves both ground segments and wraps a segment once its trailing edge
// passes x=0, placing it right after the other one.
func ScrollBase(b *components.Base, p config.BaseConfig) {
	b.X1 -= p.Velocity
	b.X2 -= p.Velocity

	if b.X1+p.Width < 0 {
		b.X1 = b.X2 + p.Width
	}
	if b.X2+p.Width < 0 {
		b.X2 = b.X1 + p.Width
	}
}

// NewBase returns a ground with its two segments laid side by side from x=0.
func NewBase(p config.BaseConfig) components.Base {
	return components.Base{Y: p.Y, X1: 0, X2: p.Width}
}

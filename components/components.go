// Package components defines the plain state structs for birds, pipes and the ground.
package components

// Position represents an entity's playfield position.
// X is advisory for birds: only Y is simulated.
type Position struct {
	X, Y float64
}

// Flight holds the vertical kinematic state of a bird.
type Flight struct {
	Vel       float64 // Velocity set at the last impulse (0 before the first)
	Ticks     int     // Ticks since the last impulse
	RefHeight float64 // Y at the last impulse, only drives Tilt
}

// Tilt is the cosmetic orientation of a bird in degrees (positive = nose up).
type Tilt struct {
	Angle float64
}

// Body holds the visual bounds of an entity.
type Body struct {
	W, H float64
}

// Pipe is a paired top/bottom barrier.
type Pipe struct {
	X      float64
	Height float64 // Gap top: the top barrier ends here
	Top    float64 // Y where the top barrier image starts (Height - image height)
	Bottom float64 // Y where the bottom barrier starts (Height + gap)
	Passed bool
}

// Base is the scrolling ground made of two alternating segments.
type Base struct {
	Y      float64
	X1, X2 float64
}

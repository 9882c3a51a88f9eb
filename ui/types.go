// Package ui provides the raylib panels drawn over the playfield.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds the colors and metrics shared by every panel.
type Theme struct {
	Panel  rl.Color
	Border rl.Color
	Title  rl.Color
	Label  rl.Color
	Value  rl.Color
	Track  rl.Color // meter background
	Fill   rl.Color // meter fill
	Low    rl.Color // meter fill once the flock is nearly gone

	Pad        int32
	Row        int32
	LabelWidth int32
	Font       int32
	TitleFont  int32
}

// DefaultTheme is a dark translucent theme that stays readable over the sky.
var DefaultTheme = Theme{
	Panel:      rl.Color{R: 24, G: 32, B: 40, A: 210},
	Border:     rl.Color{R: 84, G: 56, B: 71, A: 255},
	Title:      rl.Color{R: 250, G: 200, B: 40, A: 255},
	Label:      rl.LightGray,
	Value:      rl.RayWhite,
	Track:      rl.Color{R: 45, G: 50, B: 55, A: 255},
	Fill:       rl.Color{R: 115, G: 191, B: 46, A: 255},
	Low:        rl.Color{R: 214, G: 92, B: 72, A: 255},
	Pad:        8,
	Row:        16,
	LabelWidth: 56,
	Font:       12,
	TitleFont:  14,
}

package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewFitsWorld(t *testing.T) {
	tests := []struct {
		name              string
		vw, vh            float32
		scale, offX, offY float32
	}{
		{"same size", 500, 800, 1, 0, 0},
		{"double", 1000, 1600, 2, 0, 0},
		{"wide viewport", 1000, 800, 1, 250, 0},
		{"tall viewport", 500, 1000, 1, 0, 100},
		{"small", 250, 800, 0.5, 0, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := New(tt.vw, tt.vh, 500, 800)
			if !near(cam.ScaleX, tt.scale) || !near(cam.ScaleY, tt.scale) {
				t.Errorf("scale = (%v, %v), want %v", cam.ScaleX, cam.ScaleY, tt.scale)
			}
			if !near(cam.OffsetX, tt.offX) || !near(cam.OffsetY, tt.offY) {
				t.Errorf("offset = (%v, %v), want (%v, %v)", cam.OffsetX, cam.OffsetY, tt.offX, tt.offY)
			}
		})
	}
}

func TestStretch(t *testing.T) {
	cam := Stretch(100, 40, 500, 800)

	sx, sy := cam.WorldToScreen(500, 800)
	if !near(sx, 100) || !near(sy, 40) {
		t.Errorf("world corner maps to (%v, %v), want (100, 40)", sx, sy)
	}
	sx, sy = cam.WorldToScreen(250, 400)
	if !near(sx, 50) || !near(sy, 20) {
		t.Errorf("world center maps to (%v, %v), want (50, 20)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 500, 800)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{500, 100},
		{700, 600},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestRect(t *testing.T) {
	cam := New(1000, 1600, 500, 800)
	x, y, w, h := cam.Rect(230, 350, 68, 48)
	if !near(x, 460) || !near(y, 700) || !near(w, 136) || !near(h, 96) {
		t.Errorf("rect = (%v, %v, %v, %v), want (460, 700, 136, 96)", x, y, w, h)
	}
}

func TestVisibilityAndClip(t *testing.T) {
	cam := New(500, 800, 500, 800)

	tests := []struct {
		name       string
		x, y, w, h float32
		visible    bool
	}{
		{"inside", 10, 10, 20, 20, true},
		{"offscreen right", 600, 100, 104, 200, false},
		{"partly left", -50, 100, 104, 200, true},
		{"fully left", -104, 100, 104, 200, false},
		{"above", 100, -640, 104, 640, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cam.IsVisible(tt.x, tt.y, tt.w, tt.h); got != tt.visible {
				t.Errorf("IsVisible = %v, want %v", got, tt.visible)
			}
			_, _, _, _, ok := cam.Clip(tt.x, tt.y, tt.w, tt.h)
			if ok != tt.visible {
				t.Errorf("Clip ok = %v, want %v", ok, tt.visible)
			}
		})
	}

	x, y, w, h, _ := cam.Clip(-50, 700, 104, 200)
	if x != 0 || y != 700 || w != 54 || h != 100 {
		t.Errorf("clip = (%v, %v, %v, %v), want (0, 700, 54, 100)", x, y, w, h)
	}
}

// Package camera maps the fixed playfield onto a viewport of any size.
package camera

// Camera scales and offsets world coordinates into viewport coordinates.
// The playfield is fitted into the viewport and centered, leaving bars on the
// axis with spare room.
type Camera struct {
	// Scale per axis (equal unless created with Stretch)
	ScaleX, ScaleY float32

	// Offset of the world origin in viewport coordinates
	OffsetX, OffsetY float32

	// Viewport dimensions (screen size or terminal cells)
	ViewportW, ViewportH float32

	// World dimensions
	WorldW, WorldH float32
}

// New creates a camera that fits the whole world into the viewport with a
// uniform scale.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{WorldW: worldW, WorldH: worldH}
	c.Resize(viewportW, viewportH)
	return c
}

// Stretch creates a camera with independent axis scales filling the viewport.
// Terminal views use it since character cells are not square.
func Stretch(viewportW, viewportH, worldW, worldH float32) *Camera {
	return &Camera{
		ScaleX:    viewportW / worldW,
		ScaleY:    viewportH / worldH,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
	}
}

// Resize refits the world into a new viewport with a uniform scale.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW, c.ViewportH = viewportW, viewportH

	scale := viewportW / c.WorldW
	if s := viewportH / c.WorldH; s < scale {
		scale = s
	}
	c.ScaleX, c.ScaleY = scale, scale
	c.OffsetX = (viewportW - c.WorldW*scale) / 2
	c.OffsetY = (viewportH - c.WorldH*scale) / 2
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	return c.OffsetX + wx*c.ScaleX, c.OffsetY + wy*c.ScaleY
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	return (sx - c.OffsetX) / c.ScaleX, (sy - c.OffsetY) / c.ScaleY
}

// Rect converts a world rectangle to screen space.
func (c *Camera) Rect(wx, wy, ww, wh float32) (sx, sy, sw, sh float32) {
	sx, sy = c.WorldToScreen(wx, wy)
	return sx, sy, ww * c.ScaleX, wh * c.ScaleY
}

// IsVisible reports whether a world rectangle overlaps the playfield.
func (c *Camera) IsVisible(wx, wy, ww, wh float32) bool {
	return wx < c.WorldW && wx+ww > 0 && wy < c.WorldH && wy+wh > 0
}

// Clip limits a world rectangle to the playfield. ok is false when nothing
// remains.
func (c *Camera) Clip(wx, wy, ww, wh float32) (x, y, w, h float32, ok bool) {
	x0, y0 := max(wx, 0), max(wy, 0)
	x1, y1 := min(wx+ww, c.WorldW), min(wy+wh, c.WorldH)
	if x1 <= x0 || y1 <= y0 {
		return 0, 0, 0, 0, false
	}
	return x0, y0, x1 - x0, y1 - y0, true
}

package sprig

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default text fill.
var ColorWhite = Color{1, 1, 1, 1}

// ColorFromARGB unpacks a 0xAARRGGBB value, the format link and shadow
// colors use.
func ColorFromARGB(v uint32) Color {
	return Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
		A: float64(v>>24&0xff) / 255,
	}
}

// Vec2 is a 2D vector used for positions, offsets, and directions.
type Vec2 struct {
	X, Y float64
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// applyAffine returns the axis-aligned bounds of r after transforming its
// four corners by m.
func (r Rect) applyAffine(m [6]float64) Rect {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = transformPoint(m, r.X, r.Y)
	xs[1], ys[1] = transformPoint(m, r.X+r.Width, r.Y)
	xs[2], ys[2] = transformPoint(m, r.X, r.Y+r.Height)
	xs[3], ys[3] = transformPoint(m, r.X+r.Width, r.Y+r.Height)
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// RepeatForever is the repeat count that never runs out.
const RepeatForever = math.MaxUint32 - 1

// NodeType distinguishes the built-in node kinds.
type NodeType uint8

const (
	NodeTypeContainer NodeType = iota // group node with no visual output
	NodeTypeSprite                    // carries flip flags and a texture
	NodeTypeLabel                     // renders a string through a TextRenderer
)

// TextAlign controls horizontal text alignment.
type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// VerticalAlign controls vertical text alignment inside the label dimensions.
type VerticalAlign uint8

const (
	VerticalAlignTop VerticalAlign = iota
	VerticalAlignCenter
	VerticalAlignBottom
)

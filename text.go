package sprig

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextEffect names an optional rendering feature a TextRenderer may lack.
type TextEffect uint8

const (
	EffectShadow TextEffect = iota
	EffectStroke
	EffectFillColor
)

// Shadow describes a drop shadow behind label text.
type Shadow struct {
	Enabled bool
	Offset  Vec2
	Color   uint32 // 0xAARRGGBB
	Blur    float64
}

// Stroke describes an outline around label text.
type Stroke struct {
	Enabled bool
	Color   Color
	Size    float64
}

// FontDefinition carries everything a renderer needs to draw a string.
type FontDefinition struct {
	FontName    string
	FontSize    float64
	Dimensions  Size // zero means fit the text
	HAlign      TextAlign
	VAlign      VerticalAlign
	LineSpacing float64
	FillColor   Color
	Shadow      Shadow
	Stroke      Stroke
	ImageScale  float64 // scale applied to embedded images
}

// LinkMeta is one clickable region reported by a renderer, in texture space.
type LinkMeta struct {
	Tag           int
	Bounds        Rect
	NormalColor   uint32
	SelectedColor uint32
}

// TextTexture is a rendered string.
type TextTexture struct {
	Image *image.RGBA
	Size  Size
	// RealLength is the number of displayable characters once markup is
	// stripped. Loop display reveals up to this many.
	RealLength int
	Links      []LinkMeta
	Images     []Rect
}

// TextRenderer turns a string into a texture. displayTo limits rendering to
// the first displayTo characters; -1 renders all of them.
type TextRenderer interface {
	RenderString(text string, def FontDefinition, displayTo int) (*TextTexture, error)
	Supports(effect TextEffect) bool
}

// BasicTextRenderer draws plain text with the fixed 7x13 face from
// golang.org/x/image. It supports fill colors but no shadow or stroke, and
// reports no links or images.
type BasicTextRenderer struct {
	face font.Face
}

// NewBasicTextRenderer returns a renderer using basicfont.Face7x13.
func NewBasicTextRenderer() *BasicTextRenderer {
	return &BasicTextRenderer{face: basicfont.Face7x13}
}

// Supports reports whether the renderer can draw effect.
func (r *BasicTextRenderer) Supports(effect TextEffect) bool {
	return effect == EffectFillColor
}

// basicLine is one laid-out line of runes.
type basicLine struct {
	runes   []rune
	width   int
	newline bool // line was ended by '\n', which counts as a character
}

// layout breaks runes into lines, wrapping whole words past wrap pixels when
// wrap > 0.
func (r *BasicTextRenderer) layout(runes []rune, wrap int) []basicLine {
	advance := func(rs []rune) int {
		w := 0
		for _, c := range rs {
			a, ok := r.face.GlyphAdvance(c)
			if ok {
				w += a.Ceil()
			}
		}
		return w
	}

	var lines []basicLine
	var cur []rune
	wordStart := 0
	flush := func(rs []rune, newline bool) {
		trimmed := rs
		for len(trimmed) > 0 && trimmed[len(trimmed)-1] == ' ' {
			trimmed = trimmed[:len(trimmed)-1]
		}
		lines = append(lines, basicLine{runes: rs, width: advance(trimmed), newline: newline})
	}

	for _, c := range runes {
		if c == '\n' {
			flush(cur, true)
			cur = nil
			wordStart = 0
			continue
		}
		cur = append(cur, c)
		if c == ' ' {
			wordStart = len(cur)
			continue
		}
		if wrap > 0 && wordStart > 0 && advance(cur) > wrap {
			word := append([]rune(nil), cur[wordStart:]...)
			flush(cur[:wordStart], false)
			cur = word
			wordStart = 0
		}
	}
	flush(cur, false)
	return lines
}

// RenderString lays text out inside def.Dimensions and draws it.
func (r *BasicTextRenderer) RenderString(text string, def FontDefinition, displayTo int) (*TextTexture, error) {
	runes := []rune(text)
	lines := r.layout(runes, int(def.Dimensions.Width))

	metrics := r.face.Metrics()
	lineHeight := metrics.Height.Ceil() + int(def.LineSpacing)

	maxW := 0
	for _, l := range lines {
		maxW = max(maxW, l.width)
	}
	w, h := maxW, lineHeight*len(lines)
	if def.Dimensions.Width > 0 {
		w = int(def.Dimensions.Width)
	}
	if def.Dimensions.Height > 0 {
		h = int(def.Dimensions.Height)
	}

	offsetY := 0
	switch def.VAlign {
	case VerticalAlignCenter:
		offsetY = (h - lineHeight*len(lines)) / 2
	case VerticalAlignBottom:
		offsetY = h - lineHeight*len(lines)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := def.FillColor
	if fill == (Color{}) {
		fill = ColorWhite
	}
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(toNRGBA(fill)),
		Face: r.face,
	}

	shown := 0
draw:
	for i, l := range lines {
		offsetX := 0
		switch def.HAlign {
		case TextAlignCenter:
			offsetX = (w - l.width) / 2
		case TextAlignRight:
			offsetX = w - l.width
		}
		d.Dot = fixed.P(offsetX, offsetY+i*lineHeight+metrics.Ascent.Ceil())
		for _, c := range l.runes {
			if displayTo >= 0 && shown >= displayTo {
				break draw
			}
			d.DrawString(string(c))
			shown++
		}
		if l.newline {
			shown++
		}
	}

	return &TextTexture{
		Image:      img,
		Size:       Size{Width: float64(w), Height: float64(h)},
		RealLength: len(runes),
	}, nil
}

func toNRGBA(c Color) color.NRGBA {
	clamp := func(v float64) uint8 {
		return uint8(min(1, max(0, v))*255 + 0.5)
	}
	return color.NRGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}

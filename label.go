package sprig

import "go.uber.org/zap"

const labelLoopKey = "label.displayNextChar"

// Label is a node showing a string rendered by a TextRenderer.
//
// Rendered links can be bound to CallFunc targets. A label commonly owns a
// CallFuncO whose payload is the label itself; SetLinkTarget,
// SetLinkTargetForAll and StartLoopDisplay break that cycle with
// ReleaseLoopRetain.
type Label struct {
	Node

	renderer TextRenderer
	text     string
	def      FontDefinition
	texture  *TextTexture

	toCharIndex int // -1 shows every character
	realLength  int
	repeat      uint32
	loopFunc    *CallFunc

	linkTargets   map[int]*CallFunc
	defaultTarget *CallFunc
	linkPriority  int
}

// NewLabel returns an autoreleased label, or nil when the first render
// fails.
func NewLabel(rt *Runtime, renderer TextRenderer, text, fontName string, fontSize float64) *Label {
	return NewLabelWithDefinition(rt, renderer, text, FontDefinition{
		FontName:  fontName,
		FontSize:  fontSize,
		FillColor: ColorWhite,
	})
}

// NewLabelWithDefinition returns an autoreleased label using def, or nil
// when renderer is nil or the first render fails.
func NewLabelWithDefinition(rt *Runtime, renderer TextRenderer, text string, def FontDefinition) *Label {
	if renderer == nil {
		rt.assert(false, "label needs a text renderer")
		return nil
	}
	l := &Label{
		Node:        Node{Type: NodeTypeLabel},
		renderer:    renderer,
		text:        text,
		def:         def,
		toCharIndex: -1,
		linkTargets: make(map[int]*CallFunc),
	}
	if l.def.ImageScale == 0 {
		l.def.ImageScale = 1
	}
	nodeDefaults(rt, &l.Node, l)
	l.onDestroy = l.finalizeLabel
	if !l.updateTexture() {
		l.Release()
		return nil
	}
	return Autorelease(l)
}

func (l *Label) finalizeLabel() {
	if l.loopFunc != nil {
		l.loopFunc.Release()
		l.loopFunc = nil
	}
	if l.defaultTarget != nil {
		l.defaultTarget.Release()
		l.defaultTarget = nil
	}
	for i, cf := range l.linkTargets {
		cf.Release()
		delete(l.linkTargets, i)
	}
	l.texture = nil
}

// updateTexture re-renders the label. Failures are logged and reported as
// false; the previous texture is kept.
func (l *Label) updateTexture() bool {
	tex, err := l.renderer.RenderString(l.text, l.def, l.toCharIndex)
	if err != nil {
		l.rt.log.Error("label render failed", zap.String("label", l.Name), zap.Error(err))
		return false
	}
	l.texture = tex
	l.realLength = tex.RealLength
	return true
}

// Texture returns the current rendering.
func (l *Label) Texture() *TextTexture { return l.texture }

// ContentSize returns the size of the current rendering.
func (l *Label) ContentSize() Size {
	if l.texture == nil {
		return Size{}
	}
	return l.texture.Size
}

// --- Text and font properties ---

// String returns the label text.
func (l *Label) String() string { return l.text }

// SetString replaces the text and re-renders when it changed.
func (l *Label) SetString(text string) {
	if l.text == text {
		return
	}
	l.text = text
	l.updateTexture()
}

// TextDefinition returns a copy of the font definition.
func (l *Label) TextDefinition() FontDefinition { return l.def }

// SetTextDefinition replaces the font definition, asserting on effects the
// renderer cannot draw.
func (l *Label) SetTextDefinition(def FontDefinition) {
	if def.Shadow.Enabled && !l.supports(EffectShadow, "shadow") {
		def.Shadow = Shadow{}
	}
	if def.Stroke.Enabled && !l.supports(EffectStroke, "stroke") {
		def.Stroke = Stroke{}
	}
	if def.ImageScale == 0 {
		def.ImageScale = 1
	}
	l.def = def
	l.updateTexture()
}

// FontName returns the font name.
func (l *Label) FontName() string { return l.def.FontName }

// SetFontName changes the font and re-renders.
func (l *Label) SetFontName(name string) {
	if l.def.FontName == name {
		return
	}
	l.def.FontName = name
	l.updateTexture()
}

// FontSize returns the font size.
func (l *Label) FontSize() float64 { return l.def.FontSize }

// SetFontSize changes the font size and re-renders.
func (l *Label) SetFontSize(size float64) {
	if l.def.FontSize == size {
		return
	}
	l.def.FontSize = size
	l.updateTexture()
}

// Dimensions returns the layout box; zero means fit the text.
func (l *Label) Dimensions() Size { return l.def.Dimensions }

// SetDimensions changes the layout box and re-renders.
func (l *Label) SetDimensions(dim Size) {
	if l.def.Dimensions == dim {
		return
	}
	l.def.Dimensions = dim
	l.updateTexture()
}

// HorizontalAlignment returns the horizontal alignment.
func (l *Label) HorizontalAlignment() TextAlign { return l.def.HAlign }

// SetHorizontalAlignment changes the horizontal alignment and re-renders.
func (l *Label) SetHorizontalAlignment(a TextAlign) {
	if l.def.HAlign == a {
		return
	}
	l.def.HAlign = a
	l.updateTexture()
}

// VerticalAlignment returns the vertical alignment.
func (l *Label) VerticalAlignment() VerticalAlign { return l.def.VAlign }

// SetVerticalAlignment changes the vertical alignment and re-renders.
func (l *Label) SetVerticalAlignment(a VerticalAlign) {
	if l.def.VAlign == a {
		return
	}
	l.def.VAlign = a
	l.updateTexture()
}

// LineSpacing returns the extra space between lines.
func (l *Label) LineSpacing() float64 { return l.def.LineSpacing }

// SetLineSpacing changes the line spacing, re-rendering when update is set.
func (l *Label) SetLineSpacing(spacing float64, update bool) {
	if l.def.LineSpacing == spacing {
		return
	}
	l.def.LineSpacing = spacing
	if update {
		l.updateTexture()
	}
}

// GlobalImageScaleFactor returns the scale applied to embedded images.
func (l *Label) GlobalImageScaleFactor() float64 { return l.def.ImageScale }

// SetGlobalImageScaleFactor changes the embedded image scale.
func (l *Label) SetGlobalImageScaleFactor(scale float64, update bool) {
	if l.def.ImageScale == scale {
		return
	}
	l.def.ImageScale = scale
	if update {
		l.updateTexture()
	}
}

// --- Effects ---

func (l *Label) supports(effect TextEffect, name string) bool {
	ok := l.renderer.Supports(effect)
	l.rt.assert(ok, "label effect not supported by text renderer",
		zap.String("effect", name),
		zap.String("label", l.Name),
	)
	return ok
}

// EnableShadow turns the drop shadow on. color is 0xAARRGGBB.
func (l *Label) EnableShadow(offset Vec2, color uint32, blur float64, update bool) {
	if !l.supports(EffectShadow, "shadow") {
		return
	}
	s := Shadow{Enabled: true, Offset: offset, Color: color, Blur: blur}
	if l.def.Shadow == s {
		return
	}
	l.def.Shadow = s
	if update {
		l.updateTexture()
	}
}

// DisableShadow turns the drop shadow off.
func (l *Label) DisableShadow(update bool) {
	if !l.def.Shadow.Enabled {
		return
	}
	l.def.Shadow = Shadow{}
	if update {
		l.updateTexture()
	}
}

// EnableStroke turns the outline on.
func (l *Label) EnableStroke(color Color, size float64, update bool) {
	if !l.supports(EffectStroke, "stroke") {
		return
	}
	s := Stroke{Enabled: true, Color: color, Size: size}
	if l.def.Stroke == s {
		return
	}
	l.def.Stroke = s
	if update {
		l.updateTexture()
	}
}

// DisableStroke turns the outline off.
func (l *Label) DisableStroke(update bool) {
	if !l.def.Stroke.Enabled {
		return
	}
	l.def.Stroke = Stroke{}
	if update {
		l.updateTexture()
	}
}

// SetColor changes the text fill color.
func (l *Label) SetColor(c Color) {
	if !l.supports(EffectFillColor, "fill") {
		return
	}
	if l.def.FillColor == c {
		return
	}
	l.def.FillColor = c
	l.updateTexture()
}

// Color returns the text fill color.
func (l *Label) Color() Color { return l.def.FillColor }

// --- Links ---

// Links returns the link regions of the current rendering.
func (l *Label) Links() []LinkMeta {
	if l.texture == nil {
		return nil
	}
	return l.texture.Links
}

// SetLinkTarget binds the link at index to cf. A nil cf is ignored.
func (l *Label) SetLinkTarget(index int, cf *CallFunc) {
	if cf == nil {
		return
	}
	cf.Retain()
	if old := l.linkTargets[index]; old != nil {
		old.Release()
	}
	l.linkTargets[index] = cf
	cf.ReleaseLoopRetain(l)
}

// LinkTarget returns the target bound to index, or nil.
func (l *Label) LinkTarget(index int) *CallFunc { return l.linkTargets[index] }

// SetLinkTargetForAll sets the fallback target for links without their own.
func (l *Label) SetLinkTargetForAll(cf *CallFunc) {
	if cf != nil {
		cf.Retain()
	}
	if l.defaultTarget != nil {
		l.defaultTarget.Release()
	}
	l.defaultTarget = cf
	if cf != nil {
		cf.ReleaseLoopRetain(l)
	}
}

// SetLinkPriority sets the pointer dispatch priority of the links; lower
// values are offered clicks first.
func (l *Label) SetLinkPriority(p int) { l.linkPriority = p }

// LinkPriority returns the pointer dispatch priority.
func (l *Label) LinkPriority() int { return l.linkPriority }

// ClickLink executes the target bound to index, else the default target,
// else nothing.
func (l *Label) ClickLink(index int) {
	if cf := l.linkTargets[index]; cf != nil {
		cf.Execute()
		return
	}
	if l.defaultTarget != nil {
		l.defaultTarget.Execute()
	}
}

// LinkAt returns the index of the link containing the local point, or -1.
func (l *Label) LinkAt(x, y float64) int {
	for i, link := range l.Links() {
		if link.Bounds.Contains(x, y) {
			return i
		}
	}
	return -1
}

// --- Embedded images ---

// ImageBound returns the bounds of embedded image index in label space.
func (l *Label) ImageBound(index int) Rect {
	if l.texture == nil || index < 0 || index >= len(l.texture.Images) {
		return Rect{}
	}
	return l.texture.Images[index]
}

// ImageBoundInParentSpace returns ImageBound in the parent's space.
func (l *Label) ImageBoundInParentSpace(index int) Rect {
	return l.ImageBound(index).applyAffine(l.NodeToParentTransform())
}

// ImageBoundInWorldSpace returns ImageBound in world space.
func (l *Label) ImageBoundInWorldSpace(index int) Rect {
	return l.ImageBound(index).applyAffine(l.NodeToWorldTransform())
}

// --- Loop display ---

// StartLoopDisplay hides the label and reveals one more character every
// interval seconds after delay. Each time the whole string is shown loopFunc
// executes; the display restarts repeat more times, or forever with
// RepeatForever.
func (l *Label) StartLoopDisplay(interval float32, repeat uint32, delay float32, loopFunc *CallFunc) {
	if loopFunc != nil {
		loopFunc.Retain()
	}
	if l.loopFunc != nil {
		l.loopFunc.Release()
	}
	l.loopFunc = loopFunc
	if loopFunc != nil {
		loopFunc.ReleaseLoopRetain(l)
	}

	l.SetVisible(false)
	l.toCharIndex = 0
	l.repeat = repeat
	l.Node.Schedule(labelLoopKey, l.displayNextChar, interval, RepeatForever, delay)
}

// StopLoopDisplay cancels loop display and shows the full string.
func (l *Label) StopLoopDisplay() {
	l.Retain()
	defer l.Release()

	l.Node.Unschedule(labelLoopKey)
	l.SetVisible(true)
	l.SetDisplayTo(-1)
	if l.loopFunc != nil {
		l.loopFunc.Release()
		l.loopFunc = nil
	}
}

// IsLoopDisplaying reports whether loop display is running.
func (l *Label) IsLoopDisplaying() bool {
	return l.rt.scheduler.IsScheduled(&l.Node, labelLoopKey)
}

// DisplayTo returns the number of characters shown, or -1 for all.
func (l *Label) DisplayTo() int { return l.toCharIndex }

// RealLength returns the number of displayable characters.
func (l *Label) RealLength() int { return l.realLength }

// SetDisplayTo shows only the first to characters; -1 shows all.
func (l *Label) SetDisplayTo(to int) {
	if l.toCharIndex == to {
		return
	}
	l.toCharIndex = to
	if l.text != "" {
		l.updateTexture()
	}
}

func (l *Label) displayNextChar(float32) {
	if l.toCharIndex < l.realLength {
		switch l.toCharIndex {
		case -1:
			l.toCharIndex++
			l.SetVisible(false)
		case 0:
			l.SetVisible(true)
			l.SetDisplayTo(1)
		default:
			l.SetDisplayTo(l.toCharIndex + 1)
		}
	}
	if l.toCharIndex < l.realLength {
		return
	}

	if l.loopFunc != nil {
		l.loopFunc.Execute()
	}
	if l.repeat == RepeatForever || l.repeat > 0 {
		if l.repeat != RepeatForever {
			l.repeat--
		}
		l.toCharIndex = -1
		return
	}
	l.Node.Unschedule(labelLoopKey)
	l.SetDisplayTo(-1)
	if l.loopFunc != nil {
		l.loopFunc.Release()
		l.loopFunc = nil
	}
}

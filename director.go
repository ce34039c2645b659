package sprig

import (
	"fmt"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// Director owns the root node and drives the frame loop: timers, actions,
// then the autorelease pool. It implements ebiten.Game.
type Director struct {
	rt     *Runtime
	root   *Node
	width  int
	height int
	paused bool
	frames uint64

	touches []*TouchScriptHandlerEntry
	images  map[*TextTexture]*ebiten.Image
	seen    map[*TextTexture]bool

	injectQueue     []syntheticPointerEvent
	runner          *TestRunner
	screenshotQueue []string

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string
}

// NewDirector creates a director with a retained root container.
func NewDirector(rt *Runtime, width, height int) *Director {
	root := NewContainer(rt, "root")
	root.Retain()
	return &Director{
		rt:     rt,
		root:   root,
		width:  width,
		height: height,
		images: make(map[*TextTexture]*ebiten.Image),
		seen:   make(map[*TextTexture]bool),

		ScreenshotDir: "screenshots",
	}
}

// Runtime returns the director's runtime.
func (d *Director) Runtime() *Runtime { return d.rt }

// Root returns the root container node.
func (d *Director) Root() *Node { return d.root }

// Frames returns the number of completed ticks.
func (d *Director) Frames() uint64 { return d.frames }

// Pause stops timers and actions; the pool is still drained.
func (d *Director) Pause() { d.paused = true }

// Resume restarts timers and actions.
func (d *Director) Resume() { d.paused = false }

// IsPaused reports whether the director is paused.
func (d *Director) IsPaused() bool { return d.paused }

// Tick runs one frame of dt seconds.
func (d *Director) Tick(dt float32) {
	if !d.paused {
		d.rt.scheduler.Update(dt)
		d.rt.actions.Update(dt)
	}
	d.rt.pools.Drain()
	d.frames++
}

// AddTouchHandler registers a script touch handler. Handlers are offered
// pointer events in priority order.
func (d *Director) AddTouchHandler(e *TouchScriptHandlerEntry) {
	e.Retain()
	d.touches = append(d.touches, e)
	slices.SortStableFunc(d.touches, func(a, b *TouchScriptHandlerEntry) int {
		return a.Priority() - b.Priority()
	})
}

// RemoveTouchHandler unregisters and releases e.
func (d *Director) RemoveTouchHandler(e *TouchScriptHandlerEntry) {
	i := slices.Index(d.touches, e)
	if i < 0 {
		return
	}
	d.touches = slices.Delete(d.touches, i, i+1)
	e.Release()
}

// DispatchClick offers a click at world (x, y) to label links, then to
// touch handlers. Labels are tried by link priority, then front to back.
func (d *Director) DispatchClick(x, y float64) bool {
	var labels []*Label
	collectLabels(d.root, &labels)
	slices.Reverse(labels)
	slices.SortStableFunc(labels, func(a, b *Label) int {
		return a.LinkPriority() - b.LinkPriority()
	})
	for _, l := range labels {
		lx, ly := l.WorldToLocal(x, y)
		if i := l.LinkAt(lx, ly); i >= 0 {
			d.rt.log.Debug("link clicked", zap.String("label", l.Name), zap.Int("link", i))
			l.ClickLink(i)
			return true
		}
	}
	return d.DispatchTouch("began", x, y)
}

// DispatchTouch offers a pointer event to the touch handlers in priority
// order. A swallowing handler that accepts the event stops propagation.
func (d *Director) DispatchTouch(event string, x, y float64) bool {
	for _, e := range slices.Clone(d.touches) {
		if e.Dispatch(event, x, y) && e.SwallowsTouches() {
			return true
		}
	}
	return false
}

// collectLabels appends visible labels in draw order.
func collectLabels(n *Node, out *[]*Label) {
	if !n.Visible {
		return
	}
	if l, ok := n.self.(*Label); ok {
		*out = append(*out, l)
	}
	for _, c := range n.children {
		collectLabels(c, out)
	}
}

// Update implements ebiten.Game.
func (d *Director) Update() error {
	if !d.processScriptedInput() {
		x, y := ebiten.CursorPosition()
		switch {
		case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
			d.DispatchClick(float64(x), float64(y))
		case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
			d.DispatchTouch("ended", float64(x), float64(y))
		}
	}
	d.Tick(float32(1.0 / float64(ebiten.TPS())))
	return nil
}

// processScriptedInput steps the test runner and consumes one injected
// event. Returns true when real input should be ignored this frame.
func (d *Director) processScriptedInput() bool {
	if d.runner != nil {
		d.runner.step(d)
	}
	return d.processInjectedInput()
}

// Draw implements ebiten.Game. Visible labels are drawn with their world
// transform and alpha.
func (d *Director) Draw(screen *ebiten.Image) {
	clear(d.seen)
	d.drawNode(screen, d.root, 1)
	for tex, img := range d.images {
		if !d.seen[tex] {
			img.Deallocate()
			delete(d.images, tex)
		}
	}
	d.flushScreenshots(screen)
}

func (d *Director) drawNode(screen *ebiten.Image, n *Node, alpha float64) {
	if !n.Visible {
		return
	}
	alpha *= n.Alpha
	if l, ok := n.self.(*Label); ok {
		d.drawLabel(screen, l, alpha)
	}
	children := slices.Clone(n.children)
	slices.SortStableFunc(children, func(a, b *Node) int { return a.ZIndex - b.ZIndex })
	for _, c := range children {
		d.drawNode(screen, c, alpha)
	}
}

func (d *Director) drawLabel(screen *ebiten.Image, l *Label, alpha float64) {
	tex := l.Texture()
	if tex == nil || tex.Image == nil || tex.Image.Bounds().Empty() {
		return
	}
	d.seen[tex] = true
	img := d.images[tex]
	if img == nil {
		img = ebiten.NewImageFromImage(tex.Image)
		d.images[tex] = img
	}
	m := l.NodeToWorldTransform()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.SetElement(0, 0, m[0])
	op.GeoM.SetElement(1, 0, m[1])
	op.GeoM.SetElement(0, 1, m[2])
	op.GeoM.SetElement(1, 1, m[3])
	op.GeoM.SetElement(0, 2, m[4])
	op.GeoM.SetElement(1, 2, m[5])
	op.ColorScale.ScaleAlpha(float32(alpha))
	screen.DrawImage(img, op)
}

// Layout implements ebiten.Game.
func (d *Director) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.width, d.height
}

// End stops everything under the root, releases it and drains the pools.
// The director must not be used afterwards.
func (d *Director) End() {
	for _, e := range d.touches {
		e.Release()
	}
	d.touches = nil
	d.injectQueue = nil
	d.runner = nil
	for tex, img := range d.images {
		img.Deallocate()
		delete(d.images, tex)
	}
	d.root.Cleanup()
	d.root.RemoveAllChildren(true)
	d.root.Release()
	d.rt.pools.Drain()
}

// RunConfig configures the game window.
type RunConfig struct {
	Title  string
	Width  int
	Height int
}

// Run opens a window and runs d until the window closes.
func Run(d *Director, cfg RunConfig) error {
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if err := ebiten.RunGame(d); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}

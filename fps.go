package sprig

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

const fpsUpdateKey = "fps.update"

// NewFPSLabel returns a label showing the current FPS and TPS, refreshed
// every half second. ZIndex is raised so it draws above its siblings.
func NewFPSLabel(rt *Runtime, renderer TextRenderer) *Label {
	l := NewLabel(rt, renderer, fpsText(), "basic", 13)
	if l == nil {
		return nil
	}
	l.Name = "fps"
	l.ZIndex = 1 << 20
	l.Node.Schedule(fpsUpdateKey, func(float32) { l.SetString(fpsText()) }, 0.5, RepeatForever, 0)
	return l
}

func fpsText() string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}

package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/plus3/blockfall/protocol"
)

// Bindings maps each action to the keys that trigger it.
type Bindings map[protocol.Action][]ebiten.Key

func DefaultBindings() Bindings {
	return Bindings{
		protocol.ActionLeft:   {ebiten.KeyArrowLeft},
		protocol.ActionRight:  {ebiten.KeyArrowRight},
		protocol.ActionRotate: {ebiten.KeyArrowUp},
		protocol.ActionDown:   {ebiten.KeyArrowDown},
	}
}

// EbitenKeys reads key edges from ebiten's per-tick input state. It must be
// polled from within ebiten's Update.
type EbitenKeys struct {
	Bindings Bindings
}

func (k EbitenKeys) JustPressed(a protocol.Action) bool {
	for _, key := range k.Bindings[a] {
		if inpututil.IsKeyJustPressed(key) {
			return true
		}
	}
	return false
}

func (k EbitenKeys) JustReleased(a protocol.Action) bool {
	for _, key := range k.Bindings[a] {
		if inpututil.IsKeyJustReleased(key) {
			return true
		}
	}
	return false
}

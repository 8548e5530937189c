package client

import (
	"errors"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/dispatch"
	"github.com/plus3/blockfall/input"
	"github.com/plus3/blockfall/registry"
)

// PacketSystem applies every packet received since the last frame. After the
// session ends the remaining packets are discarded.
type PacketSystem struct {
	Inbox      *Inbox
	Dispatcher *dispatch.Dispatcher
}

func (s *PacketSystem) Execute(frame *Frame) {
	for _, p := range s.Inbox.Drain() {
		if err := s.Dispatcher.Handle(p); err != nil {
			frame.Fail(err)
			return
		}
	}
	if s.Dispatcher.Over() {
		frame.Fail(dispatch.ErrSessionOver)
	}
}

// InputSystem forwards this frame's key edges to the server.
type InputSystem struct {
	Translator *input.Translator
}

func (s *InputSystem) Execute(frame *Frame) {
	if s.Translator == nil {
		return
	}
	if err := s.Translator.Poll(); err != nil {
		frame.Fail(err)
	}
}

// LockClockSystem runs the lock clock while the local shape rests on
// something and resets it while the shape can still fall.
type LockClockSystem struct {
	Registry *registry.Registry
	Local    registry.ConnID
	Clock    *dispatch.LockClock
}

var down = board.Point{Y: 1}

func (s *LockClockSystem) Execute(frame *Frame) {
	falling := false
	s.Registry.View(func(v registry.Reader) {
		b, err := v.Get(s.Local)
		if err != nil {
			return
		}
		if shape := b.Current(); shape != nil && !shape.Locked() && shape.CanMove(down) {
			falling = true
		}
	})

	if falling {
		s.Clock.Reset()
	} else {
		s.Clock.Advance(frame.Delta())
	}
}

// IsTerminal reports whether err ends the session.
func IsTerminal(err error) bool {
	return errors.Is(err, dispatch.ErrSessionOver)
}

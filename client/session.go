// Package client ties the board registry, the packet dispatcher and the input
// translator into one per-frame session.
//
// The transport goroutine hands packets to Deliver; everything else happens
// on the frame loop calling Update, so packets are applied strictly in
// arrival order and between frames.
package client

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/dispatch"
	"github.com/plus3/blockfall/input"
	"github.com/plus3/blockfall/protocol"
	"github.com/plus3/blockfall/registry"
)

type Options struct {
	LockTime     time.Duration
	BoardOptions []board.Option
	Logger       zerolog.Logger

	// Keys and Sender enable input translation when both are set.
	Keys   input.KeySource
	Sender input.Sender
}

type Session struct {
	local      registry.ConnID
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	clock      *dispatch.LockClock
	inbox      *Inbox
	scheduler  *Scheduler
}

// NewSession creates the session of the player connected as local.
func NewSession(local registry.ConnID, opts Options) *Session {
	reg := registry.New(opts.BoardOptions...)
	clock := dispatch.NewLockClock(opts.LockTime)

	s := &Session{
		local:    local,
		registry: reg,
		clock:    clock,
		inbox:    NewInbox(),
		dispatcher: dispatch.New(reg, local,
			dispatch.WithLockClock(clock),
			dispatch.WithLogger(opts.Logger.With().Str("component", "dispatch").Logger()),
		),
	}

	var translator *input.Translator
	if opts.Keys != nil && opts.Sender != nil {
		translator = input.NewTranslator(opts.Keys, opts.Sender)
	}

	s.scheduler = NewScheduler(s)
	s.scheduler.Register(&PacketSystem{Inbox: s.inbox, Dispatcher: s.dispatcher})
	s.scheduler.Register(&InputSystem{Translator: translator})
	s.scheduler.Register(&LockClockSystem{Registry: reg, Local: local, Clock: clock})
	return s
}

// Deliver queues a packet for the next frame. Safe for concurrent use.
func (s *Session) Deliver(p protocol.Packet) {
	s.inbox.Push(p)
}

// Update runs one frame. It returns dispatch.ErrSessionOver once a player
// has won.
func (s *Session) Update(dt float64) error {
	return s.scheduler.Once(dt)
}

func (s *Session) Local() registry.ConnID           { return s.local }
func (s *Session) Registry() *registry.Registry     { return s.registry }
func (s *Session) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }
func (s *Session) Scheduler() *Scheduler            { return s.scheduler }

// Started reports whether the server has begun dealing shapes.
func (s *Session) Started() bool { return s.dispatcher.Started() }

// Winner returns the winning player once the session is over.
func (s *Session) Winner() (dispatch.Winner, bool) { return s.dispatcher.Winner() }

// LockFraction is the render-time lock progress of the local shape.
func (s *Session) LockFraction() float64 { return s.clock.Fraction() }

// Pending returns the number of packets waiting for the next frame.
func (s *Session) Pending() int { return s.inbox.Len() }

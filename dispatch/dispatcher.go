// Package dispatch applies authoritative server packets to the board
// registry, one packet at a time and in arrival order.
package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/protocol"
	"github.com/plus3/blockfall/registry"
)

// Winner identifies the player named by the terminal PlayerWon packet.
type Winner struct {
	Conn     registry.ConnID
	Username string
}

// Dispatcher is the client's reactive state machine. It owns no timers; all
// state lives in the registry plus the started and winner flags.
type Dispatcher struct {
	reg   *registry.Registry
	local registry.ConnID
	clock *LockClock
	log   zerolog.Logger

	mu      sync.RWMutex
	started bool
	over    bool
	winner  Winner
}

var _ protocol.Visitor = (*Dispatcher)(nil)

type Option func(*Dispatcher)

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithLockClock shares clock with the renderer. By default the dispatcher
// uses a clock with a zero lock time.
func WithLockClock(clock *LockClock) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// New creates a dispatcher for the player connected as local.
func New(reg *registry.Registry, local registry.ConnID, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:   reg,
		local: local,
		clock: NewLockClock(0),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Local() registry.ConnID { return d.local }
func (d *Dispatcher) Clock() *LockClock      { return d.clock }

// Started reports whether the first shape has been queued.
func (d *Dispatcher) Started() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.started
}

func (d *Dispatcher) Over() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.over
}

func (d *Dispatcher) Winner() (Winner, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.winner, d.over
}

// Apply applies p. Once the session is over every packet, including the
// PlayerWon that ended it, yields ErrSessionOver.
func (d *Dispatcher) Apply(p protocol.Packet) error {
	if d.Over() {
		return ErrSessionOver
	}
	return p.Accept(d)
}

// Handle applies p and enforces the error policy: protocol violations and
// state inconsistencies are logged and dropped, ErrSessionOver is returned.
func (d *Dispatcher) Handle(p protocol.Packet) error {
	err := d.Apply(p)

	var pv *ProtocolViolationError
	var si *StateInconsistencyError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionOver):
		return err
	case errors.As(err, &pv):
		d.log.Warn().Err(err).Stringer("packet", p.Kind()).Msg("ignoring packet")
	case errors.As(err, &si):
		d.log.Debug().Err(err).Stringer("packet", p.Kind()).Msg("ignoring packet")
	default:
		d.log.Error().Err(err).Stringer("packet", p.Kind()).Msg("packet failed")
	}
	return nil
}

// lookup resolves conn inside tx, mapping a miss to a protocol violation.
func lookup(tx *registry.Tx, kind protocol.Kind, conn registry.ConnID) (*board.Board, error) {
	b, err := tx.Get(conn)
	if err != nil {
		return nil, violation(kind, err)
	}
	return b, nil
}

func currentShape(tx *registry.Tx, kind protocol.Kind, conn registry.ConnID) (*board.Shape, error) {
	b, err := lookup(tx, kind, conn)
	if err != nil {
		return nil, err
	}
	shape := b.Current()
	if shape == nil {
		return nil, inconsistent(kind, fmt.Errorf("%w: connection %d", ErrNoCurrentShape, conn))
	}
	return shape, nil
}

func (d *Dispatcher) VisitWelcome(p protocol.Welcome) error {
	return violation(p.Kind(), fmt.Errorf("%w: handshake already complete", ErrUnexpected))
}

func (d *Dispatcher) VisitPlayerJoined(p protocol.PlayerJoined) error {
	return d.reg.Update(func(tx *registry.Tx) error {
		if _, err := tx.Insert(p.Conn, p.Username); err != nil {
			return violation(p.Kind(), err)
		}
		d.log.Info().Int32("conn", int32(p.Conn)).Str("username", p.Username).Msg("player joined")
		return nil
	})
}

func (d *Dispatcher) VisitPlayerLeft(p protocol.PlayerLeft) error {
	return d.reg.Update(func(tx *registry.Tx) error {
		if err := tx.Remove(p.Conn); err != nil {
			return violation(p.Kind(), err)
		}
		d.log.Info().Int32("conn", int32(p.Conn)).Msg("player left")
		return nil
	})
}

func (d *Dispatcher) VisitGameState(p protocol.GameState) error {
	if len(p.Conns) != len(p.Usernames) {
		return violation(p.Kind(), fmt.Errorf("%w: %d connections, %d usernames",
			ErrMalformedPacket, len(p.Conns), len(p.Usernames)))
	}

	return d.reg.Update(func(tx *registry.Tx) error {
		seen := make(map[registry.ConnID]struct{}, len(p.Conns))
		for _, conn := range p.Conns {
			if _, dup := seen[conn]; dup {
				return violation(p.Kind(), fmt.Errorf("%w: connection %d listed twice", ErrMalformedPacket, conn))
			}
			seen[conn] = struct{}{}
			if _, err := tx.ID(conn); err == nil && tx.Coupled() {
				return violation(p.Kind(), fmt.Errorf("%w: connection %d", registry.ErrBoardExists, conn))
			}
		}

		for i, conn := range p.Conns {
			if _, err := tx.Insert(conn, p.Usernames[i]); err != nil {
				return violation(p.Kind(), err)
			}
		}
		d.log.Info().Int("players", len(p.Conns)).Msg("game state synced")
		return nil
	})
}

func (d *Dispatcher) VisitSetShapePosition(p protocol.SetShapePosition) error {
	return d.reg.Update(func(tx *registry.Tx) error {
		shape, err := currentShape(tx, p.Kind(), d.local)
		if err != nil {
			return err
		}
		if err := shape.SetPosition(board.Point{X: p.X, Y: p.Y}, true); err != nil {
			return inconsistent(p.Kind(), err)
		}
		d.clock.Reset()
		return nil
	})
}

func (d *Dispatcher) VisitRotateShape(p protocol.RotateShape) error {
	return d.reg.Update(func(tx *registry.Tx) error {
		shape, err := currentShape(tx, p.Kind(), d.local)
		if err != nil {
			return err
		}
		if err := shape.Rotate(true); err != nil {
			return inconsistent(p.Kind(), err)
		}
		d.clock.Reset()
		return nil
	})
}

// VisitLockShape reconciles any local misprediction before committing: the
// shape is snapped to the server's position and rotation, then locked.
func (d *Dispatcher) VisitLockShape(p protocol.LockShape) error {
	return d.reg.Update(func(tx *registry.Tx) error {
		shape, err := currentShape(tx, p.Kind(), p.Conn)
		if err != nil {
			return err
		}
		if err := shape.SetPosition(board.Point{X: p.X, Y: p.Y}, true); err != nil {
			return inconsistent(p.Kind(), err)
		}
		if err := shape.RotateTo(true, shape.Rotation()-p.Rotation, true); err != nil {
			return inconsistent(p.Kind(), err)
		}
		if err := shape.Lock(); err != nil {
			return inconsistent(p.Kind(), err)
		}
		return nil
	})
}

// VisitClearLine clears the line on the source board and pushes one garbage
// line onto every other board that is still playing.
func (d *Dispatcher) VisitClearLine(p protocol.ClearLine) error {
	return d.reg.Update(func(tx *registry.Tx) error {
		src, err := lookup(tx, p.Kind(), p.Conn)
		if err != nil {
			return err
		}
		if err := src.Grid().ClearLine(p.Line); err != nil {
			return violation(p.Kind(), err)
		}

		for conn, b := range tx.All() {
			if conn == p.Conn || b.HasLost() {
				continue
			}
			b.Grid().AddLine()
		}
		tx.MarkCoupled()
		return nil
	})
}

// VisitQueueShape appends the shape to every board: the piece sequence is
// shared by all players.
func (d *Dispatcher) VisitQueueShape(p protocol.QueueShape) error {
	kind, err := board.ParseKind(p.ShapeID)
	if err != nil {
		return violation(p.Kind(), err)
	}
	spec := board.ShapeSpec{Kind: kind, Color: board.Color(p.Color)}

	return d.reg.Update(func(tx *registry.Tx) error {
		d.mu.Lock()
		d.started = true
		d.mu.Unlock()

		for _, b := range tx.All() {
			b.QueueShape(spec)
		}
		return nil
	})
}

func (d *Dispatcher) VisitNextShape(p protocol.NextShape) error {
	return d.reg.Update(func(tx *registry.Tx) error {
		b, err := lookup(tx, p.Kind(), p.Conn)
		if err != nil {
			return err
		}

		switch err := b.SetNextShape(); {
		case errors.Is(err, board.ErrSpawnBlocked):
			d.log.Info().Int32("conn", int32(p.Conn)).Str("username", b.Username()).Msg("player lost")
			d.log.Debug().Stringer("board", b).Msg("final board")
		case err != nil:
			return inconsistent(p.Kind(), err)
		}

		if p.Conn == d.local {
			d.clock.Reset()
		}
		return nil
	})
}

func (d *Dispatcher) VisitPlayerWon(p protocol.PlayerWon) error {
	var username string
	d.reg.View(func(v registry.Reader) {
		if b, err := v.Get(p.Conn); err == nil {
			username = b.Username()
		}
	})

	d.mu.Lock()
	d.over = true
	d.winner = Winner{Conn: p.Conn, Username: username}
	d.mu.Unlock()

	d.log.Info().Int32("conn", int32(p.Conn)).Str("username", username).Msg("player won")
	return ErrSessionOver
}

package client_test

import (
	"testing"
	"time"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/client"
	"github.com/plus3/blockfall/dispatch"
	"github.com/plus3/blockfall/protocol"
	"github.com/plus3/blockfall/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice registry.ConnID = 1
	bob   registry.ConnID = 2
)

type fakeKeys struct {
	pressed, released map[protocol.Action]bool
}

func (k *fakeKeys) JustPressed(a protocol.Action) bool  { return k.pressed[a] }
func (k *fakeKeys) JustReleased(a protocol.Action) bool { return k.released[a] }

type recorder struct {
	sent []protocol.Message
}

func (r *recorder) Send(m protocol.Message) error {
	r.sent = append(r.sent, m)
	return nil
}

func newSession(opts client.Options) *client.Session {
	opts.BoardOptions = append(opts.BoardOptions, board.WithHoleFunc(func(int) int { return 0 }))
	return client.NewSession(alice, opts)
}

func deliver(s *client.Session, packets ...protocol.Packet) {
	for _, p := range packets {
		s.Deliver(p)
	}
}

func TestSessionAppliesPacketsOnUpdate(t *testing.T) {
	s := newSession(client.Options{})

	deliver(s,
		protocol.PlayerJoined{Conn: alice, Username: "Alice"},
		protocol.PlayerJoined{Conn: bob, Username: "Bob"},
		protocol.QueueShape{ShapeID: int(board.KindT), Color: 0xFF00FF},
	)
	assert.Equal(t, 3, s.Pending())
	assert.Equal(t, 0, s.Registry().Len(), "nothing is applied before the frame runs")

	require.NoError(t, s.Update(1.0/60))
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 2, s.Registry().Len())
	assert.True(t, s.Started())

	s.Registry().View(func(v registry.Reader) {
		b, err := v.Get(bob)
		require.NoError(t, err)
		assert.Equal(t, "Bob", b.Username())
		assert.Len(t, b.Queue(), 1)
	})
}

func TestSessionIgnoresBadPackets(t *testing.T) {
	s := newSession(client.Options{})

	deliver(s,
		protocol.PlayerJoined{Conn: alice, Username: "Alice"},
		protocol.NextShape{Conn: 42},
		protocol.RotateShape{},
		protocol.PlayerJoined{Conn: bob, Username: "Bob"},
	)
	require.NoError(t, s.Update(1.0/60))
	assert.Equal(t, 2, s.Registry().Len())
}

func TestSessionStopsAfterPlayerWon(t *testing.T) {
	s := newSession(client.Options{})

	deliver(s,
		protocol.PlayerJoined{Conn: alice, Username: "Alice"},
		protocol.PlayerJoined{Conn: bob, Username: "Bob"},
		protocol.PlayerWon{Conn: bob},
		protocol.PlayerLeft{Conn: alice},
	)
	err := s.Update(1.0 / 60)
	require.ErrorIs(t, err, dispatch.ErrSessionOver)
	assert.True(t, client.IsTerminal(err))

	w, over := s.Winner()
	require.True(t, over)
	assert.Equal(t, dispatch.Winner{Conn: bob, Username: "Bob"}, w)
	assert.Equal(t, 2, s.Registry().Len(), "packets after PlayerWon are not applied")

	deliver(s, protocol.PlayerLeft{Conn: bob})
	assert.ErrorIs(t, s.Update(1.0/60), dispatch.ErrSessionOver)
	assert.Equal(t, 2, s.Registry().Len())
}

func TestSessionForwardsInput(t *testing.T) {
	keys := &fakeKeys{
		pressed:  map[protocol.Action]bool{protocol.ActionLeft: true, protocol.ActionRotate: true},
		released: map[protocol.Action]bool{protocol.ActionDown: true},
	}
	out := &recorder{}
	s := newSession(client.Options{Keys: keys, Sender: out})

	require.NoError(t, s.Update(1.0/60))
	assert.ElementsMatch(t, []protocol.Message{
		protocol.Input{Action: protocol.ActionLeft, Pressed: true},
		protocol.Input{Action: protocol.ActionRotate, Pressed: true},
		protocol.Input{Action: protocol.ActionDown, Pressed: false},
	}, out.sent)
}

func TestSessionLockClock(t *testing.T) {
	s := newSession(client.Options{LockTime: time.Second})

	deliver(s,
		protocol.PlayerJoined{Conn: alice, Username: "Alice"},
		protocol.QueueShape{ShapeID: int(board.KindI), Color: 0x00FFFF},
		protocol.NextShape{Conn: alice},
	)
	require.NoError(t, s.Update(0.25))
	assert.Zero(t, s.LockFraction(), "a falling shape keeps the clock at zero")

	// Rest the I piece on the floor.
	deliver(s, protocol.SetShapePosition{X: 3, Y: board.DefaultHeight - 2})
	require.NoError(t, s.Update(0.25))
	assert.InDelta(t, 0.25, s.LockFraction(), 1e-9)

	require.NoError(t, s.Update(0.5))
	assert.InDelta(t, 0.75, s.LockFraction(), 1e-9)

	require.NoError(t, s.Update(0.5))
	assert.Equal(t, 1.0, s.LockFraction(), "fraction is clamped")

	// Moving the shape back up lets it fall again.
	deliver(s, protocol.SetShapePosition{X: 3, Y: 5})
	require.NoError(t, s.Update(0.25))
	assert.Zero(t, s.LockFraction())
}

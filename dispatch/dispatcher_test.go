package dispatch_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/dispatch"
	"github.com/plus3/blockfall/protocol"
	"github.com/plus3/blockfall/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice registry.ConnID = 1
	bob   registry.ConnID = 2
	carol registry.ConnID = 3
)

func newDispatcher(t *testing.T, local registry.ConnID) (*dispatch.Dispatcher, *registry.Registry) {
	t.Helper()
	reg := registry.New(board.WithHoleFunc(func(int) int { return 0 }))
	return dispatch.New(reg, local), reg
}

func apply(t *testing.T, d *dispatch.Dispatcher, packets ...protocol.Packet) {
	t.Helper()
	for _, p := range packets {
		require.NoError(t, d.Apply(p), "applying %s", p.Kind())
	}
}

func boardOf(t *testing.T, reg *registry.Registry, conn registry.ConnID) *board.Board {
	t.Helper()
	var b *board.Board
	reg.View(func(v registry.Reader) {
		var err error
		b, err = v.Get(conn)
		require.NoError(t, err)
	})
	return b
}

func joinAliceAndBob() []protocol.Packet {
	return []protocol.Packet{
		protocol.PlayerJoined{Conn: alice, Username: "Alice"},
		protocol.PlayerJoined{Conn: bob, Username: "Bob"},
	}
}

func TestTwoPlayerScenario(t *testing.T) {
	d, reg := newDispatcher(t, alice)

	apply(t, d, joinAliceAndBob()...)
	apply(t, d, protocol.QueueShape{ShapeID: int(board.KindI), Color: 0x00FFFF})

	for _, conn := range []registry.ConnID{alice, bob} {
		q := boardOf(t, reg, conn).Queue()
		require.Len(t, q, 1)
		assert.Equal(t, board.KindI, q[0].Kind)
	}
	assert.True(t, d.Started())

	apply(t, d, protocol.NextShape{Conn: alice})
	require.NotNil(t, boardOf(t, reg, alice).Current())
	assert.Equal(t, board.KindI, boardOf(t, reg, alice).Current().Kind())
	assert.Nil(t, boardOf(t, reg, bob).Current())

	// Give Alice something in row 4 so the shift is observable.
	apply(t, d, protocol.LockShape{Conn: alice, X: 0, Y: 3, Rotation: 0})

	aliceBefore := boardOf(t, reg, alice).Grid().Rows()
	bobBefore := boardOf(t, reg, bob).Grid().Rows()

	apply(t, d, protocol.ClearLine{Conn: alice, Line: 5})

	aliceAfter := boardOf(t, reg, alice).Grid().Rows()
	require.Len(t, aliceAfter, board.DefaultHeight)
	assert.Equal(t, make([]board.Cell, board.DefaultWidth), aliceAfter[0])
	if diff := cmp.Diff(aliceBefore[0:5], aliceAfter[1:6]); diff != "" {
		t.Errorf("alice rows above line 5 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(aliceBefore[6:], aliceAfter[6:]); diff != "" {
		t.Errorf("alice rows below line 5 (-want +got):\n%s", diff)
	}

	bobAfter := boardOf(t, reg, bob).Grid().Rows()
	require.Len(t, bobAfter, board.DefaultHeight)
	if diff := cmp.Diff(bobBefore[1:], bobAfter[:board.DefaultHeight-1]); diff != "" {
		t.Errorf("bob rows did not shift up (-want +got):\n%s", diff)
	}
	bottom := bobAfter[board.DefaultHeight-1]
	assert.False(t, bottom[0].Filled)
	for _, c := range bottom[1:] {
		assert.True(t, c.Filled)
	}
}

func TestClearLineSkipsLostBoards(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d, joinAliceAndBob()...)

	// Bury Bob's spawn point so his next shape loses.
	bobGrid := boardOf(t, reg, bob).Grid()
	for range board.DefaultHeight {
		bobGrid.AddLine()
	}
	apply(t, d,
		protocol.QueueShape{ShapeID: int(board.KindO)},
		protocol.NextShape{Conn: bob},
	)
	require.True(t, boardOf(t, reg, bob).HasLost())

	before := bobGrid.Rows()
	apply(t, d, protocol.ClearLine{Conn: alice, Line: 5})
	if diff := cmp.Diff(before, bobGrid.Rows()); diff != "" {
		t.Errorf("lost board received garbage (-want +got):\n%s", diff)
	}
}

func TestLostBoardIsDumpedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	reg := registry.New(board.WithHoleFunc(func(int) int { return 0 }))
	d := dispatch.New(reg, alice, dispatch.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	apply(t, d, joinAliceAndBob()...)

	bobGrid := boardOf(t, reg, bob).Grid()
	for range board.DefaultHeight {
		bobGrid.AddLine()
	}
	apply(t, d,
		protocol.QueueShape{ShapeID: int(board.KindO)},
		protocol.NextShape{Conn: bob},
	)

	out := buf.String()
	assert.Contains(t, out, "player lost")
	assert.Contains(t, out, "final board")
	assert.Contains(t, out, "Bob (lost)")
	assert.Contains(t, out, ".#########")
}

func TestClearLineKeepsHeightForEveryOpponent(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d, joinAliceAndBob()...)
	apply(t, d, protocol.PlayerJoined{Conn: carol, Username: "Carol"})

	for i := range 30 {
		src := []registry.ConnID{alice, bob, carol}[i%3]
		apply(t, d, protocol.ClearLine{Conn: src, Line: i % board.DefaultHeight})

		reg.View(func(v registry.Reader) {
			for _, b := range v.All() {
				assert.Equal(t, board.DefaultHeight, b.Grid().Height())
				assert.Len(t, b.Grid().Rows(), board.DefaultHeight)
			}
		})
	}
}

func TestLockShapeForcesRotation(t *testing.T) {
	for _, tt := range []struct {
		name    string
		initial int
		delta   int
	}{
		{"no correction", 0, 0},
		{"one step back", 2, 1},
		{"negative delta", 1, -2},
		{"wraps below zero", 0, 3},
		{"large delta", 3, 9},
	} {
		t.Run(tt.name, func(t *testing.T) {
			d, reg := newDispatcher(t, alice)
			apply(t, d,
				protocol.PlayerJoined{Conn: alice, Username: "Alice"},
				protocol.QueueShape{ShapeID: int(board.KindT)},
				protocol.NextShape{Conn: alice},
			)
			shape := boardOf(t, reg, alice).Current()
			require.NoError(t, shape.RotateTo(true, tt.initial, true))

			apply(t, d, protocol.LockShape{Conn: alice, X: 3, Y: 10, Rotation: tt.delta})

			want := ((tt.initial-tt.delta)%4 + 4) % 4
			assert.Equal(t, want, shape.Rotation())
			assert.True(t, shape.Locked())
			assert.Equal(t, board.Point{X: 3, Y: 10}, shape.Position())
		})
	}
}

func TestLockShapeForcesRotationPastLocalLegality(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d,
		protocol.PlayerJoined{Conn: alice, Username: "Alice"},
		protocol.QueueShape{ShapeID: int(board.KindI)},
		protocol.NextShape{Conn: alice},
	)
	shape := boardOf(t, reg, alice).Current()

	// Rotation 1 at x=8 stands the I in column 10, which the local grid
	// would reject. The lock still reproduces it and drops the cells that
	// fall outside the grid.
	apply(t, d, protocol.LockShape{Conn: alice, X: 8, Y: 16, Rotation: -1})

	assert.Equal(t, 1, shape.Rotation())
	assert.True(t, shape.Locked())
	for _, row := range boardOf(t, reg, alice).Grid().Rows() {
		for _, c := range row {
			assert.False(t, c.Filled)
		}
	}
}

func TestLockShapeTwiceIsIgnored(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d,
		protocol.PlayerJoined{Conn: alice, Username: "Alice"},
		protocol.QueueShape{ShapeID: int(board.KindO)},
		protocol.NextShape{Conn: alice},
		protocol.LockShape{Conn: alice, X: 3, Y: 17},
	)
	grid := boardOf(t, reg, alice).Grid()
	once := grid.Rows()

	err := d.Apply(protocol.LockShape{Conn: alice, X: 0, Y: 0})
	var si *dispatch.StateInconsistencyError
	require.ErrorAs(t, err, &si)
	assert.ErrorIs(t, err, board.ErrShapeLocked)
	assert.Equal(t, once, grid.Rows())
}

func TestLocalShapePackets(t *testing.T) {
	clock := dispatch.NewLockClock(time.Second)
	reg := registry.New()
	d := dispatch.New(reg, bob, dispatch.WithLockClock(clock))

	apply(t, d, joinAliceAndBob()...)
	apply(t, d,
		protocol.QueueShape{ShapeID: int(board.KindL)},
		protocol.NextShape{Conn: alice},
		protocol.NextShape{Conn: bob},
	)

	clock.Advance(500 * time.Millisecond)
	apply(t, d, protocol.SetShapePosition{X: 5, Y: 8})
	assert.Zero(t, clock.Fraction())
	assert.Equal(t, board.Point{X: 5, Y: 8}, boardOf(t, reg, bob).Current().Position())
	assert.Equal(t, board.Point{X: 3, Y: 0}, boardOf(t, reg, alice).Current().Position(),
		"position packets only target the local board")

	clock.Advance(500 * time.Millisecond)
	apply(t, d, protocol.RotateShape{})
	assert.Zero(t, clock.Fraction())
	assert.Equal(t, 1, boardOf(t, reg, bob).Current().Rotation())
	assert.Equal(t, 0, boardOf(t, reg, alice).Current().Rotation())
}

func TestNextShapeResetsClockOnlyForLocal(t *testing.T) {
	clock := dispatch.NewLockClock(time.Second)
	d := dispatch.New(registry.New(), alice, dispatch.WithLockClock(clock))

	apply(t, d, joinAliceAndBob()...)
	apply(t, d, protocol.QueueShape{ShapeID: 0}, protocol.QueueShape{ShapeID: 1})

	clock.Advance(250 * time.Millisecond)
	apply(t, d, protocol.NextShape{Conn: bob})
	assert.InDelta(t, 0.25, clock.Fraction(), 1e-9)

	apply(t, d, protocol.NextShape{Conn: alice})
	assert.Zero(t, clock.Fraction())
}

func TestQueueOrderIsSharedAcrossBoards(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d, joinAliceAndBob()...)

	for _, id := range []int{6, 0, 3, 3, 1} {
		apply(t, d, protocol.QueueShape{ShapeID: id, Color: uint32(id)})
	}

	aliceQueue := boardOf(t, reg, alice).Queue()
	assert.Equal(t, aliceQueue, boardOf(t, reg, bob).Queue())
	assert.Equal(t, board.KindL, aliceQueue[0].Kind)
	assert.Equal(t, board.KindO, aliceQueue[4].Kind)
}

func TestNextShapeEmptyQueue(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d, joinAliceAndBob()...)

	err := d.Apply(protocol.NextShape{Conn: alice})
	var si *dispatch.StateInconsistencyError
	require.ErrorAs(t, err, &si)
	assert.ErrorIs(t, err, board.ErrQueueEmpty)
	assert.Nil(t, boardOf(t, reg, alice).Current())
}

func TestGameStateBulkInsert(t *testing.T) {
	d, reg := newDispatcher(t, carol)

	apply(t, d, protocol.GameState{
		Conns:     []registry.ConnID{alice, bob, carol},
		Usernames: []string{"Alice", "Bob", "Carol"},
	})

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, "Bob", boardOf(t, reg, bob).Username())
}

func TestProtocolViolations(t *testing.T) {
	tests := []struct {
		name   string
		packet protocol.Packet
	}{
		{"clear line on unknown board", protocol.ClearLine{Conn: 99, Line: 0}},
		{"clear line out of range", protocol.ClearLine{Conn: alice, Line: board.DefaultHeight}},
		{"lock unknown board", protocol.LockShape{Conn: 99}},
		{"next shape unknown board", protocol.NextShape{Conn: 99}},
		{"player left unknown", protocol.PlayerLeft{Conn: 99}},
		{"unknown shape id", protocol.QueueShape{ShapeID: 42}},
		{"welcome mid session", protocol.Welcome{Conn: 5}},
		{"mismatched game state", protocol.GameState{Conns: []registry.ConnID{5, 6}, Usernames: []string{"x"}}},
		{"duplicated game state", protocol.GameState{Conns: []registry.ConnID{5, 5}, Usernames: []string{"x", "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, reg := newDispatcher(t, alice)
			apply(t, d, joinAliceAndBob()...)

			err := d.Apply(tt.packet)
			var pv *dispatch.ProtocolViolationError
			require.ErrorAs(t, err, &pv)
			assert.Equal(t, tt.packet.Kind(), pv.Kind)

			assert.NoError(t, d.Handle(tt.packet), "violations are dropped")
			assert.Equal(t, 2, reg.Len())
		})
	}
}

func TestMissingCurrentShapeIsInconsistent(t *testing.T) {
	for _, p := range []protocol.Packet{
		protocol.SetShapePosition{X: 1, Y: 1},
		protocol.RotateShape{},
		protocol.LockShape{Conn: alice},
	} {
		t.Run(p.Kind().String(), func(t *testing.T) {
			d, _ := newDispatcher(t, alice)
			apply(t, d, joinAliceAndBob()...)

			err := d.Apply(p)
			var si *dispatch.StateInconsistencyError
			require.ErrorAs(t, err, &si)
			assert.ErrorIs(t, err, dispatch.ErrNoCurrentShape)
			assert.NoError(t, d.Handle(p))
		})
	}
}

func TestJoinAfterCouplingCannotOverwrite(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d, joinAliceAndBob()...)
	apply(t, d, protocol.ClearLine{Conn: alice, Line: 0})

	bobGrid := boardOf(t, reg, bob).Grid()
	err := d.Apply(protocol.PlayerJoined{Conn: bob, Username: "Mallory"})
	assert.ErrorIs(t, err, registry.ErrBoardExists)

	err = d.Apply(protocol.GameState{Conns: []registry.ConnID{bob, carol}, Usernames: []string{"M", "C"}})
	assert.ErrorIs(t, err, registry.ErrBoardExists)
	assert.Equal(t, 2, reg.Len(), "rejected sync inserts nothing")

	assert.Same(t, bobGrid, boardOf(t, reg, bob).Grid())
	assert.Equal(t, "Bob", boardOf(t, reg, bob).Username())
}

func TestPlayerLeft(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d, joinAliceAndBob()...)
	apply(t, d, protocol.PlayerLeft{Conn: bob})

	assert.Equal(t, 1, reg.Len())
	reg.View(func(v registry.Reader) {
		assert.Equal(t, []registry.ConnID{alice}, v.Conns())
	})
}

func TestPlayerWonIsTerminal(t *testing.T) {
	d, reg := newDispatcher(t, alice)
	apply(t, d, joinAliceAndBob()...)

	err := d.Apply(protocol.PlayerWon{Conn: bob})
	assert.ErrorIs(t, err, dispatch.ErrSessionOver)
	assert.True(t, d.Over())

	w, ok := d.Winner()
	require.True(t, ok)
	assert.Equal(t, dispatch.Winner{Conn: bob, Username: "Bob"}, w)

	err = d.Apply(protocol.PlayerJoined{Conn: carol, Username: "Carol"})
	assert.ErrorIs(t, err, dispatch.ErrSessionOver)
	assert.ErrorIs(t, d.Handle(protocol.QueueShape{}), dispatch.ErrSessionOver)
	assert.Equal(t, 2, reg.Len())
	assert.False(t, d.Started())
}

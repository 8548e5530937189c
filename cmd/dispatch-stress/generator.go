package main

import (
	"math/rand/v2"

	"github.com/plus3/blockfall/protocol"
	"github.com/plus3/blockfall/registry"
)

// generator produces a plausible server packet stream: every shape is queued
// before it is promoted and most shapes are locked somewhere on the board.
type generator struct {
	rng     *rand.Rand
	players []registry.ConnID
	local   registry.ConnID
	width   int
	height  int
}

func newGenerator(seed uint64, players, width, height int) *generator {
	g := &generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		width:  width,
		height: height,
	}
	for i := range players {
		g.players = append(g.players, registry.ConnID(i+1))
	}
	g.local = g.players[0]
	return g
}

func (g *generator) handshake() []protocol.Packet {
	state := protocol.GameState{}
	for _, conn := range g.players {
		state.Conns = append(state.Conns, conn)
		state.Usernames = append(state.Usernames, playerName(conn))
	}
	return []protocol.Packet{state}
}

func (g *generator) conn() registry.ConnID {
	return g.players[g.rng.IntN(len(g.players))]
}

// turn returns the packets of one piece: queue, promote, a few moves, lock
// and sometimes a line clear.
func (g *generator) turn() []protocol.Packet {
	conn := g.conn()
	packets := []protocol.Packet{
		protocol.QueueShape{ShapeID: g.rng.IntN(7), Color: g.rng.Uint32() & 0xFFFFFF},
		protocol.NextShape{Conn: conn},
	}

	if conn == g.local {
		for range g.rng.IntN(4) {
			if g.rng.IntN(2) == 0 {
				packets = append(packets, protocol.RotateShape{})
			} else {
				packets = append(packets, protocol.SetShapePosition{
					X: g.rng.IntN(g.width - 3),
					Y: g.rng.IntN(g.height - 3),
				})
			}
		}
	}

	packets = append(packets, protocol.LockShape{
		Conn:     conn,
		X:        g.rng.IntN(g.width - 3),
		Y:        g.height - 4 - g.rng.IntN(4),
		Rotation: g.rng.IntN(4),
	})

	if g.rng.IntN(3) == 0 {
		packets = append(packets, protocol.ClearLine{Conn: conn, Line: g.height - 1 - g.rng.IntN(4)})
	}
	return packets
}

func playerName(conn registry.ConnID) string {
	names := [...]string{"ada", "bea", "cy", "dot", "eli", "fay", "gus", "hal"}
	return names[int(conn)%len(names)]
}

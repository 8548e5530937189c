package client

import (
	"sync"

	"github.com/plus3/blockfall/protocol"
)

// Inbox buffers packets from the network goroutine until the next frame
// applies them. Order is preserved.
type Inbox struct {
	mu      sync.Mutex
	pending []protocol.Packet
	spare   []protocol.Packet
}

func NewInbox() *Inbox {
	return &Inbox{}
}

// Push queues p. Safe for concurrent use.
func (in *Inbox) Push(p protocol.Packet) {
	in.mu.Lock()
	in.pending = append(in.pending, p)
	in.mu.Unlock()
}

func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

// Drain returns every queued packet in arrival order and empties the inbox.
// The returned slice is only valid until the next call.
func (in *Inbox) Drain() []protocol.Packet {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := in.pending
	clear(in.spare)
	in.pending = in.spare[:0]
	in.spare = out
	return out
}

// Package registry owns every player's Board, keyed by connection id.
//
// Boards live in an arena and are addressed by stable BoardIDs; a connection
// index maps ConnIDs onto them. All mutation goes through Update, which holds
// the exclusive lock for the whole callback, so readers using View never
// observe a half-applied change.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/kamstrup/intmap"
	"github.com/plus3/blockfall/board"
)

var (
	ErrBoardExists = errors.New("board already registered")
	ErrStaleBoard  = errors.New("board id is stale")
)

// UnknownConnError is returned for lookups of an unregistered connection.
type UnknownConnError struct {
	Conn ConnID
}

func (e *UnknownConnError) Error() string {
	return fmt.Sprintf("no board for connection %d", e.Conn)
}

// Reader is the read-only view of the registry handed to renderers.
type Reader interface {
	Get(conn ConnID) (*board.Board, error)
	ID(conn ConnID) (BoardID, error)
	Board(id BoardID) (*board.Board, error)
	All() iter.Seq2[ConnID, *board.Board]
	Conns() []ConnID
	Len() int
	Coupled() bool
}

type Registry struct {
	mu        sync.RWMutex
	boards    arena
	conns     *intmap.Map[ConnID, BoardID]
	order     []ConnID
	coupled   bool
	boardOpts []board.Option
}

// New creates an empty registry. opts are applied to every Board it creates.
func New(opts ...board.Option) *Registry {
	return &Registry{
		conns:     intmap.New[ConnID, BoardID](16),
		boardOpts: opts,
	}
}

// Update runs fn with exclusive access.
func (r *Registry) Update(fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&Tx{r: r})
}

// View runs fn with shared read access.
func (r *Registry) View(fn func(v Reader)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(&Tx{r: r})
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.boards.len()
}

// Tx is the handle passed to Update and View callbacks. It must not be
// retained after the callback returns.
type Tx struct {
	r *Registry
}

func (tx *Tx) ID(conn ConnID) (BoardID, error) {
	id, ok := tx.r.conns.Get(conn)
	if !ok {
		return 0, &UnknownConnError{Conn: conn}
	}
	return id, nil
}

func (tx *Tx) Board(id BoardID) (*board.Board, error) {
	b := tx.r.boards.get(id)
	if b == nil {
		return nil, fmt.Errorf("%w: %#x", ErrStaleBoard, uint64(id))
	}
	return b, nil
}

// Get returns the board registered for conn.
func (tx *Tx) Get(conn ConnID) (*board.Board, error) {
	id, err := tx.ID(conn)
	if err != nil {
		return nil, err
	}
	return tx.Board(id)
}

// All yields every board in ascending connection order.
func (tx *Tx) All() iter.Seq2[ConnID, *board.Board] {
	return func(yield func(ConnID, *board.Board) bool) {
		for _, conn := range tx.r.order {
			id, _ := tx.r.conns.Get(conn)
			if !yield(conn, tx.r.boards.get(id)) {
				return
			}
		}
	}
}

func (tx *Tx) Conns() []ConnID {
	return slices.Clone(tx.r.order)
}

func (tx *Tx) Len() int {
	return tx.r.boards.len()
}

// Coupled reports whether garbage has been exchanged between boards.
func (tx *Tx) Coupled() bool {
	return tx.r.coupled
}

// MarkCoupled records that boards have affected each other. From then on an
// existing board can no longer be replaced by Insert.
func (tx *Tx) MarkCoupled() {
	tx.r.coupled = true
}

// Insert registers a new empty board for conn. Re-registering a connection
// replaces its board only while the registry is not coupled.
func (tx *Tx) Insert(conn ConnID, username string) (BoardID, error) {
	if old, ok := tx.r.conns.Get(conn); ok {
		if tx.r.coupled {
			return 0, fmt.Errorf("%w: connection %d", ErrBoardExists, conn)
		}
		tx.r.boards.remove(old)
	} else {
		pos, _ := slices.BinarySearch(tx.r.order, conn)
		tx.r.order = slices.Insert(tx.r.order, pos, conn)
	}

	id := tx.r.boards.insert(board.New(username, tx.r.boardOpts...))
	tx.r.conns.Put(conn, id)
	return id, nil
}

// Remove drops the board registered for conn.
func (tx *Tx) Remove(conn ConnID) error {
	id, err := tx.ID(conn)
	if err != nil {
		return err
	}
	tx.r.boards.remove(id)
	tx.r.conns.Del(conn)
	if pos, found := slices.BinarySearch(tx.r.order, conn); found {
		tx.r.order = slices.Delete(tx.r.order, pos, pos+1)
	}
	return nil
}

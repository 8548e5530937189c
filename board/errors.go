package board

import (
	"errors"
	"fmt"
)

var (
	ErrShapeLocked  = errors.New("shape is locked")
	ErrIllegalMove  = errors.New("move collides with grid")
	ErrQueueEmpty   = errors.New("shape queue is empty")
	ErrBoardLost    = errors.New("board has lost")
	ErrSpawnBlocked = errors.New("spawn position is occupied")
	ErrUnknownKind  = errors.New("unknown shape kind")
)

// OutOfRangeError reports a row or cell coordinate outside the grid.
type OutOfRangeError struct {
	What  string
	Value int
	Limit int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [0, %d)", e.What, e.Value, e.Limit)
}

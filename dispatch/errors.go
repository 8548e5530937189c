package dispatch

import (
	"errors"
	"fmt"

	"github.com/plus3/blockfall/protocol"
)

var (
	// ErrSessionOver is returned once a PlayerWon packet has been applied.
	ErrSessionOver = errors.New("session over")

	ErrNoCurrentShape  = errors.New("board has no current shape")
	ErrMalformedPacket = errors.New("malformed packet")
	ErrUnexpected      = errors.New("unexpected packet")
)

// ProtocolViolationError marks a packet that references state the client
// does not have or carries invalid values. Such packets are ignored.
type ProtocolViolationError struct {
	Kind protocol.Kind
	Err  error
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation in %s: %v", e.Kind, e.Err)
}

func (e *ProtocolViolationError) Unwrap() error { return e.Err }

// StateInconsistencyError marks a packet that arrived before the state it
// acts on, typically racing a late join sync. Such packets are ignored.
type StateInconsistencyError struct {
	Kind protocol.Kind
	Err  error
}

func (e *StateInconsistencyError) Error() string {
	return fmt.Sprintf("state inconsistency in %s: %v", e.Kind, e.Err)
}

func (e *StateInconsistencyError) Unwrap() error { return e.Err }

func violation(k protocol.Kind, err error) error {
	return &ProtocolViolationError{Kind: k, Err: err}
}

func inconsistent(k protocol.Kind, err error) error {
	return &StateInconsistencyError{Kind: k, Err: err}
}

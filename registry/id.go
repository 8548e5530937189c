package registry

// ConnID is the transport's connection identifier for a player.
type ConnID int32

// BoardID encodes both the slot generation (upper 32 bits) and the arena slot
// index (lower 32 bits). A BoardID goes stale once its slot is reused.
type BoardID uint64

// NewBoardID creates a BoardID from a generation and slot index
func NewBoardID(generation uint32, index uint32) BoardID {
	return BoardID(uint64(generation)<<32 | uint64(index))
}

// Generation extracts the slot generation from the board ID
func (b BoardID) Generation() uint32 {
	return uint32(b >> 32)
}

// Index extracts the slot index from the board ID
func (b BoardID) Index() uint32 {
	return uint32(b & 0xFFFFFFFF)
}

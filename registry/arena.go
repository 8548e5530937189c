package registry

import "github.com/plus3/blockfall/board"

const arenaBlockSize = 64

// arena stores boards in fixed-size blocks so slot indices stay stable.
// Freed slots are reused with a bumped generation.
type arena struct {
	blocks      [][arenaBlockSize]*board.Board
	generations [][arenaBlockSize]uint32
	freeSlots   []int
	nextIndex   int
	live        int
}

func (a *arena) locate(index int) (int, int, bool) {
	if index < 0 || index >= a.nextIndex {
		return 0, 0, false
	}
	return index / arenaBlockSize, index % arenaBlockSize, true
}

// insert stores b and returns its id.
func (a *arena) insert(b *board.Board) BoardID {
	var index int
	if len(a.freeSlots) > 0 {
		index = a.freeSlots[len(a.freeSlots)-1]
		a.freeSlots = a.freeSlots[:len(a.freeSlots)-1]
	} else {
		index = a.nextIndex
		a.nextIndex++
		if index/arenaBlockSize >= len(a.blocks) {
			a.blocks = append(a.blocks, [arenaBlockSize]*board.Board{})
			a.generations = append(a.generations, [arenaBlockSize]uint32{})
		}
	}

	blockIdx, slotIdx, _ := a.locate(index)
	a.blocks[blockIdx][slotIdx] = b
	a.live++
	return NewBoardID(a.generations[blockIdx][slotIdx], uint32(index))
}

// get returns the board for id, or nil if the id is stale or empty.
func (a *arena) get(id BoardID) *board.Board {
	blockIdx, slotIdx, ok := a.locate(int(id.Index()))
	if !ok {
		return nil
	}
	if a.generations[blockIdx][slotIdx] != id.Generation() {
		return nil
	}
	return a.blocks[blockIdx][slotIdx]
}

// remove empties the slot for id. Stale ids are ignored.
func (a *arena) remove(id BoardID) bool {
	if a.get(id) == nil {
		return false
	}
	blockIdx, slotIdx, _ := a.locate(int(id.Index()))
	a.blocks[blockIdx][slotIdx] = nil
	a.generations[blockIdx][slotIdx]++
	a.freeSlots = append(a.freeSlots, int(id.Index()))
	a.live--
	return true
}

func (a *arena) len() int {
	return a.live
}

package board

import "fmt"

// Kind identifies one of the seven canonical tetrominoes.
type Kind uint8

const (
	KindI Kind = iota
	KindO
	KindT
	KindS
	KindZ
	KindJ
	KindL

	kindCount
)

var kindNames = [kindCount]string{"I", "O", "T", "S", "Z", "J", "L"}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

func (k Kind) Valid() bool {
	return k < kindCount
}

// ParseKind converts a wire shape id into a Kind.
func ParseKind(id int) (Kind, error) {
	if id < 0 || id >= int(kindCount) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, id)
	}
	return Kind(id), nil
}

const boxSize = 4

type box [boxSize][boxSize]bool

var baseShapes = [kindCount]box{
	{ // I
		{false, false, false, false},
		{true, true, true, true},
		{false, false, false, false},
		{false, false, false, false},
	},
	{ // O
		{false, false, false, false},
		{false, true, true, false},
		{false, true, true, false},
		{false, false, false, false},
	},
	{ // T
		{false, false, false, false},
		{false, true, false, false},
		{true, true, true, false},
		{false, false, false, false},
	},
	{ // S
		{false, false, false, false},
		{false, true, true, false},
		{true, true, false, false},
		{false, false, false, false},
	},
	{ // Z
		{false, false, false, false},
		{true, true, false, false},
		{false, true, true, false},
		{false, false, false, false},
	},
	{ // J
		{false, false, false, false},
		{true, false, false, false},
		{true, true, true, false},
		{false, false, false, false},
	},
	{ // L
		{false, false, false, false},
		{false, false, true, false},
		{true, true, true, false},
		{false, false, false, false},
	},
}

// offsets[kind][rotation] lists the occupied cells relative to the box origin.
var offsets [kindCount][4][]Point

func init() {
	for k := range kindCount {
		shape := baseShapes[k]
		for r := range 4 {
			offsets[k][r] = boxCells(shape)
			shape = rotateClockwise(shape)
		}
	}
}

func rotateClockwise(shape box) box {
	var rotated box
	for i := range boxSize {
		for j := range boxSize {
			rotated[j][boxSize-1-i] = shape[i][j]
		}
	}
	return rotated
}

func boxCells(shape box) []Point {
	cells := make([]Point, 0, 4)
	for y := range boxSize {
		for x := range boxSize {
			if shape[y][x] {
				cells = append(cells, Point{X: x, Y: y})
			}
		}
	}
	return cells
}

func normalizeRotation(r int) int {
	return ((r % 4) + 4) % 4
}

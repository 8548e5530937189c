package board

// Shape is the active falling piece of a Board. Once locked its cells belong
// to the Grid and every mutator fails with ErrShapeLocked.
type Shape struct {
	kind     Kind
	color    Color
	grid     *Grid
	pos      Point
	rotation int
	locked   bool
}

// NewShape creates an unlocked shape at pos with rotation 0.
func NewShape(kind Kind, c Color, grid *Grid, pos Point) (*Shape, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	return &Shape{
		kind:  kind,
		color: c,
		grid:  grid,
		pos:   pos,
	}, nil
}

func (s *Shape) Kind() Kind      { return s.kind }
func (s *Shape) Color() Color    { return s.color }
func (s *Shape) Position() Point { return s.pos }
func (s *Shape) Rotation() int   { return s.rotation }
func (s *Shape) Locked() bool    { return s.locked }

// Cells returns the grid coordinates occupied by the shape.
func (s *Shape) Cells() []Point {
	return s.cellsAt(s.pos, s.rotation)
}

func (s *Shape) cellsAt(pos Point, rotation int) []Point {
	rel := offsets[s.kind][rotation]
	cells := make([]Point, len(rel))
	for i, c := range rel {
		cells[i] = pos.Add(c)
	}
	return cells
}

func (s *Shape) fits(pos Point, rotation int) bool {
	for _, c := range offsets[s.kind][rotation] {
		p := pos.Add(c)
		if s.grid.Occupied(p.X, p.Y) {
			return false
		}
	}
	return true
}

// CanMove reports whether translating by delta keeps every cell inside the
// grid and over empty cells.
func (s *Shape) CanMove(delta Point) bool {
	return s.fits(s.pos.Add(delta), s.rotation)
}

// SetPosition moves the shape. A snapped move is applied as is; otherwise
// the move must be legal.
func (s *Shape) SetPosition(pos Point, snap bool) error {
	if s.locked {
		return ErrShapeLocked
	}
	if !snap && !s.fits(pos, s.rotation) {
		return ErrIllegalMove
	}
	s.pos = pos
	return nil
}

// Rotate advances the rotation by one clockwise step.
func (s *Shape) Rotate(snap bool) error {
	return s.RotateBy(snap, 1, false)
}

// RotateBy advances the rotation by steps, modulo 4. Without force a
// rotation that collides is rejected.
func (s *Shape) RotateBy(snap bool, steps int, force bool) error {
	return s.RotateTo(snap, s.rotation+steps, force)
}

// RotateTo sets the rotation to rotation modulo 4. Rotations apply in place,
// so snap only mirrors SetPosition's signature.
func (s *Shape) RotateTo(snap bool, rotation int, force bool) error {
	if s.locked {
		return ErrShapeLocked
	}
	next := normalizeRotation(rotation)
	if !force && !s.fits(s.pos, next) {
		return ErrIllegalMove
	}
	s.rotation = next
	return nil
}

// Lock merges the shape into its grid. Cells that fall outside the grid are
// dropped.
func (s *Shape) Lock() error {
	if s.locked {
		return ErrShapeLocked
	}
	for _, p := range s.Cells() {
		if p.X < 0 || p.X >= s.grid.width || p.Y < 0 || p.Y >= s.grid.height {
			continue
		}
		s.grid.set(p, s.color)
	}
	s.locked = true
	return nil
}

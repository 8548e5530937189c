// Package board holds one player's replica of the game: the grid, the active
// shape and the queue of upcoming shapes.
package board

const (
	DefaultWidth  = 10
	DefaultHeight = 20
)

// ShapeSpec describes a queued shape. Its position is assigned on dequeue.
type ShapeSpec struct {
	Kind  Kind
	Color Color
}

type Board struct {
	username string
	grid     *Grid
	current  *Shape
	queue    []ShapeSpec
	lost     bool
}

type Option func(*options)

type options struct {
	width, height int
	hole          HoleFunc
}

// WithSize overrides the default 10x20 grid.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithHoleFunc sets how garbage rows pick their hole column.
func WithHoleFunc(fn HoleFunc) Option {
	return func(o *options) {
		o.hole = fn
	}
}

func New(username string, opts ...Option) *Board {
	o := options{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(&o)
	}
	return &Board{
		username: username,
		grid:     NewGrid(o.width, o.height, o.hole),
	}
}

func (b *Board) Username() string { return b.username }
func (b *Board) Grid() *Grid      { return b.grid }
func (b *Board) HasLost() bool    { return b.lost }

// Current returns the active shape, or nil when there is none.
func (b *Board) Current() *Shape { return b.current }

// Queue returns a copy of the upcoming shapes in dequeue order.
func (b *Board) Queue() []ShapeSpec {
	return append([]ShapeSpec(nil), b.queue...)
}

// QueueShape appends spec to the end of the queue.
func (b *Board) QueueShape(spec ShapeSpec) {
	b.queue = append(b.queue, spec)
}

// SpawnPoint is where dequeued shapes appear.
func (b *Board) SpawnPoint() Point {
	return Point{X: (b.grid.width - boxSize) / 2, Y: 0}
}

// SetNextShape promotes the head of the queue to the current shape. When the
// spawn position is already occupied the board is marked lost.
func (b *Board) SetNextShape() error {
	if b.lost {
		return ErrBoardLost
	}
	if len(b.queue) == 0 {
		return ErrQueueEmpty
	}

	spec := b.queue[0]
	b.queue = b.queue[1:]

	shape, err := NewShape(spec.Kind, spec.Color, b.grid, b.SpawnPoint())
	if err != nil {
		return err
	}
	if !shape.fits(shape.pos, shape.rotation) {
		b.lost = true
		b.current = nil
		return ErrSpawnBlocked
	}

	b.current = shape
	return nil
}

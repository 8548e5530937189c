package client

import "time"

// Frame is passed to every system during one scheduler tick.
type Frame struct {
	DeltaTime float64
	Session   *Session

	err error
}

func newFrame(dt float64, s *Session) *Frame {
	return &Frame{
		DeltaTime: dt,
		Session:   s,
	}
}

// Delta returns DeltaTime as a duration.
func (f *Frame) Delta() time.Duration {
	return time.Duration(f.DeltaTime * float64(time.Second))
}

// Fail records err for the tick. Only the first error is kept; the
// remaining systems still run.
func (f *Frame) Fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

// System is one step of the per-frame update.
type System interface {
	Execute(frame *Frame)
}

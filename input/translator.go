// Package input turns local key edges into Input packets for the server.
package input

import (
	"fmt"

	"github.com/plus3/blockfall/protocol"
)

// KeySource reports key edges observed during the current frame.
type KeySource interface {
	JustPressed(a protocol.Action) bool
	JustReleased(a protocol.Action) bool
}

// Sender delivers messages reliably and in order.
type Sender interface {
	Send(m protocol.Message) error
}

// Translator emits one Input packet per key transition. Left, right and down
// report both press and release so the server can track held keys; rotate
// only reports presses.
type Translator struct {
	keys KeySource
	out  Sender
}

func NewTranslator(keys KeySource, out Sender) *Translator {
	return &Translator{keys: keys, out: out}
}

// Poll checks every action once and sends the edges seen this frame.
func (t *Translator) Poll() error {
	for _, a := range protocol.Actions {
		if t.keys.JustPressed(a) {
			if err := t.send(a, true); err != nil {
				return err
			}
		}
		if a == protocol.ActionRotate {
			continue
		}
		if t.keys.JustReleased(a) {
			if err := t.send(a, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Translator) send(a protocol.Action, pressed bool) error {
	if err := t.out.Send(protocol.Input{Action: a, Pressed: pressed}); err != nil {
		return fmt.Errorf("send %s input: %w", a, err)
	}
	return nil
}

package protocol

// Action is a logical player input.
type Action uint8

const (
	ActionLeft Action = iota
	ActionRight
	ActionRotate
	ActionDown
)

// Actions lists every Action in polling order.
var Actions = []Action{ActionLeft, ActionRight, ActionRotate, ActionDown}

func (a Action) String() string {
	switch a {
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionRotate:
		return "rotate"
	case ActionDown:
		return "down"
	default:
		return "unknown"
	}
}

// Hello opens a session.
type Hello struct {
	Username string `msgpack:"username"`
}

// Input reports a key edge for an action.
type Input struct {
	Action  Action `msgpack:"action"`
	Pressed bool   `msgpack:"pressed"`
}

func (Hello) Kind() Kind { return KindHello }
func (Input) Kind() Kind { return KindInput }

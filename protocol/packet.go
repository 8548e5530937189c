// Package protocol defines the packets exchanged with the game server.
//
// Server packets implement Packet and are dispatched through Visitor, so a new
// packet kind does not compile until every Visitor handles it.
package protocol

import "github.com/plus3/blockfall/registry"

type Kind uint8

const (
	KindWelcome Kind = iota + 1
	KindHello
	KindPlayerJoined
	KindPlayerLeft
	KindGameState
	KindSetShapePosition
	KindRotateShape
	KindLockShape
	KindClearLine
	KindQueueShape
	KindNextShape
	KindPlayerWon
	KindInput
)

var kindNames = map[Kind]string{
	KindWelcome:          "Welcome",
	KindHello:            "Hello",
	KindPlayerJoined:     "PlayerJoined",
	KindPlayerLeft:       "PlayerLeft",
	KindGameState:        "GameState",
	KindSetShapePosition: "SetShapePosition",
	KindRotateShape:      "RotateShape",
	KindLockShape:        "LockShape",
	KindClearLine:        "ClearLine",
	KindQueueShape:       "QueueShape",
	KindNextShape:        "NextShape",
	KindPlayerWon:        "PlayerWon",
	KindInput:            "Input",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Message is anything that can be framed on the wire.
type Message interface {
	Kind() Kind
}

// Packet is an authoritative server event.
type Packet interface {
	Message
	Accept(v Visitor) error
}

// Visitor handles every server packet kind.
type Visitor interface {
	VisitWelcome(Welcome) error
	VisitPlayerJoined(PlayerJoined) error
	VisitPlayerLeft(PlayerLeft) error
	VisitGameState(GameState) error
	VisitSetShapePosition(SetShapePosition) error
	VisitRotateShape(RotateShape) error
	VisitLockShape(LockShape) error
	VisitClearLine(ClearLine) error
	VisitQueueShape(QueueShape) error
	VisitNextShape(NextShape) error
	VisitPlayerWon(PlayerWon) error
}

// Welcome completes the handshake and carries the local connection id.
type Welcome struct {
	Conn registry.ConnID `msgpack:"conn"`
}

type PlayerJoined struct {
	Conn     registry.ConnID `msgpack:"conn"`
	Username string          `msgpack:"username"`
}

type PlayerLeft struct {
	Conn registry.ConnID `msgpack:"conn"`
}

// GameState syncs a late joiner with every player already connected.
type GameState struct {
	Conns     []registry.ConnID `msgpack:"conns"`
	Usernames []string          `msgpack:"usernames"`
}

// SetShapePosition always targets the local player's shape.
type SetShapePosition struct {
	X int `msgpack:"x"`
	Y int `msgpack:"y"`
}

// RotateShape always targets the local player's shape.
type RotateShape struct{}

type LockShape struct {
	Conn     registry.ConnID `msgpack:"conn"`
	X        int             `msgpack:"x"`
	Y        int             `msgpack:"y"`
	Rotation int             `msgpack:"rotation"`
}

type ClearLine struct {
	Conn registry.ConnID `msgpack:"conn"`
	Line int             `msgpack:"line"`
}

type QueueShape struct {
	ShapeID int    `msgpack:"shape"`
	Color   uint32 `msgpack:"color"`
}

type NextShape struct {
	Conn registry.ConnID `msgpack:"conn"`
}

type PlayerWon struct {
	Conn registry.ConnID `msgpack:"conn"`
}

func (Welcome) Kind() Kind          { return KindWelcome }
func (PlayerJoined) Kind() Kind     { return KindPlayerJoined }
func (PlayerLeft) Kind() Kind       { return KindPlayerLeft }
func (GameState) Kind() Kind        { return KindGameState }
func (SetShapePosition) Kind() Kind { return KindSetShapePosition }
func (RotateShape) Kind() Kind      { return KindRotateShape }
func (LockShape) Kind() Kind        { return KindLockShape }
func (ClearLine) Kind() Kind        { return KindClearLine }
func (QueueShape) Kind() Kind       { return KindQueueShape }
func (NextShape) Kind() Kind        { return KindNextShape }
func (PlayerWon) Kind() Kind        { return KindPlayerWon }

func (p Welcome) Accept(v Visitor) error          { return v.VisitWelcome(p) }
func (p PlayerJoined) Accept(v Visitor) error     { return v.VisitPlayerJoined(p) }
func (p PlayerLeft) Accept(v Visitor) error       { return v.VisitPlayerLeft(p) }
func (p GameState) Accept(v Visitor) error        { return v.VisitGameState(p) }
func (p SetShapePosition) Accept(v Visitor) error { return v.VisitSetShapePosition(p) }
func (p RotateShape) Accept(v Visitor) error      { return v.VisitRotateShape(p) }
func (p LockShape) Accept(v Visitor) error        { return v.VisitLockShape(p) }
func (p ClearLine) Accept(v Visitor) error        { return v.VisitClearLine(p) }
func (p QueueShape) Accept(v Visitor) error       { return v.VisitQueueShape(p) }
func (p NextShape) Accept(v Visitor) error        { return v.VisitNextShape(p) }
func (p PlayerWon) Accept(v Visitor) error        { return v.VisitPlayerWon(p) }

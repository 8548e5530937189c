package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownKind = errors.New("unknown packet kind")
	ErrNotPacket   = errors.New("message is not a server packet")
)

// envelope is the frame carried by every binary websocket message.
type envelope struct {
	Kind Kind               `msgpack:"k"`
	Body msgpack.RawMessage `msgpack:"b"`
}

func decodeBody[T Message](body []byte) (Message, error) {
	var m T
	if err := msgpack.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

var decoders = map[Kind]func([]byte) (Message, error){
	KindWelcome:          decodeBody[Welcome],
	KindHello:            decodeBody[Hello],
	KindPlayerJoined:     decodeBody[PlayerJoined],
	KindPlayerLeft:       decodeBody[PlayerLeft],
	KindGameState:        decodeBody[GameState],
	KindSetShapePosition: decodeBody[SetShapePosition],
	KindRotateShape:      decodeBody[RotateShape],
	KindLockShape:        decodeBody[LockShape],
	KindClearLine:        decodeBody[ClearLine],
	KindQueueShape:       decodeBody[QueueShape],
	KindNextShape:        decodeBody[NextShape],
	KindPlayerWon:        decodeBody[PlayerWon],
	KindInput:            decodeBody[Input],
}

// Encode frames m for the wire.
func Encode(m Message) ([]byte, error) {
	body, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", m.Kind(), err)
	}
	return msgpack.Marshal(&envelope{Kind: m.Kind(), Body: body})
}

// Decode parses one frame into its concrete message type.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	decode, ok := decoders[env.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, env.Kind)
	}

	m, err := decode(env.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", env.Kind, err)
	}
	return m, nil
}

// DecodePacket parses a frame that must hold a server packet.
func DecodePacket(data []byte) (Packet, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	p, ok := m.(Packet)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPacket, m.Kind())
	}
	return p, nil
}

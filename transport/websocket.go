// Package transport connects the client to the game server over a websocket.
// Websocket frames ride on one TCP stream, so delivery is reliable and FIFO.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/plus3/blockfall/protocol"
	"github.com/plus3/blockfall/registry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = time.Minute
	pingPeriod = pongWait * 9 / 10
)

var ErrHandshake = errors.New("handshake failed")

// Conn is an established session with the server.
type Conn struct {
	socket *websocket.Conn
	local  registry.ConnID
	log    zerolog.Logger

	writeMu sync.Mutex
	closeMu sync.Once
}

// Dial connects to url, sends Hello and waits for the server's Welcome,
// which assigns the local connection id.
func Dial(ctx context.Context, url, username string, log zerolog.Logger) (*Conn, error) {
	socket, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Conn{socket: socket, log: log}
	if err := c.handshake(ctx, username); err != nil {
		socket.Close()
		return nil, err
	}

	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.log = log.With().Int32("local", int32(c.local)).Logger()
	c.log.Info().Str("url", url).Msg("connected")
	return c, nil
}

func (c *Conn) handshake(ctx context.Context, username string) error {
	if err := c.Send(protocol.Hello{Username: username}); err != nil {
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.socket.SetReadDeadline(deadline)
		defer c.socket.SetReadDeadline(time.Time{})
	}
	// Unblock the read below when ctx ends before the Welcome arrives.
	stop := context.AfterFunc(ctx, func() {
		c.socket.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.socket.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrHandshake, ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	m, err := protocol.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	welcome, ok := m.(protocol.Welcome)
	if !ok {
		return fmt.Errorf("%w: expected Welcome, got %s", ErrHandshake, m.Kind())
	}
	c.local = welcome.Conn
	return nil
}

// Local returns the connection id the server assigned to this client.
func (c *Conn) Local() registry.ConnID { return c.local }

// Send writes m as one binary frame. Safe for concurrent use.
func (c *Conn) Send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.socket.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", m.Kind(), err)
	}
	return nil
}

// ReadLoop delivers every server packet to deliver, in arrival order, until
// ctx is cancelled or the connection fails, and closes the connection on
// return. Undecodable frames are logged and skipped. A normal close from the
// server returns nil.
func (c *Conn) ReadLoop(ctx context.Context, deliver func(protocol.Packet)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	context.AfterFunc(ctx, func() { c.Close() })

	go c.pingLoop(ctx)

	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		p, err := protocol.DecodePacket(data)
		if err != nil {
			c.log.Warn().Err(err).Int("len", len(data)).Msg("dropping frame")
			continue
		}
		deliver(p)
	}
}

func (c *Conn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close sends a close frame and tears the socket down. Only the first call
// has an effect.
func (c *Conn) Close() error {
	var err error
	c.closeMu.Do(func() {
		c.writeMu.Lock()
		c.socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.socket.Close()
	})
	return err
}

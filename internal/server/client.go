package server

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// client is one websocket connection. Reads are pumped on one goroutine,
// writes on another; send is the only way to reach the connection.
type client struct {
	gateway *Gateway
	conn    *websocket.Conn
	send    chan []byte
	logger  *zap.Logger

	// Game subscriptions to tear down on disconnect.
	unsubscribe []func()
}

func (c *client) readPump() {
	defer func() {
		c.gateway.drop(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		c.gateway.handleMessage(c, raw)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue hands a message to the write pump, dropping the connection if its
// buffer is full rather than blocking the caller.
func (c *client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.gateway.drop(c)
		c.conn.Close()
	}
}

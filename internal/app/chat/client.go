/*
Package chat contains the core logic for real-time chat: presence tracking, room membership,
message routing and the websocket transport that carries events to and from clients.

This file defines the Client struct, the websocket side of one connection. It implements Sink
for the Hub, feeds inbound frames to the Manager one at a time, and runs the read and write pumps.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// capacity of the outbound queue; a client that falls this far behind is disconnected.
	sendQueueSize = 256
)

// Client represents an active WebSocket connection and the user it authenticated as.
type Client struct {
	// id is the opaque connection id used by the presence table and hub.
	id string

	// username is the identity established by the handshake token.
	username string

	// manager receives inbound frames and the final disconnect.
	manager *Manager

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel used to queue messages waiting to be sent to the client.
	send chan []byte

	// done is closed once when the connection must stop.
	done      chan struct{}
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded websocket connection.
func NewClient(manager *Manager, wsConn *websocket.Conn, username string) *Client {
	id := uuid.New().String()

	return &Client{
		id:       id,
		username: username,
		manager:  manager,
		conn:     wsConn,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		logger: logx.Logger().With().
			Str("component", "Client").
			Str("conn_id", id).
			Str("username", username).
			Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Send implements Sink. A full queue means the client is not keeping up; it is disconnected.
func (c *Client) Send(ev Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(ev.Type)).Msg("Error marshaling event for client")
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full. Disconnecting slow client.")
		c.Close()
		return false
	}
}

// Close implements Sink. It stops the write pump, which closes the socket and ends the read pump.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Serve registers the client, runs both pumps and blocks until the connection is gone.
func (c *Client) Serve() {
	c.manager.Connect(c.id, c)

	go c.WritePump()

	c.ReadPump()
}

// ReadPump reads frames until the connection fails or closes, handing each to the Manager
// in order, then performs the disconnect cleanup.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		c.manager.HandleFrame(c.id, c.username, frame)
	}
}

// cleanupOnDisconnect funnels the closed connection into the membership router.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.manager.Disconnect(c.id)
	c.Close()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump writes queued events and periodic pings until the client is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case data := <-c.send:
			if !c.write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			c.drain()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain flushes events that were queued before the client was closed.
func (c *Client) drain() {
	for {
		select {
		case data := <-c.send:
			if !c.write(websocket.TextMessage, data) {
				return
			}
		default:
			return
		}
	}
}

// write sends one websocket message. It returns false if the write pump should stop.
func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing message")
		return false
	}

	return true
}

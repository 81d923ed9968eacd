// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/metrics"
)

var (
	// ErrClientClosed is returned by Send after the client disconnected.
	ErrClientClosed = errors.New("client closed")
	// ErrSendBufferFull is returned by Send when the client cannot keep up.
	// The client is closed as a side effect.
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Message types on the push channel.
const (
	MessageTypeNewPost = "new-post"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is the envelope of every frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ClientOptions tune one connection.
type ClientOptions struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	InboundRate    rate.Limit
	InboundBurst   int
}

// DefaultClientOptions matches the config defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		SendBuffer:     256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 512 * 1024,
		InboundRate:    10,
		InboundBurst:   20,
	}
}

func (o ClientOptions) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// Client is one admitted push connection.
type Client struct {
	id       string
	userID   string
	conn     *websocket.Conn
	registry *Registry
	opts     ClientOptions
	limiter  *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient binds conn to userID. The client is not admitted until Start.
func NewClient(registry *Registry, conn *websocket.Conn, userID string, opts ClientOptions) *Client {
	return &Client{
		id:       uuid.NewString(),
		userID:   userID,
		conn:     conn,
		registry: registry,
		opts:     opts,
		limiter:  rate.NewLimiter(opts.InboundRate, opts.InboundBurst),
		send:     make(chan []byte, opts.SendBuffer),
		done:     make(chan struct{}),
	}
}

// ID implements Session.
func (c *Client) ID() string { return c.id }

// UserID is the identity the client was admitted under.
func (c *Client) UserID() string { return c.userID }

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Send implements Session. It never blocks.
func (c *Client) Send(msg []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
		logging.Warn().Str("session_id", c.id).Str("user_id", c.userID).Msg("Send buffer full, disconnecting slow client")
		c.Close()
		return ErrSendBufferFull
	}
}

// Close releases the client from the registry and closes the connection.
// Only the first call has any effect.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.registry != nil {
			c.registry.Release(c.userID, c.id)
		}
		if c.conn != nil {
			// WriteControl and Close are safe alongside the write pump.
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteWait))
			_ = c.conn.Close()
		}
	})
}

// Start admits the client and launches its pumps. If admission fails the
// connection is closed and the error returned.
func (c *Client) Start() error {
	if err := c.registry.Admit(c.userID, c); err != nil {
		c.Close()
		return err
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Debug().Err(err).Str("session_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		if !c.limiter.Allow() {
			metrics.WSErrors.WithLabelValues("rate_limited").Inc()
			logging.Warn().Str("session_id", c.id).Str("user_id", c.userID).Msg("Inbound rate exceeded, disconnecting client")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(c.opts.WriteWait))
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == MessageTypePing {
			pong, _ := json.Marshal(Message{Type: MessageTypePong})
			_ = c.Send(pong)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Str("session_id", c.id).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ Session = (*Client)(nil)

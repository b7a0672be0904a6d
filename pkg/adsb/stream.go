package adsb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionState describes the stream client's link to its simulator.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// FrameHandler receives every text frame read from the stream.
type FrameHandler func(data []byte)

// StreamClient consumes a simulator's WebSocket stream and reconnects with
// exponential backoff whenever the connection drops.
type StreamClient struct {
	url     string
	retry   RetryConfig
	dialer  *websocket.Dialer
	onState func(ConnectionState)

	// readTimeout bounds the silence tolerated before the link is considered dead
	readTimeout time.Duration

	// stableAfter is how long a session must last before the reconnect
	// backoff starts over
	stableAfter time.Duration
}

// StreamOption customizes a StreamClient.
type StreamOption func(*StreamClient)

// WithRetry overrides the reconnect backoff.
func WithRetry(cfg RetryConfig) StreamOption {
	return func(c *StreamClient) { c.retry = cfg }
}

// WithStateCallback registers a connection state observer.
func WithStateCallback(fn func(ConnectionState)) StreamOption {
	return func(c *StreamClient) { c.onState = fn }
}

// WithReadTimeout overrides the read deadline (default: 30 seconds).
func WithReadTimeout(d time.Duration) StreamOption {
	return func(c *StreamClient) { c.readTimeout = d }
}

// NewStreamClient creates a stream client for the given ws:// URL.
func NewStreamClient(url string, opts ...StreamOption) *StreamClient {
	c := &StreamClient{
		url: url,
		retry: RetryConfig{
			MaxRetries:   -1,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		readTimeout: 30 * time.Second,
		stableAfter: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects and delivers frames to handle until ctx is cancelled.
// Disconnects are logged and followed by a reconnect; handle is never
// called concurrently. Sessions that drop quickly grow the backoff between
// reconnects so a server that accepts and then closes is not hammered.
func (c *StreamClient) Run(ctx context.Context, handle FrameHandler) error {
	drops := 0
	for {
		if drops > 0 {
			if err := sleepContext(ctx, nextDelay(c.retry, drops-1)); err != nil {
				c.setState(Disconnected)
				return err
			}
		}

		c.setState(Connecting)
		conn, err := RetryWithBackoffResult(ctx, c.retry, func() (*websocket.Conn, error) {
			conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
			if err != nil {
				log.Printf("⚠️  Stream %s unavailable: %v", c.url, err)
			}
			return conn, err
		})
		if err != nil {
			c.setState(Disconnected)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to connect to %s: %w", c.url, err)
		}

		c.setState(Connected)
		log.Printf("✅ Connected to stream %s", c.url)

		connectedAt := time.Now()
		err = c.readLoop(ctx, conn, handle)
		conn.Close()
		c.setState(Disconnected)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if time.Since(connectedAt) >= c.stableAfter {
			drops = 0
		}
		drops++
		log.Printf("🔌 Stream %s disconnected: %v (reconnecting in %v)", c.url, err, nextDelay(c.retry, drops-1))
	}
}

func (c *StreamClient) readLoop(ctx context.Context, conn *websocket.Conn, handle FrameHandler) error {
	// Unblock ReadMessage on cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("closed by server")
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(data)
	}
}

func (c *StreamClient) setState(s ConnectionState) {
	if c.onState != nil {
		c.onState(s)
	}
}

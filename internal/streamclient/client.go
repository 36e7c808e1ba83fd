// Package streamclient maintains exactly one persistent WebSocket connection
// to the streaming protocol, dispatching inbound frames to an injected
// callback and re-issuing subscriptions after every reconnect.
package streamclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/kalshi-collector/internal/auth"
	"github.com/rickgao/kalshi-collector/internal/wire"
)

// Client maintains a single WebSocket connection, reconnecting with
// exponential backoff and replaying subscriptions via OnReconnect.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.RWMutex
	conn       *websocket.Conn
	state      State
	lastFrame  time.Time
	writeMu    sync.Mutex
	nextCmdID  int64

	stopCh chan struct{}
	doneCh chan struct{}
	closed atomic.Bool
}

// New creates a stream client. cfg.OnMessage and cfg.OnReconnect must be set.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WatchdogTimeout == 0 {
		cfg.WatchdogTimeout = DefaultConfig().WatchdogTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if cfg.ReconnectBase == 0 {
		cfg.ReconnectBase = DefaultConfig().ReconnectBase
	}
	if cfg.ReconnectMax == 0 {
		cfg.ReconnectMax = DefaultConfig().ReconnectMax
	}

	return &Client{
		cfg:    cfg,
		logger: logger.With("component", "streamclient"),
		state:  StateDisconnected,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Start connects and runs the receive/watchdog loops until Stop is called or
// ctx is canceled. It returns after the connect-and-serve loop exits.
func (c *Client) Start(ctx context.Context) {
	defer close(c.doneCh)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		c.setState(StateConnecting)
		if err := c.connect(ctx); err != nil {
			c.logger.Warn("connect failed", "error", err, "attempt", attempt)
			if !c.sleepBackoff(ctx, attempt) {
				return
			}
			attempt++
			continue
		}

		attempt = 0
		c.setState(StateConnected)
		if c.cfg.OnReconnect != nil {
			c.cfg.OnReconnect()
		}

		// serve blocks until the connection drops or a stop is requested.
		c.serve(ctx)

		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		c.setState(StateReconnecting)
	}
}

// Stop cooperatively stops the receive loop and closes the connection.
func (c *Client) Stop() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.stopCh)

	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
	}

	<-c.doneCh
}

func (c *Client) connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Accept", "application/json")

	if c.cfg.KeyID != "" && c.cfg.PrivateKey != nil {
		creds := &auth.Credentials{KeyID: c.cfg.KeyID, PrivateKey: c.cfg.PrivateKey}
		headers, err := creds.SignWebSocket()
		if err != nil {
			return fmt.Errorf("sign websocket handshake: %w", err)
		}
		for k, v := range headers {
			header.Set(k, v)
		}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return err
	}

	conn.SetPingHandler(func(data string) error {
		c.touch()
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	c.mu.Lock()
	c.conn = conn
	c.lastFrame = time.Now()
	c.mu.Unlock()

	c.logger.Info("connected", "url", c.cfg.URL)
	return nil
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastFrame = time.Now()
	c.mu.Unlock()
}

// serve runs the read loop and watchdog until the connection errors out or a
// stop/cancellation is observed. Frames are delivered to OnMessage in
// receive order, one at a time.
func (c *Client) serve(ctx context.Context) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return
	}

	readErrCh := make(chan error, 1)

	go func() {
		defer close(readErrCh)
		for {
			_, data, err := conn.ReadMessage()
			receivedAt := time.Now()
			if err != nil {
				readErrCh <- err
				return
			}
			c.touch()
			if c.cfg.OnMessage != nil {
				c.cfg.OnMessage(data, receivedAt)
			}
		}
	}()

	watchdog := time.NewTicker(c.cfg.WatchdogTimeout / 2)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case err := <-readErrCh:
			if err != nil {
				c.logger.Warn("read error, disconnecting", "error", err)
			}
			return
		case <-watchdog.C:
			c.mu.RLock()
			last := c.lastFrame
			c.mu.RUnlock()
			if time.Since(last) < c.cfg.WatchdogTimeout {
				continue
			}
			// Liveness probe: a failed ping means the connection is dead.
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, []byte("watchdog"), time.Now().Add(c.cfg.WriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Warn("watchdog probe failed, disconnecting", "error", err)
				return
			}
		}
	}
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) bool {
	d := nextBackoff(attempt, c.cfg.ReconnectBase, c.cfg.ReconnectMax)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-c.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// nextCommandID assigns a monotonically increasing outbound command id.
func (c *Client) nextCommandID() int64 {
	return atomic.AddInt64(&c.nextCmdID, 1)
}

// Subscribe sends a subscribe command for the given channels (and, for
// per-ticker channels, tickers) and returns the assigned command id.
func (c *Client) Subscribe(channels []string, tickers []string) (int64, error) {
	return c.sendCommand(wire.CmdSubscribe, channels, tickers)
}

// Unsubscribe sends an unsubscribe command.
func (c *Client) Unsubscribe(channels []string, tickers []string) (int64, error) {
	return c.sendCommand(wire.CmdUnsubscribe, channels, tickers)
}

func (c *Client) sendCommand(cmd string, channels, tickers []string) (int64, error) {
	c.mu.RLock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.RUnlock()
	if !connected || conn == nil {
		return 0, ErrNotConnected
	}

	id := c.nextCommandID()
	frame := wire.Command{
		ID:  id,
		Cmd: cmd,
		Params: wire.CommandParams{
			Channels:      channels,
			MarketTickers: tickers,
		},
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return 0, fmt.Errorf("marshal command: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, fmt.Errorf("write command: %w", err)
	}
	return id, nil
}

package streamclient

import (
	"crypto/rsa"
	"errors"
	"time"
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateReconnecting  State = "reconnecting"
)

var (
	ErrNotConnected  = errors.New("stream client: not connected")
	ErrAlreadyClosed = errors.New("stream client: already closed")
	ErrStale         = errors.New("stream client: no inbound frame within watchdog timeout")
)

// Config configures the stream client.
type Config struct {
	URL             string
	KeyID           string
	PrivateKey      *rsa.PrivateKey
	WatchdogTimeout time.Duration
	WriteTimeout    time.Duration
	ReconnectBase   time.Duration // default 1s, min(2^attempt, max)
	ReconnectMax    time.Duration // default 60s

	// OnMessage is invoked, in receive order, for every inbound frame.
	// It must not block for long: it runs on the client's single receive
	// loop.
	OnMessage func(raw []byte, receivedAt time.Time)

	// OnReconnect is invoked after a successful handshake (including the
	// first connect). Implementations re-issue all subscribe commands.
	OnReconnect func()
}

// DefaultConfig returns sensible defaults for the optional fields.
func DefaultConfig() Config {
	return Config{
		WatchdogTimeout: 30 * time.Second,
		WriteTimeout:    5 * time.Second,
		ReconnectBase:   1 * time.Second,
		ReconnectMax:    60 * time.Second,
	}
}

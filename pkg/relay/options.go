package relay

import (
	"net/http"
	"time"
)

// Option is the type of the arguments accepted by NewSession.
type Option interface {
	IsSessionOption()
}

// WithRequestHeader sets headers for the websocket handshake, e.g. an
// Origin header.
type WithRequestHeader http.Header

func (WithRequestHeader) IsSessionOption() {}

// WithQueueDepth overrides the outbound queue depth. When the queue is
// full the oldest frame is dropped.
type WithQueueDepth int

func (WithQueueDepth) IsSessionOption() {}

// WithDialTimeout bounds how long a single connection attempt may take.
type WithDialTimeout time.Duration

func (WithDialTimeout) IsSessionOption() {}

// WithPingInterval overrides how often pings are written on an idle
// connection.
type WithPingInterval time.Duration

func (WithPingInterval) IsSessionOption() {}

// WithBackoff overrides the reconnect backoff floor and cap.
type WithBackoff struct {
	Min, Max time.Duration
}

func (WithBackoff) IsSessionOption() {}

// WithNotify installs an observer called for every outbound frame
// written to the wire. It must not block.
type WithNotify func(url string, msg []byte)

func (WithNotify) IsSessionOption() {}

var (
	_ Option = (WithRequestHeader)(nil)
	_ Option = WithQueueDepth(0)
	_ Option = WithDialTimeout(0)
	_ Option = WithPingInterval(0)
	_ Option = WithBackoff{}
	_ Option = (WithNotify)(nil)
)

// Package relay maintains one persistent connection to a single relay.
// A Session runs its own goroutine that dials, serves the connection,
// and reconnects with jittered exponential backoff until terminated.
// On every successful connect it replays all active subscriptions, so a
// reconnection is invisible to the consumer except for a pair of state
// change notifications.
package relay

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcdallas/nostr-sdk/pkg/connection"
	"github.com/mcdallas/nostr-sdk/pkg/context"
	"github.com/mcdallas/nostr-sdk/pkg/envelope"
	"github.com/mcdallas/nostr-sdk/pkg/normalize"
	"github.com/mcdallas/nostr-sdk/pkg/slog"
	"github.com/puzpuzpuz/xsync/v2"
)

var log, chk = slog.New(os.Stderr)

const (
	defaultQueueDepth   = 512
	defaultDialTimeout  = 7 * time.Second
	defaultPingInterval = 29 * time.Second
)

// Session is the per-relay state machine. All methods are safe for
// concurrent use and none of them blocks on the network.
type Session struct {
	URL string

	header http.Header

	ctx    context.T
	cancel context.F

	status atomic.Int32

	// active subscriptions, replayed on every connect; replayMu makes
	// the replay snapshot atomic with the flip to Connected
	subs     *xsync.MapOf[string, []byte]
	replayMu sync.Mutex

	sendMu    sync.Mutex
	sendQueue chan []byte

	inbound chan<- Inbound
	states  chan<- StateChange

	dialTimeout  time.Duration
	pingInterval time.Duration
	bo           backoff
	notify       func(url string, msg []byte)

	startOnce sync.Once
}

// NewSession prepares a session for url. Parsed frames are delivered on
// inbound and lifecycle transitions on states; both channels are owned
// by the caller and are never closed by the session. Nothing happens
// until Start is called.
func NewSession(c context.T, url string, inbound chan<- Inbound,
	states chan<- StateChange, opts ...Option) (*Session, error) {

	u := normalize.URL(url)
	if u == "" {
		return nil, fmt.Errorf("invalid relay URL '%s'", url)
	}

	ctx, cancel := context.Cancel(c)
	s := &Session{
		URL:          u,
		ctx:          ctx,
		cancel:       cancel,
		subs:         xsync.NewMapOf[[]byte](),
		inbound:      inbound,
		states:       states,
		dialTimeout:  defaultDialTimeout,
		pingInterval: defaultPingInterval,
		bo:           backoff{min: defaultBackoffMin, max: defaultBackoffMax},
	}

	queueDepth := defaultQueueDepth
	for _, opt := range opts {
		switch o := opt.(type) {
		case WithRequestHeader:
			s.header = http.Header(o)
		case WithQueueDepth:
			queueDepth = int(o)
		case WithDialTimeout:
			s.dialTimeout = time.Duration(o)
		case WithPingInterval:
			s.pingInterval = time.Duration(o)
		case WithBackoff:
			s.bo.min, s.bo.max = o.Min, o.Max
		case WithNotify:
			s.notify = o
		}
	}
	s.sendQueue = make(chan []byte, queueDepth)

	return s, nil
}

// Start launches the connect/serve/reconnect loop. Calling it again is
// a no-op.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	return Status(s.status.Load())
}

// IsConnected reports whether the session currently has a live
// connection.
func (s *Session) IsConnected() bool {
	return s.Status() == StatusConnected
}

// Terminate tears the session down. Any pending reconnect timer is
// cancelled and no further transitions occur after the final one to
// StatusTerminated.
func (s *Session) Terminate() {
	s.cancel()
}

// Send queues a frame for delivery in submission order. When the queue
// is full the oldest frame is dropped so the caller never blocks.
func (s *Session) Send(msg []byte) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	for {
		select {
		case s.sendQueue <- msg:
			return
		default:
			select {
			case old := <-s.sendQueue:
				log.W.F("{%s} outbound queue full, dropping oldest frame %.60s", s.URL, old)
			default:
			}
		}
	}
}

// Subscribe registers frame as the open-subscription frame for id. It
// is sent now when connected; either way it is replayed on every
// subsequent connect until Unsubscribe. The replayMu handshake with
// serve guarantees the frame goes out exactly once per connection:
// either it makes the replay snapshot, or the session was already
// announced connected and it is queued here.
func (s *Session) Subscribe(id string, frame []byte) {
	s.replayMu.Lock()
	s.subs.Store(id, frame)
	connected := s.Status() == StatusConnected
	s.replayMu.Unlock()
	if connected {
		s.Send(frame)
	}
}

// Unsubscribe forgets the subscription and queues its close frame.
func (s *Session) Unsubscribe(id string, frame []byte) {
	s.replayMu.Lock()
	s.subs.Delete(id)
	s.replayMu.Unlock()
	s.Send(frame)
}

func (s *Session) run() {
	defer s.transition(StatusTerminated, nil)
	for {
		if s.ctx.Err() != nil {
			return
		}
		s.transition(StatusConnecting, nil)

		dialCtx, cancelDial := context.Timeout(s.ctx, s.dialTimeout)
		conn, err := connection.New(dialCtx, s.URL, s.header)
		cancelDial()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.transition(StatusDisconnected, err)
			if !s.wait(s.bo.next()) {
				return
			}
			continue
		}

		start := time.Now()
		err = s.serve(conn)
		conn.Close()
		if s.ctx.Err() != nil {
			return
		}
		if time.Since(start) >= stabilityThreshold {
			s.bo.reset()
		}
		s.transition(StatusDisconnected, err)
		if !s.wait(s.bo.next()) {
			return
		}
	}
}

// serve pumps one live connection until it fails or the session is
// terminated. The writer goroutine owns all writes; the calling
// goroutine owns all reads.
func (s *Session) serve(conn *connection.C) error {
	cx, cancel := context.Cancel(s.ctx)
	defer cancel()

	// unblocks the reader when the session is terminated mid-read
	go func() {
		<-cx.Done()
		conn.Close()
	}()

	// the replay snapshot and the flip to Connected are atomic with
	// respect to Subscribe, so no subscription is both snapshotted and
	// self-sent
	s.replayMu.Lock()
	replay := make([][]byte, 0)
	s.subs.Range(func(id string, frame []byte) bool {
		replay = append(replay, frame)
		return true
	})
	s.transition(StatusConnected, nil)
	s.replayMu.Unlock()

	writeErr := make(chan error, 1)
	go func() {
		for _, frame := range replay {
			if err := conn.WriteMessage(frame); chk.E(err) {
				writeErr <- err
				conn.Close()
				return
			}
			log.D.F("{%s} resubscribed %.60s", s.URL, frame)
			s.observe(frame)
		}

		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case msg := <-s.sendQueue:
				if err := conn.WriteMessage(msg); chk.E(err) {
					writeErr <- err
					conn.Close()
					return
				}
				s.observe(msg)
			case <-ticker.C:
				if err := conn.Ping(); chk.E(err) {
					writeErr <- err
					conn.Close()
					return
				}
			case <-cx.Done():
				return
			}
		}
	}()

	buf := new(bytes.Buffer)
	for {
		buf.Reset()
		if err := conn.ReadMessage(cx, buf); err != nil {
			select {
			case werr := <-writeErr:
				return werr
			default:
			}
			return err
		}

		env, err := envelope.ParseMessage(buf.Bytes())
		if err != nil {
			// a malformed frame costs us nothing but itself
			log.D.F("{%s} dropping frame: %v", s.URL, err)
			continue
		}

		select {
		case s.inbound <- Inbound{URL: s.URL, Envelope: env}:
		case <-cx.Done():
			return nil
		}
	}
}

func (s *Session) observe(msg []byte) {
	if s.notify != nil {
		s.notify(s.URL, msg)
	}
}

func (s *Session) transition(st Status, err error) {
	s.status.Store(int32(st))
	sc := StateChange{URL: s.URL, Status: st, Err: err}
	if st == StatusTerminated {
		select {
		case s.states <- sc:
		default:
		}
		return
	}
	select {
	case s.states <- sc:
	case <-s.ctx.Done():
	}
}

func (s *Session) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

package relay

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/mcdallas/nostr-sdk/pkg/context"
	"github.com/mcdallas/nostr-sdk/pkg/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRelay is an in-process websocket server that records every text
// frame a client sends and hands out the accepted connections so tests
// can talk back or hang up.
type testRelay struct {
	srv    *httptest.Server
	frames chan []byte
	conns  chan net.Conn
}

func newTestRelay(t *testing.T) *testRelay {
	tr := &testRelay{
		frames: make(chan []byte, 64),
		conns:  make(chan net.Conn, 8),
	}
	tr.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		tr.conns <- conn
		go func() {
			for {
				msg, op, err := wsutil.ReadClientData(conn)
				if err != nil {
					return
				}
				if op == ws.OpText {
					tr.frames <- msg
				}
			}
		}()
	}))
	t.Cleanup(tr.srv.Close)
	return tr
}

func (tr *testRelay) url() string {
	return "ws" + strings.TrimPrefix(tr.srv.URL, "http")
}

func (tr *testRelay) nextFrame(t *testing.T) []byte {
	t.Helper()
	select {
	case f := <-tr.frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame from the client")
		return nil
	}
}

func (tr *testRelay) nextConn(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-tr.conns:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the client to connect")
		return nil
	}
}

func waitStatus(t *testing.T, states <-chan StateChange, want Status) StateChange {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case sc := <-states:
			if sc.Status == want {
				return sc
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %v", want)
		}
	}
}

func newTestSession(t *testing.T, url string, opts ...Option) (*Session, chan Inbound, chan StateChange) {
	t.Helper()
	inbound := make(chan Inbound, 64)
	states := make(chan StateChange, 64)
	opts = append([]Option{WithBackoff{Min: 50 * time.Millisecond, Max: 200 * time.Millisecond}}, opts...)
	s, err := NewSession(context.Bg(), url, inbound, states, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Terminate)
	return s, inbound, states
}

func TestNewSessionRejectsBadURL(t *testing.T) {
	_, err := NewSession(context.Bg(), "cache_object:foo/bar", nil, nil)
	require.Error(t, err)
}

func TestSessionSendsQueuedFramesInOrder(t *testing.T) {
	tr := newTestRelay(t)
	s, _, states := newTestSession(t, tr.url())

	s.Send([]byte(`["CLOSE","a"]`))
	s.Send([]byte(`["CLOSE","b"]`))
	s.Start()

	waitStatus(t, states, StatusConnected)
	assert.Equal(t, `["CLOSE","a"]`, string(tr.nextFrame(t)))
	assert.Equal(t, `["CLOSE","b"]`, string(tr.nextFrame(t)))
}

func TestSessionDropsOldestWhenQueueFull(t *testing.T) {
	tr := newTestRelay(t)
	s, _, states := newTestSession(t, tr.url(), WithQueueDepth(2))

	s.Send([]byte(`["CLOSE","a"]`))
	s.Send([]byte(`["CLOSE","b"]`))
	s.Send([]byte(`["CLOSE","c"]`))
	s.Start()

	waitStatus(t, states, StatusConnected)
	assert.Equal(t, `["CLOSE","b"]`, string(tr.nextFrame(t)))
	assert.Equal(t, `["CLOSE","c"]`, string(tr.nextFrame(t)))
}

func TestSessionDeliversInboundFrames(t *testing.T) {
	tr := newTestRelay(t)
	s, inbound, states := newTestSession(t, tr.url())
	s.Start()

	waitStatus(t, states, StatusConnected)
	conn := tr.nextConn(t)
	require.NoError(t, wsutil.WriteServerMessage(conn, ws.OpText, []byte(`garbage`)))
	require.NoError(t, wsutil.WriteServerMessage(conn, ws.OpText, []byte(`["NOTICE","slow down"]`)))

	select {
	case in := <-inbound:
		assert.Equal(t, s.URL, in.URL)
		notice, ok := in.Envelope.(*envelope.Notice)
		require.True(t, ok, "malformed frame should have been dropped, got %v", in.Envelope)
		assert.Equal(t, "slow down", string(*notice))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for inbound frame")
	}
}

// A session that loses its transport mid-subscription reconnects after
// backoff and resends the byte-identical open-subscription frame.
func TestSessionResubscribesOnReconnect(t *testing.T) {
	tr := newTestRelay(t)
	s, _, states := newTestSession(t, tr.url())
	s.Start()
	waitStatus(t, states, StatusConnected)
	conn := tr.nextConn(t)

	req := []byte(`["REQ","sub1",{"kinds":[1]}]`)
	s.Subscribe("sub1", req)
	assert.Equal(t, string(req), string(tr.nextFrame(t)))

	conn.Close()
	waitStatus(t, states, StatusDisconnected)
	waitStatus(t, states, StatusConnected)
	tr.nextConn(t)

	assert.Equal(t, string(req), string(tr.nextFrame(t)))
}

func TestSessionSubscribeBeforeConnectReplaysOnce(t *testing.T) {
	tr := newTestRelay(t)
	s, _, states := newTestSession(t, tr.url())

	req := []byte(`["REQ","sub1",{"kinds":[1]}]`)
	s.Subscribe("sub1", req)
	s.Start()

	waitStatus(t, states, StatusConnected)
	assert.Equal(t, string(req), string(tr.nextFrame(t)))
	select {
	case f := <-tr.frames:
		t.Fatalf("unexpected extra frame %s", f)
	case <-time.After(200 * time.Millisecond):
	}
}

// A subscription racing the connect handshake must be written exactly
// once, whether it lands in the replay snapshot or is self-sent after
// the session announces Connected.
func TestSessionSubscribeDuringConnectSendsOnce(t *testing.T) {
	req := []byte(`["REQ","sub1",{"kinds":[1]}]`)
	for i := 0; i < 10; i++ {
		tr := newTestRelay(t)
		s, _, states := newTestSession(t, tr.url())
		s.Start()
		go s.Subscribe("sub1", req)
		waitStatus(t, states, StatusConnected)

		assert.Equal(t, string(req), string(tr.nextFrame(t)))
		select {
		case f := <-tr.frames:
			t.Fatalf("open-subscription frame sent twice, got extra %s", f)
		case <-time.After(150 * time.Millisecond):
		}
		s.Terminate()
	}
}

func TestSessionUnsubscribeStopsReplay(t *testing.T) {
	tr := newTestRelay(t)
	s, _, states := newTestSession(t, tr.url())
	s.Start()
	waitStatus(t, states, StatusConnected)
	conn := tr.nextConn(t)

	s.Subscribe("sub1", []byte(`["REQ","sub1",{"kinds":[1]}]`))
	tr.nextFrame(t)
	s.Unsubscribe("sub1", []byte(`["CLOSE","sub1"]`))
	assert.Equal(t, `["CLOSE","sub1"]`, string(tr.nextFrame(t)))

	conn.Close()
	waitStatus(t, states, StatusConnected)
	tr.nextConn(t)

	select {
	case f := <-tr.frames:
		t.Fatalf("subscription should not have been replayed, got %s", f)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionTerminateIsFinal(t *testing.T) {
	tr := newTestRelay(t)
	s, _, states := newTestSession(t, tr.url())
	s.Start()
	waitStatus(t, states, StatusConnected)

	s.Terminate()
	waitStatus(t, states, StatusTerminated)
	assert.Equal(t, StatusTerminated, s.Status())

	select {
	case c := <-tr.conns:
		// the original connection, already accepted
		_ = c
	default:
	}
	select {
	case <-tr.conns:
		t.Fatal("terminated session must not reconnect")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestSessionReportsDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	s, _, states := newTestSession(t, "ws://"+addr, WithDialTimeout(time.Second))
	s.Start()
	sc := waitStatus(t, states, StatusDisconnected)
	assert.Error(t, sc.Err)
	s.Terminate()
	waitStatus(t, states, StatusTerminated)
}

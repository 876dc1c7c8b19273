// Package pool orchestrates sessions to many relays behind one API:
// broadcast publishing, pool-wide subscriptions with cross-relay
// de-duplication, and an observability stream of wire traffic. All
// shared state lives in a single goroutine reached only through
// message passing, so sessions never contend on a lock no matter how
// many there are.
package pool

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/mcdallas/nostr-sdk/pkg/context"
	"github.com/mcdallas/nostr-sdk/pkg/envelope"
	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/mcdallas/nostr-sdk/pkg/filters"
	"github.com/mcdallas/nostr-sdk/pkg/normalize"
	"github.com/mcdallas/nostr-sdk/pkg/relay"
	"github.com/mcdallas/nostr-sdk/pkg/slog"
	"lukechampine.com/frand"
)

var log, chk = slog.New(os.Stderr)

var (
	ErrPoolClosed          = errors.New("pool is closed")
	ErrInvalidEvent        = errors.New("invalid event")
	ErrRelayAlreadyAdded   = errors.New("relay already added")
	ErrUnknownRelay        = errors.New("unknown relay")
	ErrUnknownSubscription = errors.New("unknown subscription")
)

const (
	defaultSeenSize    = 8192
	defaultEventBuffer = 512
	noteBuffer         = 128
)

// Note is one entry of the observability stream: a wire message that
// crossed a relay connection in either direction.
type Note struct {
	RelayURL  string
	Direction relay.Direction
	Envelope  envelope.E
}

// Pool multiplexes any number of relay sessions. Create one with New,
// shut it down with Close.
type Pool struct {
	ctx    context.T
	cancel context.F
	done   chan struct{}

	cmds    chan func()
	inbound chan relay.Inbound
	states  chan relay.StateChange
	notes   chan Note

	droppedNotes atomic.Uint64

	// everything below is owned by the run goroutine
	relays      map[string]*relay.Session
	connected   map[string]struct{}
	subs        map[string]*Subscription
	seen        *seenSet
	subSerial   int
	eventBuffer int
	sessionOpts []relay.Option
}

// New creates a pool and starts its coordination goroutine. The pool
// shuts down when Close is called or c is cancelled.
func New(c context.T, opts ...Option) *Pool {
	ctx, cancel := context.Cancel(c)
	p := &Pool{
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		cmds:        make(chan func()),
		inbound:     make(chan relay.Inbound, 64),
		states:      make(chan relay.StateChange, 64),
		notes:       make(chan Note, noteBuffer),
		relays:      make(map[string]*relay.Session),
		connected:   make(map[string]struct{}),
		subs:        make(map[string]*Subscription),
		eventBuffer: defaultEventBuffer,
	}

	seenSize := defaultSeenSize
	for _, opt := range opts {
		switch o := opt.(type) {
		case WithSeenSize:
			seenSize = int(o)
		case WithEventBuffer:
			p.eventBuffer = int(o)
		case WithSessionOptions:
			p.sessionOpts = o
		}
	}
	p.seen = newSeenSet(seenSize)

	go p.run()
	return p
}

// Notifications returns the observability stream. The channel is
// buffered and entries are dropped rather than ever blocking a
// session; it is never closed.
func (p *Pool) Notifications() <-chan Note {
	return p.notes
}

// Close terminates every session and stops the pool.
func (p *Pool) Close() {
	p.cancel()
	<-p.done
}

// AddRelay opens a session to url and starts connecting. Adding the
// same relay twice returns ErrRelayAlreadyAdded.
func (p *Pool) AddRelay(url string) error {
	res := make(chan error, 1)
	if !p.do(func() {
		u := normalize.URL(url)
		if u == "" {
			res <- fmt.Errorf("invalid relay URL '%s'", url)
			return
		}
		if _, ok := p.relays[u]; ok {
			res <- fmt.Errorf("%w: %s", ErrRelayAlreadyAdded, u)
			return
		}
		opts := append([]relay.Option{relay.WithNotify(p.noteOutbound)}, p.sessionOpts...)
		s, err := relay.NewSession(p.ctx, u, p.inbound, p.states, opts...)
		if err != nil {
			res <- err
			return
		}
		p.relays[u] = s
		s.Start()
		res <- nil
	}) {
		return ErrPoolClosed
	}
	return <-res
}

// RemoveRelay terminates the session for url.
func (p *Pool) RemoveRelay(url string) error {
	res := make(chan error, 1)
	if !p.do(func() {
		u := normalize.URL(url)
		s, ok := p.relays[u]
		if !ok {
			res <- fmt.Errorf("%w: %s", ErrUnknownRelay, u)
			return
		}
		s.Terminate()
		delete(p.relays, u)
		delete(p.connected, u)
		for _, sub := range p.subs {
			p.dropPending(sub, u)
		}
		res <- nil
	}) {
		return ErrPoolClosed
	}
	return <-res
}

// Relays lists the urls of all current sessions.
func (p *Pool) Relays() []string {
	res := make(chan []string, 1)
	if !p.do(func() {
		urls := make([]string, 0, len(p.relays))
		for u := range p.relays {
			urls = append(urls, u)
		}
		res <- urls
	}) {
		return nil
	}
	return <-res
}

// Publish validates ev and broadcasts it to every session, best
// effort. It does not wait for relay acceptance; OK frames arrive on
// the notifications stream.
func (p *Pool) Publish(ev *event.T) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	frame, err := envelope.Event{Event: *ev}.MarshalJSON()
	if err != nil {
		return err
	}
	if !p.do(func() {
		for _, s := range p.relays {
			s.Send(frame)
		}
	}) {
		return ErrPoolClosed
	}
	return nil
}

// Subscribe opens f on every current session under an id unique for
// the pool's lifetime; sessions added later pick it up on connect.
func (p *Pool) Subscribe(f filters.T) (*Subscription, error) {
	res := make(chan *Subscription, 1)
	errc := make(chan error, 1)
	if !p.do(func() {
		p.subSerial++
		id := fmt.Sprintf("%s:%d", hex.EncodeToString(frand.Bytes(4)), p.subSerial)

		// detach from the caller's slice so later mutations cannot
		// affect matching
		f = f.Clone()
		frame, err := envelope.Req{SubscriptionID: id, Filters: f}.MarshalJSON()
		if err != nil {
			errc <- err
			return
		}

		sub := &Subscription{
			ID:                id,
			Filters:           f,
			Events:            make(chan *event.T, p.eventBuffer),
			EndOfStoredEvents: make(chan string, 32),
			StoredDone:        make(chan struct{}),
			pending:           make(map[string]struct{}),
			eosed:             make(map[string]struct{}),
			pool:              p,
		}
		for u := range p.connected {
			sub.pending[u] = struct{}{}
		}
		if len(sub.pending) == 0 {
			sub.finishStored()
		}
		p.subs[id] = sub

		for _, s := range p.relays {
			s.Subscribe(id, frame)
		}
		res <- sub
	}) {
		return nil, ErrPoolClosed
	}
	select {
	case sub := <-res:
		return sub, nil
	case err := <-errc:
		return nil, err
	}
}

// Unsubscribe closes the subscription with the given id on every
// session. An id the pool does not know returns
// ErrUnknownSubscription.
func (p *Pool) Unsubscribe(id string) error {
	res := make(chan error, 1)
	if !p.do(func() {
		sub, ok := p.subs[id]
		if !ok {
			res <- fmt.Errorf("%w: %s", ErrUnknownSubscription, id)
			return
		}
		delete(p.subs, id)
		frame, err := envelope.Close(id).MarshalJSON()
		if chk.E(err) {
			res <- err
			return
		}
		for _, s := range p.relays {
			s.Unsubscribe(id, frame)
		}
		close(sub.Events)
		close(sub.EndOfStoredEvents)
		sub.finishStored()
		res <- nil
	}) {
		return ErrPoolClosed
	}
	return <-res
}

// do posts f to the coordination goroutine, reporting false when the
// pool is shut down.
func (p *Pool) do(f func()) bool {
	select {
	case p.cmds <- f:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pool) run() {
	defer close(p.done)
	for {
		select {
		case f := <-p.cmds:
			f()
		case in := <-p.inbound:
			p.route(in)
		case sc := <-p.states:
			p.handleState(sc)
		case <-p.ctx.Done():
			p.shutdown()
			return
		}
	}
}

func (p *Pool) route(in relay.Inbound) {
	switch env := in.Envelope.(type) {
	case *envelope.Event:
		if env.SubscriptionID == nil {
			log.D.F("{%s} EVENT without subscription id", in.URL)
			return
		}
		sub, ok := p.subs[*env.SubscriptionID]
		if !ok {
			log.D.F("{%s} event for unknown subscription '%s'", in.URL, *env.SubscriptionID)
			return
		}
		ev := env.Event
		if err := ev.Validate(); err != nil {
			log.W.F("{%s} dropping invalid event %s: %v", in.URL, ev.ID, err)
			return
		}
		if !sub.Filters.Match(&ev) {
			log.D.F("{%s} event %s does not match subscription '%s'", in.URL, ev.ID, sub.ID)
			return
		}
		// keyed per subscription so overlapping subscriptions each get
		// their own copy while repeats across relays are still dropped
		if !p.seen.add(sub.ID + "/" + ev.ID) {
			return
		}
		select {
		case sub.Events <- &ev:
		default:
			log.W.F("{%s} subscriber '%s' is not draining, dropping event %s", in.URL, sub.ID, ev.ID)
		}

	case *envelope.EOSE:
		sub, ok := p.subs[string(*env)]
		if !ok {
			return
		}
		if _, dup := sub.eosed[in.URL]; dup {
			return
		}
		sub.eosed[in.URL] = struct{}{}
		select {
		case sub.EndOfStoredEvents <- in.URL:
		default:
		}
		p.dropPending(sub, in.URL)

	case *envelope.Closed:
		if sub, ok := p.subs[env.SubscriptionID]; ok {
			p.dropPending(sub, in.URL)
		}
		p.note(in.URL, relay.DirInbound, env)

	case *envelope.OK, *envelope.Notice, *envelope.Auth:
		p.note(in.URL, relay.DirInbound, in.Envelope)
	}
}

func (p *Pool) handleState(sc relay.StateChange) {
	switch sc.Status {
	case relay.StatusConnected:
		p.connected[sc.URL] = struct{}{}
		log.I.F("{%s} connected", sc.URL)
	case relay.StatusDisconnected:
		delete(p.connected, sc.URL)
		if sc.Err != nil {
			log.I.F("{%s} disconnected: %v", sc.URL, sc.Err)
		}
	case relay.StatusTerminated:
		delete(p.connected, sc.URL)
		for _, sub := range p.subs {
			p.dropPending(sub, sc.URL)
		}
	}
}

// dropPending removes url from the set of relays a subscription still
// awaits a stored-replay marker from.
func (p *Pool) dropPending(sub *Subscription, url string) {
	if _, ok := sub.pending[url]; !ok {
		return
	}
	delete(sub.pending, url)
	if len(sub.pending) == 0 {
		sub.finishStored()
	}
}

func (p *Pool) shutdown() {
	for _, s := range p.relays {
		s.Terminate()
	}
	for id, sub := range p.subs {
		delete(p.subs, id)
		close(sub.Events)
		close(sub.EndOfStoredEvents)
		sub.finishStored()
	}
}

// noteOutbound is called from session writer goroutines; it must only
// touch the notes channel.
func (p *Pool) noteOutbound(url string, msg []byte) {
	env, err := envelope.ParseMessage(msg)
	if err != nil {
		return
	}
	p.note(url, relay.DirOutbound, env)
}

func (p *Pool) note(url string, dir relay.Direction, env envelope.E) {
	select {
	case p.notes <- Note{RelayURL: url, Direction: dir, Envelope: env}:
	default:
		if n := p.droppedNotes.Add(1); n%100 == 1 {
			log.D.F("notifications backlogged, %d dropped so far", n)
		}
	}
}

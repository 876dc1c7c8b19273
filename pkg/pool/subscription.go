package pool

import (
	"sync"

	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/mcdallas/nostr-sdk/pkg/filters"
)

// Subscription is the handle returned by Pool.Subscribe. Events
// arriving from any relay are de-duplicated and delivered on Events in
// arrival order. EndOfStoredEvents yields the relay URL once per relay
// that finished its stored replay; StoredDone is closed when every
// relay that was connected at subscribe time has done so.
type Subscription struct {
	ID      string
	Filters filters.T

	Events            chan *event.T
	EndOfStoredEvents chan string
	StoredDone        chan struct{}

	// owned by the pool goroutine
	pending map[string]struct{}
	eosed   map[string]struct{}

	storedOnce sync.Once
	unsubOnce  sync.Once
	pool       *Pool
}

// Unsub closes the subscription on every relay and releases its
// channels. Calling it more than once is a no-op.
func (s *Subscription) Unsub() {
	s.unsubOnce.Do(func() {
		_ = s.pool.Unsubscribe(s.ID)
	})
}

func (s *Subscription) finishStored() {
	s.storedOnce.Do(func() {
		close(s.StoredDone)
	})
}

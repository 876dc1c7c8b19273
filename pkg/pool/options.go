package pool

import "github.com/mcdallas/nostr-sdk/pkg/relay"

// Option is the type of the arguments accepted by New.
type Option interface {
	IsPoolOption()
}

// WithSeenSize overrides the capacity of the recently-seen event id
// set used for cross-relay de-duplication.
type WithSeenSize int

func (WithSeenSize) IsPoolOption() {}

// WithEventBuffer overrides the buffer of each subscription's event
// channel. A subscriber that stops draining loses the newest events
// past this depth.
type WithEventBuffer int

func (WithEventBuffer) IsPoolOption() {}

// WithSessionOptions passes options through to every session the pool
// creates.
type WithSessionOptions []relay.Option

func (WithSessionOptions) IsPoolOption() {}

var (
	_ Option = WithSeenSize(0)
	_ Option = WithEventBuffer(0)
	_ Option = (WithSessionOptions)(nil)
)

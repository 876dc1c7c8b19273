// Package filters implements the OR-combined list of filters carried by a
// subscription: an event matching any one filter is delivered.
package filters

import (
	"encoding/json"

	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/mcdallas/nostr-sdk/pkg/filter"
)

// T is an ordered list of filter.T.
type T []filter.T

// Match reports whether evt matches any filter in the list.
func (ff T) Match(evt *event.T) bool {
	for _, f := range ff {
		if f.Matches(evt) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the list.
func (ff T) Clone() T {
	out := make(T, len(ff))
	for i := range ff {
		out[i] = ff[i].Clone()
	}
	return out
}

func (ff T) String() string {
	b, _ := json.Marshal(ff)
	return string(b)
}

// Package filter implements the subscription predicate matched against
// events. Present fields are AND-ed; values within one field are OR-ed; an
// absent field matches anything.
package filter

import (
	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/mcdallas/nostr-sdk/pkg/timestamp"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// T is a single filter. Limit bounds how many stored events a relay
// should return for the filter; it is relay-side guidance, not a matching
// predicate, and is never re-applied client-side.
type T struct {
	IDs     []string     `json:"ids,omitempty"`
	Kinds   []int        `json:"kinds,omitempty"`
	Authors []string     `json:"authors,omitempty"`
	Tags    TagMap       `json:"-"`
	Since   *timestamp.T `json:"since,omitempty"`
	Until   *timestamp.T `json:"until,omitempty"`
	Limit   int          `json:"limit,omitempty"`
	Search  string       `json:"search,omitempty"`
}

// TagMap maps a tag kind discriminator to the allowed values in its value
// position.
type TagMap map[string][]string

// Matches reports whether evt satisfies every present constraint.
func (f T) Matches(evt *event.T) bool {
	if evt == nil {
		return false
	}

	if f.IDs != nil && !slices.Contains(f.IDs, evt.ID) {
		return false
	}

	if f.Kinds != nil && !slices.Contains(f.Kinds, evt.Kind) {
		return false
	}

	if f.Authors != nil && !slices.Contains(f.Authors, evt.PubKey) {
		return false
	}

	for k, v := range f.Tags {
		if v != nil && !evt.Tags.ContainsAny(k, v) {
			return false
		}
	}

	if f.Since != nil && evt.CreatedAt < *f.Since {
		return false
	}

	if f.Until != nil && evt.CreatedAt > *f.Until {
		return false
	}

	return true
}

// Equal reports whether two filters express the same constraints,
// ignoring value order within each field.
func Equal(a, b T) bool {
	if !similar(a.Kinds, b.Kinds) {
		return false
	}

	if !similar(a.IDs, b.IDs) {
		return false
	}

	if !similar(a.Authors, b.Authors) {
		return false
	}

	if len(a.Tags) != len(b.Tags) {
		return false
	}

	for k, av := range a.Tags {
		bv, ok := b.Tags[k]
		if !ok || !similar(av, bv) {
			return false
		}
	}

	if !pointerValuesEqual(a.Since, b.Since) {
		return false
	}

	if !pointerValuesEqual(a.Until, b.Until) {
		return false
	}

	return a.Search == b.Search
}

// Clone returns a deep copy of the filter.
func (f T) Clone() T {
	clone := T{
		IDs:     slices.Clone(f.IDs),
		Authors: slices.Clone(f.Authors),
		Kinds:   slices.Clone(f.Kinds),
		Limit:   f.Limit,
		Search:  f.Search,
	}

	if f.Tags != nil {
		clone.Tags = make(TagMap, len(f.Tags))
		for k, v := range f.Tags {
			clone.Tags[k] = slices.Clone(v)
		}
	}

	if f.Since != nil {
		since := *f.Since
		clone.Since = &since
	}

	if f.Until != nil {
		until := *f.Until
		clone.Until = &until
	}

	return clone
}

func pointerValuesEqual[V comparable](a *V, b *V) bool {
	if a == nil && b == nil {
		return true
	}
	if a != nil && b != nil {
		return *a == *b
	}
	return false
}

func similar[E constraints.Ordered](as, bs []E) bool {
	if len(as) != len(bs) {
		return false
	}

	for _, a := range as {
		if !slices.Contains(bs, a) {
			return false
		}
	}

	return true
}

package filter_test

import (
	"testing"

	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/mcdallas/nostr-sdk/pkg/filter"
	"github.com/mcdallas/nostr-sdk/pkg/filters"
	"github.com/mcdallas/nostr-sdk/pkg/tags"
	"github.com/mcdallas/nostr-sdk/pkg/timestamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9"
	bob   = "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659"
)

func note(author string, kind int, created timestamp.T) *event.T {
	return &event.T{
		ID:        "0000000000000000000000000000000000000000000000000000000000000001",
		PubKey:    author,
		CreatedAt: created,
		Kind:      kind,
		Tags:      tags.Tags{{"t", "golang"}},
		Content:   "content",
	}
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f := filter.T{}
	assert.True(t, f.Matches(note(alice, event.KindTextNote, 100)))
	assert.True(t, f.Matches(note(bob, event.KindReaction, 0)))
	assert.False(t, f.Matches(nil))
}

func TestKindFiltering(t *testing.T) {
	f := filter.T{Kinds: []int{event.KindTextNote}}
	assert.True(t, f.Matches(note(alice, 1, 100)))
	assert.False(t, f.Matches(note(alice, 0, 100)), "kind 1 filter must never match kind 0")
}

func TestAuthorAndKind(t *testing.T) {
	// kind=1 plus a specific author over three candidates, two matching
	// kind only, one matching both
	f := filter.T{Kinds: []int{1}, Authors: []string{alice}}

	candidates := []*event.T{
		note(bob, 1, 10),
		note(bob, 1, 20),
		note(alice, 1, 30),
	}

	var matched []*event.T
	for _, ev := range candidates {
		if f.Matches(ev) {
			matched = append(matched, ev)
		}
	}
	require.Len(t, matched, 1)
	assert.Equal(t, alice, matched[0].PubKey)
	assert.Equal(t, timestamp.T(30), matched[0].CreatedAt)
}

func TestTagConstraints(t *testing.T) {
	f := filter.T{Tags: filter.TagMap{"t": {"golang", "nostr"}}}
	assert.True(t, f.Matches(note(alice, 1, 100)))

	other := note(alice, 1, 100)
	other.Tags = tags.Tags{{"t", "cooking"}}
	assert.False(t, f.Matches(other))

	// tag constraint requires the discriminator to match, not just the value
	mislabeled := note(alice, 1, 100)
	mislabeled.Tags = tags.Tags{{"x", "golang"}}
	assert.False(t, f.Matches(mislabeled))
}

func TestTimeBounds(t *testing.T) {
	since := timestamp.T(100)
	until := timestamp.T(200)
	f := filter.T{Since: &since, Until: &until}

	assert.False(t, f.Matches(note(alice, 1, 99)))
	assert.True(t, f.Matches(note(alice, 1, 100)), "since is inclusive")
	assert.True(t, f.Matches(note(alice, 1, 150)))
	assert.True(t, f.Matches(note(alice, 1, 200)), "until is inclusive")
	assert.False(t, f.Matches(note(alice, 1, 201)))
}

func TestIDFiltering(t *testing.T) {
	ev := note(alice, 1, 100)
	assert.True(t, filter.T{IDs: []string{ev.ID}}.Matches(ev))
	assert.False(t, filter.T{IDs: []string{"ffff"}}.Matches(ev))
	// an empty (non-nil) set matches nothing
	assert.False(t, filter.T{IDs: []string{}}.Matches(ev))
}

func TestFiltersAreORCombined(t *testing.T) {
	ff := filters.T{
		{Kinds: []int{event.KindReaction}},
		{Authors: []string{alice}},
	}
	assert.True(t, ff.Match(note(alice, 1, 100)), "matches second filter")
	assert.True(t, ff.Match(note(bob, 7, 100)), "matches first filter")
	assert.False(t, ff.Match(note(bob, 1, 100)))
}

func TestEqualAndClone(t *testing.T) {
	since := timestamp.T(123)
	f := filter.T{
		Kinds:   []int{1, 7},
		Authors: []string{alice, bob},
		Tags:    filter.TagMap{"e": {"x"}},
		Since:   &since,
		Limit:   10,
	}

	clone := f.Clone()
	assert.True(t, filter.Equal(f, clone))

	clone.Tags["e"][0] = "y"
	assert.False(t, filter.Equal(f, clone), "clone must be deep")

	// value order within a field does not matter
	assert.True(t, filter.Equal(
		filter.T{Kinds: []int{1, 7}},
		filter.T{Kinds: []int{7, 1}},
	))
	assert.False(t, filter.Equal(
		filter.T{Kinds: []int{1}},
		filter.T{Kinds: []int{1, 7}},
	))
}

func TestJSONRoundTrip(t *testing.T) {
	since := timestamp.T(1000)
	f := filter.T{
		IDs:     []string{"aa", "bb"},
		Kinds:   []int{1, 30023},
		Authors: []string{alice},
		Tags:    filter.TagMap{"e": {"ref1"}, "p": {alice, bob}},
		Since:   &since,
		Limit:   50,
	}

	b, err := f.MarshalJSON()
	require.NoError(t, err)

	var back filter.T
	require.NoError(t, back.UnmarshalJSON(b))
	assert.True(t, filter.Equal(f, back))
	assert.Equal(t, f.Limit, back.Limit)
}

func TestUnmarshalTagKeys(t *testing.T) {
	var f filter.T
	require.NoError(t, f.UnmarshalJSON(
		[]byte(`{"kinds":[30023],"#d":["buteko","batuke"],"ignored":true}`)))
	assert.Equal(t, []int{30023}, f.Kinds)
	assert.Equal(t, filter.TagMap{"d": {"buteko", "batuke"}}, f.Tags)

	assert.Error(t, f.UnmarshalJSON([]byte(`["not","an","object"]`)))
}

// Package tags implements the ordered string-list tags attached to events.
// The first element of a tag is its kind discriminator, used both for
// semantics and for filter indexing.
package tags

import (
	"strings"

	"github.com/mcdallas/nostr-sdk/pkg/escape"
)

// The tag position meanings so they are clear when reading.
const (
	Key = iota
	Value
	Relay
)

// Tag marker strings for e (reference) tags.
const (
	MarkerReply   = "reply"
	MarkerRoot    = "root"
	MarkerMention = "mention"
)

// Tag is a list of strings with a literal ordering.
//
// Not a set, there can be repeating elements.
type Tag []string

// StartsWith checks a tag has the same initial set of elements.
//
// The last element is treated specially in that it is considered to match
// if the candidate has the same initial substring as its corresponding
// element.
func (t Tag) StartsWith(prefix []string) bool {
	prefixLen := len(prefix)

	if prefixLen > len(t) {
		return false
	}
	// check initial elements for equality
	for i := 0; i < prefixLen-1; i++ {
		if prefix[i] != t[i] {
			return false
		}
	}
	// check last element just for a prefix
	return strings.HasPrefix(t[prefixLen-1], prefix[prefixLen-1])
}

// GetKey returns the first element of the tag.
func (t Tag) GetKey() string {
	if len(t) > Key {
		return t[Key]
	}
	return ""
}

// GetValue returns the second element of the tag.
func (t Tag) GetValue() string {
	if len(t) > Value {
		return t[Value]
	}
	return ""
}

// MarshalTo appends the JSON encoded bytes of the tag to dst. String
// escaping is as described in RFC8259.
func (t Tag) MarshalTo(dst []byte) []byte {
	dst = append(dst, '[')
	for i, s := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = escape.String(dst, s)
	}
	dst = append(dst, ']')
	return dst
}

// Tags is a list of Tag, ordered, with no uniqueness constraint.
type Tags []Tag

// GetFirst gets the first tag in tags that matches the prefix, see
// [Tag.StartsWith].
func (t Tags) GetFirst(tagPrefix []string) *Tag {
	for _, v := range t {
		if v.StartsWith(tagPrefix) {
			return &v
		}
	}
	return nil
}

// GetLast gets the last tag in tags that matches the prefix, see
// [Tag.StartsWith].
func (t Tags) GetLast(tagPrefix []string) *Tag {
	for i := len(t) - 1; i >= 0; i-- {
		v := t[i]
		if v.StartsWith(tagPrefix) {
			return &v
		}
	}
	return nil
}

// GetAll gets all the tags that match the prefix, see [Tag.StartsWith].
func (t Tags) GetAll(tagPrefix ...string) Tags {
	result := make(Tags, 0, len(t))
	for _, v := range t {
		if v.StartsWith(tagPrefix) {
			result = append(result, v)
		}
	}
	return result
}

// FilterOut removes all tags that match the prefix, see [Tag.StartsWith].
func (t Tags) FilterOut(tagPrefix []string) Tags {
	filtered := make(Tags, 0, len(t))
	for _, v := range t {
		if !v.StartsWith(tagPrefix) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// AppendUnique appends a tag if it doesn't exist yet, otherwise does
// nothing. The uniqueness comparison is done based only on the first 2
// elements of the tag.
func (t Tags) AppendUnique(tag Tag) Tags {
	n := len(tag)
	if n > 2 {
		n = 2
	}
	if t.GetFirst(tag[:n]) == nil {
		return append(t, tag)
	}
	return t
}

// ContainsAny returns true if any tag with the given key carries one of the
// given values in its value position.
func (t Tags) ContainsAny(tagName string, values []string) bool {
	for _, v := range t {
		if len(v) < 2 {
			continue
		}
		if v.GetKey() != tagName {
			continue
		}
		for _, candidate := range values {
			if v.GetValue() == candidate {
				return true
			}
		}
	}
	return false
}

// MarshalTo appends the JSON encoded bytes of the tags as [][]string to
// dst. String escaping is as described in RFC8259.
func (t Tags) MarshalTo(dst []byte) []byte {
	dst = append(dst, '[')
	for i, tt := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = tt.MarshalTo(dst)
	}
	dst = append(dst, ']')
	return dst
}

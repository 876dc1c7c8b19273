// Package event implements the signed, content-addressed message that is
// the atomic protocol unit: canonical serialization, id computation,
// signing and validation.
package event

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/mcdallas/nostr-sdk/pkg/escape"
	"github.com/mcdallas/nostr-sdk/pkg/keys"
	"github.com/mcdallas/nostr-sdk/pkg/tags"
	"github.com/mcdallas/nostr-sdk/pkg/timestamp"
	"github.com/minio/sha256-simd"
)

// Validation failures. Events received from relays must never be trusted
// before Validate has passed; relays may forge any field.
var (
	ErrIDMismatch       = errors.New("event id does not match content")
	ErrInvalidSignature = errors.New("event signature is invalid")
	ErrMalformedField   = errors.New("malformed event field")
)

// T is the primary protocol datatype. This is the form of the structure
// that defines its JSON string based format.
type T struct {

	// ID is the SHA256 hash of the canonical encoding of the event
	ID string `json:"id"`

	// PubKey is the x-only public key of the event creator in hex
	PubKey string `json:"pubkey"`

	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt timestamp.T `json:"created_at"`

	// Kind is the protocol code for the type of event
	Kind int `json:"kind"`

	// Tags are a list of tags, usually structured as a 3 layer scheme
	// indicating specific features of an event
	Tags tags.Tags `json:"tags"`

	// Content is an arbitrary string, usually conforming to a convention
	// relating to the Kind and the Tags
	Content string `json:"content"`

	// Sig is the signature on the ID hash that validates as coming from
	// the PubKey
	Sig string `json:"sig"`
}

// Hash returns the SHA256 digest of in.
func Hash(in []byte) []byte {
	h := sha256.Sum256(in)
	return h[:]
}

// Serialize outputs the canonical byte form that is hashed to produce the
// event id. The encoding is a positional JSON array with fixed field
// order, no insignificant whitespace, minimal-digit integers and RFC8259
// string escaping; any deviation changes the id.
func (ev *T) Serialize() []byte {
	// [0,"pubkey",created_at,kind,tags,"content"]
	dst := make([]byte, 0, 128+len(ev.Content))
	dst = append(dst, "[0,"...)
	dst = escape.String(dst, ev.PubKey)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(ev.CreatedAt), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(ev.Kind), 10)
	dst = append(dst, ',')
	dst = ev.Tags.MarshalTo(dst)
	dst = append(dst, ',')
	dst = escape.String(dst, ev.Content)
	dst = append(dst, ']')
	return dst
}

// GetID serializes and returns the event id as a hex string.
func (ev *T) GetID() string {
	return hex.EncodeToString(Hash(ev.Serialize()))
}

// Sign computes the event id over the current fields and signs it with the
// given keypair, setting PubKey, ID and Sig. The event must not be
// modified afterwards.
func (ev *T) Sign(kp *keys.Keypair) error {
	if ev.Tags == nil {
		ev.Tags = make(tags.Tags, 0)
	}
	ev.PubKey = kp.PublicKey()

	h := Hash(ev.Serialize())
	sig, err := kp.Sign(h)
	if err != nil {
		return fmt.Errorf("failed to sign event: %w", err)
	}

	ev.ID = hex.EncodeToString(h)
	ev.Sig = hex.EncodeToString(sig)
	return nil
}

// CheckSignature checks if the signature is valid for the id (which is a
// hash of the serialized event content). Returns an error if the pubkey or
// signature themselves are malformed.
func (ev *T) CheckSignature() (bool, error) {
	pk, err := hex.DecodeString(ev.PubKey)
	if err != nil {
		return false, fmt.Errorf("event pubkey '%s' is invalid hex: %w",
			ev.PubKey, err)
	}
	if len(pk) != 32 {
		return false, fmt.Errorf("event pubkey '%s' has wrong length",
			ev.PubKey)
	}

	sig, err := hex.DecodeString(ev.Sig)
	if err != nil {
		return false, fmt.Errorf("signature '%s' is invalid hex: %w",
			ev.Sig, err)
	}

	return keys.Verify(ev.PubKey, Hash(ev.Serialize()), sig), nil
}

// Validate recomputes the id from the stored fields and verifies the
// signature against it. Every event received from a relay must pass
// Validate before it is exposed to application code or matched against a
// filter.
func (ev *T) Validate() error {
	if len(ev.ID) != 64 {
		return fmt.Errorf("id '%s' is not 64 hex chars: %w",
			ev.ID, ErrMalformedField)
	}
	if len(ev.PubKey) != 64 {
		return fmt.Errorf("pubkey '%s' is not 64 hex chars: %w",
			ev.PubKey, ErrMalformedField)
	}
	if len(ev.Sig) != 128 {
		return fmt.Errorf("sig is not 128 hex chars: %w", ErrMalformedField)
	}
	if ev.Kind < 0 {
		return fmt.Errorf("kind %d is negative: %w", ev.Kind,
			ErrMalformedField)
	}

	if id := ev.GetID(); id != ev.ID {
		return fmt.Errorf("event %s: %w", ev.ID, ErrIDMismatch)
	}

	ok, err := ev.CheckSignature()
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrMalformedField)
	}
	if !ok {
		return fmt.Errorf("event %s: %w", ev.ID, ErrInvalidSignature)
	}
	return nil
}

// Package client is the high-level facade: a keypair plus a relay
// pool. It builds, signs and broadcasts the common event kinds and
// exposes the pool's subscription and notification surfaces.
package client

import (
	"errors"

	"github.com/mcdallas/nostr-sdk/pkg/context"
	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/mcdallas/nostr-sdk/pkg/filters"
	"github.com/mcdallas/nostr-sdk/pkg/keys"
	"github.com/mcdallas/nostr-sdk/pkg/metadata"
	"github.com/mcdallas/nostr-sdk/pkg/pool"
	"github.com/mcdallas/nostr-sdk/pkg/tags"
	"github.com/mcdallas/nostr-sdk/pkg/timestamp"
)

var ErrNoKeys = errors.New("client has no keys")

type Client struct {
	keys *keys.Keypair
	pool *pool.Pool
}

// New creates a client signing with kp. kp may be nil for a read-only
// client; publishing then fails with ErrNoKeys.
func New(c context.T, kp *keys.Keypair, opts ...pool.Option) *Client {
	return &Client{
		keys: kp,
		pool: pool.New(c, opts...),
	}
}

func (cl *Client) AddRelay(url string) error    { return cl.pool.AddRelay(url) }
func (cl *Client) RemoveRelay(url string) error { return cl.pool.RemoveRelay(url) }
func (cl *Client) Relays() []string             { return cl.pool.Relays() }

// PublicKey returns the hex public key events are signed with.
func (cl *Client) PublicKey() string {
	if cl.keys == nil {
		return ""
	}
	return cl.keys.PublicKey()
}

// Notifications exposes the pool's observability stream.
func (cl *Client) Notifications() <-chan pool.Note {
	return cl.pool.Notifications()
}

// Subscribe opens f across all relays.
func (cl *Client) Subscribe(f filters.T) (*pool.Subscription, error) {
	return cl.pool.Subscribe(f)
}

// Close shuts down the pool and every session.
func (cl *Client) Close() {
	cl.pool.Close()
}

// PublishEvent signs ev with the client's keys when it carries no
// signature yet, then broadcasts it.
func (cl *Client) PublishEvent(ev *event.T) error {
	if ev.Sig == "" {
		if cl.keys == nil {
			return ErrNoKeys
		}
		if err := ev.Sign(cl.keys); err != nil {
			return err
		}
	}
	return cl.pool.Publish(ev)
}

// PublishTextNote publishes a kind-1 note and returns the signed
// event.
func (cl *Client) PublishTextNote(content string, t ...tags.Tag) (*event.T, error) {
	ev := &event.T{
		Kind:      event.KindTextNote,
		CreatedAt: timestamp.Now(),
		Tags:      tags.Tags(t),
		Content:   content,
	}
	if err := cl.PublishEvent(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// SetMetadata publishes m as the client's kind-0 profile.
func (cl *Client) SetMetadata(m *metadata.T) (*event.T, error) {
	ev, err := m.ToEvent()
	if err != nil {
		return nil, err
	}
	if err := cl.PublishEvent(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// React publishes a kind-7 reaction ("+" to like) to target.
func (cl *Client) React(target *event.T, reaction string) (*event.T, error) {
	ev := &event.T{
		Kind:      event.KindReaction,
		CreatedAt: timestamp.Now(),
		Tags: tags.Tags{
			{"e", target.ID},
			{"p", target.PubKey},
		},
		Content: reaction,
	}
	if err := cl.PublishEvent(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Delete publishes a kind-5 deletion request for the given event ids.
func (cl *Client) Delete(ids ...string) (*event.T, error) {
	t := make(tags.Tags, 0, len(ids))
	for _, id := range ids {
		t = append(t, tags.Tag{"e", id})
	}
	ev := &event.T{
		Kind:      event.KindDeletion,
		CreatedAt: timestamp.Now(),
		Tags:      t,
	}
	if err := cl.PublishEvent(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Package metadata models the kind-0 profile document and its fluent
// builder. The document is the JSON content of a profile metadata
// event, not the event itself.
package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/mcdallas/nostr-sdk/pkg/timestamp"
)

type T struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	About       string `json:"about,omitempty"`
	Website     string `json:"website,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Banner      string `json:"banner,omitempty"`
	NIP05       string `json:"nip05,omitempty"`
	LUD06       string `json:"lud06,omitempty"`
	LUD16       string `json:"lud16,omitempty"`
}

func New() *T { return &T{} }

func (m *T) SetName(name string) *T {
	m.Name = name
	return m
}

func (m *T) SetDisplayName(displayName string) *T {
	m.DisplayName = displayName
	return m
}

func (m *T) SetAbout(about string) *T {
	m.About = about
	return m
}

func (m *T) SetWebsite(url string) *T {
	m.Website = url
	return m
}

func (m *T) SetPicture(url string) *T {
	m.Picture = url
	return m
}

func (m *T) SetBanner(url string) *T {
	m.Banner = url
	return m
}

func (m *T) SetNIP05(identifier string) *T {
	m.NIP05 = identifier
	return m
}

func (m *T) SetLUD06(lud string) *T {
	m.LUD06 = lud
	return m
}

func (m *T) SetLUD16(lud string) *T {
	m.LUD16 = lud
	return m
}

// FromJSON parses a profile document.
func FromJSON(data []byte) (*T, error) {
	m := &T{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("invalid metadata json: %w", err)
	}
	return m, nil
}

// FromEvent parses the content of a kind-0 event.
func FromEvent(ev *event.T) (*T, error) {
	if ev.Kind != event.KindProfileMetadata {
		return nil, fmt.Errorf("expected kind %d, got %d", event.KindProfileMetadata, ev.Kind)
	}
	return FromJSON([]byte(ev.Content))
}

// ToEvent builds the unsigned kind-0 event carrying this document.
func (m *T) ToEvent() (*event.T, error) {
	content, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return &event.T{
		Kind:      event.KindProfileMetadata,
		CreatedAt: timestamp.Now(),
		Content:   string(content),
	}, nil
}

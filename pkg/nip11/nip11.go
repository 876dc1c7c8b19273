// Package nip11 fetches the relay information document a relay serves
// over HTTP when asked with Accept: application/nostr+json.
package nip11

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcdallas/nostr-sdk/pkg/context"
)

type Limitations struct {
	MaxMessageLength int  `json:"max_message_length,omitempty"`
	MaxSubscriptions int  `json:"max_subscriptions,omitempty"`
	MaxFilters       int  `json:"max_filters,omitempty"`
	MaxLimit         int  `json:"max_limit,omitempty"`
	MaxSubidLength   int  `json:"max_subid_length,omitempty"`
	MaxEventTags     int  `json:"max_event_tags,omitempty"`
	MaxContentLength int  `json:"max_content_length,omitempty"`
	MinPowDifficulty int  `json:"min_pow_difficulty,omitempty"`
	AuthRequired     bool `json:"auth_required"`
	PaymentRequired  bool `json:"payment_required"`
}

type Info struct {
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	PubKey        string       `json:"pubkey"`
	Contact       string       `json:"contact"`
	SupportedNIPs []int        `json:"supported_nips"`
	Software      string       `json:"software"`
	Version       string       `json:"version"`
	Limitation    *Limitations `json:"limitation,omitempty"`
	Icon          string       `json:"icon,omitempty"`
}

// Fetch retrieves the information document of the relay at u. The
// websocket scheme is translated to its HTTP counterpart.
func Fetch(c context.T, u string) (*Info, error) {
	if _, ok := c.Deadline(); !ok {
		var cancel context.F
		c, cancel = context.Timeout(c, 7*time.Second)
		defer cancel()
	}

	if !strings.HasPrefix(u, "http") && !strings.HasPrefix(u, "ws") {
		u = "wss://" + u
	}
	p, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("cannot parse url: %s", u)
	}
	switch p.Scheme {
	case "ws":
		p.Scheme = "http"
	case "wss":
		p.Scheme = "https"
	}
	p.Path = strings.TrimRight(p.Path, "/")

	req, err := http.NewRequestWithContext(c, http.MethodGet, p.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Accept", "application/nostr+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	info := &Info{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	return info, nil
}

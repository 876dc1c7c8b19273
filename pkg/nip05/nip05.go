// Package nip05 resolves DNS-based identifiers of the form
// name@domain to a public key and its preferred relays via the
// /.well-known/nostr.json endpoint.
package nip05

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mcdallas/nostr-sdk/pkg/context"
	"github.com/mcdallas/nostr-sdk/pkg/keys"
)

// ProfilePointer is a public key plus the relays it is known to
// publish to.
type ProfilePointer struct {
	PublicKey string   `json:"pubkey"`
	Relays    []string `json:"relays,omitempty"`
}

type WellKnownResponse struct {
	Names  map[string]string   `json:"names"`
	Relays map[string][]string `json:"relays"`
}

// QueryIdentifier resolves fullname ("bob@example.com", or bare
// "example.com" meaning "_@example.com"). An unknown name yields an
// empty pointer, not an error.
func QueryIdentifier(c context.T, fullname string) (*ProfilePointer, error) {
	spl := strings.Split(fullname, "@")

	var name, domain string
	switch len(spl) {
	case 1:
		name = "_"
		domain = spl[0]
	case 2:
		name = spl[0]
		domain = spl[1]
	default:
		return nil, fmt.Errorf("not a valid nip-05 identifier")
	}

	if !strings.Contains(domain, ".") {
		return nil, fmt.Errorf("hostname doesn't have a dot")
	}

	req, err := http.NewRequestWithContext(c, "GET",
		fmt.Sprintf("https://%s/.well-known/nostr.json?name=%s", domain, name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create a request: %w", err)
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	var result WellKnownResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode json response: %w", err)
	}

	pubkey, ok := result.Names[name]
	if !ok || !keys.IsValidPublicKey(pubkey) {
		return &ProfilePointer{}, nil
	}

	return &ProfilePointer{
		PublicKey: pubkey,
		Relays:    result.Relays[pubkey],
	}, nil
}

// NormalizeIdentifier strips the implicit "_@" prefix.
func NormalizeIdentifier(fullname string) string {
	if strings.HasPrefix(fullname, "_@") {
		return fullname[2:]
	}
	return fullname
}

package envelope

import (
	"testing"

	"github.com/mcdallas/nostr-sdk/pkg/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	for _, tc := range []struct {
		name  string
		raw   string
		label string
	}{
		{"event with sub id", `["EVENT","sub1",{"id":"dc097cd6cfda11f8c7ac66e13f5c9e15f1b0bd6a54b87fe0bba147ba99d38297","pubkey":"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798","created_at":1672531200,"kind":1,"tags":[],"content":"hello","sig":"00"}]`, "EVENT"},
		{"event without sub id", `["EVENT",{"id":"dc097cd6cfda11f8c7ac66e13f5c9e15f1b0bd6a54b87fe0bba147ba99d38297","pubkey":"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798","created_at":1672531200,"kind":1,"tags":[],"content":"hello","sig":"00"}]`, "EVENT"},
		{"req", `["REQ","sub1",{"kinds":[1],"limit":10}]`, "REQ"},
		{"req with two filters", `["REQ","sub1",{"kinds":[1]},{"authors":["79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"]}]`, "REQ"},
		{"close", `["CLOSE","sub1"]`, "CLOSE"},
		{"ok accepted", `["OK","3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefaaaaa",true,""]`, "OK"},
		{"ok rejected", `["OK","3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefaaaaa",false,"pow: difficulty too low"]`, "OK"},
		{"eose", `["EOSE","sub1"]`, "EOSE"},
		{"notice", `["NOTICE","slow down"]`, "NOTICE"},
		{"closed", `["CLOSED","sub1","auth-required: we only serve members"]`, "CLOSED"},
		{"auth challenge", `["AUTH","challenge-string"]`, "AUTH"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env, err := ParseMessage([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.label, env.Label())
		})
	}
}

func TestParseMessageRejectsMalformed(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
	}{
		{"not json", `garbage`},
		{"not an array", `{"kind":1}`},
		{"empty array", `[]`},
		{"numeric label", `[1,"sub1"]`},
		{"unknown label", `["COUNT","sub1",{"count":5}]`},
		{"ok wrong arity", `["OK","abcd",true]`},
		{"ok non-boolean status", `["OK","abcd","yes","reason"]`},
		{"closed wrong arity", `["CLOSED","sub1"]`},
		{"req without filters", `["REQ","sub1"]`},
		{"close without id", `["CLOSE"]`},
		{"eose without id", `["EOSE"]`},
		{"event with broken payload", `["EVENT","sub1",{"id":"xx"}]`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env, err := ParseMessage([]byte(tc.raw))
			assert.Nil(t, env)
			var pe *ProtocolError
			require.ErrorAs(t, err, &pe)
		})
	}
}

func TestEnvelopeRoundTrips(t *testing.T) {
	for _, raw := range []string{
		`["REQ","sub1",{"kinds":[1],"limit":10}]`,
		`["CLOSE","sub1"]`,
		`["OK","3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefaaaaa",false,"error: could not connect to the database"]`,
		`["OK","3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefaaaaa",true,""]`,
		`["EOSE","sub1"]`,
		`["NOTICE","slow down"]`,
		`["CLOSED","sub1","error: something went wrong"]`,
		`["AUTH","challenge-string"]`,
	} {
		env, err := ParseMessage([]byte(raw))
		require.NoError(t, err, raw)
		out, err := env.MarshalJSON()
		require.NoError(t, err, raw)
		assert.Equal(t, raw, string(out))
	}
}

func TestEventEnvelopeRoundTrip(t *testing.T) {
	raw := `["EVENT","sub1",{"id":"dc097cd6cfda11f8c7ac66e13f5c9e15f1b0bd6a54b87fe0bba147ba99d38297","pubkey":"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798","created_at":1672531200,"kind":1,"tags":[["e","dc097cd6cfda11f8c7ac66e13f5c9e15f1b0bd6a54b87fe0bba147ba99d38297","","reply"]],"content":"hello","sig":"00"}]`
	env, err := ParseMessage([]byte(raw))
	require.NoError(t, err)
	ev, ok := env.(*Event)
	require.True(t, ok)
	require.NotNil(t, ev.SubscriptionID)
	assert.Equal(t, "sub1", *ev.SubscriptionID)
	assert.Equal(t, "hello", ev.Event.Content)
	out, err := env.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestReqEnvelopeFilters(t *testing.T) {
	env, err := ParseMessage([]byte(`["REQ","sub1",{"kinds":[0,1]},{"#e":["abcd"],"limit":5}]`))
	require.NoError(t, err)
	req, ok := env.(*Req)
	require.True(t, ok)
	assert.Equal(t, "sub1", req.SubscriptionID)
	require.Len(t, req.Filters, 2)
	assert.Equal(t, []int{0, 1}, req.Filters[0].Kinds)
	assert.Equal(t, filter.TagMap{"e": []string{"abcd"}}, req.Filters[1].Tags)
	assert.Equal(t, 5, req.Filters[1].Limit)
}

func TestAuthEnvelopeChallenge(t *testing.T) {
	env, err := ParseMessage([]byte(`["AUTH","some-challenge"]`))
	require.NoError(t, err)
	auth, ok := env.(*Auth)
	require.True(t, ok)
	require.NotNil(t, auth.Challenge)
	assert.Equal(t, "some-challenge", *auth.Challenge)
	assert.Nil(t, auth.Event)
}

package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/tidwall/gjson"
)

// Event carries an event either from a relay (with the subscription it
// answers) or to a relay (without one).
type Event struct {
	SubscriptionID *string
	Event          event.T
}

var _ E = (*Event)(nil)

func (Event) Label() string { return LabelEvent }

func (v Event) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *Event) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	switch len(arr) {
	case 2:
		return v.Event.UnmarshalJSON([]byte(arr[1].Raw))
	case 3:
		v.SubscriptionID = &arr[1].Str
		return v.Event.UnmarshalJSON([]byte(arr[2].Raw))
	default:
		return fmt.Errorf("unexpected element count %d", len(arr))
	}
}

func (v Event) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["EVENT",`)
	if v.SubscriptionID != nil {
		w.Raw(json.Marshal(*v.SubscriptionID))
		w.RawString(`,`)
	}
	v.Event.MarshalEasyJSON(&w)
	w.RawString(`]`)
	return w.BuildBytes()
}

package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/mcdallas/nostr-sdk/pkg/event"
	"github.com/tidwall/gjson"
)

// Auth is the authentication frame. From a relay it carries a challenge
// string; from a client it carries a signed authentication event. This
// package only parses and serializes the frame, it never signs
// anything.
type Auth struct {
	Challenge *string
	Event     *event.T
}

var _ E = (*Auth)(nil)

func (Auth) Label() string { return LabelAuth }

func (v Auth) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *Auth) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	if len(arr) < 2 {
		return fmt.Errorf("missing payload")
	}
	switch arr[1].Type {
	case gjson.String:
		v.Challenge = &arr[1].Str
		return nil
	case gjson.JSON:
		v.Event = &event.T{}
		return v.Event.UnmarshalJSON([]byte(arr[1].Raw))
	default:
		return fmt.Errorf("payload is neither a challenge nor an event")
	}
}

func (v Auth) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["AUTH",`)
	if v.Challenge != nil {
		w.Raw(json.Marshal(*v.Challenge))
	} else if v.Event != nil {
		v.Event.MarshalEasyJSON(&w)
	} else {
		w.RawString(`""`)
	}
	w.RawString(`]`)
	return w.BuildBytes()
}

package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// Notice is a human-readable message from the relay, not tied to any
// subscription.
type Notice string

var _ E = (*Notice)(nil)

func (Notice) Label() string { return LabelNotice }

func (v Notice) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *Notice) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	if len(arr) < 2 {
		return fmt.Errorf("missing message")
	}
	*v = Notice(arr[1].Str)
	return nil
}

func (v Notice) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["NOTICE",`)
	w.Raw(json.Marshal(string(v)))
	w.RawString(`]`)
	return w.BuildBytes()
}

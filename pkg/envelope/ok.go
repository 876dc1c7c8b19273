package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// OK is the relay's verdict on a published event. Reason may be empty
// on acceptance and should carry a machine-readable prefix on
// rejection.
type OK struct {
	EventID string
	OK      bool
	Reason  string
}

var _ E = (*OK)(nil)

func (OK) Label() string { return LabelOK }

func (v OK) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *OK) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	if len(arr) < 4 {
		return fmt.Errorf("missing fields")
	}
	if arr[2].Type != gjson.True && arr[2].Type != gjson.False {
		return fmt.Errorf("status is not a boolean")
	}
	v.EventID = arr[1].Str
	v.OK = arr[2].Type == gjson.True
	v.Reason = arr[3].Str
	return nil
}

func (v OK) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["OK",`)
	w.Raw(json.Marshal(v.EventID))
	if v.OK {
		w.RawString(`,true,`)
	} else {
		w.RawString(`,false,`)
	}
	w.Raw(json.Marshal(v.Reason))
	w.RawString(`]`)
	return w.BuildBytes()
}

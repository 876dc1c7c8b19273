package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// Close cancels the subscription it names.
type Close string

var _ E = (*Close)(nil)

func (Close) Label() string { return LabelClose }

func (v Close) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *Close) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	switch len(arr) {
	case 2:
		*v = Close(arr[1].Str)
		return nil
	default:
		return fmt.Errorf("unexpected element count %d", len(arr))
	}
}

func (v Close) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["CLOSE",`)
	w.Raw(json.Marshal(string(v)))
	w.RawString(`]`)
	return w.BuildBytes()
}

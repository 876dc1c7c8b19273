package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// EOSE marks the boundary between stored and live events on the
// subscription it names.
type EOSE string

var _ E = (*EOSE)(nil)

func (EOSE) Label() string { return LabelEOSE }

func (v EOSE) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *EOSE) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	if len(arr) < 2 {
		return fmt.Errorf("missing subscription id")
	}
	*v = EOSE(arr[1].Str)
	return nil
}

func (v EOSE) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["EOSE",`)
	w.Raw(json.Marshal(string(v)))
	w.RawString(`]`)
	return w.BuildBytes()
}

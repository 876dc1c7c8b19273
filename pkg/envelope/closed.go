package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// Closed announces that the relay terminated a subscription on its own
// initiative. The named subscription is dead and will not be resumed.
type Closed struct {
	SubscriptionID string
	Reason         string
}

var _ E = (*Closed)(nil)

func (Closed) Label() string { return LabelClosed }

func (v Closed) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *Closed) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	switch len(arr) {
	case 3:
		*v = Closed{arr[1].Str, arr[2].Str}
		return nil
	default:
		return fmt.Errorf("unexpected element count %d", len(arr))
	}
}

func (v Closed) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["CLOSED",`)
	w.Raw(json.Marshal(v.SubscriptionID))
	w.RawString(`,`)
	w.Raw(json.Marshal(v.Reason))
	w.RawString(`]`)
	return w.BuildBytes()
}

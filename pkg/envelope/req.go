package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/mcdallas/nostr-sdk/pkg/filters"
	"github.com/tidwall/gjson"
)

// Req opens or replaces the subscription named by SubscriptionID.
type Req struct {
	SubscriptionID string
	Filters        filters.T
}

var _ E = (*Req)(nil)

func (Req) Label() string { return LabelReq }

func (v Req) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v *Req) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	arr := r.Array()
	if len(arr) < 3 {
		return fmt.Errorf("missing filters")
	}
	v.SubscriptionID = arr[1].Str
	v.Filters = make(filters.T, len(arr)-2)
	for i := 2; i < len(arr); i++ {
		if err := v.Filters[i-2].UnmarshalJSON([]byte(arr[i].Raw)); err != nil {
			return fmt.Errorf("%w on filter %d", err, i-2)
		}
	}
	return nil
}

func (v Req) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["REQ",`)
	w.Raw(json.Marshal(v.SubscriptionID))
	for _, f := range v.Filters {
		w.RawString(`,`)
		f.MarshalEasyJSON(&w)
	}
	w.RawString(`]`)
	return w.BuildBytes()
}

package event

import (
	"fmt"

	"github.com/mailru/easyjson/jwriter"
	"github.com/mcdallas/nostr-sdk/pkg/tags"
	"github.com/mcdallas/nostr-sdk/pkg/timestamp"
	"github.com/tidwall/gjson"
)

// MarshalEasyJSON writes the event as a JSON object. Field order matches
// the canonical positional order so the output is stable.
func (ev T) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.String(ev.ID)
	w.RawString(`,"pubkey":`)
	w.String(ev.PubKey)
	w.RawString(`,"created_at":`)
	w.Int64(int64(ev.CreatedAt))
	w.RawString(`,"kind":`)
	w.Int(ev.Kind)
	w.RawString(`,"tags":`)
	w.RawByte('[')
	for i, tag := range ev.Tags {
		if i > 0 {
			w.RawByte(',')
		}
		w.RawByte('[')
		for j, s := range tag {
			if j > 0 {
				w.RawByte(',')
			}
			w.String(s)
		}
		w.RawByte(']')
	}
	w.RawByte(']')
	w.RawString(`,"content":`)
	w.String(ev.Content)
	w.RawString(`,"sig":`)
	w.String(ev.Sig)
	w.RawByte('}')
}

// MarshalJSON implements json.Marshaler.
func (ev T) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	ev.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

// String returns the raw JSON of the event.
func (ev T) String() string {
	b, _ := ev.MarshalJSON()
	return string(b)
}

// UnmarshalJSON implements json.Unmarshaler. Field values are taken as-is;
// integrity is the job of Validate, not the parser.
func (ev *T) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return fmt.Errorf("event is not a JSON object: %.40s", data)
	}
	for _, field := range []string{"id", "pubkey", "created_at", "kind",
		"tags", "content", "sig"} {
		if !r.Get(field).Exists() {
			return fmt.Errorf("event is missing field '%s'", field)
		}
	}

	ev.ID = r.Get("id").Str
	ev.PubKey = r.Get("pubkey").Str
	ev.CreatedAt = timestamp.T(r.Get("created_at").Int())
	ev.Kind = int(r.Get("kind").Int())
	ev.Content = r.Get("content").Str
	ev.Sig = r.Get("sig").Str

	tagsField := r.Get("tags")
	if !tagsField.IsArray() {
		return fmt.Errorf("event tags field is not an array")
	}
	ev.Tags = make(tags.Tags, 0, 4)
	for _, entry := range tagsField.Array() {
		if !entry.IsArray() {
			return fmt.Errorf("event tag is not an array: %s", entry.Raw)
		}
		elems := entry.Array()
		tag := make(tags.Tag, 0, len(elems))
		for _, el := range elems {
			tag = append(tag, el.Str)
		}
		ev.Tags = append(ev.Tags, tag)
	}
	return nil
}

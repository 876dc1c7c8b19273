package filter

import (
	"fmt"
	"strings"

	"github.com/mailru/easyjson/jwriter"
	"github.com/mcdallas/nostr-sdk/pkg/timestamp"
	"github.com/tidwall/gjson"
)

// MarshalEasyJSON writes the filter as a JSON object, omitting absent
// fields. Tag constraints are written as "#<key>" arrays.
func (f T) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	first := true
	comma := func() {
		if !first {
			w.RawByte(',')
		}
		first = false
	}

	writeStrings := func(key string, values []string) {
		comma()
		w.String(key)
		w.RawString(`:[`)
		for i, v := range values {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(v)
		}
		w.RawByte(']')
	}

	if f.IDs != nil {
		writeStrings("ids", f.IDs)
	}
	if f.Kinds != nil {
		comma()
		w.RawString(`"kinds":[`)
		for i, k := range f.Kinds {
			if i > 0 {
				w.RawByte(',')
			}
			w.Int(k)
		}
		w.RawByte(']')
	}
	if f.Authors != nil {
		writeStrings("authors", f.Authors)
	}
	for k, v := range f.Tags {
		writeStrings("#"+k, v)
	}
	if f.Since != nil {
		comma()
		w.RawString(`"since":`)
		w.Int64(int64(*f.Since))
	}
	if f.Until != nil {
		comma()
		w.RawString(`"until":`)
		w.Int64(int64(*f.Until))
	}
	if f.Limit > 0 {
		comma()
		w.RawString(`"limit":`)
		w.Int(f.Limit)
	}
	if f.Search != "" {
		comma()
		w.RawString(`"search":`)
		w.String(f.Search)
	}
	w.RawByte('}')
}

// MarshalJSON implements json.Marshaler.
func (f T) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	f.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

// String returns the raw JSON of the filter.
func (f T) String() string {
	b, _ := f.MarshalJSON()
	return string(b)
}

// UnmarshalJSON implements json.Unmarshaler. Keys starting with '#' become
// tag constraints; unknown keys are ignored.
func (f *T) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return fmt.Errorf("filter is not a JSON object: %.40s", data)
	}

	*f = T{}
	r.ForEach(func(key, value gjson.Result) bool {
		switch key.Str {
		case "ids":
			f.IDs = stringSlice(value)
		case "kinds":
			for _, k := range value.Array() {
				f.Kinds = append(f.Kinds, int(k.Int()))
			}
			if f.Kinds == nil {
				f.Kinds = []int{}
			}
		case "authors":
			f.Authors = stringSlice(value)
		case "since":
			f.Since = timestamp.T(value.Int()).Ptr()
		case "until":
			f.Until = timestamp.T(value.Int()).Ptr()
		case "limit":
			f.Limit = int(value.Int())
		case "search":
			f.Search = value.Str
		default:
			if strings.HasPrefix(key.Str, "#") && len(key.Str) > 1 {
				if f.Tags == nil {
					f.Tags = make(TagMap)
				}
				f.Tags[key.Str[1:]] = stringSlice(value)
			}
		}
		return true
	})
	return nil
}

func stringSlice(r gjson.Result) []string {
	arr := r.Array()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, v.Str)
	}
	return out
}

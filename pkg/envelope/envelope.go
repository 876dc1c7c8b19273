// Package envelope implements the typed wire frames exchanged with
// relays. Each frame is a JSON array whose first element is a label tag;
// ParseMessage turns raw bytes into the closed set of envelope types and
// rejects unrecognized labels and wrong arity with a ProtocolError, so a
// malformed frame from one relay can be dropped without affecting
// anything else.
package envelope

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Frame labels.
const (
	LabelEvent  = "EVENT"
	LabelReq    = "REQ"
	LabelClose  = "CLOSE"
	LabelOK     = "OK"
	LabelEOSE   = "EOSE"
	LabelNotice = "NOTICE"
	LabelClosed = "CLOSED"
	LabelAuth   = "AUTH"
)

// E is a parsed wire frame.
type E interface {
	Label() string
	UnmarshalJSON([]byte) error
	MarshalJSON() ([]byte, error)
	String() string
}

// ProtocolError reports a frame that does not conform to the wire
// grammar. The frame is dropped and the session continues.
type ProtocolError struct {
	Label  string
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Label == "" {
		return "protocol error: " + e.Reason
	}
	return fmt.Sprintf("protocol error in %s frame: %s", e.Label, e.Reason)
}

// ParseMessage parses a single wire frame. The returned error, when
// non-nil, is always a *ProtocolError.
func ParseMessage(message []byte) (E, error) {
	r := gjson.ParseBytes(message)
	if !r.IsArray() {
		return nil, &ProtocolError{Reason: "frame is not a JSON array"}
	}
	arr := r.Array()
	if len(arr) == 0 || arr[0].Type != gjson.String {
		return nil, &ProtocolError{Reason: "frame has no label tag"}
	}
	label := arr[0].Str

	var v E
	switch label {
	case LabelEvent:
		v = &Event{}
	case LabelReq:
		v = &Req{}
	case LabelClose:
		x := Close("")
		v = &x
	case LabelOK:
		v = &OK{}
	case LabelEOSE:
		x := EOSE("")
		v = &x
	case LabelNotice:
		x := Notice("")
		v = &x
	case LabelClosed:
		v = &Closed{}
	case LabelAuth:
		v = &Auth{}
	default:
		return nil, &ProtocolError{Label: label, Reason: "unrecognized label"}
	}

	if err := v.UnmarshalJSON(message); err != nil {
		return nil, &ProtocolError{Label: label, Reason: err.Error()}
	}
	return v, nil
}

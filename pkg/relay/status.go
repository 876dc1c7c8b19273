package relay

import "github.com/mcdallas/nostr-sdk/pkg/envelope"

// Status is the lifecycle state of a session.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusTerminated:
		return "terminated"
	}
	return "unknown"
}

// Direction tells whether a wire message was received or sent.
type Direction int

const (
	DirInbound Direction = iota
	DirOutbound
)

func (d Direction) String() string {
	if d == DirOutbound {
		return "->"
	}
	return "<-"
}

// StateChange is emitted on every session transition. Err is set when
// the transition was caused by a failure.
type StateChange struct {
	URL    string
	Status Status
	Err    error
}

// Inbound is a parsed frame forwarded to the session's consumer.
type Inbound struct {
	URL      string
	Envelope envelope.E
}

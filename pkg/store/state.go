package store

import (
	"time"
)

// State of a store session
type State int

const (
	StateUnknown State = iota
	StateConnecting
	StateConnected
	StateSuspended
	StateLost
)

type StateEvent struct {
	State  State
	Server string
	Time   time.Time
}

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateSuspended:
		return "SUSPENDED"
	case StateLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}

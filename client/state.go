package client

import "fmt"

// Phase is the connection lifecycle position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseReconnecting
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseReconnecting:
		return "reconnecting"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConnState is the connection state as one tagged value. Attempt is only
// meaningful while reconnecting; it distinguishes "reconnecting (attempt 3)"
// from "failed after max attempts" in the UI.
type ConnState struct {
	Phase   Phase
	Attempt int
}

func (s ConnState) String() string {
	if s.Phase == PhaseReconnecting {
		return fmt.Sprintf("reconnecting(%d)", s.Attempt)
	}
	return s.Phase.String()
}

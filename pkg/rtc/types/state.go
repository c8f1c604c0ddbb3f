package types

import "fmt"

type CallStateKind int

const (
	StateNone CallStateKind = iota
	StateOutgoing
	StateIncoming
	// remote answered a call started locally
	StateAnswered
	// local answered a remote call
	StateAnsweredIncoming
	StateEstablishedDataChannel
	StateEstablished
	StateMediaStopped
	StateReconnecting
	StateTerminating
	StateUnknown
)

func (k CallStateKind) String() string {
	switch k {
	case StateNone:
		return "none"
	case StateOutgoing:
		return "outgoing"
	case StateIncoming:
		return "incoming"
	case StateAnswered:
		return "answered"
	case StateAnsweredIncoming:
		return "answeredIncomingCall"
	case StateEstablishedDataChannel:
		return "establishedDataChannel"
	case StateEstablished:
		return "established"
	case StateMediaStopped:
		return "mediaStopped"
	case StateReconnecting:
		return "reconnecting"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

type ClosureReason int

const (
	ReasonNone ClosureReason = iota
	ReasonNormal
	ReasonCanceled
	ReasonBusy
	ReasonTimeout
	ReasonSecurityDegraded
	ReasonAnsweredElsewhere
	ReasonRejectedElsewhere
	ReasonInternalError
	ReasonStillOngoing
	ReasonTerminate
)

func (r ClosureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNormal:
		return "normal"
	case ReasonCanceled:
		return "canceled"
	case ReasonBusy:
		return "busy"
	case ReasonTimeout:
		return "timeout"
	case ReasonSecurityDegraded:
		return "securityDegraded"
	case ReasonAnsweredElsewhere:
		return "answeredElsewhere"
	case ReasonRejectedElsewhere:
		return "rejectedElsewhere"
	case ReasonInternalError:
		return "internalError"
	case ReasonStillOngoing:
		return "stillOngoing"
	case ReasonTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// CallState is the externally observable state of a call in one conversation.
// Degraded is only meaningful for outgoing, incoming and the answered states,
// Reason only for terminating.
type CallState struct {
	Kind     CallStateKind
	Degraded bool
	Reason   ClosureReason
}

func NewCallState(kind CallStateKind) CallState {
	return CallState{Kind: kind}
}

func Terminating(reason ClosureReason) CallState {
	return CallState{Kind: StateTerminating, Reason: reason}
}

func (s CallState) String() string {
	switch s.Kind {
	case StateTerminating:
		return fmt.Sprintf("terminating(%s)", s.Reason)
	case StateOutgoing, StateIncoming, StateAnswered, StateAnsweredIncoming:
		if s.Degraded {
			return s.Kind.String() + "(degraded)"
		}
	}
	return s.Kind.String()
}

func (s CallState) IsTerminating() bool {
	return s.Kind == StateTerminating
}

// IsResumable reports a group call left locally that still runs remotely.
func (s CallState) IsResumable() bool {
	return s.Kind == StateTerminating && s.Reason == ReasonStillOngoing
}

// IsIdle is true for states that do not hold the active call slot.
func (s CallState) IsIdle() bool {
	return s.Kind == StateNone || s.Kind == StateTerminating
}

// IsInCall covers every state a local endCall may act on.
func (s CallState) IsInCall() bool {
	switch s.Kind {
	case StateOutgoing, StateAnswered, StateAnsweredIncoming, StateEstablishedDataChannel,
		StateEstablished, StateMediaStopped, StateReconnecting, StateUnknown:
		return true
	}
	return false
}

func (s CallState) IsEstablished() bool {
	switch s.Kind {
	case StateEstablishedDataChannel, StateEstablished, StateMediaStopped, StateReconnecting:
		return true
	}
	return false
}

func (s CallState) SupportsDegraded() bool {
	switch s.Kind {
	case StateOutgoing, StateIncoming, StateAnswered, StateAnsweredIncoming:
		return true
	}
	return false
}

func (s CallState) CanTransitionTo(next CallState) bool {
	if s.Kind == next.Kind {
		return false
	}

	switch s.Kind {
	case StateNone:
		return next.Kind == StateOutgoing || next.Kind == StateIncoming
	case StateOutgoing:
		switch next.Kind {
		case StateAnswered, StateEstablishedDataChannel, StateEstablished, StateTerminating:
			return true
		}
	case StateIncoming:
		return next.Kind == StateAnsweredIncoming || next.Kind == StateTerminating
	case StateAnswered, StateAnsweredIncoming:
		switch next.Kind {
		case StateEstablishedDataChannel, StateEstablished, StateTerminating:
			return true
		}
	case StateEstablishedDataChannel:
		switch next.Kind {
		case StateEstablished, StateReconnecting, StateTerminating:
			return true
		}
	case StateEstablished:
		switch next.Kind {
		case StateReconnecting, StateMediaStopped, StateTerminating:
			return true
		}
	case StateMediaStopped, StateReconnecting:
		return next.Kind == StateEstablished || next.Kind == StateTerminating
	case StateTerminating:
		if s.Reason == ReasonStillOngoing {
			switch next.Kind {
			case StateIncoming, StateAnsweredIncoming, StateNone:
				return true
			}
			return false
		}
		return next.Kind == StateNone
	case StateUnknown:
		return next.Kind == StateTerminating || next.Kind == StateNone
	}
	return false
}

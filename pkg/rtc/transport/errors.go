package transport

import "errors"

var (
	ErrAlreadyConnected        = errors.New("transport already connected to another room")
	ErrNotConnected            = errors.New("transport not connected")
	ErrConnectivityCheckFailed = errors.New("direct connectivity check failed")
	ErrDirectConnectTimeout    = errors.New("direct connection not established in time")
	ErrRetryBudgetExceeded     = errors.New("relay reconnect attempts exhausted")
	ErrTransportClosed         = errors.New("transport closed")
	ErrNoRelayURL              = errors.New("no relay url configured")
	ErrNoRemoteMember          = errors.New("direct transport requires a remote member")
	ErrUnknownMode             = errors.New("unknown transport mode")
)

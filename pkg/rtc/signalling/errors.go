package signalling

import "errors"

var (
	ErrUnknownProtocol  = errors.New("unknown call signaling protocol")
	ErrInvalidMessage   = errors.New("invalid call message")
	ErrRequestTimeout   = errors.New("request timed out")
	ErrPeerClosed       = errors.New("signalling peer closed")
	ErrUnexpectedFrame  = errors.New("unexpected signalling frame")
	ErrRequestRejected  = errors.New("request rejected by remote")
	ErrNoRequestHandler = errors.New("no request handler")
)

package rtc

import "errors"

var (
	ErrRegistryClosed = errors.New("call registry is closed")
	ErrNoSession      = errors.New("no call session for conversation")
)

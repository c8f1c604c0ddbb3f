package service

import "errors"

var (
	ErrNotConnected       = errors.New("not connected to conversation server")
	ErrClientClosed       = errors.New("conversation client closed")
	ErrCapabilitiesStatus = errors.New("unexpected capabilities response status")
	ErrAlreadyRunning     = errors.New("call service already running")
)

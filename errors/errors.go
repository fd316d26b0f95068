package errors

import "fmt"

var (
	ErrWorkerPanic                 = fmt.Errorf("worker panic")
	ErrPeerDisconnectedImmediately = fmt.Errorf("peer disconnected immediately")
	ErrEmptyPeerName               = fmt.Errorf("peer name is empty")
	ErrInvalidUTF8                 = fmt.Errorf("line is not valid UTF-8")
	ErrUnknownPeerDisconnect       = fmt.Errorf("disconnect received for unregistered peer")
	ErrWriteFailed                 = fmt.Errorf("write to peer failed")
	ErrSessionNotFound             = fmt.Errorf("session not found")
	ErrEmptyWords                  = fmt.Errorf("no words have been found")
	ErrInvalidCharReplacement      = fmt.Errorf("character replacement must be a single character")
)

package gateway

import "errors"

var (
	ErrConnectionClosed   = errors.New("connection is closed")
	ErrInvalidJSON        = errors.New("failed to marshal message")
	ErrWriteBufferFull    = errors.New("write buffer is full")
	ErrNilConnection      = errors.New("connection is nil")
	ErrNotAuthenticated   = errors.New("connection is not authenticated")
	ErrAlreadyRegistered  = errors.New("connection is already registered")
	ErrInvalidRoomName    = errors.New("invalid room name")
	ErrUnknownClientEvent = errors.New("unknown client event")
)

package store

import "errors"

var (
	ErrManagerClosed = errors.New("store manager is closed")
	ErrWriteTimeout  = errors.New("write operation timed out")
)

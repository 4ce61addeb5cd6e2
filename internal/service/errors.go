package service

import "errors"

// Expected domain conditions. Controllers map these onto HTTP codes; anything
// else is treated as an internal error.
var (
	ErrNoActiveChat         = errors.New("no active chat")
	ErrChatNotFound         = errors.New("chat not found")
	ErrDatasetNotReady      = errors.New("dataset is not connected")
	ErrInvalidSheetURL      = errors.New("invalid google sheet url")
	ErrInvalidTransition    = errors.New("invalid connection state transition")
	ErrConnectionLocked     = errors.New("connection is locked for this chat")
	ErrConnectionInProgress = errors.New("a connection attempt is already in progress")
)

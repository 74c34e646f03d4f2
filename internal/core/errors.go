package core

import "errors"

var (
	// ErrDuplicateClient is returned when an id is registered twice.
	ErrDuplicateClient = errors.New("client already registered")
	// ErrIDsExhausted is returned once every 32-bit id has been handed out.
	ErrIDsExhausted = errors.New("client ids exhausted")
	// ErrMailboxClosed is returned when pushing to or draining a closed mailbox.
	ErrMailboxClosed = errors.New("mailbox closed")
	// ErrMailboxFull is returned when a limited mailbox has no room left.
	ErrMailboxFull = errors.New("mailbox full")
)

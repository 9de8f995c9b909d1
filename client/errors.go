package client

import "errors"

var (
	// ErrNotConnected means the socket is down; the send was not attempted.
	ErrNotConnected = errors.New("client: not connected")
	// ErrAuthRejected means the server refused the credential. Fatal for the
	// session; reconnecting will not help.
	ErrAuthRejected = errors.New("client: authentication rejected")
	// ErrNotRetryable means the correlation id has no failed entry to retry.
	ErrNotRetryable = errors.New("client: message is not in a retryable state")
)

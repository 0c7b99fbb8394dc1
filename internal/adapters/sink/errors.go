package sink

import "errors"

var (
	// ErrUnexpectedPayload is returned when a notification carries a payload
	// that does not match its kind.
	ErrUnexpectedPayload = errors.New("unexpected notification payload")
	ErrWhistleWrite      = errors.New("whistle write failed")
)

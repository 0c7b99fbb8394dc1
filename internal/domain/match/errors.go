package match

import "errors"

// ErrMatchClosed is returned when configuring a match after Close.
var ErrMatchClosed = errors.New("match closed")

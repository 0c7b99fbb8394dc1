package service

import "errors"

var (
	ErrNotStarted     = errors.New("service not started")
	ErrConfigNotSaved = errors.New("match config not saved")
)

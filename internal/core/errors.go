package core

import "errors"

// Sentinel errors for the core package.
// Use errors.Is to check: errors.Is(err, core.ErrSync)
var (
	ErrInvalidStatus = errors.New("invalid task status")
	ErrUnknownTask   = errors.New("unknown task")
	ErrInvalidWeek   = errors.New("invalid week number")
	ErrPersist       = errors.New("persisting performance store")
	ErrSync          = errors.New("syncing performance store")
	ErrNoRemote      = errors.New("no remote store configured")
)

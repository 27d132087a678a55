package jobstore

import "errors"

// Sentinel errors for the Job Store.
var (
	ErrNotFound          = errors.New("jobstore: job not found")
	ErrTerminal          = errors.New("jobstore: job is in a terminal state")
	ErrInvalidTransition = errors.New("jobstore: invalid state transition")
)

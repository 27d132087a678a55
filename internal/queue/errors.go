package queue

import "errors"

// ErrEmpty is returned by Dequeue when no item is ready to claim.
var ErrEmpty = errors.New("queue: empty")

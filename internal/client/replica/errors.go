package replica

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned by operations that need an authenticated identity when there is none.
var ErrNoSession = errors.New("no active session")

// ErrFeedInterrupted is reported in the snapshot while the change feed is
// being reopened. Live updates are missing until it clears.
var ErrFeedInterrupted = errors.New("live updates interrupted, reconnecting")

// ErrForeignRow means the store answered a write with a row of another owner.
// The write itself may have happened.
var ErrForeignRow = errors.New("store returned a row of another owner")

// StoreRequestError wraps a failed call to the remote store.
type StoreRequestError struct {
	Err error
	Op  string // list, insert, delete
}

func (e *StoreRequestError) Error() string {
	return fmt.Sprintf("bookmark store %s failed: %v", e.Op, e.Err)
}

func (e *StoreRequestError) Unwrap() error {
	return e.Err
}

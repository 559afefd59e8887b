package store

import (
	"errors"
	"fmt"
)

// ErrorKind is the class of a store failure.
type ErrorKind int

const (
	// KindNone is the kind of a nil error.
	KindNone ErrorKind = iota
	// KindUserNotFound means the referenced user does not exist. Nothing was
	// written.
	KindUserNotFound
	// KindStorage covers every other failure: unreachable database, rejected
	// statement, malformed input.
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUserNotFound:
		return "user_not_found"
	case KindStorage:
		return "storage"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by every failing NotificationStore operation alongside
// the operation's fallback value.
type Error struct {
	Kind   ErrorKind
	Op     string
	UserID string
	Err    error
}

func (e *Error) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("%s for user %s: %s: %v", e.Op, e.UserID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Errors that did not come from the store are
// treated as storage failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStorage
}

// ErrUserNotFound is wrapped by KindUserNotFound errors raised by the
// existence check.
var ErrUserNotFound = errors.New("user does not exist")

func storageError(op, userID string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, UserID: userID, Err: err}
}

func userNotFoundError(op, userID string, err error) *Error {
	return &Error{Kind: KindUserNotFound, Op: op, UserID: userID, Err: err}
}

package adapter

import (
	"errors"

	"github.com/ssargent/recordkv/pkg/store"
)

// Status is the coarse outcome of an operation.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NOT_FOUND"
	default:
		return "ERROR"
	}
}

// StatusOf classifies err: nil is OK, store.ErrKeyNotFound (however wrapped)
// is NotFound, anything else is Error.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, store.ErrKeyNotFound):
		return StatusNotFound
	}
	return StatusError
}

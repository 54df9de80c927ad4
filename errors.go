package dbsession

import (
	"errors"

	"github.com/TechXTT/dbsession/internal/bind"
	"github.com/TechXTT/dbsession/pkg/record"
)

var (
	// ErrSessionClosed is returned by every operation on a closed Session.
	ErrSessionClosed = errors.New("dbsession: session is closed")

	// ErrTypeMismatch is returned when a result value cannot be stored in the
	// requested Go type.
	ErrTypeMismatch = record.ErrTypeMismatch

	// ErrMissingParam is returned when a command references an @Name that was
	// not supplied and the bind style requires rewriting.
	ErrMissingParam = bind.ErrMissingParam

	// ErrUnsupportedParams is returned by ParamsOf for values it cannot
	// describe.
	ErrUnsupportedParams = errors.New("dbsession: unsupported parameter value")
)

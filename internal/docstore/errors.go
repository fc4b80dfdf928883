package docstore

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/opensys-cosc/symposium/internal/validation"
)

// Error is a remote store failure tagged with a store error code.
type Error struct {
	code    string
	Message string
	Err     error
}

// NewError creates a store error with the given code.
func NewError(code, message string, err error) *Error {
	return &Error{code: code, Message: message, Err: err}
}

// Code returns the store error code.
func (e *Error) Code() string { return e.code }

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.code
}

func (e *Error) Unwrap() error { return e.Err }

// PostgreSQL error codes that have a store error equivalent.
const (
	pgInsufficientPrivilege = "42501"
	pgTooManyConnections    = "53300"
	pgCannotConnectNow      = "57P03"
	pgAdminShutdown         = "57P01"
)

// classify wraps a driver error into *Error so callers can map it to a message.
// Codes without a user message keep the driver text alone; callers add the
// operation when they wrap the result.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInsufficientPrivilege:
			return NewError(validation.CodePermissionDenied, op+": permission denied", err)
		case pgTooManyConnections:
			return NewError(validation.CodeTooManyRequests, op+": too many connections", err)
		case pgCannotConnectNow, pgAdminShutdown:
			return NewError(validation.CodeUnavailable, op+": database unavailable", err)
		}
		return NewError(pgErr.Code, pgErr.Message, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) || pgconn.SafeToRetry(err) {
		return NewError(validation.CodeUnavailable, op+": database unavailable", err)
	}
	return NewError("unknown", "", err)
}

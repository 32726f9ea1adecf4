// internal/services/errors.go
package services

import (
	"errors"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindNotFound
	KindConfig
	KindUpstream
)

// ServiceError carries the user-facing message of a failed operation and the
// category the HTTP layer maps to a status code.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, cause error) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, Err: cause}
}

func ValidationError(message string) error {
	return newError(KindValidation, message, nil)
}

func ConflictError(message string) error {
	return newError(KindConflict, message, nil)
}

func UnauthorizedError(message string) error {
	return newError(KindUnauthorized, message, nil)
}

func NotFoundError(message string) error {
	return newError(KindNotFound, message, nil)
}

func ConfigError(message string) error {
	return newError(KindConfig, message, nil)
}

func UpstreamError(message string, cause error) error {
	return newError(KindUpstream, message, cause)
}

func InternalError(message string, cause error) error {
	return newError(KindInternal, message, cause)
}

// KindOf reports the category of err; errors that are not ServiceErrors are
// internal.
func KindOf(err error) ErrorKind {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return KindInternal
}

package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuth:
		return "AuthError"
	case KindNotFound:
		return "NotFoundError"
	case KindExternal:
		return "ExternalServiceFailure"
	default:
		return "InternalError"
	}
}

// HTTPStatus maps an error kind onto the response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

const (
	CodeInvalidEmail           = "INVALID_EMAIL"
	CodeWeakPassword           = "WEAK_PASSWORD"
	CodeDuplicateEmail         = "DUPLICATE_EMAIL"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeAccountInactive        = "ACCOUNT_INACTIVE"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeNotFound               = "NOT_FOUND"
	CodeExternalServiceFailure = "EXTERNAL_SERVICE_FAILURE"
	CodeInternal               = "INTERNAL"
)

// Error is the typed error every service returns to the HTTP layer.
// Message is safe to show to clients; Err carries the detail for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrInvalidEmail       = &Error{Kind: KindValidation, Code: CodeInvalidEmail, Message: "Invalid email format"}
	ErrWeakPassword       = &Error{Kind: KindValidation, Code: CodeWeakPassword, Message: "Password must be at least 6 characters long"}
	ErrDuplicateEmail     = &Error{Kind: KindValidation, Code: CodeDuplicateEmail, Message: "User with this email already exists"}
	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: CodeInvalidCredentials, Message: "Invalid email or password"}
	ErrAccountInactive    = &Error{Kind: KindAuth, Code: CodeAccountInactive, Message: "Account is deactivated"}
	ErrUnauthorized       = &Error{Kind: KindAuth, Code: CodeUnauthorized, Message: "Unauthorized"}
	ErrNotFound           = &Error{Kind: KindNotFound, Code: CodeNotFound, Message: "Resource not found"}
	ErrExternalService    = &Error{Kind: KindExternal, Code: CodeExternalServiceFailure, Message: "The AI service is currently unavailable. Please try again later."}
	ErrInternal           = &Error{Kind: KindInternal, Code: CodeInternal, Message: "Internal server error"}
)

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidInput, Message: message}
}

func Unauthorized(message string, err error) *Error {
	return &Error{Kind: KindAuth, Code: CodeUnauthorized, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

func External(err error) *Error {
	return &Error{Kind: KindExternal, Code: CodeExternalServiceFailure, Message: ErrExternalService.Message, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: ErrInternal.Message, Err: err}
}

// From returns err as an *Error, wrapping anything untyped as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return From(err).Kind
}

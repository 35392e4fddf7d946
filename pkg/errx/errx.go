package errx

import (
	"errors"
	"fmt"
)

// Type classifies errors for logging and HTTP mapping.
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeBusiness      Type = "BUSINESS"
	TypeExternal      Type = "EXTERNAL"
	TypeInternal      Type = "INTERNAL"
)

// Code identifies a registered error within a registry.
type Code string

type definition struct {
	code       Code
	errType    Type
	httpStatus int
	message    string
}

// Registry holds the error definitions for one domain.
// Each domain package declares its own registry with a unique prefix.
type Registry struct {
	prefix string
	defs   map[Code]definition
}

// NewRegistry creates an error registry with the given domain prefix.
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		defs:   make(map[Code]definition),
	}
}

// Register adds an error definition and returns its code.
// Registering the same code twice panics: codes are declared once, at init.
func (r *Registry) Register(code string, errType Type, httpStatus int, message string) Code {
	c := Code(r.prefix + "_" + code)
	if _, exists := r.defs[c]; exists {
		panic(fmt.Sprintf("errx: duplicate code %s", c))
	}
	r.defs[c] = definition{
		code:       c,
		errType:    errType,
		httpStatus: httpStatus,
		message:    message,
	}
	return c
}

// New creates an error from a registered code.
func (r *Registry) New(code Code) *Error {
	def, ok := r.defs[code]
	if !ok {
		return &Error{
			Code:       Code(r.prefix + "_UNKNOWN"),
			Type:       TypeInternal,
			HTTPStatus: 500,
			Message:    fmt.Sprintf("unregistered error code %s", code),
		}
	}
	return &Error{
		Code:       def.code,
		Type:       def.errType,
		HTTPStatus: def.httpStatus,
		Message:    def.message,
	}
}

// NewWithCause creates an error from a registered code, wrapping a cause.
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	e := r.New(code)
	e.cause = cause
	return e
}

// Error is a typed, detail-carrying application error.
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	HTTPStatus int            `json:"-"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail attaches a single key/value detail and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges a map of details and returns the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// ToHTTPResponse renders the error as a JSON-serializable body.
func (e *Error) ToHTTPResponse() map[string]any {
	body := map[string]any{
		"code":    e.Code,
		"type":    e.Type,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return body
}

// Wrap annotates err with a message, preserving the typed error if any.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType reports whether err (or anything it wraps) is an *Error of the given type.
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeSessionExpired   Code = "SESSION_EXPIRED"
	CodeAuth             Code = "AUTH_ERROR"
	CodeMethodValidation Code = "METHOD_VALIDATION_ERROR"
	CodeAPI              Code = "API_ERROR"
	CodeDeserialize      Code = "DESERIALIZE_ERROR"
	CodeConfig           Code = "CONFIG_ERROR"
	// CodeTransport is never carried by an *Error; CodeOf reports it for
	// plain errors coming from the HTTP layer.
	CodeTransport Code = "TRANSPORT_ERROR"
)

type Metadata struct {
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeSessionExpired: {
		Retryable:     true,
		PublicMessage: "session expired",
	},
	CodeAuth: {
		Retryable:     false,
		PublicMessage: "authorization failed",
	},
	CodeMethodValidation: {
		Retryable:      false,
		PublicMessage:  "method parameters rejected",
		DetailsAllowed: true,
	},
	CodeAPI: {
		Retryable:      false,
		PublicMessage:  "api error",
		DetailsAllowed: true,
	},
	CodeDeserialize: {
		Retryable:     false,
		PublicMessage: "invalid response from livespace api",
	},
	CodeConfig: {
		Retryable:      false,
		PublicMessage:  "invalid client configuration",
		DetailsAllowed: true,
	},
	CodeTransport: {
		Retryable:     false,
		PublicMessage: "transport failure",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeAPI]
}

type Error struct {
	code    Code
	result  int
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// NewResult builds an error tied to an API envelope result code.
func NewResult(code Code, result int, message string) *Error {
	return &Error{code: code, result: result, message: message}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeAPI
	}
	return e.code
}

// Result returns the envelope result code, or 0 when the error did not come
// from an API response.
func (e *Error) Result() int {
	if e == nil {
		return 0
	}
	return e.result
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// Fields returns the field level messages of a method validation failure.
func (e *Error) Fields() map[string]string {
	if e == nil {
		return nil
	}
	fields, _ := e.details.(map[string]string)
	return fields
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.result != 0 {
		return fmt.Sprintf("%s: %d: %s", e.code, e.result, e.message)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf classifies any error. Errors that are not *Error values come from
// the transport and report CodeTransport. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeTransport
}

// IsTransport reports whether err is an infrastructure failure rather than a
// protocol level classification.
func IsTransport(err error) bool {
	return CodeOf(err) == CodeTransport
}

package marketing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrRemote matches every error produced by EnsureSuccess.
	ErrRemote = errors.New("marketing api error")

	// ErrNotFound matches a 404 from the marketing API.
	ErrNotFound = errors.New("marketing api resource not found")

	// ErrDecode matches an error body that could not be decoded.
	ErrDecode = errors.New("marketing api error body not decodable")

	// ErrNilResponse is returned when EnsureSuccess is handed a nil response.
	ErrNilResponse = errors.New("nil http response")

	// errNullPayload rejects a literal null where an error document is expected.
	errNullPayload = errors.New("error payload is null")
)

// Error is the closed set of failures EnsureSuccess can report:
// *NotFoundError, *ServiceError and *DecodeError.
type Error interface {
	error
	marketingError()
}

var (
	_ Error = (*NotFoundError)(nil)
	_ Error = (*ServiceError)(nil)
	_ Error = (*DecodeError)(nil)
)

// ErrorDetail is one field-level error reported by the marketing API.
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorPayload is the JSON error document returned by the marketing API.
type ErrorPayload struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail"`
	Instance string        `json:"instance"`
	Errors   []ErrorDetail `json:"errors"`
}

// UnmarshalJSON decodes the payload and normalises a missing or null errors
// array to an empty one. A null document is an error.
func (p *ErrorPayload) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errNullPayload
	}

	type plain ErrorPayload

	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Errors == nil {
		raw.Errors = []ErrorDetail{}
	}

	*p = ErrorPayload(raw)

	return nil
}

// NotFoundError is reported for a 404 transport status. The body is not read.
type NotFoundError struct {
	URI string
}

// Error implements the error interface.
// The trailing space is part of the message other consumers match on.
func (e *NotFoundError) Error() string {
	return "Unable to find the resource at " + e.URI + " "
}

// Is reports whether target is ErrNotFound or ErrRemote.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrRemote
}

func (*NotFoundError) marketingError() {}

// ServiceError carries the diagnostic payload of any non-2xx, non-404 response.
type ServiceError struct {
	ErrorPayload

	// StatusCode is the transport status; ErrorPayload.Status is what the API reported.
	StatusCode int
}

// newServiceError copies the payload fields verbatim.
func newServiceError(statusCode int, p ErrorPayload) *ServiceError {
	if p.Errors == nil {
		p.Errors = []ErrorDetail{}
	}

	return &ServiceError{ErrorPayload: p, StatusCode: statusCode}
}

// Error returns the composed message.
func (e *ServiceError) Error() string {
	return composeMessage(&e.ErrorPayload)
}

// Is reports whether target is ErrRemote.
func (e *ServiceError) Is(target error) bool {
	return target == ErrRemote
}

func (*ServiceError) marketingError() {}

// FieldErrors returns the field-level errors keyed by field name.
// Later entries for the same field win.
func (e *ServiceError) FieldErrors() map[string]string {
	if len(e.Errors) == 0 {
		return nil
	}

	fields := make(map[string]string, len(e.Errors))
	for _, d := range e.Errors {
		fields[d.Field] = d.Message
	}

	return fields
}

// DecodeError is reported when a failure body is not a decodable error payload.
type DecodeError struct {
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding marketing api error body (status %d): %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying decode failure.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode or ErrRemote.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode || target == ErrRemote
}

func (*DecodeError) marketingError() {}

// composeMessage renders the payload in the historical layout:
//
//	Title: {title}\n Type: {type}\n Status: {status}\n + Detail: {detail}\nErrors: {f m} : {f m}
func composeMessage(p *ErrorPayload) string {
	var b strings.Builder

	b.WriteString("Title: ")
	b.WriteString(p.Title)
	b.WriteString("\n Type: ")
	b.WriteString(p.Type)
	b.WriteString("\n Status: ")
	b.WriteString(strconv.Itoa(p.Status))
	b.WriteString("\n + Detail: ")
	b.WriteString(p.Detail)
	b.WriteString("\n")

	b.WriteString("Errors: ")
	for i, d := range p.Errors {
		if i > 0 {
			b.WriteString(" : ")
		}
		b.WriteString(d.Field)
		b.WriteString(" ")
		b.WriteString(d.Message)
	}

	return b.String()
}

// IsNotFound reports whether err is a marketing API 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecode reports whether err is an undecodable marketing API error body.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// AsServiceError extracts a *ServiceError from the chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}

	return nil, false
}

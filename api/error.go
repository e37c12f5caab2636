package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/MrEthical07/goTeam/model"
)

// Kind classifies a failed call for the purposes of session handling and
// user messaging.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthorized is HTTP 401. Only this kind clears the session.
	KindUnauthorized
	// KindRateLimited is HTTP 429.
	KindRateLimited
	// KindTransient covers transport failures and timeouts.
	KindTransient
	// KindValidation covers 4xx responses other than 401 and 429.
	KindValidation
	// KindServerFault covers 5xx responses.
	KindServerFault
	// KindDecode is a 2xx response whose body could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindServerFault:
		return "server_fault"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Messages shown when a response carries no usable text.
const (
	GenericMessage = "An error occurred"
	UnknownMessage = "Unknown error"
)

// Error is a failed API call. Status is zero when no response arrived.
type Error struct {
	Op        string
	Method    string
	Path      string
	Status    int
	Body      model.ErrorBody
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s %s: status %d: %v", e.Op, e.Method, e.Path, e.Status, e.Err)
	case e.Message() != "":
		return fmt.Sprintf("%s %s %s: status %d: %s", e.Op, e.Method, e.Path, e.Status, e.Message())
	default:
		return fmt.Sprintf("%s %s %s: status %d", e.Op, e.Method, e.Path, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the body's error field, then its message field, then "".
func (e *Error) Message() string {
	if e.Body.Error != "" {
		return e.Body.Error
	}
	return e.Body.Message
}

// Kind classifies e.
func (e *Error) Kind() Kind {
	switch {
	case e.Status == 0:
		return KindTransient
	case e.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case e.Status == http.StatusTooManyRequests:
		return KindRateLimited
	case e.Status >= 500:
		return KindServerFault
	case e.Status >= 400:
		return KindValidation
	case e.Err != nil:
		return KindDecode
	default:
		return KindUnknown
	}
}

func statusError(op, method, path, requestID string, status int, raw []byte) *Error {
	e := &Error{Op: op, Method: method, Path: path, Status: status, RequestID: requestID}
	if len(raw) > 0 {
		// Non-JSON bodies leave Body empty.
		_ = json.Unmarshal(raw, &e.Body)
	}
	return e
}

// KindOf classifies err. Context deadlines and network errors outside an
// [Error] count as transient.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindUnknown
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsRateLimited(err error) bool  { return KindOf(err) == KindRateLimited }
func IsTransient(err error) bool    { return KindOf(err) == KindTransient }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsServerFault(err error) bool  { return KindOf(err) == KindServerFault }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ErrorMessage returns the server-provided text of err with a generic
// fallback.
func ErrorMessage(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return UnknownMessage
	}
	if msg := apiErr.Message(); msg != "" {
		return msg
	}
	return GenericMessage
}

// UserMessage returns the notification text for a failed call.
func UserMessage(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return UnknownMessage
	}
	msg := ErrorMessage(err)
	switch apiErr.Status {
	case http.StatusBadRequest:
		return "Bad request: " + msg
	case http.StatusUnauthorized:
		return "Authorization required"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusTooManyRequests:
		return "Too many requests. Try again later"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return msg
	}
}

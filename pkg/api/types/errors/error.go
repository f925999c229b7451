// Package errors is the error response of lineaged.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of error responses.
//
//	{"message": {"reason": "...", "advice": "..."}}
type ErrorResponse struct {
	Message ErrorMessage `json:"message"`
}

// MarshalJSON lets echo's error handler send ErrorResponse without wrapping it.
func (er ErrorResponse) MarshalJSON() ([]byte, error) {
	type body ErrorResponse
	return json.Marshal(body(er))
}

type ErrorMessage struct {
	// what happened. Required.
	Reason string `json:"reason"`

	// what clients can do for it.
	Advice string `json:"advice,omitempty"`

	// internal error. Not sent to clients.
	Cause error `json:"-"`
}

func (em *ErrorMessage) UnmarshalJSON(b []byte) error {
	var body struct {
		Reason *string `json:"reason"`
		Advice string  `json:"advice"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return err
	}
	if body.Reason == nil {
		return fmt.Errorf(`error message: "reason" is missing`)
	}
	*em = ErrorMessage{Reason: *body.Reason, Advice: body.Advice}
	return nil
}

func (em ErrorMessage) String() string {
	s := em.Reason
	if em.Advice != "" {
		s += ": " + em.Advice
	}
	if em.Cause != nil {
		s += " (caused by: " + em.Cause.Error() + ")"
	}
	return s
}

func (em ErrorMessage) Error() string {
	return em.String()
}

func (em ErrorMessage) Unwrap() error {
	return em.Cause
}

type Option func(*ErrorMessage)

func WithAdvice(advice string) Option {
	return func(em *ErrorMessage) { em.Advice = advice }
}

func WithError(err error) Option {
	return func(em *ErrorMessage) { em.Cause = err }
}

// NewErrorMessage creates an error which echo responds as ErrorResponse.
//
// The message is set as the internal error of echo.HTTPError, to be logged.
func NewErrorMessage(code int, reason string, opts ...Option) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason}
	for _, opt := range opts {
		opt(&msg)
	}
	return echo.NewHTTPError(code, ErrorResponse{Message: msg}).SetInternal(msg)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusBadRequest, "bad request", WithAdvice(advice), WithError(err))
}

func NotFound(opts ...Option) *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, "not found", opts...)
}

func Conflict(reason string, opts ...Option) *echo.HTTPError {
	return NewErrorMessage(http.StatusConflict, reason, opts...)
}

func ServiceUnavailable(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusServiceUnavailable, "service unavailable temporarily",
		WithAdvice(advice), WithError(err),
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusInternalServerError, "unexpected error", WithError(err))
}

// Package httputil builds HTTP responses as values.
//
// A Response carries status, headers and body together and is written to the
// wire exactly once, so no header is ever added after the body is chosen.
package httputil

import (
	"encoding/json"
	"net/http"

	"registrations/pkg/apierrors"
)

// HeaderCorrelationID carries the request's correlation identifier.
const HeaderCorrelationID = "X-CorrelationID"

// Response is an immutable description of an HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// JSON builds a JSON response tagged with the correlation identifier.
func JSON(status int, body any, correlationID string) Response {
	h := make(http.Header, 2)
	h.Set("Content-Type", "application/json")
	if correlationID != "" {
		h.Set(HeaderCorrelationID, correlationID)
	}
	return Response{Status: status, Header: h, Body: body}
}

// Write sends the response. Encoding errors are returned for logging only; the
// status line has already been sent when they occur.
func (r Response) Write(w http.ResponseWriter) error {
	for k, vs := range r.Header {
		w.Header()[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(r.Status)
	if r.Body == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(r.Body)
}

// ErrorBody is the "error" member of the envelope.
type ErrorBody struct {
	Code    apierrors.Code `json:"code"`
	Message *string        `json:"message"`
}

// Envelope is the JSON shape of every error response.
type Envelope struct {
	Error       ErrorBody              `json:"error"`
	FieldErrors []apierrors.FieldError `json:"fieldErrors"`
}

// ErrorResponse maps err onto a response. Anything that is not an
// *apierrors.Error becomes the generic internal fault so that no internal
// detail reaches the caller.
func ErrorResponse(err error, correlationID string) Response {
	apiErr, ok := apierrors.As(err)
	if !ok || apiErr.Code == apierrors.CodeInternalServerError {
		apiErr = apierrors.Internal()
	}
	env := Envelope{
		Error: ErrorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
		FieldErrors: apiErr.FieldErrors,
	}
	return JSON(apiErr.Status, env, correlationID)
}

// WriteError writes the error envelope for err.
func WriteError(w http.ResponseWriter, err error, correlationID string) error {
	return ErrorResponse(err, correlationID).Write(w)
}

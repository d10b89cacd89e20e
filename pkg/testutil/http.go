// Package testutil provides common test utilities for handler and router tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"registrations/pkg/platform/httputil"
)

// NewRequest creates a request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody creates a JSON request carrying body verbatim, so tests
// can send malformed payloads.
func NewRequestWithBody(t *testing.T, method, path string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalErrorResponse decodes the error envelope.
func UnmarshalErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "failed to unmarshal error envelope")
	return env
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertStatusOK asserts the response status is 200 OK.
func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertFieldError asserts a 400 envelope naming exactly one field and code.
func AssertFieldError(t *testing.T, rr *httptest.ResponseRecorder, field, code string) {
	t.Helper()
	AssertStatus(t, rr, http.StatusBadRequest)
	env := UnmarshalErrorResponse(t, rr)
	require.Len(t, env.FieldErrors, 1, "expected exactly one field error")
	assert.Equal(t, field, env.FieldErrors[0].FieldName())
	assert.Equal(t, code, string(env.FieldErrors[0].Code))
}

// AssertJSONContains asserts the value at the gjson path in the response body.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, path string, expectedValue any) {
	t.Helper()
	require.True(t, gjson.ValidBytes(rr.Body.Bytes()), "response is not valid JSON")
	res := gjson.GetBytes(rr.Body.Bytes(), path)
	require.True(t, res.Exists(), "path %q missing from response", path)
	assert.Equal(t, expectedValue, res.Value(), "unexpected value at %q", path)
}

package turnstile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardedHandler(ctrl Control, opts ...MiddlewareOption) (http.Handler, *bool) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})
	return Middleware(ctrl, opts...)(next), &reached
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "198.51.100.4:5555"
	return req
}

func TestMiddlewarePassesVerifiedRequest(t *testing.T) {
	tr := &fakeTransport{body: `{"success":true}`}
	h, reached := guardedHandler(New(validConfig, WithTransport(tr)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, postForm(url.Values{ResponseField: {"abc"}, "user": {"neo"}}))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, *reached)
	assert.Equal(t, "198.51.100.4", tr.form.Get("remoteip"))
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	tr := &fakeTransport{body: `{"success":true}`}
	h, reached := guardedHandler(New(validConfig, WithTransport(tr)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, postForm(url.Values{"user": {"neo"}}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, *reached)
	assert.Zero(t, tr.calls)

	var result VerificationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "wrong_captcha_verification", result.Status)
	assert.Equal(t, "You failed Cloudflare Captcha verification, please try again.", result.Message)
}

func TestMiddlewareRejectsRemoteFailure(t *testing.T) {
	tr := &fakeTransport{body: `{"success":false,"error-codes":["invalid-input-response"]}`}
	h, reached := guardedHandler(New(validConfig, WithTransport(tr)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, postForm(url.Values{ResponseField: {"bad"}}))

	assert.False(t, *reached)
	assert.Contains(t, rr.Body.String(), `"status":"invalid-input-response"`)
	assert.Contains(t, rr.Body.String(), "invalid or has expired")
}

func TestMiddlewareCustomFailureHandler(t *testing.T) {
	var got VerificationResult
	handler := func(w http.ResponseWriter, _ *http.Request, result VerificationResult) {
		got = result
		w.WriteHeader(http.StatusForbidden)
	}
	h, _ := guardedHandler(New(validConfig, WithTransport(&fakeTransport{})), WithFailureHandler(handler))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, postForm(url.Values{}))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "wrong_captcha_verification", got.Status)
}

func TestMiddlewareSkipsSafeMethods(t *testing.T) {
	tr := &fakeTransport{}
	h, reached := guardedHandler(New(validConfig, WithTransport(tr)))

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		*reached = false
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/register", nil))
		assert.True(t, *reached, method)
	}
	assert.Zero(t, tr.calls)
}

func TestSubmissionFromRequest(t *testing.T) {
	req := postForm(url.Values{ResponseField: {"tok"}})

	sub, err := SubmissionFromRequest(req)

	require.NoError(t, err)
	assert.Equal(t, "tok", sub.Form.Get(ResponseField))
	assert.Equal(t, "198.51.100.4", sub.RemoteIP)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "unix"
	sub, err = SubmissionFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "unix", sub.RemoteIP)
}

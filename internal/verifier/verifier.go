package verifier

import (
	"context"
	"net/url"
)

// Error codes synthesized locally. Any other code comes verbatim from the remote service.
const (
	CodeMissingInput       = "missing-input"
	CodeFailedVerification = "failed-verification"
)

// Response is the outcome of one siteverify round trip.
type Response struct {
	Success    bool
	ErrorCodes []string
}

// Transport posts a URL-encoded form and returns the raw response body.
// A non-nil error means no usable body was obtained.
type Transport interface {
	Post(ctx context.Context, endpoint string, form url.Values) ([]byte, error)
}

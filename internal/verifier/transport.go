package verifier

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 5 * time.Second

// HTTPTransport sends siteverify requests over resty.
type HTTPTransport struct {
	client *resty.Client
}

func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPTransport{
		client: resty.New().SetTimeout(timeout),
	}
}

func (t *HTTPTransport) Post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("siteverify request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("siteverify returned %s", resp.Status())
	}
	return resp.Body(), nil
}

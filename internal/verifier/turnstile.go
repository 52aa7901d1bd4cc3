package verifier

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/bytedance/sonic"
)

const TurnstileEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type Turnstile struct {
	Secret    string
	Endpoint  string
	Transport Transport
	Logger    *slog.Logger
}

func NewTurnstile(secret string, transport Transport) *Turnstile {
	if transport == nil {
		transport = NewHTTPTransport(defaultTimeout)
	}
	return &Turnstile{
		Secret:    secret,
		Endpoint:  TurnstileEndpoint,
		Transport: transport,
		Logger:    slog.Default(),
	}
}

// VerifyResponse asks the siteverify endpoint whether token was issued for a
// passed challenge. Only a body whose "success" member is the JSON literal
// true counts as a pass.
func (t *Turnstile) VerifyResponse(ctx context.Context, token, remoteIP string) Response {
	if token == "" {
		return Response{ErrorCodes: []string{CodeMissingInput}}
	}

	form := url.Values{}
	form.Set("secret", t.Secret)
	form.Set("remoteip", remoteIP)
	form.Set("response", token)

	body, err := t.Transport.Post(ctx, t.Endpoint, form)
	if err != nil {
		t.logger().Warn("turnstile siteverify failed", "error", err)
		return Response{ErrorCodes: []string{CodeFailedVerification}}
	}

	var answers map[string]any
	if err := sonic.Unmarshal(body, &answers); err != nil {
		t.logger().Warn("turnstile siteverify returned malformed body", "error", err)
		return Response{}
	}
	if ok, isBool := answers["success"].(bool); isBool && ok {
		return Response{Success: true}
	}
	return Response{ErrorCodes: errorCodes(answers["error-codes"])}
}

func (t *Turnstile) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// errorCodes keeps whatever string codes the remote sent without judging them.
func errorCodes(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		codes := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				codes = append(codes, s)
			}
		}
		return codes
	default:
		return nil
	}
}

// Package turnstile offers Cloudflare Turnstile as a human verification
// control for host forms: it emits the widget bindings, reads the token the
// widget posts back and checks it against the siteverify endpoint.
package turnstile

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/berkan-cetinkaya/turnstile/internal/lang"
	"github.com/berkan-cetinkaya/turnstile/internal/verifier"
)

const (
	// Name is the key the control is registered under.
	Name = "Turnstile"
	// ResponseField is the form field the widget fills with its token.
	ResponseField = "cf-turnstile-response"

	scriptURL = "https://challenges.cloudflare.com/turnstile/v0/api.js?onload=_turnstileCb"
	theme     = "light"
	action    = "register"
)

// Turnstile implements Control on top of Cloudflare Turnstile.
type Turnstile struct {
	cfg      Config
	verifier *verifier.Turnstile
	options  map[string]any
	logger   *slog.Logger
}

type Option func(*Turnstile)

// WithTransport replaces the HTTP transport used for siteverify calls.
func WithTransport(t verifier.Transport) Option {
	return func(ts *Turnstile) {
		if t != nil {
			ts.verifier.Transport = t
		}
	}
}

// WithEndpoint points siteverify calls at another URL.
func WithEndpoint(endpoint string) Option {
	return func(ts *Turnstile) {
		if endpoint != "" {
			ts.verifier.Endpoint = endpoint
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(ts *Turnstile) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithVerificationOptions keeps the host's per-form options.
func WithVerificationOptions(opts map[string]any) Option {
	return func(ts *Turnstile) {
		ts.options = opts
	}
}

func New(cfg Config, opts ...Option) *Turnstile {
	if cfg.Language == "" {
		cfg.Language = LanguageAuto
	}
	t := &Turnstile{
		cfg:      cfg,
		verifier: verifier.NewTurnstile(cfg.SecretKey, nil),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "turnstile")
	t.verifier.Logger = t.logger
	return t
}

// Options returns the host options the control was created with.
func (t *Turnstile) Options() map[string]any {
	return t.options
}

func (t *Turnstile) enabled() bool {
	return t.cfg.Enabled && t.cfg.SiteKey != "" && t.cfg.SecretKey != ""
}

func (t *Turnstile) ShowVerification(page *Page, _, _ bool) bool {
	if !t.enabled() {
		return false
	}
	if page == nil {
		return true
	}

	page.LoadTemplate(Name)
	page.LoadTemplate("VerificationControls")

	// The widget script must be a real deferred tag so it runs after _turnstileCb exists.
	page.AddHeader(fmt.Sprintf(`
	<script src="%s" defer></script>`, scriptURL))

	page.AddInlineJS(fmt.Sprintf(`
			function _turnstileCb() {
				turnstile.render("#TurnstileControl", {
					sitekey: "%s",
					theme: "%s",
					language: "%s",
					action: "%s"
				});
			};`,
		template.JSEscapeString(t.cfg.SiteKey),
		theme,
		template.JSEscapeString(t.cfg.Language),
		action,
	))
	return true
}

// CreateTest does nothing; the widget script produces the token on the client.
func (t *Turnstile) CreateTest(bool) {}

func (t *Turnstile) PrepareContext() RenderContext {
	return RenderContext{
		Template: Name,
		Values: map[string]string{
			"site_key": t.cfg.SiteKey,
		},
	}
}

func (t *Turnstile) DoTest(ctx context.Context, sub Submission) error {
	token, ok := sub.Form[ResponseField]
	if !ok || len(token) == 0 || strings.TrimSpace(token[0]) == "" {
		return ErrWrongVerification
	}

	resp := t.VerifyResponse(ctx, token[0], sub.RemoteIP)
	if resp.Success {
		return nil
	}
	if len(resp.ErrorCodes) > 0 {
		t.logger.Info("turnstile verification rejected", "code", resp.ErrorCodes[0])
		return ErrorCode(resp.ErrorCodes[0])
	}
	t.logger.Info("turnstile verification rejected without code")
	return ErrWrongVerification
}

// VerifyResponse calls the siteverify endpoint for token.
func (t *Turnstile) VerifyResponse(ctx context.Context, token, remoteIP string) verifier.Response {
	return t.verifier.VerifyResponse(ctx, token, remoteIP)
}

func (t *Turnstile) HasVisibleTemplate() bool {
	return true
}

func (t *Turnstile) Settings() []SettingField {
	return []SettingField{
		{Kind: FieldTitle, Name: "turnstile_verification"},
		{Kind: FieldDesc, Name: "turnstile_desc"},
		{Kind: FieldCheck, Name: KeyEnable},
		{Kind: FieldText, Name: KeySiteKey, Size: 40},
		{Kind: FieldText, Name: KeySecretKey, Size: 40},
		{Kind: FieldText, Name: KeyLanguage, Size: 6, PostInput: lang.Text("turnstile_language_desc")},
	}
}

var _ Control = (*Turnstile)(nil)

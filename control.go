package turnstile

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/berkan-cetinkaya/turnstile/internal/lang"
	"github.com/berkan-cetinkaya/turnstile/internal/verifier"
)

// Control is a pluggable human verification method offered on host forms.
type Control interface {
	// ShowVerification reports whether the control should be displayed and,
	// when it is, adds its client-side bindings to page.
	ShowVerification(page *Page, isNew, forceRefresh bool) bool
	CreateTest(refresh bool)
	PrepareContext() RenderContext
	// DoTest returns nil when the submission passed, otherwise an ErrorCode.
	DoTest(ctx context.Context, sub Submission) error
	HasVisibleTemplate() bool
	Settings() []SettingField
}

// ErrorCode identifies why a verification failed.
type ErrorCode string

const (
	ErrMissingInput       ErrorCode = verifier.CodeMissingInput
	ErrFailedVerification ErrorCode = verifier.CodeFailedVerification
	ErrWrongVerification  ErrorCode = "wrong_captcha_verification"
	ErrInvalidInput       ErrorCode = "invalid-input-response"
)

func (c ErrorCode) Error() string {
	return string(c)
}

// Message returns the localized text for a DoTest error.
func Message(err error) string {
	var code ErrorCode
	if errors.As(err, &code) {
		return lang.ErrorText(string(code))
	}
	return lang.ErrorText(string(ErrWrongVerification))
}

// RenderContext tells the host which template draws the control and with which values.
type RenderContext struct {
	Template string
	Values   map[string]string
}

// Submission carries what a form post provides to DoTest.
type Submission struct {
	Form     url.Values
	RemoteIP string
}

// SubmissionFromRequest parses r's form and records the client address.
func SubmissionFromRequest(r *http.Request) (Submission, error) {
	if err := r.ParseForm(); err != nil {
		return Submission{}, err
	}
	return Submission{
		Form:     r.PostForm,
		RemoteIP: clientIP(r),
	}, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Page collects what controls contribute to the rendered page.
type Page struct {
	HTMLHeaders string
	InlineJS    []string
	Templates   []string
}

// LoadTemplate records a template once.
func (p *Page) LoadTemplate(name string) {
	for _, t := range p.Templates {
		if t == name {
			return
		}
	}
	p.Templates = append(p.Templates, name)
}

func (p *Page) AddHeader(html string) {
	p.HTMLHeaders += html
}

func (p *Page) AddInlineJS(js string) {
	p.InlineJS = append(p.InlineJS, js)
}

// FieldKind is the widget an admin setting is shown with.
type FieldKind string

const (
	FieldTitle FieldKind = "title"
	FieldDesc  FieldKind = "desc"
	FieldCheck FieldKind = "check"
	FieldText  FieldKind = "text"
)

// SettingField describes one row of the admin settings panel.
type SettingField struct {
	Kind      FieldKind `json:"kind"`
	Name      string    `json:"name"`
	Size      int       `json:"size,omitempty"`
	PostInput string    `json:"postinput,omitempty"`
}

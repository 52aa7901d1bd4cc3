// Package lang holds the user-facing strings of the Turnstile control.
package lang

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Fallback is the error key used when a code has no dedicated message.
const Fallback = "error_wrong_captcha_verification"

var english = map[string]string{
	"turnstile_desc":          `To enable Turnstile on your forum you must sign up for an API key pair for your site. <a href="https://www.cloudflare.com/products/turnstile/">Sign up Here</a>`,
	"turnstile_language":      "Enter language code, leave empty to for automatic detection",
	"turnstile_language_desc": `Find <a href="https://developers.cloudflare.com/turnstile/reference/supported-languages/">language codes here</a>`,
	"turnstile_enable":        "Enable Turnstile verification",
	"turnstile_verification":  "Turnstile Validation",
	"turnstile_site_key":      "Turnstile Site Key",
	"turnstile_secret_key":    "Turnstile Secret Key",

	"error_failed-verification":        "You failed Cloudflare Site verification.",
	"error_missing-input":              "The verification failed to POST",
	"error_wrong_captcha_verification": "You failed Cloudflare Captcha verification, please try again.",
	"error_invalid-input-response":     "You failed Cloudflare Captcha verification, The response parameter was invalid or has expired",
}

var (
	loadOnce sync.Once
	printer  *message.Printer
)

// Load registers the English table. It is safe to call more than once.
func Load() {
	loadOnce.Do(func() {
		b := catalog.NewBuilder(catalog.Fallback(language.English))
		for key, msg := range english {
			// Catalog entries are format strings.
			_ = b.SetString(language.English, key, escapePercent(msg))
		}
		printer = message.NewPrinter(language.English, message.Catalog(b))
	})
}

// Text resolves a label key. Unknown keys are returned unchanged.
func Text(key string) string {
	if _, ok := english[key]; !ok {
		return key
	}
	Load()
	return printer.Sprintf(key)
}

// Has reports whether key has a translation.
func Has(key string) bool {
	_, ok := english[key]
	return ok
}

// ErrorText resolves the message shown for a verification error code.
func ErrorText(code string) string {
	key := "error_" + code
	if !Has(key) {
		key = Fallback
	}
	return Text(key)
}

func escapePercent(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			out = append(out, '%')
		}
		out = append(out, s[i])
	}
	return string(out)
}

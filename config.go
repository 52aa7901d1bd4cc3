package turnstile

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	cfg "github.com/berkan-cetinkaya/turnstile/internal/config"
	"github.com/berkan-cetinkaya/turnstile/internal/settings"
)

// Setting keys as stored by the host.
const (
	KeyEnable    = "turnstile_enable"
	KeySiteKey   = "turnstile_site_key"
	KeySecretKey = "turnstile_secret_key"
	KeyLanguage  = "turnstile_language"
)

// LanguageAuto lets the widget pick the visitor's language.
const LanguageAuto = "auto"

// Config holds the Turnstile options. It is read-only once loaded.
type Config struct {
	Enabled   bool
	SiteKey   string
	SecretKey string
	Language  string
}

// LoadConfig reads the host settings file, falling back to the configured
// source (env or Vault) under the upper-cased key for anything missing.
// A settings file that was never saved counts as empty.
func LoadConfig() (Config, error) {
	store, err := settings.Current()
	if errors.Is(err, settings.ErrNotConfigured) || errors.Is(err, fs.ErrNotExist) {
		store = settings.Empty()
	} else if err != nil {
		return Config{}, err
	}
	return ConfigFromStore(store), nil
}

// ConfigFromStore builds a Config from a settings snapshot.
func ConfigFromStore(store *settings.Store) Config {
	enabled, ok := store.Bool(KeyEnable)
	if !ok {
		enabled = cfg.GetBool(envKey(KeyEnable), false)
	}

	return Config{
		Enabled:   enabled,
		SiteKey:   lookup(store, KeySiteKey),
		SecretKey: lookup(store, KeySecretKey),
		Language:  NormalizeLanguage(lookup(store, KeyLanguage)),
	}
}

// NormalizeLanguage maps an admin-entered code to what the widget accepts.
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, LanguageAuto) {
		return LanguageAuto
	}
	if _, err := language.Parse(code); err != nil {
		slog.Warn("ignoring invalid turnstile language", "component", "turnstile", "language", code, "error", err)
		return LanguageAuto
	}
	return code
}

func lookup(store *settings.Store, key string) string {
	if v, ok := store.String(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(cfg.GetDefault(envKey(key), ""))
}

func envKey(key string) string {
	return strings.ToUpper(key)
}

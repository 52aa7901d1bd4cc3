// Package settings reads the host's settings file, the place where the admin
// panel persists verification options such as turnstile_enable.
package settings

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/berkan-cetinkaya/turnstile/internal/config"
)

// PathKey names the config key holding the settings file location.
const PathKey = "TURNSTILE_SETTINGS"

// ErrNotConfigured is returned by Current when no settings file is configured.
var ErrNotConfigured = errors.New("settings file not configured")

// Store is an immutable snapshot of the settings file.
type Store struct {
	values map[string]any
}

var (
	current     *Store
	currentPath string
	currentMod  time.Time
	currentSize int64
	currentMu   sync.Mutex
)

// Current returns the latest settings, reloading from disk when the file changes.
func Current() (*Store, error) {
	path, err := resolvePath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("could not stat settings file: %w", err)
	}

	currentMu.Lock()
	defer currentMu.Unlock()

	if current != nil && path == currentPath && info.ModTime().Equal(currentMod) && info.Size() == currentSize {
		return current, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open settings file: %w", err)
	}

	store, err := Parse(data)
	if err != nil {
		return nil, err
	}

	current = store
	currentPath = path
	currentMod = info.ModTime()
	currentSize = info.Size()
	return current, nil
}

// Parse builds a Store from the JSON object in data.
func Parse(data []byte) (*Store, error) {
	values := map[string]any{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := sonic.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("could not parse settings file: %w", err)
		}
	}
	return &Store{values: values}, nil
}

// FromValues wraps an in-memory map, mostly for hosts that keep settings elsewhere.
func FromValues(values map[string]any) *Store {
	return &Store{values: maps.Clone(values)}
}

// Empty is a store without any setting.
func Empty() *Store {
	return &Store{values: map[string]any{}}
}

// Bool reports whether key is set to a truthy value. Empty strings, "0",
// false, zero and null are all off.
func (s *Store) Bool(key string) (value, ok bool) {
	raw, ok := s.values[key]
	if !ok || raw == nil {
		return false, ok
	}
	switch v := raw.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		v = strings.TrimSpace(v)
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
		return v != "" && v != "0", true
	default:
		return true, true
	}
}

// String returns the value of key as text; numbers are formatted, other kinds are skipped.
func (s *Store) String(key string) (string, bool) {
	raw, ok := s.values[key]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Values returns a copy of every stored setting.
func (s *Store) Values() map[string]any {
	return maps.Clone(s.values)
}

// Save writes values to path, replacing the previous file in one rename.
func Save(path string, values map[string]any) error {
	data, err := sonic.ConfigStd.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("could not create settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not replace settings file: %w", err)
	}

	// A rewrite inside one timestamp tick can keep the old mtime.
	currentMu.Lock()
	current = nil
	currentMu.Unlock()
	return nil
}

// Path returns the configured settings file location.
func Path() (string, error) {
	return resolvePath()
}

func resolvePath() (string, error) {
	val, err := config.Get(PathKey)
	if err != nil {
		return "", ErrNotConfigured
	}

	path := strings.TrimSpace(val)
	if path == "" {
		return "", ErrNotConfigured
	}
	return path, nil
}

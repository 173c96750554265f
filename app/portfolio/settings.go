package portfolio

import (
	"fmt"

	"github.com/trading-cockpit/cockpit/app/store"
)

// Settings is a small typed facade over the "settings" collection, used
// for the capital amount and UI knobs. Values are free-form JSON, getters
// fall back to the provided default on a miss or a type mismatch.
type Settings struct {
	store *store.Map
}

// NewSettings makes the settings facade over the "settings" collection.
func NewSettings(backend store.Backend) *Settings {
	return &Settings{store: store.NewMap("settings", backend)}
}

// Set stores a setting value.
func (s *Settings) Set(key string, value any) error {
	if err := s.store.Set(key, value); err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// Get returns the raw value and whether the key is present.
func (s *Settings) Get(key string) (any, bool) {
	return s.store.Get(key)
}

// Delete removes a setting. Removing an absent key is a no-op.
func (s *Settings) Delete(key string) error {
	return s.store.Delete(key)
}

// All returns a snapshot of every setting.
func (s *Settings) All() map[string]any {
	return s.store.Items()
}

// Float returns a numeric setting. JSON numbers load as float64, an int
// set in the same process is accepted too.
func (s *Settings) Float(key string, def float64) float64 {
	v, ok := s.store.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}

// String returns a string setting, or def on a miss or non-string value.
func (s *Settings) String(key, def string) string {
	if v, ok := s.store.Get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return def
}

// Bool returns a boolean setting, or def on a miss or non-bool value.
func (s *Settings) Bool(key string, def bool) bool {
	if v, ok := s.store.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

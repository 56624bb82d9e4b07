package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/ports"
)

// Preferences are per-principal device settings. They persist until
// explicitly overwritten; OnboardingSeen in particular must never silently
// expire.
type Preferences struct {
	AutoSaveSearch bool `json:"auto_save_search"`
	OnboardingSeen bool `json:"onboarding_seen"`
}

// defaultPreferences mirrors the first-run behavior: auto-save on,
// onboarding not yet seen.
func defaultPreferences() Preferences {
	return Preferences{AutoSaveSearch: true}
}

// PreferencesService stores preferences in the key-value store, namespaced
// by principal so account switches on one device never reuse another
// account's flags.
type PreferencesService struct {
	kv  ports.KVStore
	log zerolog.Logger
}

func NewPreferencesService(kv ports.KVStore, log zerolog.Logger) *PreferencesService {
	return &PreferencesService{kv: kv, log: log}
}

func prefsKey(principalID string) string {
	return "prefs:" + principalID
}

// Get returns the principal's preferences, falling back to defaults when
// none are stored or the read fails.
func (s *PreferencesService) Get(ctx context.Context, principalID string) Preferences {
	p := defaultPreferences()
	found, err := s.kv.Get(ctx, prefsKey(principalID), &p)
	if err != nil {
		s.log.Warn().Err(err).Msg("preferences read failed")
		return defaultPreferences()
	}
	if !found {
		return defaultPreferences()
	}
	return p
}

// Set overwrites the principal's preferences.
func (s *PreferencesService) Set(ctx context.Context, principalID string, p Preferences) error {
	return s.kv.Set(ctx, prefsKey(principalID), p)
}

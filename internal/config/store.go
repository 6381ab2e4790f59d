// Package config persists the daemon's last user-chosen state so the
// selected profile survives restarts when the probed drivers still match.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
)

const (
	keyCpuDriver      = "cpu-driver"
	keyPlatformDriver = "platform-driver"
	keyProfile        = "profile"
)

const systemStatePath = "/var/lib/power-profiles-daemon/state.yaml"

// Store is a small key-value record on disk: the driver names that were
// active and the profile that was applied.
type Store struct {
	v    *viper.Viper
	path string
	log  zerolog.Logger
}

// DefaultPath returns the system state file when running privileged,
// falling back to the user's XDG state directory otherwise.
func DefaultPath() string {
	if os.Geteuid() == 0 {
		return systemStatePath
	}
	return filepath.Join(xdg.StateHome, "power-profiles-daemon", "state.yaml")
}

// New loads the state file at path if it exists. A missing or unreadable
// file is not an error, it just means there is nothing to restore.
func New(path string) *Store {
	s := &Store{
		v:    viper.New(),
		path: path,
		log:  logging.GetLogger("config"),
	}
	s.v.SetConfigFile(path)
	s.v.SetConfigType("yaml")
	if err := s.v.ReadInConfig(); err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("no persisted state to load")
	}
	return s
}

// Saved returns the persisted driver names and profile name. Absent keys
// come back empty.
func (s *Store) Saved() (cpuDriver, platformDriver, profileName string) {
	return s.v.GetString(keyCpuDriver), s.v.GetString(keyPlatformDriver), s.v.GetString(keyProfile)
}

// Save writes the current driver names and profile to disk. Failures are
// logged, never fatal: losing persistence degrades restarts, nothing else.
func (s *Store) Save(cpuDriver, platformDriver, profileName string) {
	s.v.Set(keyCpuDriver, cpuDriver)
	s.v.Set(keyPlatformDriver, platformDriver)
	s.v.Set(keyProfile, profileName)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("could not create state directory")
		return
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("could not save state file")
	}
}

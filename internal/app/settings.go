package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DataRoot         string `yaml:"data_root"`
	MaxSlots         int    `yaml:"max_slots"`
	PollIntervalMS   int    `yaml:"poll_interval_ms"`
	SessionBackend   string `yaml:"session_backend"` // "tmux" (default) or "fake"
	ParallelTimeoutS int    `yaml:"parallel_timeout_seconds"`
	StageTimeoutS    int    `yaml:"stage_timeout_seconds"`
	ScrollbackLines  int    `yaml:"scrollback_lines"`
}

const (
	// DefaultMaxSlots is the default cap on concurrently live agent slots.
	// An operator may raise it via config, but
	// EffectiveOrchestrationSettings still clamps the result to 64.
	DefaultMaxSlots = 9

	defaultPollIntervalMS   = 500
	defaultParallelTimeoutS = 15 * 60
	defaultStageTimeoutS    = 10 * 60
	defaultScrollbackLines  = 50
)

// OrchestrationSettings are effective runtime values used by the lifecycle
// manager, sync primitives, and workflow engine.
type OrchestrationSettings struct {
	MaxSlots         int
	PollInterval     int // milliseconds
	SessionBackend   string
	ParallelTimeoutS int
	StageTimeoutS    int
	ScrollbackLines  int
}

// EffectiveOrchestrationSettings returns validated runtime settings with
// defaults filled in. Invalid or missing config values fall back to safe
// defaults rather than failing the caller.
func EffectiveOrchestrationSettings() OrchestrationSettings {
	cfg := OrchestrationSettings{
		MaxSlots:         DefaultMaxSlots,
		PollInterval:     defaultPollIntervalMS,
		SessionBackend:   "tmux",
		ParallelTimeoutS: defaultParallelTimeoutS,
		StageTimeoutS:    defaultStageTimeoutS,
		ScrollbackLines:  defaultScrollbackLines,
	}

	s, err := LoadSettings()
	if err != nil {
		return cfg
	}

	if s.MaxSlots > 0 {
		cfg.MaxSlots = s.MaxSlots
	}
	if s.PollIntervalMS > 0 {
		cfg.PollInterval = s.PollIntervalMS
	}
	if s.SessionBackend != "" {
		cfg.SessionBackend = s.SessionBackend
	}
	if s.ParallelTimeoutS > 0 {
		cfg.ParallelTimeoutS = s.ParallelTimeoutS
	}
	if s.StageTimeoutS > 0 {
		cfg.StageTimeoutS = s.StageTimeoutS
	}
	if s.ScrollbackLines > 0 {
		cfg.ScrollbackLines = s.ScrollbackLines
	}

	if cfg.MaxSlots > 64 {
		cfg.MaxSlots = 64
	}

	return cfg
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load
// singleton for config. dataRootOverrideMu/dataRootOverride implement a
// mutex-protected process-wide override for CLI --data-root.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	dataRootOverrideMu sync.RWMutex
	dataRootOverride   string
)

// SetDataRootOverride sets a process-wide data root override.
// Intended for CLI flag support (e.g. --data-root).
func SetDataRootOverride(path string) {
	dataRootOverrideMu.Lock()
	dataRootOverride = path
	dataRootOverrideMu.Unlock()
}

func getDataRootOverride() string {
	dataRootOverrideMu.RLock()
	v := dataRootOverride
	dataRootOverrideMu.RUnlock()
	return v
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/daedalos/config.yaml
// 2) /etc/daedalos/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, err := loadSettingsFile(filepath.Join(dir, "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		if s, err := loadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "daedalos", "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		if s, err := loadSettingsFile("config.yaml"); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

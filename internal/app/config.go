package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the directory config.yaml lives in: the
// DAEDALOS_CONFIG_DIR override if set, else ~/.config/daedalos/ on all
// platforms.
func ConfigDir() (string, error) {
	if dir := os.Getenv("DAEDALOS_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "daedalos"), nil
}

// EnsureConfigDir creates the config directory and a commented-out
// config.yaml documenting every OrchestrationSettings key (with its
// current built-in default) if one isn't already present.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfigTemplate()), 0600)
	}
	return nil
}

// defaultConfigTemplate renders commented-out settings keys sourced from
// the actual defaults in EffectiveOrchestrationSettings, so the generated
// file can't drift out of sync with the code that reads it.
func defaultConfigTemplate() string {
	return fmt.Sprintf(`# daedalos configuration
# Run: daedalos --help
# Every key below is optional; uncomment to override the built-in default.

# Orchestration data root (agents, messages, signals, workflow state, ...).
# Can also be set via DAEDALOS_DATA_ROOT or --data-root.
# data_root: ~/.config/daedalos/data

# Cap on concurrently live agent slots (hard ceiling: 64).
# max_slots: %d

# Interval, in milliseconds, between status-polling ticks.
# poll_interval_ms: %d

# Session backend: "tmux" (default) or "fake" (in-memory, for tests/demos).
# session_backend: tmux

# Per-stage and whole-workflow timeouts, in seconds.
# parallel_timeout_seconds: %d
# stage_timeout_seconds: %d

# Scrollback lines captured per status check / snapshot.
# scrollback_lines: %d
`,
		DefaultMaxSlots,
		defaultPollIntervalMS,
		defaultParallelTimeoutS,
		defaultStageTimeoutS,
		defaultScrollbackLines,
	)
}

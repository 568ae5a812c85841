package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDataRoot resolves the orchestration data root.
// Order of precedence:
// 1) CLI override (e.g. --data-root)
// 2) Environment variable: DAEDALOS_DATA_ROOT
// 3) config.yaml: data_root
// 4) Default: ~/.config/daedalos/data
// Returns an absolute path and ensures the directory (and its namespace
// subdirectories) exist.
func GetDataRoot() (string, error) {
	if override := getDataRootOverride(); override != "" {
		return EnsureDataRoot(override)
	}

	if envPath := os.Getenv("DAEDALOS_DATA_ROOT"); envPath != "" {
		return EnsureDataRoot(envPath)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DataRoot != "" {
		return EnsureDataRoot(cfg.DataRoot)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return EnsureDataRoot(filepath.Join(configDir, "data"))
}

// dataNamespaces are the well-known subdirectories of the data root, per
// the persisted state layout.
var dataNamespaces = []string{
	"messages",
	"signals",
	"locks",
	"claims",
	"claims/archive",
	"shared",
	"handoffs",
	"snapshots",
	"workflow_state",
	"templates",
	"workflows",
	"hooks",
}

// EnsureDataRoot creates the data root and its namespace subdirectories.
func EnsureDataRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create data root: %w", err)
	}
	for _, ns := range dataNamespaces {
		if err := os.MkdirAll(filepath.Join(abs, ns), 0755); err != nil {
			return "", fmt.Errorf("failed to create namespace %q: %w", ns, err)
		}
	}
	return abs, nil
}

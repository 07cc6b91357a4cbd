package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - OVC_CONFIG_PATH: config file location (default: ~/.config/ovc.toml)
//   - OVC_HOME: base directory for ovc data (default: ~/.local/share/ovc)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking OVC_CONFIG_PATH env var first,
// then falling back to the default ~/.config/ovc.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("OVC_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "ovc.toml"), nil
}

// getBaseDir returns the base directory for ovc data, checking OVC_HOME env var first,
// then falling back to the XDG default ~/.local/share/ovc.
func getBaseDir() (string, error) {
	if path := os.Getenv("OVC_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "ovc"), nil
}

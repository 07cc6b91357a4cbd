package scanner

import (
	"fmt"

	"ovc-go/internal/config"
	"ovc-go/internal/ovc"
)

// NewScannerFromConfig creates a Scanner implementation based on the scanner config type.
func NewScannerFromConfig(cfg config.ScannerConfig) (ovc.Scanner, error) {
	switch cfg.Type {
	case "script":
		if cfg.ScanScript == "" || cfg.RestoreScript == "" {
			return nil, fmt.Errorf("script scanner requires scan_script and restore_script to be set")
		}
		return NewScriptScanner(ScriptOptions{
			Interpreter:   cfg.Interpreter,
			ScanScript:    cfg.ScanScript,
			RestoreScript: cfg.RestoreScript,
			Timeout:       cfg.Timeout,
		}), nil
	case "local":
		return NewLocalScanner(), nil
	default:
		return nil, fmt.Errorf("unknown scanner type: %s", cfg.Type)
	}
}

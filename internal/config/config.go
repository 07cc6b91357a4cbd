package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for ovc.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Archive    ArchiveConfig    `toml:"archive"`
	Encryption EncryptionConfig `toml:"encryption"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Staging    StagingConfig    `toml:"staging"`
	Inventory  InventoryConfig  `toml:"inventory"`
	Server     ServerConfig     `toml:"server"`
}

// DatabaseConfig represents configuration for the metadata database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "postgres"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	DSN     string `toml:"dsn,omitempty"`      // only used for type=postgres
}

// ArchiveConfig represents configuration for the archive of version bytes.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible stores; path-style addressing

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig selects encryption at rest for archived bytes.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ScannerConfig selects how files on devices are probed.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ScannerConfig struct {
	Type string `toml:"type"` // "script" or "local"

	// Script-specific fields (only used when Type == "script")
	Interpreter   string `toml:"interpreter,omitempty"` // e.g. "python3"; empty runs the scripts directly
	ScanScript    string `toml:"scan_script,omitempty"`
	RestoreScript string `toml:"restore_script,omitempty"`

	Timeout     time.Duration `toml:"timeout"`     // per scan or write-back call
	Concurrency int           `toml:"concurrency"` // directories scanned in parallel by ScanAll
}

// StagingConfig configures the local area where scanned bytes are captured
// and restores are staged.
type StagingConfig struct {
	Type       string `toml:"type"`                  // "filesystem" or "memory"
	StagingDir string `toml:"staging_dir,omitempty"` // only used for type=filesystem
	MaxSize    int64  `toml:"max_size"`              // max total size in bytes; must be positive
}

// InventoryConfig configures the device address cache.
type InventoryConfig struct {
	CacheSize int           `toml:"cache_size"`
	CacheTTL  time.Duration `toml:"cache_ttl"`
}

// ServerConfig configures `ovc serve`.
type ServerConfig struct {
	Listen          string        `toml:"listen"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultScanTimeout     = 60 * time.Second
	DefaultScanConcurrency = 4
	DefaultStagingMaxSize  = 1 << 30
	DefaultCacheSize       = 256
	DefaultCacheTTL        = 5 * time.Minute
	DefaultListen          = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// NewConfig creates a new Config rooted at baseDir with default settings:
// a SQLite database, a filesystem archive and the script scanner. The scan
// and restore scripts are installed under baseDir/scripts by `ovc config init`.
func NewConfig(baseDir string) *Config {
	cfg := &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Archive: ArchiveConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "archive"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "ovc.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "ovc.key"),
		},
		Scanner: ScannerConfig{
			Type:          "script",
			Interpreter:   "python3",
			ScanScript:    filepath.Join(baseDir, "scripts", "scan.py"),
			RestoreScript: filepath.Join(baseDir, "scripts", "restore.py"),
		},
		Staging: StagingConfig{
			Type:       "filesystem",
			StagingDir: filepath.Join(baseDir, "staging"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued tunables with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Scanner.Timeout <= 0 {
		c.Scanner.Timeout = DefaultScanTimeout
	}
	if c.Scanner.Concurrency <= 0 {
		c.Scanner.Concurrency = DefaultScanConcurrency
	}
	if c.Staging.Type == "" {
		c.Staging.Type = "filesystem"
	}
	if c.Staging.MaxSize <= 0 {
		c.Staging.MaxSize = DefaultStagingMaxSize
	}
	if c.Inventory.CacheSize <= 0 {
		c.Inventory.CacheSize = DefaultCacheSize
	}
	if c.Inventory.CacheTTL <= 0 {
		c.Inventory.CacheTTL = DefaultCacheTTL
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = "none"
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Missing tunables get
// their defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

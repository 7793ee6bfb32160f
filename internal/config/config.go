// Package config loads EOSS's process-wide configuration snapshot.
//
// Configuration is read once at startup from a YAML file (with environment
// variable overrides) and passed by value into the constructors of the
// metadata driver, lock manager, coordinator, and HTTP glue — it is never
// threaded as a hidden global, per the design notes in SPEC_FULL.md §2.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is EOSS's full configuration, matching spec.md §6's key table.
type Config struct {
	VersionSalt    string `mapstructure:"version_salt" yaml:"version_salt" validate:"required"`
	StoragePath    string `mapstructure:"storage_path" yaml:"storage_path" validate:"required"`
	MetadataDBPath string `mapstructure:"metadata_db_path" yaml:"metadata_db_path" validate:"required"`
	MetadataDBTable string `mapstructure:"metadata_db_table" yaml:"metadata_db_table" validate:"required"`
	LoggingPath    string `mapstructure:"logging_path" yaml:"logging_path" validate:"required"`
	ObjectLockPath string `mapstructure:"object_lock_path" yaml:"object_lock_path" validate:"required"`
	LogBackupCount int    `mapstructure:"log_backup_count" yaml:"log_backup_count" validate:"gte=0"`
	LogMaxBytes    int64  `mapstructure:"log_max_bytes" yaml:"log_max_bytes" validate:"gte=0"`
	SafeMode       bool   `mapstructure:"safemode" yaml:"safemode"`

	// LoggingLevel and LoggingFormat are EOSS-native additions (not present
	// in the original's config, which hardcoded logging.DEBUG) layered on
	// top of the original's LOGGING_PATH key, so the ambient stack has a
	// real level/format knob the way the teacher's LoggingConfig does.
	LoggingLevel  string `mapstructure:"logging_level" yaml:"logging_level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	LoggingFormat string `mapstructure:"logging_format" yaml:"logging_format" validate:"required,oneof=text json"`

	// HTTPAddr is the listen address for the HTTP API (EOSS addition: the
	// original relied on Flask's own CLI-supplied bind address).
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr" validate:"required"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint (domain-stack addition, SPEC_FULL.md §3).
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the configuration spec.md §6 specifies when a key is
// absent from the config file.
func Default() *Config {
	return &Config{
		VersionSalt:     "snoopy",
		StoragePath:     "/tmp",
		MetadataDBPath:  "/tmp/mds.sql",
		MetadataDBTable: "metadata",
		LoggingPath:     "/tmp",
		ObjectLockPath:  "/tmp",
		LogBackupCount:  10,
		LogMaxBytes:     1073741824,
		SafeMode:        false,
		LoggingLevel:    "INFO",
		LoggingFormat:   "text",
		HTTPAddr:        ":8080",
		MetricsAddr:     ":9090",
	}
}

// ApplyDefaults fills any zero-valued field with spec.md §6's default.
func ApplyDefaults(cfg *Config) {
	d := Default()

	if cfg.VersionSalt == "" {
		cfg.VersionSalt = d.VersionSalt
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = d.StoragePath
	}
	if cfg.MetadataDBPath == "" {
		cfg.MetadataDBPath = d.MetadataDBPath
	}
	if cfg.MetadataDBTable == "" {
		cfg.MetadataDBTable = d.MetadataDBTable
	}
	if cfg.LoggingPath == "" {
		cfg.LoggingPath = d.LoggingPath
	}
	if cfg.ObjectLockPath == "" {
		cfg.ObjectLockPath = d.ObjectLockPath
	}
	if cfg.LogBackupCount == 0 {
		cfg.LogBackupCount = d.LogBackupCount
	}
	if cfg.LogMaxBytes == 0 {
		cfg.LogMaxBytes = d.LogMaxBytes
	}
	if cfg.LoggingLevel == "" {
		cfg.LoggingLevel = d.LoggingLevel
	}
	cfg.LoggingLevel = strings.ToUpper(cfg.LoggingLevel)
	if cfg.LoggingFormat == "" {
		cfg.LoggingFormat = d.LoggingFormat
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = d.HTTPAddr
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = d.MetricsAddr
	}
}

var validate = validator.New()

// Validate checks the struct tags above.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

// Load reads configPath (a YAML file) through viper, overlaying EOSS_*
// environment variables, applies defaults for anything left unset, and
// validates the result. An empty configPath reads no file and starts from
// Default(); a non-empty configPath that cannot be read is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EOSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", configPath, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path in YAML form, used by `eoss init`.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Package config loads cairn's configuration: the data directory pkg/persist
// writes its BadgerDB files under, whether a caller commits through
// Transaction.CommitWithCheck by default, and where pkg/audit appends its
// log.
//
// Grounded on the teacher's pkg/config/config.go: a struct loaded once at
// startup and validated before use, with environment variables able to
// override whatever a YAML file declares (gopkg.in/yaml.v3, the same
// declarative-config dependency pkg/schema/yamlschema uses). Trimmed to
// this domain's fields — no auth, server, or compliance settings exist
// here; those named concerns belong to a database server, not an
// in-memory graph container.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all of cairn's configuration.
type Config struct {
	// Storage settings for the pkg/persist adapter.
	Storage StorageConfig `yaml:"storage"`

	// LinkTypeCheck controls whether a caller commits through
	// Transaction.CommitWithCheck by default instead of plain Commit,
	// per SPEC_FULL.md §9 Open Question (b). cmd/cairn's commit-demo
	// reads this to choose its commit function when its own --check flag
	// isn't given. A registry with link-type constraints already
	// enforces them under plain Commit across the whole graph, so this
	// setting does not change which commits succeed.
	LinkTypeCheck bool `yaml:"link_type_check"`

	// Audit settings for the pkg/audit commit log.
	Audit AuditConfig `yaml:"audit"`
}

// StorageConfig holds pkg/persist settings.
type StorageConfig struct {
	// DataDir is the directory BadgerDB stores its snapshot and commit
	// log files under.
	DataDir string `yaml:"data_dir"`

	// InMemory runs BadgerDB in memory-only mode. Useful for
	// command-line demos that shouldn't leave files behind.
	InMemory bool `yaml:"in_memory"`

	// SyncWrites forces fsync after each write.
	SyncWrites bool `yaml:"sync_writes"`
}

// AuditConfig holds pkg/audit settings.
type AuditConfig struct {
	// Enabled controls whether commits are logged at all.
	Enabled bool `yaml:"enabled"`

	// LogPath is the path to the audit log file.
	LogPath string `yaml:"log_path"`

	// SyncWrites forces fsync after each audit log write.
	SyncWrites bool `yaml:"sync_writes"`
}

// Default returns the configuration cairn starts with before a YAML file
// or environment variables are applied.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			DataDir:    "./data/cairn",
			SyncWrites: true,
		},
		LinkTypeCheck: true,
		Audit: AuditConfig{
			Enabled:    true,
			LogPath:    "./data/cairn/audit.log",
			SyncWrites: true,
		},
	}
}

// Load reads a YAML config file at path, falling back to Default()'s
// values for anything the file doesn't set, then applies environment
// overrides via applyEnv. A missing file is not an error — cairn runs on
// defaults plus whatever the environment supplies.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// no file, defaults stand
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	config.applyEnv()
	return config, nil
}

// applyEnv overrides config with any CAIRN_-prefixed environment
// variables that are set, in the teacher's getEnv/getEnvBool style
// (pkg/config/config.go).
func (c *Config) applyEnv() {
	c.Storage.DataDir = getEnv("CAIRN_DATA_DIR", c.Storage.DataDir)
	c.Storage.InMemory = getEnvBool("CAIRN_IN_MEMORY", c.Storage.InMemory)
	c.Storage.SyncWrites = getEnvBool("CAIRN_SYNC_WRITES", c.Storage.SyncWrites)
	c.LinkTypeCheck = getEnvBool("CAIRN_LINK_TYPE_CHECK", c.LinkTypeCheck)
	c.Audit.Enabled = getEnvBool("CAIRN_AUDIT_ENABLED", c.Audit.Enabled)
	c.Audit.LogPath = getEnv("CAIRN_AUDIT_LOG_PATH", c.Audit.LogPath)
	c.Audit.SyncWrites = getEnvBool("CAIRN_AUDIT_SYNC_WRITES", c.Audit.SyncWrites)
}

// Validate checks config for internal consistency.
func (c *Config) Validate() error {
	if !c.Storage.InMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("config: storage.data_dir is required unless storage.in_memory is set")
	}
	if c.Audit.Enabled && c.Audit.LogPath == "" {
		return fmt.Errorf("config: audit.log_path is required when audit.enabled is set")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

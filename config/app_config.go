package config

import (
	"os"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// This is the global app config for the ledger node.
type AppConfig struct {
	// Signature scheme owner keys use: "rsa" or "secp256k1".
	SIGNATURE_SCHEME string `yaml:"signature_scheme"`
	// debug, info, warn or error.
	LOG_LEVEL string `yaml:"log_level"`
	// Console logs instead of JSON lines.
	PRETTY_LOGS bool `yaml:"pretty_logs"`
	// Where the ledger is persisted after every epoch. Empty keeps it in memory only.
	DB_PATH string `yaml:"db_path"`
	// Initial ledger snapshot, used when the database holds no ledger yet.
	GENESIS_PATH string `yaml:"genesis_path"`
	// host:port the gRPC service listens on.
	LISTEN_ADDR string `yaml:"listen_addr"`
	// host:port serving /metrics. Empty disables it.
	METRICS_ADDR string `yaml:"metrics_addr"`
	// How many more epochs a transaction rejected for a missing input stays pending.
	PENDING_RETRY_EPOCHS int `yaml:"pending_retry_epochs"`
}

// DefaultAppConfig returns the config used for anything a file or flag leaves unset.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		SIGNATURE_SCHEME:     "secp256k1",
		LOG_LEVEL:            "info",
		PRETTY_LOGS:          true,
		LISTEN_ADDR:          "localhost:10000",
		PENDING_RETRY_EPOCHS: 1,
	}
}

// Validate checks that every field holds a usable value.
func (c AppConfig) Validate() error {
	switch c.SIGNATURE_SCHEME {
	case "rsa", "secp256k1":
	default:
		return errors.Errorf("unsupported signature_scheme %q", c.SIGNATURE_SCHEME)
	}
	switch c.LOG_LEVEL {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unsupported log_level %q", c.LOG_LEVEL)
	}
	if c.PENDING_RETRY_EPOCHS < 0 {
		return errors.Errorf("pending_retry_epochs must not be negative, got %d", c.PENDING_RETRY_EPOCHS)
	}
	return nil
}

// ParseAppConfig reads the YAML file at path on top of the defaults.
func ParseAppConfig(path string) (AppConfig, error) {
	c := DefaultAppConfig()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return c, c.Validate()
}

// ApplyOverrides copies every non-zero field of overrides onto c.
func (c *AppConfig) ApplyOverrides(overrides AppConfig) error {
	return copier.CopyWithOption(c, &overrides, copier.Option{IgnoreEmpty: true})
}

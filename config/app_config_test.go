package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "signature_scheme: rsa\n" +
		"log_level: debug\n" +
		"db_path: /tmp/ledger\n" +
		"pending_retry_epochs: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	c, err := ParseAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "rsa", c.SIGNATURE_SCHEME)
	assert.Equal(t, "debug", c.LOG_LEVEL)
	assert.Equal(t, "/tmp/ledger", c.DB_PATH)
	assert.Equal(t, 3, c.PENDING_RETRY_EPOCHS)
	// Unset keys keep their defaults.
	assert.Equal(t, "localhost:10000", c.LISTEN_ADDR)
}

func TestParseAppConfigErrors(t *testing.T) {
	_, err := ParseAppConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("signature_scheme: ed448\n"), 0600))
	_, err = ParseAppConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultAppConfig().Validate())

	c := DefaultAppConfig()
	c.LOG_LEVEL = "loud"
	assert.Error(t, c.Validate())

	c = DefaultAppConfig()
	c.PENDING_RETRY_EPOCHS = -1
	assert.Error(t, c.Validate())
}

func TestApplyOverrides(t *testing.T) {
	c := DefaultAppConfig()
	require.NoError(t, c.ApplyOverrides(AppConfig{LISTEN_ADDR: "localhost:9999", DB_PATH: "/data"}))
	assert.Equal(t, "localhost:9999", c.LISTEN_ADDR)
	assert.Equal(t, "/data", c.DB_PATH)
	// Empty overrides leave the rest alone.
	assert.Equal(t, "secp256k1", c.SIGNATURE_SCHEME)
	assert.Equal(t, 1, c.PENDING_RETRY_EPOCHS)
	assert.True(t, c.PRETTY_LOGS)
}

func TestParseNodeOptions(t *testing.T) {
	opts, err := ParseNodeOptions([]string{"--listen", "localhost:1", "-d", "warn", "--debug_mode"})
	require.NoError(t, err)
	assert.Equal(t, "full_node/cmd/config.yaml", opts.ConfigPath)
	assert.True(t, opts.DebugMode)

	o := opts.Overrides()
	assert.Equal(t, "localhost:1", o.LISTEN_ADDR)
	assert.Equal(t, "warn", o.LOG_LEVEL)
	assert.Empty(t, o.DB_PATH)

	_, err = ParseNodeOptions([]string{"--nope"})
	assert.Error(t, err)
}

func TestParseWalletOptions(t *testing.T) {
	opts, err := ParseWalletOptions([]string{"--key_path", "/tmp/k", "--new_key"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/k", opts.KeyPath)
	assert.True(t, opts.NewKey)
	assert.Equal(t, "secp256k1", opts.Scheme)
}

func TestShippedNodeConfig(t *testing.T) {
	c, err := ParseAppConfig("../full_node/cmd/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "secp256k1", c.SIGNATURE_SCHEME)
	assert.Equal(t, "full_node/cmd/genesis.yaml", c.GENESIS_PATH)
	assert.Equal(t, 1, c.PENDING_RETRY_EPOCHS)
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCommandStructure(t *testing.T) {
	assert.NotNil(t, validateCmd)
	assert.Equal(t, "validate", validateCmd.Use)
	assert.NotEmpty(t, validateCmd.Short)
	assert.NotEmpty(t, validateCmd.Long)
	assert.NotNil(t, validateCmd.RunE)
}

func TestRunValidate_ValidConfig(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	cfgFile = writeTempConfig(t, `
store: acme-shop
access_token: shpat_secret
start_date: "2024-01-01"
`)

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)

	err := runValidate(validateCmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Configuration OK")
	assert.Contains(t, output, "Store: acme-shop")
	assert.Contains(t, output, "Mode: interactive")
	assert.Contains(t, output, "Entities: all discovered")
}

func TestRunValidate_BulkMode(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	cfgFile = writeTempConfig(t, `
store: acme-shop
access_token: shpat_secret
bulk: true
entities:
  - orders
`)

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)

	err := runValidate(validateCmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Mode: bulk")
	assert.Contains(t, output, "Entities: 1 selected")
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	cfgFile = writeTempConfig(t, `
store: acme-shop
`)

	err := runValidate(validateCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token")
}

func TestRunValidate_MissingFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")

	err := runValidate(validateCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestModeName(t *testing.T) {
	assert.Equal(t, "bulk", modeName(true))
	assert.Equal(t, "interactive", modeName(false))
}

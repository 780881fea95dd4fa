package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "2023-04", cfg.APIVersion)
	assert.True(t, cfg.IgnoreAccessDenied)
	assert.True(t, cfg.IgnoreDeprecated)
	assert.False(t, cfg.Bulk)
	assert.Equal(t, 120, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Poll.IntervalSeconds)
	assert.Equal(t, 1800, cfg.Poll.TimeoutSeconds)
	assert.Equal(t, "shopsync.db", cfg.State.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = "acme-shop"

	assert.Equal(t,
		"https://acme-shop.myshopify.com/admin/api/2023-04/graphql.json",
		cfg.Endpoint())
}

func TestEndpoint_APIVersion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = "acme-shop"
	cfg.APIVersion = "2024-01"

	assert.Contains(t, cfg.Endpoint(), "/admin/api/2024-01/")
}

func TestSelectedFields(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.SelectedFields("orders"))

	cfg.Select = map[string][]string{
		"orders": {"id", "updatedAt"},
	}
	assert.Equal(t, []string{"id", "updatedAt"}, cfg.SelectedFields("orders"))
	assert.Nil(t, cfg.SelectedFields("customers"))
}

func TestEntityEnabled(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.EntityEnabled("orders"), "empty list enables everything")

	cfg.Entities = []string{"orders", "customers"}
	assert.True(t, cfg.EntityEnabled("orders"))
	assert.False(t, cfg.EntityEnabled("products"))
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOverrides("debug", "text", 30, 3600, true)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 30, cfg.Poll.IntervalSeconds)
	assert.Equal(t, 3600, cfg.Poll.TimeoutSeconds)
	assert.True(t, cfg.Bulk)

	// Zero values leave the config untouched.
	cfg.ApplyOverrides("", "", 0, 0, false)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 30, cfg.Poll.IntervalSeconds)
	assert.True(t, cfg.Bulk)
}

package cmd

import (
	"strings"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/shopsync/internal/discover"
)

func TestDiscoverCommandStructure(t *testing.T) {
	assert.NotNil(t, discoverCmd)
	assert.Equal(t, "discover", discoverCmd.Use)
	assert.NotEmpty(t, discoverCmd.Short)
	assert.NotNil(t, discoverCmd.RunE)

	flag := discoverCmd.Flags().Lookup("no-color")
	assert.NotNil(t, flag)
}

func TestRenderEntityTable(t *testing.T) {
	color.Disable()
	defer func() { color.Enable = true }()

	entities := []*discover.Entity{
		{
			Name:           "orders",
			QueryName:      "orders",
			TypeName:       "Order",
			PrimaryKeys:    []string{"id"},
			ReplicationKey: "updatedAt",
		},
		{
			Name:        "collects",
			QueryName:   "collects",
			TypeName:    "Collect",
			PrimaryKeys: []string{"id"},
		},
	}

	table := renderEntityTable(entities)
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	require.Len(t, lines, 3, "header plus one line per entity")

	assert.Contains(t, lines[0], "ENTITY")
	assert.Contains(t, lines[0], "REPLICATION KEY")
	assert.Contains(t, lines[1], "orders")
	assert.Contains(t, lines[1], "updatedAt")
	assert.Contains(t, lines[2], "collects")
	assert.Contains(t, lines[2], "-", "entities without a replication key show a dash")

	// Columns are aligned: every cell starts at the same offset.
	assert.Equal(t, strings.Index(lines[1], "Order"), strings.Index(lines[2], "Collec"))
}

func TestRenderEntityTable_Empty(t *testing.T) {
	color.Disable()
	defer func() { color.Enable = true }()

	table := renderEntityTable(nil)
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	require.Len(t, lines, 1, "header only")
	assert.Contains(t, lines[0], "ENTITY")
}

func TestPad(t *testing.T) {
	assert.Equal(t, "abc  ", pad("abc", 5))
	assert.Equal(t, "abc", pad("abc", 3))
	assert.Equal(t, "abc", pad("abc", 2), "no truncation below content width")
}

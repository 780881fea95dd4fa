package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune_TopLevelField(t *testing.T) {
	s := orderSchema()
	out := Prune(s, []string{"orders", "test"})

	assert.False(t, out.Has("test"))
	assert.True(t, s.Has("test"), "input schema must be left untouched")
}

func TestPrune_NestedField(t *testing.T) {
	s := orderSchema()
	out := Prune(s, []string{"orders", "billingAddress", "zip"})

	billing, ok := out.Properties.Get("billingAddress")
	require.True(t, ok)
	assert.False(t, billing.Has("zip"))
	assert.True(t, billing.Has("city"))
}

func TestPrune_SkipsWrapperSegments(t *testing.T) {
	// Error paths from a live response carry the query name and the
	// edges/node connection wrappers, none of which exist in the schema.
	s := orderSchema()
	out := Prune(s, []string{"orders", "edges", "node", "billingAddress", "city"})

	billing, ok := out.Properties.Get("billingAddress")
	require.True(t, ok)
	assert.False(t, billing.Has("city"))
}

func TestPrune_RequiredScrubbed(t *testing.T) {
	s := orderSchema()
	out := Prune(s, []string{"orders", "id"})

	assert.False(t, out.Has("id"))
	assert.Empty(t, out.Required)
}

func TestPrune_InsideArrayElement(t *testing.T) {
	item := NewObject()
	item.Set("sku", NewLeaf(TypeString), false)
	item.Set("quantity", NewLeaf(TypeInteger), false)

	s := NewObject()
	s.Set("id", NewLeaf(TypeString), true)
	s.Set("items", NewArray(item), false)

	out := Prune(s, []string{"orders", "items", "sku"})

	arr, ok := out.Properties.Get("items")
	require.True(t, ok)
	assert.False(t, arr.Items.Has("sku"))
	assert.True(t, arr.Items.Has("quantity"))
}

func TestPrune_FallbackRemovesByName(t *testing.T) {
	// When the path cannot be aligned with the tree, the final segment is
	// removed wherever it occurs.
	s := orderSchema()
	out := Prune(s, []string{"something", "unrelated", "zip"})

	billing, ok := out.Properties.Get("billingAddress")
	require.True(t, ok)
	assert.False(t, billing.Has("zip"))
}

func TestPrune_UnknownFieldLeavesSchemaIntact(t *testing.T) {
	s := orderSchema()
	out := Prune(s, []string{"orders", "noSuchField"})

	assert.Equal(t, s.Keys(), out.Keys())
}

func TestPrune_EmptyPath(t *testing.T) {
	s := orderSchema()
	out := Prune(s, nil)

	assert.Equal(t, s.Keys(), out.Keys())
	assert.Equal(t, s.Required, out.Required)
}

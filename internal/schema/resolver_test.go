package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/shopsync/internal/gql"
)

func scalarRef(name string) *gql.TypeNode {
	return &gql.TypeNode{Kind: "SCALAR", Name: name}
}

func nonNull(t *gql.TypeNode) *gql.TypeNode {
	return &gql.TypeNode{Kind: "NON_NULL", OfType: t}
}

func listOf(t *gql.TypeNode) *gql.TypeNode {
	return &gql.TypeNode{Kind: "LIST", OfType: t}
}

func objectRef(name string) *gql.TypeNode {
	return &gql.TypeNode{Kind: "OBJECT", Name: name}
}

func field(name string, t *gql.TypeNode) gql.FieldDef {
	return gql.FieldDef{Name: name, Type: t}
}

func TestResolver_ScalarMapping(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Product",
			Fields: []gql.FieldDef{
				field("id", nonNull(scalarRef("ID"))),
				field("title", scalarRef("String")),
				field("available", scalarRef("Boolean")),
				field("updatedAt", scalarRef("DateTime")),
				field("weight", scalarRef("Float")),
				field("inventory", scalarRef("Int")),
				field("currency", &gql.TypeNode{Kind: "ENUM", Name: "CurrencyCode"}),
				field("money", scalarRef("Money")),
			},
		},
	}, nil)

	r := NewResolver(catalog, false, false)
	s, nested, err := r.Resolve("Product")
	require.NoError(t, err)
	assert.Empty(t, nested)

	tests := []struct {
		name     string
		wantType string
	}{
		{"id", TypeString},
		{"title", TypeString},
		{"available", TypeBoolean},
		{"updatedAt", TypeTimestamp},
		{"weight", TypeFloat},
		{"inventory", TypeInteger},
		{"currency", TypeString},
		{"money", TypeString}, // unknown scalar defaults to string
	}
	for _, tt := range tests {
		prop, ok := s.Properties.Get(tt.name)
		require.True(t, ok, "missing property %s", tt.name)
		assert.Equal(t, tt.wantType, prop.Type, "property %s", tt.name)
	}

	assert.Equal(t, []string{"id"}, s.Required)
}

func TestResolver_RelaxedRequired(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Product",
			Fields: []gql.FieldDef{
				field("id", nonNull(scalarRef("ID"))),
			},
		},
	}, nil)

	r := NewResolver(catalog, false, true)
	s, _, err := r.Resolve("Product")
	require.NoError(t, err)

	assert.True(t, s.Has("id"))
	assert.Empty(t, s.Required, "relaxed mode must not mark fields required")
}

func TestResolver_ListUnwrapping(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Product",
			Fields: []gql.FieldDef{
				field("tags", nonNull(listOf(nonNull(scalarRef("String"))))),
			},
		},
	}, nil)

	r := NewResolver(catalog, false, true)
	s, _, err := r.Resolve("Product")
	require.NoError(t, err)

	tags, ok := s.Properties.Get("tags")
	require.True(t, ok)
	assert.Equal(t, TypeArray, tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, TypeString, tags.Items.Type)
}

func TestResolver_FieldFiltering(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Order",
			Fields: []gql.FieldDef{
				field("id", nonNull(scalarRef("ID"))),
				{
					Name: "lineItems",
					Args: []gql.ArgDef{{Name: "first"}, {Name: "after"}},
					Type: objectRef("LineItemConnection"),
				},
				{
					Name: "metafield",
					Args: []gql.ArgDef{{Name: "namespace"}},
					Type: objectRef("Metafield"),
				},
				{
					Name:         "legacyField",
					IsDeprecated: true,
					Type:         scalarRef("String"),
				},
				field("events", &gql.TypeNode{Kind: "INTERFACE", Name: "Event"}),
				field("ignored", scalarRef("String")),
			},
		},
	}, nil)

	r := NewResolver(catalog, true, true)
	r.IgnoreField("ignored")
	s, nested, err := r.Resolve("Order")
	require.NoError(t, err)

	// Only id survives: lineItems becomes a nested connection, metafield
	// requires arguments, legacyField is deprecated, events is an
	// interface, ignored is ignored.
	assert.Equal(t, []string{"id"}, s.Keys())
	assert.Equal(t, []string{"lineItems"}, nested)
}

func TestResolver_KeepsDeprecatedWhenConfigured(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Order",
			Fields: []gql.FieldDef{
				{Name: "legacyField", IsDeprecated: true, Type: scalarRef("String")},
			},
		},
	}, nil)

	r := NewResolver(catalog, false, true)
	s, _, err := r.Resolve("Order")
	require.NoError(t, err)
	assert.True(t, s.Has("legacyField"))
}

func TestResolver_EntityReferenceStopsRecursion(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Order",
			Fields: []gql.FieldDef{
				field("id", nonNull(scalarRef("ID"))),
				field("customer", objectRef("Customer")),
			},
		},
		{
			Kind: "OBJECT",
			Name: "Customer",
			Fields: []gql.FieldDef{
				field("id", nonNull(scalarRef("ID"))),
				field("email", scalarRef("String")),
			},
		},
	}, nil)

	r := NewResolver(catalog, false, true)
	r.RegisterEntityType("Customer")

	s, _, err := r.Resolve("Order")
	require.NoError(t, err)

	customer, ok := s.Properties.Get("customer")
	require.True(t, ok)
	assert.Equal(t, TypeObject, customer.Type)
	assert.Equal(t, []string{"id"}, customer.Keys(), "entity reference must collapse to its identifier")
	assert.False(t, customer.Has("email"))
}

func TestResolver_CyclicTypeGraphTerminates(t *testing.T) {
	// order -> customer -> order is cyclic; resolution must terminate with
	// a finite schema and expand each type at most once per top-level call.
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Order",
			Fields: []gql.FieldDef{
				field("id", nonNull(scalarRef("ID"))),
				field("customer", objectRef("Customer")),
			},
		},
		{
			Kind: "OBJECT",
			Name: "Customer",
			Fields: []gql.FieldDef{
				field("email", scalarRef("String")),
				field("lastOrder", objectRef("Order")),
			},
		},
	}, nil)

	r := NewResolver(catalog, false, true)
	s, _, err := r.Resolve("Order")
	require.NoError(t, err)

	customer, ok := s.Properties.Get("customer")
	require.True(t, ok)
	assert.True(t, customer.Has("email"))
	assert.False(t, customer.Has("lastOrder"), "cycle back into Order must be cut")
}

func TestResolver_VisitedSetResetsBetweenEntities(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Order",
			Fields: []gql.FieldDef{
				field("shipping", objectRef("Address")),
			},
		},
		{
			Kind: "OBJECT",
			Name: "Customer",
			Fields: []gql.FieldDef{
				field("address", objectRef("Address")),
			},
		},
		{
			Kind: "OBJECT",
			Name: "Address",
			Fields: []gql.FieldDef{
				field("city", scalarRef("String")),
			},
		},
	}, nil)

	r := NewResolver(catalog, false, true)

	first, _, err := r.Resolve("Order")
	require.NoError(t, err)
	second, _, err := r.Resolve("Customer")
	require.NoError(t, err)

	shipping, _ := first.Properties.Get("shipping")
	require.NotNil(t, shipping)
	assert.True(t, shipping.Has("city"))

	address, _ := second.Properties.Get("address")
	require.NotNil(t, address, "Address must expand again for a new entity")
	assert.True(t, address.Has("city"))
}

func TestResolver_EmptyObjectDropped(t *testing.T) {
	catalog := gql.NewStaticCatalog([]*gql.TypeNode{
		{
			Kind: "OBJECT",
			Name: "Order",
			Fields: []gql.FieldDef{
				field("id", nonNull(scalarRef("ID"))),
				field("details", objectRef("Details")),
			},
		},
		{
			Kind: "OBJECT",
			Name: "Details",
			Fields: []gql.FieldDef{
				field("audit", &gql.TypeNode{Kind: "INTERFACE", Name: "Audit"}),
			},
		},
	}, nil)

	r := NewResolver(catalog, false, true)
	s, _, err := r.Resolve("Order")
	require.NoError(t, err)

	assert.False(t, s.Has("details"), "object resolving to zero properties must be dropped")
}

func TestResolver_UnknownType(t *testing.T) {
	catalog := gql.NewStaticCatalog(nil, nil)
	r := NewResolver(catalog, false, true)

	_, _, err := r.Resolve("Nope")
	assert.Error(t, err)
}

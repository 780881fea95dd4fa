package schema

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/shopsync/internal/gql"
)

// scalarTypes maps remote scalar names to semantic property types.
// Anything not listed resolves to string.
var scalarTypes = map[string]string{
	"Boolean":  TypeBoolean,
	"DateTime": TypeTimestamp,
	"Float":    TypeFloat,
	"Int":      TypeInteger,
}

// Resolver turns introspected object types into record schemas. Entity
// types registered via RegisterEntityType resolve to a minimal identity
// reference instead of being expanded, which stops recursion across
// entity relations.
type Resolver struct {
	catalog       *gql.Catalog
	entityTypes   map[string]bool
	ignoredFields map[string]bool
	skipDeprecated bool
	relaxRequired  bool
}

// NewResolver creates a Resolver over a loaded catalog. When relaxRequired
// is set, no property is marked required, so access-driven pruning never
// invalidates the schema's required list.
func NewResolver(catalog *gql.Catalog, skipDeprecated, relaxRequired bool) *Resolver {
	return &Resolver{
		catalog:        catalog,
		entityTypes:    make(map[string]bool),
		ignoredFields:  make(map[string]bool),
		skipDeprecated: skipDeprecated,
		relaxRequired:  relaxRequired,
	}
}

// RegisterEntityType marks a type name as a top-level entity. References
// to it from other entities collapse to an identifier-only object.
func (r *Resolver) RegisterEntityType(name string) {
	r.entityTypes[strings.ToLower(name)] = true
}

// IgnoreField excludes a field name from every resolved schema.
func (r *Resolver) IgnoreField(name string) {
	r.ignoredFields[name] = true
}

// Resolve builds the record schema for one entity's backing type. It also
// returns the names of nested connection fields encountered, which cannot
// be expanded inline. The visited set is scoped to this call, so a type
// reachable through several paths is expanded only once.
func (r *Resolver) Resolve(typeName string) (*Schema, []string, error) {
	typeDef := r.catalog.Type(typeName)
	if typeDef == nil {
		return nil, nil, fmt.Errorf("type %q not found in catalog", typeName)
	}

	visited := map[string]bool{strings.ToLower(typeName): true}
	var nested []string

	out := r.resolveFields(typeDef.Fields, visited, &nested)
	if out == nil {
		out = NewObject()
	}
	return out, nested, nil
}

// resolveFields builds an object schema from a field list, applying the
// filtering rules: arg-taking fields are skipped (paged sub-collections
// are recorded by name instead), deprecated and ignored fields are
// skipped, INTERFACE-kind fields are skipped. Returns nil when no field
// yields a usable property.
func (r *Resolver) resolveFields(fields []gql.FieldDef, visited map[string]bool, nested *[]string) *Schema {
	obj := NewObject()

	for _, f := range fields {
		if f.IsDeprecated && r.skipDeprecated {
			continue
		}
		if len(f.Args) > 0 {
			if f.Args[0].Name == "first" {
				*nested = append(*nested, f.Name)
			}
			continue
		}
		if r.ignoredFields[f.Name] {
			continue
		}
		if f.Type == nil || f.Type.Kind == "INTERFACE" {
			continue
		}

		required := f.Type.Kind == "NON_NULL" && !r.relaxRequired

		prop := r.resolveType(f.Type, visited, nested)
		if prop == nil {
			continue
		}
		obj.Set(f.Name, prop, required)
	}

	if obj.Len() == 0 {
		return nil
	}
	return obj
}

// resolveType maps one type node to a schema. Unhandled kinds and cyclic
// object references resolve to nil; callers drop such fields.
func (r *Resolver) resolveType(t *gql.TypeNode, visited map[string]bool, nested *[]string) *Schema {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case "NON_NULL":
		return r.resolveType(t.OfType, visited, nested)

	case "SCALAR":
		if st, ok := scalarTypes[t.Name]; ok {
			return NewLeaf(st)
		}
		return NewLeaf(TypeString)

	case "ENUM":
		return NewLeaf(TypeString)

	case "LIST":
		// The element sits behind an optional NON_NULL wrapper.
		elem := t.OfType
		if elem != nil && elem.Kind == "NON_NULL" {
			elem = elem.OfType
		}
		itemSchema := r.resolveType(elem, visited, nested)
		if itemSchema == nil {
			return nil
		}
		return NewArray(itemSchema)

	case "OBJECT":
		key := strings.ToLower(t.Name)
		if r.entityTypes[key] {
			ref := NewObject()
			ref.Set("id", NewLeaf(TypeString), !r.relaxRequired)
			return ref
		}
		if visited[key] {
			return nil
		}
		visited[key] = true

		typeDef := r.catalog.Type(t.Name)
		if typeDef == nil {
			return nil
		}
		return r.resolveFields(typeDef.Fields, visited, nested)

	default:
		return nil
	}
}

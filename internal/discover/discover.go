// Package discover enumerates extractable entities from the remote root
// schema and derives their identity and incremental-key metadata.
package discover

import (
	"strings"
	"unicode"

	"github.com/dbsmedya/shopsync/internal/gql"
	"github.com/dbsmedya/shopsync/internal/schema"
)

// replicationKeyPriority is the fixed preference order for incremental
// keys among an entity's timestamp fields.
var replicationKeyPriority = []string{
	"updatedAt",
	"editedAt",
	"lastEditDate",
	"occurredAt",
	"createdAt",
	"startedAt",
	"processedAt",
}

// Entity describes one extractable collection. Everything except the
// selected-field set is fixed at discovery time; the selected set only
// narrows as fields are pruned.
type Entity struct {
	Name           string   // snake_case stream name
	QueryName      string   // root query field name
	TypeName       string   // backing object type
	PrimaryKeys    []string
	ReplicationKey string   // empty when the type has no timestamp field
	StaticArgs     []string // literal argument snippets, e.g. `includeClosed: true`
	Selected       map[string]bool
}

// Select installs an explicit field selection. Identity and incremental
// key fields are force-included.
func (e *Entity) Select(fields []string) {
	if len(fields) == 0 {
		return
	}
	e.Selected = make(map[string]bool, len(fields)+len(e.PrimaryKeys)+1)
	for _, f := range fields {
		e.Selected[f] = true
	}
	for _, pk := range e.PrimaryKeys {
		e.Selected[pk] = true
	}
	if e.ReplicationKey != "" {
		e.Selected[e.ReplicationKey] = true
	}
}

// Deselect removes a pruned top-level field from the selection.
func (e *Entity) Deselect(field string) {
	if e.Selected != nil {
		delete(e.Selected, field)
	}
}

// SelectedList returns the selected field names, nil when everything is
// selected.
func (e *Entity) SelectedList() []string {
	if e.Selected == nil {
		return nil
	}
	out := make([]string, 0, len(e.Selected))
	for f := range e.Selected {
		out = append(out, f)
	}
	return out
}

// Entities walks the root query fields and returns every extractable
// entity. A field is extractable when it accepts both a page-size (first)
// and a filter (query) argument and its record type carries an ID-typed
// field. Each discovered entity's backing type is registered with the
// resolver so later resolution stops at entity-to-entity references.
func Entities(catalog *gql.Catalog, resolver *schema.Resolver) []*Entity {
	var out []*Entity

	for _, q := range catalog.QueryFields() {
		if !q.HasArg("first") || !q.HasArg("query") {
			continue
		}

		typeName := nodeTypeName(q)
		if typeName == "" {
			continue
		}

		scalars := requiredScalarFields(catalog, typeName)

		var pks []string
		for _, f := range scalars {
			if f.scalar == "ID" {
				pks = append(pks, f.name)
			}
		}
		if len(pks) == 0 {
			continue
		}

		rk := ""
		for _, candidate := range replicationKeyPriority {
			for _, f := range scalars {
				if f.scalar == "DateTime" && f.name == candidate {
					rk = candidate
					break
				}
			}
			if rk != "" {
				break
			}
		}

		var staticArgs []string
		if q.HasArg("includeClosed") {
			staticArgs = append(staticArgs, "includeClosed: true")
		}

		resolver.RegisterEntityType(typeName)

		out = append(out, &Entity{
			Name:           toSnake(q.Name),
			QueryName:      q.Name,
			TypeName:       typeName,
			PrimaryKeys:    pks,
			ReplicationKey: rk,
			StaticArgs:     staticArgs,
		})
	}

	return out
}

// nodeTypeName finds the connection's nodes field and unwraps its element
// type name. Empty when the field is not a connection.
func nodeTypeName(q gql.FieldDef) string {
	conn := q.Type
	if conn == nil {
		return ""
	}
	fields := conn.Fields
	if len(fields) == 0 && conn.OfType != nil {
		fields = conn.OfType.Fields
	}
	for _, f := range fields {
		if f.Name == "nodes" {
			named := f.Type.NamedType()
			if named == nil {
				return ""
			}
			return named.Name
		}
	}
	return ""
}

type scalarField struct {
	name   string
	scalar string
}

// requiredScalarFields lists the NON_NULL scalar fields of a type, by
// field name and scalar type name.
func requiredScalarFields(catalog *gql.Catalog, typeName string) []scalarField {
	typeDef := catalog.Type(typeName)
	if typeDef == nil {
		return nil
	}
	var out []scalarField
	for _, f := range typeDef.Fields {
		if f.Type == nil || f.Type.Kind != "NON_NULL" {
			continue
		}
		inner := f.Type.OfType
		if inner == nil || inner.Kind != "SCALAR" {
			continue
		}
		out = append(out, scalarField{name: f.Name, scalar: inner.Name})
	}
	return out
}

// toSnake converts a camelCase query name to snake_case.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// typesQuery dumps every type with its fields, argument names and three
// levels of type wrappers. Three levels cover NON_NULL(LIST(NON_NULL(T))).
const typesQuery = `
query {
  __schema {
    types {
      name
      kind
      fields {
        name
        isDeprecated
        args {
          name
        }
        type {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}`

// queryFieldsQuery dumps the root query fields with enough depth to find a
// connection's nodes field and unwrap its element type.
const queryFieldsQuery = `
query {
  __schema {
    queryType {
      fields {
        name
        args {
          name
        }
        type {
          kind
          name
          ofType {
            kind
            name
            fields {
              name
              type {
                kind
                name
                ofType {
                  kind
                  name
                  ofType {
                    kind
                    name
                    ofType {
                      kind
                      name
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// TypeNode is one introspected type description. Wrapper kinds (NON_NULL,
// LIST) point at the wrapped type through OfType.
type TypeNode struct {
	Kind   string     `json:"kind"`
	Name   string     `json:"name"`
	OfType *TypeNode  `json:"ofType"`
	Fields []FieldDef `json:"fields"`
}

// FieldDef is one field of an introspected object type.
type FieldDef struct {
	Name         string    `json:"name"`
	IsDeprecated bool      `json:"isDeprecated"`
	Args         []ArgDef  `json:"args"`
	Type         *TypeNode `json:"type"`
}

// ArgDef is a field argument. Only the name matters for discovery.
type ArgDef struct {
	Name string `json:"name"`
}

// HasArg reports whether the field declares an argument with the given name.
func (f FieldDef) HasArg(name string) bool {
	for _, a := range f.Args {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Unwrap returns the type behind one wrapper level, or the node itself
// when it is not wrapped.
func (t *TypeNode) Unwrap() *TypeNode {
	if t != nil && t.OfType != nil {
		return t.OfType
	}
	return t
}

// NamedType walks wrapper levels until a named type is reached.
func (t *TypeNode) NamedType() *TypeNode {
	n := t
	for n != nil && n.Name == "" && n.OfType != nil {
		n = n.OfType
	}
	return n
}

// Catalog holds the introspected type system for one run. It is fetched
// once and immutable afterwards.
type Catalog struct {
	client  *Client
	types   map[string]*TypeNode
	queries []FieldDef
	loaded  bool
}

// NewCatalog creates an empty catalog backed by the given client.
func NewCatalog(client *Client) *Catalog {
	return &Catalog{
		client: client,
		types:  make(map[string]*TypeNode),
	}
}

// NewStaticCatalog builds a loaded catalog from in-memory definitions.
func NewStaticCatalog(types []*TypeNode, queries []FieldDef) *Catalog {
	c := &Catalog{
		types:   make(map[string]*TypeNode, len(types)),
		queries: queries,
		loaded:  true,
	}
	for _, t := range types {
		c.types[strings.ToLower(t.Name)] = t
	}
	return c
}

// Load fetches the type dump and the root query fields. Calling Load on a
// loaded catalog is a no-op.
func (c *Catalog) Load(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	typesResp, err := c.client.Execute(ctx, typesQuery, nil)
	if err != nil {
		return fmt.Errorf("failed to introspect types: %w", err)
	}
	if typesResp.HasErrors() {
		return fmt.Errorf("type introspection rejected: %s", typesResp.Errors[0].Message)
	}

	var typeDump struct {
		Schema struct {
			Types []*TypeNode `json:"types"`
		} `json:"__schema"`
	}
	if err := json.Unmarshal(typesResp.Data, &typeDump); err != nil {
		return fmt.Errorf("failed to decode type introspection: %w", err)
	}
	for _, t := range typeDump.Schema.Types {
		c.types[strings.ToLower(t.Name)] = t
	}

	queriesResp, err := c.client.Execute(ctx, queryFieldsQuery, nil)
	if err != nil {
		return fmt.Errorf("failed to introspect query fields: %w", err)
	}
	if queriesResp.HasErrors() {
		return fmt.Errorf("query introspection rejected: %s", queriesResp.Errors[0].Message)
	}

	var queryDump struct {
		Schema struct {
			QueryType struct {
				Fields []FieldDef `json:"fields"`
			} `json:"queryType"`
		} `json:"__schema"`
	}
	if err := json.Unmarshal(queriesResp.Data, &queryDump); err != nil {
		return fmt.Errorf("failed to decode query introspection: %w", err)
	}
	c.queries = queryDump.Schema.QueryType.Fields

	c.loaded = true
	return nil
}

// Type looks up a type definition by case-insensitive name.
func (c *Catalog) Type(name string) *TypeNode {
	return c.types[strings.ToLower(name)]
}

// QueryFields returns the root query fields.
func (c *Catalog) QueryFields() []FieldDef {
	return c.queries
}

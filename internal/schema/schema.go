// Package schema derives record schemas from introspected types and keeps
// them prunable for field-level error recovery.
package schema

import (
	"bytes"
	"encoding/json"

	"github.com/elliotchance/orderedmap/v2"
)

// Semantic property types.
const (
	TypeString    = "string"
	TypeBoolean   = "boolean"
	TypeInteger   = "integer"
	TypeFloat     = "float"
	TypeTimestamp = "timestamp"
	TypeObject    = "object"
	TypeArray     = "array"
)

// Schema is one node of a record schema tree. Objects carry ordered
// Properties, arrays carry Items, leaves carry only Type.
type Schema struct {
	Type       string
	Properties *orderedmap.OrderedMap[string, *Schema]
	Items      *Schema
	Required   []string
}

// NewObject creates an empty object schema.
func NewObject() *Schema {
	return &Schema{
		Type:       TypeObject,
		Properties: orderedmap.NewOrderedMap[string, *Schema](),
	}
}

// NewLeaf creates a leaf schema of the given semantic type.
func NewLeaf(t string) *Schema {
	return &Schema{Type: t}
}

// NewArray creates an array schema with the given element schema.
func NewArray(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// Set adds or replaces a property on an object schema.
func (s *Schema) Set(name string, prop *Schema, required bool) {
	if s.Properties == nil {
		s.Properties = orderedmap.NewOrderedMap[string, *Schema]()
	}
	s.Properties.Set(name, prop)
	if required {
		s.Required = append(s.Required, name)
	}
}

// Len returns the number of properties on an object schema.
func (s *Schema) Len() int {
	if s.Properties == nil {
		return 0
	}
	return s.Properties.Len()
}

// Keys returns the property names in declaration order.
func (s *Schema) Keys() []string {
	if s.Properties == nil {
		return nil
	}
	return s.Properties.Keys()
}

// Has reports whether an object schema carries the named property.
func (s *Schema) Has(name string) bool {
	if s.Properties == nil {
		return false
	}
	_, ok := s.Properties.Get(name)
	return ok
}

// Clone returns a deep copy of the schema tree.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{Type: s.Type}
	if s.Items != nil {
		out.Items = s.Items.Clone()
	}
	if s.Properties != nil {
		out.Properties = orderedmap.NewOrderedMap[string, *Schema]()
		for el := s.Properties.Front(); el != nil; el = el.Next() {
			out.Properties.Set(el.Key, el.Value.Clone())
		}
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	return out
}

// Restrict returns a copy of the schema keeping only the named top-level
// properties. A nil keep list returns a full copy.
func Restrict(s *Schema, keep []string) *Schema {
	out := s.Clone()
	if keep == nil || out.Properties == nil {
		return out
	}
	allowed := make(map[string]bool, len(keep))
	for _, k := range keep {
		allowed[k] = true
	}
	for _, name := range out.Keys() {
		if !allowed[name] {
			out.Properties.Delete(name)
			out.dropRequired(name)
		}
	}
	return out
}

func (s *Schema) dropRequired(name string) {
	for i, r := range s.Required {
		if r == name {
			s.Required = append(s.Required[:i], s.Required[i+1:]...)
			return
		}
	}
}

// MarshalJSON renders the schema as JSON Schema, preserving property order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Schema) write(buf *bytes.Buffer) error {
	switch s.Type {
	case TypeObject:
		buf.WriteString(`{"type":["object","null"]`)
		if s.Properties != nil && s.Properties.Len() > 0 {
			buf.WriteString(`,"properties":{`)
			first := true
			for el := s.Properties.Front(); el != nil; el = el.Next() {
				if !first {
					buf.WriteByte(',')
				}
				first = false
				key, err := json.Marshal(el.Key)
				if err != nil {
					return err
				}
				buf.Write(key)
				buf.WriteByte(':')
				if err := el.Value.write(buf); err != nil {
					return err
				}
			}
			buf.WriteByte('}')
		}
		if len(s.Required) > 0 {
			req, err := json.Marshal(s.Required)
			if err != nil {
				return err
			}
			buf.WriteString(`,"required":`)
			buf.Write(req)
		}
		buf.WriteByte('}')
	case TypeArray:
		buf.WriteString(`{"type":["array","null"],"items":`)
		if s.Items != nil {
			if err := s.Items.write(buf); err != nil {
				return err
			}
		} else {
			buf.WriteString(`{}`)
		}
		buf.WriteByte('}')
	case TypeTimestamp:
		buf.WriteString(`{"type":["string","null"],"format":"date-time"}`)
	case TypeFloat:
		buf.WriteString(`{"type":["number","null"]}`)
	case TypeBoolean, TypeInteger, TypeString:
		buf.WriteString(`{"type":["` + s.Type + `","null"]}`)
	default:
		buf.WriteString(`{"type":["string","null"]}`)
	}
	return nil
}

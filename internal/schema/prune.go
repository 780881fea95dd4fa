package schema

// Prune returns a copy of the schema with the field addressed by path
// removed, along with its entry in any required list. The original schema
// is left untouched; callers swap their stored reference to the returned
// copy. Path segments that do not correspond to schema properties (the
// query field name, edges/node wrappers, list indexes) are skipped while
// walking. When the path cannot be aligned with the tree at all, the
// final segment is removed wherever it occurs.
func Prune(s *Schema, path []string) *Schema {
	out := s.Clone()
	if len(path) == 0 {
		return out
	}
	if !pruneAt(out, path) {
		removeByName(out, path[len(path)-1])
	}
	return out
}

// pruneAt walks the path against the schema tree and removes the final
// segment at the deepest aligned parent. Returns false when the target
// was not found along the path.
func pruneAt(node *Schema, path []string) bool {
	node = properties(node)
	if node == nil {
		return false
	}

	seg := path[0]

	if len(path) == 1 {
		if node.Has(seg) {
			node.Properties.Delete(seg)
			node.dropRequired(seg)
			return true
		}
		return false
	}

	if child, ok := node.Properties.Get(seg); ok {
		return pruneAt(child, path[1:])
	}

	// Wrapper segment with no schema counterpart: skip it.
	return pruneAt(node, path[1:])
}

// properties returns the object node holding properties for a schema node,
// unwrapping arrays. Returns nil for leaves.
func properties(s *Schema) *Schema {
	for s != nil && s.Type == TypeArray {
		s = s.Items
	}
	if s == nil || s.Type != TypeObject || s.Properties == nil {
		return nil
	}
	return s
}

// removeByName deletes the named property everywhere in the tree and
// scrubs it from every required list.
func removeByName(s *Schema, name string) {
	obj := properties(s)
	if obj == nil {
		return
	}
	if obj.Has(name) {
		obj.Properties.Delete(name)
	}
	obj.dropRequired(name)
	for el := obj.Properties.Front(); el != nil; el = el.Next() {
		removeByName(el.Value, name)
	}
}

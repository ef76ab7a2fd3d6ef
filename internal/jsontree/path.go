package jsontree

import (
	"strconv"
	"strings"
)

// Resolve walks a dotted path from root. It reports false when a key is
// missing, an array index is out of range or non-numeric, or the path
// descends into a scalar.
func Resolve(root Node, path string) (Node, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if path == "$" {
		return root, true
	}
	cursor := root
	for _, token := range strings.Split(path, ".") {
		switch node := cursor.(type) {
		case Object:
			next, ok := node[token]
			if !ok {
				return nil, false
			}
			cursor = next
		case Array:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cursor = node[idx]
		default:
			return nil, false
		}
	}
	return cursor, true
}

// Items resolves path and returns the object items found there: every object
// element of an array (non-objects are skipped), a single object as a
// one-element slice, anything else as an empty slice.
func Items(root Node, path string) []Object {
	node, ok := Resolve(root, path)
	if !ok {
		return nil
	}
	switch v := node.(type) {
	case Array:
		items := make([]Object, 0, len(v))
		for _, element := range v {
			if obj, ok := element.(Object); ok {
				items = append(items, obj)
			}
		}
		return items
	case Object:
		return []Object{v}
	default:
		return nil
	}
}

// String resolves path and stringifies the scalar found there. A blank path
// or an unresolvable one reports absence.
func String(root Node, path string) (string, bool) {
	node, ok := Resolve(root, path)
	if !ok {
		return "", false
	}
	return Stringify(node)
}

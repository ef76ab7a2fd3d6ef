package jsontree

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Node is one position in a decoded JSON document. Exactly three concrete
// types implement it: Object, Array, and Scalar.
type Node interface {
	node()
}

// Object is a JSON object node keyed by member name.
type Object map[string]Node

// Array is a JSON array node.
type Array []Node

// Scalar holds a JSON leaf value: string, float64, bool, or nil.
type Scalar struct {
	Value any
}

func (Object) node() {}
func (Array) node()  {}
func (Scalar) node() {}

// Decode parses raw JSON into a Node tree.
func Decode(data []byte) (Node, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return FromValue(value), nil
}

// FromValue converts a value produced by encoding/json into a Node tree.
func FromValue(value any) Node {
	switch v := value.(type) {
	case map[string]any:
		obj := make(Object, len(v))
		for key, member := range v {
			obj[key] = FromValue(member)
		}
		return obj
	case []any:
		arr := make(Array, 0, len(v))
		for _, member := range v {
			arr = append(arr, FromValue(member))
		}
		return arr
	default:
		return Scalar{Value: v}
	}
}

// ToValue converts a Node tree back into plain encoding/json values, the
// inverse of FromValue.
func ToValue(node Node) any {
	switch n := node.(type) {
	case Object:
		value := make(map[string]any, len(n))
		for key, member := range n {
			value[key] = ToValue(member)
		}
		return value
	case Array:
		value := make([]any, 0, len(n))
		for _, member := range n {
			value = append(value, ToValue(member))
		}
		return value
	case Scalar:
		return n.Value
	default:
		return nil
	}
}

// Encode renders a Node tree as compact JSON.
func Encode(node Node) ([]byte, error) {
	data, err := json.Marshal(ToValue(node))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// Stringify renders a scalar node as text. Objects, arrays, and JSON null
// report absence.
func Stringify(node Node) (string, bool) {
	scalar, ok := node.(Scalar)
	if !ok {
		return "", false
	}
	switch v := scalar.Value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

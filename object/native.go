package object

import (
	"fmt"
	"reflect"
	"sort"
)

// FromNative converts a decoded document into an object graph.
//
// Nested map[string]any and map[any]any values become *Map with keys in sorted
// order, FuncImpl-shaped functions become *Func, and every other value,
// including slices, is returned unchanged as a leaf.
func FromNative(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		m := NewMap()
		for _, k := range keys {
			m.Put(k, FromNative(val[k]))
		}
		return m
	case map[any]any:
		conv := make(map[string]any, len(val))
		for k, item := range val {
			conv[fmt.Sprint(k)] = item
		}
		return FromNative(conv)
	case FuncImpl:
		return NewFunc(val)
	case func(this any, args []any) (any, error):
		return NewFunc(val)
	default:
		return v
	}
}

// ToNative converts an object graph back into plain Go values.
//
// Objects become map[string]any built through their generic Get, so wrappers
// are read through their traps. Slices are converted element-wise. An object
// reached again while it is being converted is rendered as "[circular]";
// detection relies on Get returning the same pointer for the same property.
func ToNative(v any) (any, error) {
	return toNative(v, make(map[any]struct{}))
}

func toNative(v any, visiting map[any]struct{}) (any, error) {
	switch val := v.(type) {
	case Object:
		ref := reflect.ValueOf(val)
		tracked := ref.Kind() == reflect.Pointer
		if tracked {
			if _, ok := visiting[val]; ok {
				return "[circular]", nil
			}
			visiting[val] = struct{}{}
			defer delete(visiting, val)
		}

		keys, err := val.OwnKeys()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			item, err := val.Get(k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if out[k], err = toNative(item, visiting); err != nil {
				return nil, fmt.Errorf("%s.%w", k, err)
			}
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			conv, err := toNative(item, visiting)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	default:
		return v, nil
	}
}

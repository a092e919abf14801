// Package document loads YAML and JSON documents into object graphs.
package document

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/shadowcopy/object"
)

// Sentinel errors for document decoding.
var (
	// ErrNotMapping indicates a document whose root is not a mapping.
	ErrNotMapping = errors.New("document: root must be a mapping")

	// ErrAliasCycle indicates an alias that refers to a node containing it.
	ErrAliasCycle = errors.New("document: anchor contains itself")

	// ErrTooLarge indicates a document that expands past the node limit.
	ErrTooLarge = errors.New("document: document expands to too many nodes")
)

// DefaultMaxNodes bounds the number of values a document may expand to once
// aliases are resolved.
const DefaultMaxNodes = 1 << 20

type options struct {
	lookup   func(string) (string, bool)
	maxNodes int
}

func newOptions(opts []Option) options {
	o := options{maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures parsing.
type Option func(*options)

// WithEnv expands $VAR and ${VAR} in string values using lookup. A variable
// lookup does not know fails the parse; $$ yields a literal $.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithMaxNodes replaces DefaultMaxNodes. Values below one keep the default.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

// Load reads and parses the document at path.
func Load(path string, opts ...Option) (*object.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, opts...)
}

// Parse decodes a YAML or JSON document. Mappings become *object.Map with keys
// in document order; sequences become []any. An empty document is an empty map.
func Parse(data []byte, opts ...Option) (*object.Map, error) {
	o := newOptions(opts)

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	if root.Kind == 0 {
		return object.NewMap(), nil
	}

	v, err := newConverter(o).convert(&root)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*object.Map)
	if !ok {
		return nil, ErrNotMapping
	}
	return m, nil
}

// ParseValue decodes a single YAML value such as `3`, `"x"`, `[1, 2]` or
// `{a: 1}`. Empty text is nil.
func ParseValue(text string, opts ...Option) (any, error) {
	o := newOptions(opts)

	var n yaml.Node
	if err := yaml.Unmarshal([]byte(text), &n); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	if n.Kind == 0 {
		return nil, nil
	}
	return newConverter(o).convert(&n)
}

// converter turns a yaml.Node tree into object values. Decoding into a
// yaml.Node bypasses the decoder's own alias checks, so the converter rejects
// self-containing anchors and bounds the expanded size itself.
type converter struct {
	options
	expanding map[*yaml.Node]struct{}
	nodes     int
}

func newConverter(o options) *converter {
	return &converter{options: o, expanding: make(map[*yaml.Node]struct{})}
}

func (c *converter) convert(n *yaml.Node) (any, error) {
	c.nodes++
	if c.nodes > c.maxNodes {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooLarge, c.maxNodes)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0])
	case yaml.MappingNode:
		m := object.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := c.convert(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Put(n.Content[i].Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := c.convert(child)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.AliasNode:
		if _, ok := c.expanding[n.Alias]; ok {
			return nil, fmt.Errorf("%w: line %d: *%s", ErrAliasCycle, n.Line, n.Value)
		}
		c.expanding[n.Alias] = struct{}{}
		defer delete(c.expanding, n.Alias)
		return c.convert(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("document: line %d: %w", n.Line, err)
		}
		if str, ok := v.(string); ok && c.lookup != nil {
			expanded, err := expandEnv(str, c.lookup)
			if err != nil {
				return nil, fmt.Errorf("document: line %d: %w", n.Line, err)
			}
			return expanded, nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("document: line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

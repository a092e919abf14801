package guard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/shadowcopy/shadow"
)

// Policy is the declarative form of a rule list.
type Policy struct {
	PrivatePrefix string   `yaml:"private_prefix"`
	ReadOnly      []string `yaml:"read_only"`
	DenyOps       []string `yaml:"deny_ops"`
}

// LoadPolicy reads a Policy from a YAML file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a Policy from YAML.
func ParsePolicy(data []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("guard: failed to parse policy: %w", err)
	}
	return p, nil
}

// Rules compiles the policy. Unknown operation names fail with
// shadow.ErrUnknownOp.
func (p Policy) Rules() ([]Rule, error) {
	var rules []Rule
	if p.PrivatePrefix != "" {
		rules = append(rules, PrivatePrefix(p.PrivatePrefix))
	}
	if len(p.ReadOnly) > 0 {
		rules = append(rules, ReadOnly(p.ReadOnly...))
	}
	if len(p.DenyOps) > 0 {
		ops := make([]shadow.Op, 0, len(p.DenyOps))
		for _, name := range p.DenyOps {
			op, err := shadow.ParseOp(name)
			if err != nil {
				return nil, fmt.Errorf("guard: %w", err)
			}
			ops = append(ops, op)
		}
		rules = append(rules, DenyOps(ops...))
	}
	return rules, nil
}

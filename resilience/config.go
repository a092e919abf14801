package resilience

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the declarative form of a Decorator. A nil section leaves that
// pattern disabled.
type Config struct {
	Retry   *RetryConfig   `mapstructure:"retry"`
	Breaker *BreakerConfig `mapstructure:"breaker"`
}

// Options converts the configuration into Decorator options.
func (c Config) Options() []Option {
	var opts []Option
	if c.Retry != nil {
		opts = append(opts, WithRetry(*c.Retry))
	}
	if c.Breaker != nil {
		opts = append(opts, WithCircuitBreaker(*c.Breaker))
	}
	return opts
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("resilience: failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a Config from YAML. Durations are Go duration strings
// and backoff is one of "exponential", "linear" or "constant".
func ParseConfig(data []byte) (Config, error) {
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("resilience: failed to parse config: %w", err)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("resilience: failed to decode config: %w", err)
	}
	return cfg, nil
}

var backoffNames = map[Backoff]string{
	BackoffExponential: "exponential",
	BackoffLinear:      "linear",
	BackoffConstant:    "constant",
}

// String returns the backoff name.
func (b Backoff) String() string {
	if name, ok := backoffNames[b]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (b Backoff) MarshalText() ([]byte, error) {
	if _, ok := backoffNames[b]; !ok {
		return nil, fmt.Errorf("resilience: unknown backoff %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backoff) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for k, v := range backoffNames {
		if v == name {
			*b = k
			return nil
		}
	}
	return fmt.Errorf("resilience: unknown backoff %q", name)
}

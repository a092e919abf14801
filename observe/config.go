package observe

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable LoadConfig reads.
const EnvPrefix = "SHADOWCOPY_"

// envKeys maps environment variable suffixes to dotted config keys.
var envKeys = map[string]string{
	"SERVICE_NAME":       "service_name",
	"VERSION":            "version",
	"TRACING_ENABLED":    "tracing.enabled",
	"TRACING_EXPORTER":   "tracing.exporter",
	"TRACING_SAMPLE_PCT": "tracing.sample_pct",
	"METRICS_ENABLED":    "metrics.enabled",
	"METRICS_EXPORTER":   "metrics.exporter",
	"LOG_ENABLED":        "logging.enabled",
	"LOG_LEVEL":          "logging.level",
}

// DefaultConfig returns a configuration with tracing and metrics disabled and
// logging enabled at info level.
func DefaultConfig() Config {
	return Config{
		ServiceName: "shadowcopy",
		Tracing:     TracingConfig{Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "info"},
	}
}

// LoadConfig reads a YAML configuration file, applies SHADOWCOPY_* environment
// overrides and validates the result. An empty path yields the defaults with
// environment overrides applied.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return ParseConfig(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("observe: failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML data over DefaultConfig, applies SHADOWCOPY_*
// environment overrides and validates the result.
func ParseConfig(data []byte) (Config, error) {
	raw := make(map[string]any)
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("observe: failed to parse config: %w", err)
		}
	}
	overlayEnv(raw, os.LookupEnv)

	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("observe: failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for suffix, key := range envKeys {
		v, ok := lookup(EnvPrefix + suffix)
		if !ok {
			continue
		}

		parts := strings.Split(key, ".")
		m := raw
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = v
	}
}

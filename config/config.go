package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/proxgraph"
	"github.com/hupe1980/proxgraph/distance"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PROXGRAPH"

// Config is the file and environment form of the index options. Optional
// tuning fields are pointers: an absent field keeps the library default of
// the selected family, while an explicit value, zero included, is passed on
// and validated.
type Config struct {
	Dimension      int      `yaml:"dimension" envconfig:"DIMENSION"`
	Family         string   `yaml:"family" envconfig:"FAMILY"`
	Metric         string   `yaml:"metric" envconfig:"METRIC"`
	M              *int     `yaml:"m" envconfig:"M"`
	EFConstruction *int     `yaml:"ef_construction" envconfig:"EF_CONSTRUCTION"`
	EF             *int     `yaml:"ef" envconfig:"EF"`
	Alpha          *float32 `yaml:"alpha" envconfig:"ALPHA"`
	Seeds          *int     `yaml:"seeds" envconfig:"SEEDS"`
	SeedSamples    *int     `yaml:"seed_samples" envconfig:"SEED_SAMPLES"`
	Strategy       string   `yaml:"strategy" envconfig:"STRATEGY"`
	MinAngle       *float64 `yaml:"min_angle" envconfig:"MIN_ANGLE"`
	KeepPruned     bool     `yaml:"keep_pruned" envconfig:"KEEP_PRUNED"`
	MaxExpansions  *int     `yaml:"max_expansions" envconfig:"MAX_EXPANSIONS"`
	Seed           *uint64  `yaml:"seed" envconfig:"SEED"`
	SearchWorkers  *int     `yaml:"search_workers" envconfig:"SEARCH_WORKERS"`

	Log LogConfig `yaml:"log" envconfig:"LOG"`
}

// LogConfig selects the logger installed on the index.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Empty disables logging.
	Level string `yaml:"level" envconfig:"LEVEL"`
	// Format is text (default) or json.
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Default returns a configuration that builds an HNSW index over L2.
func Default() Config {
	return Config{
		Family: proxgraph.FamilyHNSW.String(),
		Metric: "l2",
	}
}

// Load builds a Config from defaults, the YAML file at path (optional) and
// PROXGRAPH_* environment variables, in that order of precedence. Any
// envFiles are loaded into the environment first without overriding
// variables that are already set.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return cfg, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		if err := decodeYAML(file, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process environment: %w", err)
	}

	return cfg, cfg.Validate()
}

// Parse decodes a YAML document over the defaults. Unknown fields are
// rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decodeYAML(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("YAML syntax error in config: %w", err)
	}
	return nil
}

// Validate fails fast on any value that would not build an index.
func (c Config) Validate() error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	_, err = proxgraph.New(c.Dimension, opts...)
	return err
}

// Options converts the configuration into index options.
func (c Config) Options() ([]proxgraph.Option, error) {
	family, err := parseFamily(c.Family)
	if err != nil {
		return nil, err
	}
	metric, err := distance.ParseMetric(strings.ToLower(c.Metric))
	if err != nil {
		return nil, &proxgraph.ConfigurationError{Field: "metric", Value: c.Metric, Reason: err.Error()}
	}

	// The family option resets family defaults and must come first.
	opts := []proxgraph.Option{
		proxgraph.WithFamily(family),
		proxgraph.WithMetric(metric),
		proxgraph.WithKeepPruned(c.KeepPruned),
	}

	opts = appendSet(opts, c.M, proxgraph.WithM)
	opts = appendSet(opts, c.EFConstruction, proxgraph.WithEFConstruction)
	opts = appendSet(opts, c.EF, proxgraph.WithEF)
	opts = appendSet(opts, c.Alpha, proxgraph.WithAlpha)
	opts = appendSet(opts, c.Seeds, proxgraph.WithSeeds)
	opts = appendSet(opts, c.SeedSamples, func(k int) proxgraph.Option {
		return proxgraph.WithSeedStrategy(proxgraph.KSampled(k))
	})
	opts = appendSet(opts, c.MinAngle, proxgraph.WithMinAngle)
	opts = appendSet(opts, c.MaxExpansions, proxgraph.WithMaxExpansions)
	opts = appendSet(opts, c.Seed, proxgraph.WithSeed)
	opts = appendSet(opts, c.SearchWorkers, proxgraph.WithSearchWorkers)

	if c.Strategy != "" {
		strategy, err := parseStrategy(c.Strategy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, proxgraph.WithStrategy(strategy))
	}

	logger, err := c.Log.Logger()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		opts = append(opts, proxgraph.WithLogger(logger))
	}

	return opts, nil
}

// appendSet appends fn(*v) when the field was set.
func appendSet[T any](opts []proxgraph.Option, v *T, fn func(T) proxgraph.Option) []proxgraph.Option {
	if v == nil {
		return opts
	}
	return append(opts, fn(*v))
}

// Build creates an empty index from the configuration.
func (c Config) Build() (*proxgraph.Index, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return proxgraph.New(c.Dimension, opts...)
}

// Logger returns the configured logger, or nil when logging is disabled.
func (l LogConfig) Logger() (*proxgraph.Logger, error) {
	if l.Level == "" {
		return nil, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, &proxgraph.ConfigurationError{Field: "log.level", Value: l.Level, Reason: err.Error()}
	}

	switch strings.ToLower(l.Format) {
	case "", "text":
		return proxgraph.NewTextLogger(level), nil
	case "json":
		return proxgraph.NewJSONLogger(level), nil
	default:
		return nil, &proxgraph.ConfigurationError{Field: "log.format", Value: l.Format, Reason: "must be text or json"}
	}
}

func parseFamily(s string) (proxgraph.Family, error) {
	switch strings.ToLower(s) {
	case "hnsw":
		return proxgraph.FamilyHNSW, nil
	case "vamana", "diskann":
		return proxgraph.FamilyVamana, nil
	default:
		return 0, &proxgraph.ConfigurationError{Field: "family", Value: s, Reason: "must be hnsw or vamana"}
	}
}

func parseStrategy(s string) (proxgraph.Strategy, error) {
	switch strings.ToLower(s) {
	case "relative", "rnd":
		return proxgraph.StrategyRelative, nil
	case "angular", "mond":
		return proxgraph.StrategyAngular, nil
	default:
		return 0, &proxgraph.ConfigurationError{Field: "strategy", Value: s, Reason: "must be relative or angular"}
	}
}

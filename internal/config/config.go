// Package config reads odontocore runtime settings from the environment and
// assembles a ready service from them.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"odontocore/internal/anatomy"
	"odontocore/internal/catalog"
	"odontocore/internal/core"
	"odontocore/internal/infra/logging"
	"odontocore/internal/infra/metrics"
)

// Environment variables.
const (
	EnvCatalogPath = "ODONTOCORE_CATALOG_PATH"
	EnvSeedPath    = "ODONTOCORE_SEED_PATH"
	EnvDentition   = "ODONTOCORE_DENTITION"
	EnvLogLevel    = "ODONTOCORE_LOG_LEVEL"
	EnvLogFormat   = "ODONTOCORE_LOG_FORMAT"
	EnvLogOutput   = "ODONTOCORE_LOG_OUTPUT"
	EnvMetrics     = "ODONTOCORE_METRICS"
)

// ServiceName is attached to every log entry.
const ServiceName = "odontocore"

// Log sinks accepted by ODONTOCORE_LOG_OUTPUT.
const (
	LogStdout = "stdout"
	LogStderr = "stderr"
)

// MetricsBackend identifies a metrics exporter.
type MetricsBackend string

const (
	MetricsNone       MetricsBackend = "none"
	MetricsExpvar     MetricsBackend = "expvar"
	MetricsPrometheus MetricsBackend = "prometheus"
)

// Config holds runtime settings.
//
//	ODONTOCORE_CATALOG_PATH: YAML catalog (default: embedded catalog)
//	ODONTOCORE_SEED_PATH: YAML seed; overrides ODONTOCORE_DENTITION when set
//	ODONTOCORE_DENTITION: permanent|primary (default permanent)
//	ODONTOCORE_LOG_LEVEL: debug|info|warn|error (default: logging disabled)
//	ODONTOCORE_LOG_FORMAT: json|console (default json)
//	ODONTOCORE_LOG_OUTPUT: stdout|stderr (default: json on stdout, console on stderr)
//	ODONTOCORE_METRICS: none|expvar|prometheus (default none)
type Config struct {
	CatalogPath string
	SeedPath    string
	Dentition   anatomy.Dentition
	LogLevel    string
	LogFormat   string
	LogOutput   string
	Metrics     MetricsBackend
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Parse(os.Getenv)
}

// Parse reads the configuration through getenv. Unset variables take their
// defaults; unknown values are rejected.
func Parse(getenv func(string) string) (Config, error) {
	cfg := Config{
		CatalogPath: strings.TrimSpace(getenv(EnvCatalogPath)),
		SeedPath:    strings.TrimSpace(getenv(EnvSeedPath)),
		LogLevel:    strings.TrimSpace(getenv(EnvLogLevel)),
		LogFormat:   strings.TrimSpace(getenv(EnvLogFormat)),
		LogOutput:   strings.TrimSpace(getenv(EnvLogOutput)),
	}
	d, err := anatomy.ParseDentition(strings.TrimSpace(getenv(EnvDentition)))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvDentition, err)
	}
	cfg.Dentition = d
	if cfg.LogLevel != "" {
		if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = logging.FormatJSON
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return Config{}, fmt.Errorf("%s: unknown log format %q", EnvLogFormat, cfg.LogFormat)
	}
	switch cfg.LogOutput {
	case "", LogStdout, LogStderr:
	default:
		return Config{}, fmt.Errorf("%s: unknown log output %q", EnvLogOutput, cfg.LogOutput)
	}
	m, err := ParseMetrics(getenv(EnvMetrics))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvMetrics, err)
	}
	cfg.Metrics = m
	return cfg, nil
}

// ParseMetrics maps a backend name to a MetricsBackend. Empty selects none.
func ParseMetrics(v string) (MetricsBackend, error) {
	switch MetricsBackend(strings.TrimSpace(v)) {
	case "", MetricsNone:
		return MetricsNone, nil
	case MetricsExpvar:
		return MetricsExpvar, nil
	case MetricsPrometheus:
		return MetricsPrometheus, nil
	default:
		return "", fmt.Errorf("unknown metrics backend %q", v)
	}
}

// Runtime is a service plus the exporters built for it.
type Runtime struct {
	Service *core.Service
	// Logger is nil when logging is disabled.
	Logger *logging.Logger
	// Registry is set when the prometheus backend is selected.
	Registry *prometheus.Registry
	// Expvar is set when the expvar backend is selected.
	Expvar *core.ExpvarMetricsRecorder
}

// Close flushes the logger. Sync errors on terminals are ignored.
func (r *Runtime) Close() {
	if r == nil || r.Logger == nil {
		return
	}
	_ = r.Logger.Sync()
}

// Open loads the catalog and seed named by cfg, builds the exporters it
// selects and returns the assembled service. opts are applied after the
// configured ones.
func Open(cfg Config, opts ...core.ServiceOption) (*Runtime, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	table := core.DefaultResolverTable()
	seed, err := LoadSeed(cfg, table)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{}
	var base []core.ServiceOption
	if cfg.LogLevel != "" {
		var outputs []string
		if cfg.LogOutput != "" {
			outputs = append(outputs, cfg.LogOutput)
		}
		zl, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, ServiceName, outputs...)
		if err != nil {
			return nil, err
		}
		rt.Logger = logging.New(zl)
		base = append(base, core.WithLogger(rt.Logger))
	}
	switch cfg.Metrics {
	case MetricsPrometheus:
		rt.Registry = prometheus.NewRegistry()
		rec, err := metrics.NewPrometheusRecorder(rt.Registry)
		if err != nil {
			return nil, err
		}
		base = append(base, core.WithMetricsRecorder(rec))
	case MetricsExpvar:
		rt.Expvar = core.NewExpvarMetricsRecorder("")
		base = append(base, core.WithMetricsRecorder(rt.Expvar))
	}
	base = append(base, core.WithResolverTable(table))
	rt.Service = core.NewService(cat, seed, append(base, opts...)...)
	return rt, nil
}

// LoadSeed returns the seed file named by cfg.SeedPath, or the generated
// dentition with one space collection per adjacency-aware option of table.
func LoadSeed(cfg Config, table core.ResolverTable) (anatomy.Seed, error) {
	if cfg.SeedPath != "" {
		return anatomy.Load(cfg.SeedPath)
	}
	return anatomy.Build(cfg.Dentition, table.SpaceSpecs())
}

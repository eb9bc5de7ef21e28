package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"odontocore/internal/anatomy"
	"odontocore/internal/core"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(envMap(nil))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Dentition != anatomy.DentitionPermanent {
		t.Fatalf("dentition = %q", cfg.Dentition)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "" {
		t.Fatalf("log defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.LogOutput != "" {
		t.Fatalf("log output default = %q", cfg.LogOutput)
	}
	if cfg.Metrics != MetricsNone {
		t.Fatalf("metrics = %q", cfg.Metrics)
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	cases := []map[string]string{
		{EnvDentition: "mixed"},
		{EnvLogLevel: "chatty"},
		{EnvLogFormat: "xml"},
		{EnvLogOutput: "syslog"},
		{EnvMetrics: "statsd"},
	}
	for _, env := range cases {
		if _, err := Parse(envMap(env)); err == nil {
			t.Fatalf("expected error for %v", env)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvDentition, "primary")
	t.Setenv(EnvMetrics, "prometheus")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "console")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Dentition != anatomy.DentitionPrimary || cfg.Metrics != MetricsPrometheus {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "console" {
		t.Fatalf("unexpected log config %+v", cfg)
	}
}

func TestOpenPrimaryWithPrometheus(t *testing.T) {
	rt, err := Open(Config{Dentition: anatomy.DentitionPrimary, Metrics: MetricsPrometheus})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()
	if rt.Registry == nil {
		t.Fatalf("expected prometheus registry")
	}
	if got := len(rt.Service.Teeth()); got != 20 {
		t.Fatalf("expected 20 primary teeth, got %d", got)
	}
	if _, err := rt.Service.RegisterFinding(context.Background(), core.RegisterRequest{ToothID: 51, OptionID: 3}); err != nil {
		t.Fatalf("RegisterFinding: %v", err)
	}
	families, err := rt.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected gathered metric families")
	}
}

func TestOpenExpvar(t *testing.T) {
	rt, err := Open(Config{Metrics: MetricsExpvar, LogLevel: "error", LogFormat: "console"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()
	if rt.Logger == nil || rt.Expvar == nil {
		t.Fatalf("expected logger and expvar recorder")
	}
	if _, err := rt.Service.RegisterFinding(context.Background(), core.RegisterRequest{ToothID: 11, OptionID: 3}); err != nil {
		t.Fatalf("RegisterFinding: %v", err)
	}
	if got := rt.Expvar.Count("register_finding", true); got != 1 {
		t.Fatalf("expvar success count = %d", got)
	}
}

func TestOpenSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	doc := `teeth:
  - id: 11
    display: {jaw: upper, position: 1, right_space_id: 1}
  - id: 21
    display: {jaw: upper, position: 2, left_space_id: 1}
spaces:
  - {id: 1, option_id: 1, left_tooth_id: 11, right_tooth_id: 21}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	rt, err := Open(Config{SeedPath: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(rt.Service.Teeth()); got != 2 {
		t.Fatalf("expected 2 teeth, got %d", got)
	}
	if got := len(rt.Service.Spaces(1)); got != 1 {
		t.Fatalf("expected 1 space, got %d", got)
	}
}

func TestOpenMissingCatalog(t *testing.T) {
	if _, err := Open(Config{CatalogPath: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}

func TestParseLogOutput(t *testing.T) {
	cfg, err := Parse(envMap(map[string]string{EnvLogLevel: "info", EnvLogOutput: "stderr"}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LogOutput != LogStderr {
		t.Fatalf("log output = %q", cfg.LogOutput)
	}
	rt, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()
	if rt.Logger == nil {
		t.Fatalf("expected logger")
	}
}

// Command odontogram-check loads a catalog and seed, replays a script of chart
// operations and prints the resulting chart. With -expect it compares the
// chart against a golden file and prints a unified diff on mismatch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"

	"odontocore/internal/anatomy"
	"odontocore/internal/catalog"
	"odontocore/internal/config"
	"odontocore/internal/core"
	"odontocore/pkg/domain"
)

var exitFunc = os.Exit

// Script operation names.
const (
	opRegister       = "register"
	opRemove         = "remove"
	opToggleColor    = "toggle_color"
	opToggleFinding  = "toggle_finding"
	opApplySelection = "apply_selection"
)

type script struct {
	Operations []step `yaml:"operations"`
}

type step struct {
	Op        string `yaml:"op"`
	Tooth     int    `yaml:"tooth"`
	Space     int    `yaml:"space"`
	Option    int    `yaml:"option"`
	SubOption *int   `yaml:"sub_option"`
	Color     *int   `yaml:"color"`
	Design    *int   `yaml:"design"`
	Zone      *int   `yaml:"zone"`
}

var errMismatch = errors.New("chart does not match expected output")

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("odontogram-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		catalogPath = fs.String("catalog", "", "path to catalog yaml (default: embedded catalog)")
		seedPath    = fs.String("seed", "", "path to seed yaml (default: generated dentition)")
		dentition   = fs.String("dentition", "", "permanent|primary")
		scriptPath  = fs.String("script", "", "path to operations yaml")
		expectPath  = fs.String("expect", "", "golden chart file to compare against")
		logLevel    = fs.String("log-level", "", "debug|info|warn|error on stderr (default: disabled)")
		dumpMetrics = fs.Bool("metrics", false, "print recorded operation metrics in Prometheus text format")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.FromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 2
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *seedPath != "" {
		cfg.SeedPath = *seedPath
	}
	if *dentition != "" {
		d, err := anatomy.ParseDentition(*dentition)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "configuration: %v\n", err)
			return 2
		}
		cfg.Dentition = d
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	// stdout carries the chart.
	cfg.LogOutput = config.LogStderr
	if *dumpMetrics {
		cfg.Metrics = config.MetricsPrometheus
	}

	chart, rt, err := run(context.Background(), cfg, *scriptPath)
	if rt != nil {
		defer rt.Close()
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Chart check failed: %v\n", err)
		return 1
	}
	if _, err := io.WriteString(stdout, chart); err != nil {
		return 1
	}
	if *dumpMetrics && rt.Registry != nil {
		if err := writeMetrics(stdout, rt); err != nil {
			_, _ = fmt.Fprintf(stderr, "metrics: %v\n", err)
			return 1
		}
	}
	if *expectPath != "" {
		diff, err := compare(*expectPath, chart)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Chart check failed: %v\n", err)
			return 1
		}
		if diff != "" {
			_, _ = fmt.Fprintf(stderr, "Chart check failed: %v\n%s", errMismatch, diff)
			return 1
		}
	}
	_, _ = fmt.Fprintln(stderr, "Chart check passed.")
	return 0
}

// run builds the service from cfg, replays the script and renders the chart.
func run(ctx context.Context, cfg config.Config, scriptPath string) (string, *config.Runtime, error) {
	rt, err := config.Open(cfg)
	if err != nil {
		return "", nil, err
	}
	if scriptPath != "" {
		sc, err := loadScript(scriptPath)
		if err != nil {
			return "", rt, err
		}
		for i, st := range sc.Operations {
			if err := apply(ctx, rt.Service, st); err != nil {
				return "", rt, fmt.Errorf("operations[%d]: %w", i, err)
			}
		}
	}
	return renderChart(rt.Service), rt, nil
}

func loadScript(path string) (sc script, err error) {
	f, err := os.Open(path)
	if err != nil {
		return script{}, fmt.Errorf("open script: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close script: %w", cerr)
		}
	}()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return script{}, fmt.Errorf("decode script: %w", err)
	}
	return sc, nil
}

func apply(ctx context.Context, svc *core.Service, st step) error {
	opt, ok := svc.Catalog().Option(st.Option)
	if !ok {
		return fmt.Errorf("%w: %d", catalog.ErrOptionNotFound, st.Option)
	}
	color, err := lookupColor(opt, st.Color)
	if err != nil {
		return err
	}
	switch st.Op {
	case opRegister:
		req := core.RegisterRequest{ToothID: st.Tooth, OptionID: st.Option, SubOptionID: st.SubOption, Color: color, Zone: st.Zone}
		if st.Design != nil {
			d, ok := opt.Design(*st.Design)
			if !ok {
				return fmt.Errorf("%w: option %d design %d", catalog.ErrDesignNotFound, st.Option, *st.Design)
			}
			req.Design = &d
		}
		_, err = svc.RegisterFinding(ctx, req)
	case opRemove:
		_, err = svc.RemoveFinding(ctx, core.RemoveRequest{ToothID: st.Tooth, OptionID: st.Option, SubOptionID: st.SubOption, DynamicDesign: st.Design, Zone: st.Zone})
	case opToggleColor:
		_, err = svc.ToggleSpaceColor(ctx, core.SpaceToggle{SpaceID: st.Space, OptionID: st.Option, SubOptionID: st.SubOption, Color: color})
	case opToggleFinding:
		_, err = svc.ToggleSpaceFinding(ctx, core.SpaceToggle{SpaceID: st.Space, OptionID: st.Option, SubOptionID: st.SubOption, Color: color})
	case opApplySelection:
		err = applySelection(ctx, svc, opt, st, color)
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return err
}

func applySelection(ctx context.Context, svc *core.Service, opt domain.Option, st step, color *domain.Color) error {
	sel := svc.NewSelection()
	sel.SetSelectedOption(opt.ID)
	if color != nil {
		sel.SetSelectedColor(color)
	}
	if st.SubOption != nil {
		sel.SetSelectedSuboption(&domain.SubOption{ID: *st.SubOption})
	}
	if st.Design != nil {
		sel.SetSelectedDesign(&domain.Design{Number: *st.Design})
	}
	_, applied, err := svc.ApplySelection(ctx, st.Tooth, sel.State())
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("selection for option %d is incomplete", opt.ID)
	}
	return nil
}

func lookupColor(opt domain.Option, id *int) (*domain.Color, error) {
	if id == nil {
		return nil, nil
	}
	for _, c := range opt.Colors {
		if c.ID == *id {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("option %d offers no color %d", opt.ID, *id)
}

// renderChart prints every marked tooth and space in chart order.
func renderChart(svc *core.Service) string {
	var b strings.Builder
	for _, t := range svc.Teeth() {
		decisions := svc.RenderTooth(t.ID)
		if len(decisions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "tooth %d\n", t.ID)
		for i, d := range decisions {
			fmt.Fprintf(&b, "  %s%s\n", findingKey(t.Findings[i]), describe(d))
		}
	}
	for _, opt := range svc.Catalog().Options() {
		for _, d := range svc.RenderSpaces(opt.ID) {
			fmt.Fprintf(&b, "space %d/%d\n  %s\n", opt.ID, d.EntityID, strings.TrimPrefix(describe(d), " "))
		}
	}
	if b.Len() == 0 {
		return "chart empty\n"
	}
	return b.String()
}

func findingKey(f domain.Finding) string {
	if f.SubOptionID != nil {
		return fmt.Sprintf("%d/%d", f.OptionID, *f.SubOptionID)
	}
	return fmt.Sprintf("%d/-", f.OptionID)
}

func describe(d core.RenderDecision) string {
	color := d.ColorName
	if color == "" {
		color = "-"
	}
	out := fmt.Sprintf(" design=%d color=%s", d.Design, color)
	if d.Notice != "" {
		return out + " notice=" + d.Notice
	}
	return out + " component=" + d.Component
}

func compare(expectPath, actual string) (string, error) {
	want, err := os.ReadFile(expectPath)
	if err != nil {
		return "", fmt.Errorf("read expected chart: %w", err)
	}
	if string(want) == actual {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(want)),
		B:        difflib.SplitLines(actual),
		FromFile: expectPath,
		ToFile:   "actual",
		Context:  3,
	})
}

// writeMetrics prints the gathered families in the Prometheus text exposition format.
func writeMetrics(w io.Writer, rt *config.Runtime) error {
	families, err := rt.Registry.Gather()
	if err != nil {
		return err
	}
	for _, fam := range families {
		if _, err := expfmt.MetricFamilyToText(w, fam); err != nil {
			return err
		}
	}
	return nil
}

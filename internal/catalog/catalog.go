// Package catalog holds the static table of selectable odontogram finding
// types. A Catalog is immutable once constructed.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"odontocore/pkg/domain"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

var (
	// ErrOptionNotFound is returned when an option id is not in the catalog.
	ErrOptionNotFound = errors.New("option not found")
	// ErrDesignNotFound is returned when an option does not offer a design number.
	ErrDesignNotFound = errors.New("design not found")
)

// NotFoundNotice is the inline text rendered in place of an unknown design component.
const NotFoundNotice = "component not found"

type file struct {
	Components []string        `yaml:"components"`
	Options    []domain.Option `yaml:"options"`
}

// Catalog is a read-only option table plus the set of design component names
// known to the rendering layer.
type Catalog struct {
	options    map[int]domain.Option
	order      []int
	components map[string]struct{}
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a YAML catalog from path. An empty path selects the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read decodes a YAML catalog from r. Unknown keys are rejected; an empty
// document yields an empty catalog.
func Read(r io.Reader) (*Catalog, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Options, doc.Components)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	return Read(bytes.NewReader(data))
}

// New builds a catalog from options and known component names.
func New(options []domain.Option, components []string) (*Catalog, error) {
	c := &Catalog{
		options:    make(map[int]domain.Option, len(options)),
		components: make(map[string]struct{}, len(components)),
	}
	for _, name := range components {
		c.components[name] = struct{}{}
	}
	for _, opt := range options {
		if opt.ID <= 0 {
			return nil, fmt.Errorf("option %q: id must be positive", opt.Name)
		}
		if _, dup := c.options[opt.ID]; dup {
			return nil, fmt.Errorf("option %d registered twice", opt.ID)
		}
		if err := checkDesigns(opt.ID, "design", opt.Designs); err != nil {
			return nil, err
		}
		if err := checkDesigns(opt.ID, "variant", opt.Variants); err != nil {
			return nil, err
		}
		c.options[opt.ID] = cloneOption(opt)
		c.order = append(c.order, opt.ID)
	}
	sort.Ints(c.order)
	return c, nil
}

// Option returns a copy of the option with the given id.
func (c *Catalog) Option(id int) (domain.Option, bool) {
	opt, ok := c.options[id]
	if !ok {
		return domain.Option{}, false
	}
	return cloneOption(opt), true
}

// Options returns every option ordered by id.
func (c *Catalog) Options() []domain.Option {
	out := make([]domain.Option, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneOption(c.options[id]))
	}
	return out
}

// Has reports whether the option id exists.
func (c *Catalog) Has(id int) bool {
	_, ok := c.options[id]
	return ok
}

// Components returns the known design component names, sorted.
func (c *Catalog) Components() []string {
	out := make([]string, 0, len(c.components))
	for name := range c.components {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DesignComponent resolves the component name used to draw (optionID, design).
func (c *Catalog) DesignComponent(optionID, design int) (string, error) {
	opt, ok := c.options[optionID]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrOptionNotFound, optionID)
	}
	d, ok := opt.Design(design)
	if !ok {
		return "", fmt.Errorf("%w: option %d design %d", ErrDesignNotFound, optionID, design)
	}
	if _, known := c.components[d.Component]; !known {
		return d.Component, fmt.Errorf("%w: component %q", ErrDesignNotFound, d.Component)
	}
	return d.Component, nil
}

func checkDesigns(optionID int, kind string, designs []domain.Design) error {
	seen := make(map[int]struct{}, len(designs))
	for _, d := range designs {
		if d.Number <= 0 {
			return fmt.Errorf("option %d: %s number must be positive", optionID, kind)
		}
		if _, dup := seen[d.Number]; dup {
			return fmt.Errorf("option %d: %s %d listed twice", optionID, kind, d.Number)
		}
		seen[d.Number] = struct{}{}
	}
	return nil
}

func cloneOption(o domain.Option) domain.Option {
	cp := o
	cp.Colors = append([]domain.Color(nil), o.Colors...)
	cp.SubOptions = append([]domain.SubOption(nil), o.SubOptions...)
	cp.Designs = append([]domain.Design(nil), o.Designs...)
	cp.Variants = append([]domain.Design(nil), o.Variants...)
	return cp
}

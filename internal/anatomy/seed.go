// Package anatomy builds the static tooth and inter-tooth space collections an
// odontogram starts from. Teeth are numbered in FDI notation and laid out in
// chart order, viewer's left to right.
package anatomy

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"odontocore/pkg/domain"
)

// Dentition selects a seeded tooth set.
type Dentition string

// Supported dentitions.
const (
	DentitionPermanent Dentition = "permanent"
	DentitionPrimary   Dentition = "primary"
)

// SpaceSpec declares that an option keeps one space record per adjacent tooth pair.
type SpaceSpec struct {
	OptionID int
	Shape    domain.SpaceShape
}

// Seed is the initial chart state.
type Seed struct {
	Teeth  []domain.Tooth
	Spaces []domain.Space
}

var (
	permanentUpper = []int{18, 17, 16, 15, 14, 13, 12, 11, 21, 22, 23, 24, 25, 26, 27, 28}
	permanentLower = []int{48, 47, 46, 45, 44, 43, 42, 41, 31, 32, 33, 34, 35, 36, 37, 38}
	primaryUpper   = []int{55, 54, 53, 52, 51, 61, 62, 63, 64, 65}
	primaryLower   = []int{85, 84, 83, 82, 81, 71, 72, 73, 74, 75}
)

// ParseDentition maps a configuration string to a Dentition. Empty selects permanent.
func ParseDentition(v string) (Dentition, error) {
	switch Dentition(v) {
	case "", DentitionPermanent:
		return DentitionPermanent, nil
	case DentitionPrimary:
		return DentitionPrimary, nil
	default:
		return "", fmt.Errorf("unknown dentition %q", v)
	}
}

// Build generates the seed for a dentition with one space collection per spec.
func Build(d Dentition, specs []SpaceSpec) (Seed, error) {
	switch d {
	case DentitionPermanent, "":
		return build(permanentUpper, permanentLower, specs), nil
	case DentitionPrimary:
		return build(primaryUpper, primaryLower, specs), nil
	default:
		return Seed{}, fmt.Errorf("unknown dentition %q", d)
	}
}

// Permanent is Build(DentitionPermanent, specs).
func Permanent(specs ...SpaceSpec) Seed {
	return build(permanentUpper, permanentLower, specs)
}

// Primary is Build(DentitionPrimary, specs).
func Primary(specs ...SpaceSpec) Seed {
	return build(primaryUpper, primaryLower, specs)
}

func build(upper, lower []int, specs []SpaceSpec) Seed {
	var seed Seed
	nextSpace := 1
	for _, arch := range []struct {
		jaw   domain.Jaw
		order []int
	}{{domain.JawUpper, upper}, {domain.JawLower, lower}} {
		first := nextSpace
		for i, id := range arch.order {
			tooth := domain.Tooth{
				ID:      id,
				Display: domain.DisplayProperties{Jaw: arch.jaw, Position: i + 1},
			}
			if i > 0 {
				tooth.Display.LeftSpaceID = domain.IntPtr(first + i - 1)
			}
			if i < len(arch.order)-1 {
				tooth.Display.RightSpaceID = domain.IntPtr(first + i)
			}
			seed.Teeth = append(seed.Teeth, tooth)
		}
		for _, spec := range specs {
			for i := 0; i < len(arch.order)-1; i++ {
				seed.Spaces = append(seed.Spaces, domain.Space{
					ID:           first + i,
					OptionID:     spec.OptionID,
					LeftToothID:  domain.IntPtr(arch.order[i]),
					RightToothID: domain.IntPtr(arch.order[i+1]),
					Shape:        spec.Shape,
				})
			}
		}
		nextSpace = first + len(arch.order) - 1
	}
	return seed
}

type seedFile struct {
	Teeth []struct {
		ID      int                      `yaml:"id"`
		Display domain.DisplayProperties `yaml:"display"`
	} `yaml:"teeth"`
	Spaces []struct {
		ID           int               `yaml:"id"`
		OptionID     int               `yaml:"option_id"`
		LeftToothID  *int              `yaml:"left_tooth_id"`
		RightToothID *int              `yaml:"right_tooth_id"`
		Shape        domain.SpaceShape `yaml:"shape"`
	} `yaml:"spaces"`
}

// Load reads a YAML seed file.
func Load(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("open seed: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read decodes a YAML seed and validates its references.
func Read(r io.Reader) (Seed, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	var seed Seed
	for _, t := range doc.Teeth {
		seed.Teeth = append(seed.Teeth, domain.Tooth{ID: t.ID, Display: t.Display})
	}
	for _, s := range doc.Spaces {
		shape := s.Shape
		if shape == "" {
			shape = domain.ShapeSingleColor
		}
		seed.Spaces = append(seed.Spaces, domain.Space{
			ID:           s.ID,
			OptionID:     s.OptionID,
			LeftToothID:  s.LeftToothID,
			RightToothID: s.RightToothID,
			Shape:        shape,
		})
	}
	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// Validate checks that ids are unique and every space references seeded teeth.
func (s Seed) Validate() error {
	teeth := make(map[int]struct{}, len(s.Teeth))
	for _, t := range s.Teeth {
		if _, dup := teeth[t.ID]; dup {
			return fmt.Errorf("tooth %d seeded twice", t.ID)
		}
		teeth[t.ID] = struct{}{}
	}
	type key struct{ option, id int }
	spaces := make(map[key]struct{}, len(s.Spaces))
	for _, sp := range s.Spaces {
		k := key{sp.OptionID, sp.ID}
		if _, dup := spaces[k]; dup {
			return fmt.Errorf("space %d for option %d seeded twice", sp.ID, sp.OptionID)
		}
		spaces[k] = struct{}{}
		if sp.LeftToothID == nil && sp.RightToothID == nil {
			return fmt.Errorf("space %d for option %d references no tooth", sp.ID, sp.OptionID)
		}
		for _, ref := range []*int{sp.LeftToothID, sp.RightToothID} {
			if ref == nil {
				continue
			}
			if _, ok := teeth[*ref]; !ok {
				return fmt.Errorf("space %d for option %d references unknown tooth %d", sp.ID, sp.OptionID, *ref)
			}
		}
		switch sp.Shape {
		case domain.ShapeSingleColor, domain.ShapeMultiFinding:
		default:
			return fmt.Errorf("space %d for option %d: unknown shape %q", sp.ID, sp.OptionID, sp.Shape)
		}
	}
	return nil
}

// SpaceOptions returns the option ids that have space collections, sorted.
func (s Seed) SpaceOptions() []int {
	seen := make(map[int]struct{})
	for _, sp := range s.Spaces {
		seen[sp.OptionID] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

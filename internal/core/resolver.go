package core

import (
	"sort"

	"odontocore/internal/anatomy"
	"odontocore/pkg/domain"
)

// DesignRule selects how an option's design variant is computed.
type DesignRule int

const (
	// DesignFixed always draws variant 1 and never touches neighbours.
	DesignFixed DesignRule = iota
	// DesignNeighbors derives the variant from the left/right neighbour state.
	DesignNeighbors
)

// SpaceLookup selects how a tooth finds its adjacent spaces.
type SpaceLookup int

const (
	// LookupScan scans the option's space collection by left/right tooth id.
	LookupScan SpaceLookup = iota
	// LookupToothRefs follows the space ids stored on the tooth display properties.
	LookupToothRefs
)

// NeighborSignal selects what counts as an "on" neighbour.
type NeighborSignal int

const (
	// SignalColor: the neighbour carries a coloured finding.
	SignalColor NeighborSignal = iota
	// SignalPresence: the neighbour carries any finding, coloured or not.
	SignalPresence
)

// Propagation hop budgets. A change starts with one hop so the resolver
// updates the touched entity and its paired neighbours on the other side.
const (
	hopsOrigin   = 1
	hopsNeighbor = 0
)

// AdjacencyRule declares the resolution behaviour of one option.
type AdjacencyRule struct {
	OptionID int
	Design   DesignRule
	Lookup   SpaceLookup
	Signal   NeighborSignal
	// Shape of the option's space records. Only meaningful for DesignNeighbors.
	Shape domain.SpaceShape
	// FanOut applies register/remove to every tooth of the jaw when no zone is given.
	FanOut bool
}

// AdjacencyAware reports whether the option's design depends on its neighbours.
func (r AdjacencyRule) AdjacencyAware() bool {
	return r.Design == DesignNeighbors
}

// ResolverTable maps option ids to their adjacency rule. Options missing from
// the table resolve with DesignFixed.
type ResolverTable struct {
	rules map[int]AdjacencyRule
}

// NewResolverTable builds a table from rules. A later rule for the same option wins.
func NewResolverTable(rules ...AdjacencyRule) ResolverTable {
	t := ResolverTable{rules: make(map[int]AdjacencyRule, len(rules))}
	for _, r := range rules {
		if r.AdjacencyAware() && r.Shape == "" {
			r.Shape = domain.ShapeSingleColor
		}
		t.rules[r.OptionID] = r
	}
	return t
}

// DefaultResolverTable returns the rules for the built-in catalog.
func DefaultResolverTable() ResolverTable {
	return NewResolverTable(
		AdjacencyRule{OptionID: 1, Design: DesignNeighbors},
		AdjacencyRule{OptionID: 2, Design: DesignNeighbors},
		AdjacencyRule{OptionID: 7, Design: DesignFixed, FanOut: true},
		AdjacencyRule{OptionID: 11, Design: DesignNeighbors, Lookup: LookupToothRefs},
		AdjacencyRule{OptionID: 30, Design: DesignNeighbors},
		AdjacencyRule{OptionID: 31, Design: DesignNeighbors, FanOut: true},
		AdjacencyRule{OptionID: 32, Design: DesignNeighbors},
		AdjacencyRule{OptionID: 39, Design: DesignNeighbors, Signal: SignalPresence, Shape: domain.ShapeMultiFinding},
	)
}

// Rule returns the rule for optionID.
func (t ResolverTable) Rule(optionID int) AdjacencyRule {
	if r, ok := t.rules[optionID]; ok {
		return r
	}
	return AdjacencyRule{OptionID: optionID, Design: DesignFixed}
}

// SpaceSpecs lists the space collections the adjacency-aware options need.
func (t ResolverTable) SpaceSpecs() []anatomy.SpaceSpec {
	out := make([]anatomy.SpaceSpec, 0, len(t.rules))
	for _, r := range t.rules {
		if !r.AdjacencyAware() {
			continue
		}
		out = append(out, anatomy.SpaceSpec{OptionID: r.OptionID, Shape: r.Shape})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OptionID < out[j].OptionID })
	return out
}

// neighborDesign evaluates the left/right rule in order.
func neighborDesign(hasLeft, hasRight, leftOn, rightOn bool) int {
	switch {
	case !hasLeft:
		return 1
	case !hasRight:
		return 2
	case leftOn && rightOn:
		return 3
	case leftOn:
		return 2
	default:
		return 1
	}
}

// neighborhood is the read access the resolver needs from chart state.
type neighborhood interface {
	FindTooth(id int) (domain.Tooth, bool)
	FindSpace(optionID, id int) (domain.Space, bool)
	ListSpaces(optionID int) []domain.Space
}

// adjacentSpaces locates the tooth's left and right space for rule.OptionID.
func adjacentSpaces(n neighborhood, rule AdjacencyRule, tooth domain.Tooth) (left, right *domain.Space) {
	if rule.Lookup == LookupToothRefs {
		if id := tooth.Display.LeftSpaceID; id != nil {
			if sp, ok := n.FindSpace(rule.OptionID, *id); ok {
				left = &sp
			}
		}
		if id := tooth.Display.RightSpaceID; id != nil {
			if sp, ok := n.FindSpace(rule.OptionID, *id); ok {
				right = &sp
			}
		}
		return left, right
	}
	for _, sp := range n.ListSpaces(rule.OptionID) {
		if left == nil && sp.RightToothID != nil && *sp.RightToothID == tooth.ID {
			cp := sp
			left = &cp
		}
		if right == nil && sp.LeftToothID != nil && *sp.LeftToothID == tooth.ID {
			cp := sp
			right = &cp
		}
	}
	return left, right
}

func spaceOn(rule AdjacencyRule, sp *domain.Space) bool {
	if sp == nil {
		return false
	}
	if rule.Signal == SignalPresence {
		return sp.Color != nil || len(sp.Findings) > 0
	}
	if sp.Color != nil {
		return true
	}
	for _, f := range sp.Findings {
		if f.Color != nil {
			return true
		}
	}
	return false
}

func toothOn(rule AdjacencyRule, tooth domain.Tooth) bool {
	for _, f := range tooth.Findings {
		if f.OptionID != rule.OptionID {
			continue
		}
		if rule.Signal == SignalPresence || f.Color != nil {
			return true
		}
	}
	return false
}

// toothDesign computes the variant a tooth should draw for rule.OptionID and
// returns the spaces it was computed from.
func toothDesign(n neighborhood, rule AdjacencyRule, tooth domain.Tooth) (int, *domain.Space, *domain.Space) {
	left, right := adjacentSpaces(n, rule, tooth)
	return neighborDesign(left != nil, right != nil, spaceOn(rule, left), spaceOn(rule, right)), left, right
}

// spaceDesign computes the variant a space should draw from its two teeth.
func spaceDesign(n neighborhood, rule AdjacencyRule, sp domain.Space) int {
	var hasLeft, hasRight, leftOn, rightOn bool
	if sp.LeftToothID != nil {
		if t, ok := n.FindTooth(*sp.LeftToothID); ok {
			hasLeft, leftOn = true, toothOn(rule, t)
		}
	}
	if sp.RightToothID != nil {
		if t, ok := n.FindTooth(*sp.RightToothID); ok {
			hasRight, rightOn = true, toothOn(rule, t)
		}
	}
	return neighborDesign(hasLeft, hasRight, leftOn, rightOn)
}

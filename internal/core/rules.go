package core

import (
	"context"
	"fmt"

	"odontocore/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in chart invariants.
func NewDefaultRulesEngine(table ResolverTable) *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewFindingKeyUniqueRule())
	engine.Register(NewDesignConsistencyRule(table))
	return engine
}

// NewFindingKeyUniqueRule blocks any container holding two findings with the
// same (option, sub-option) key.
func NewFindingKeyUniqueRule() Rule {
	return findingKeyUniqueRule{}
}

type findingKeyUniqueRule struct{}

func (findingKeyUniqueRule) Name() string { return "finding_key_unique" }

func (r findingKeyUniqueRule) Evaluate(_ context.Context, view RuleView, _ []Change) (Result, error) {
	res := Result{}
	for _, tooth := range view.ListTeeth() {
		if key, dup := duplicateKey(tooth.Findings); dup {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("tooth %d holds finding %s twice", tooth.ID, key),
				Entity:   EntityTooth,
				EntityID: tooth.ID,
			})
		}
	}
	for _, opt := range view.SpaceOptions() {
		for _, sp := range view.ListSpaces(opt) {
			if key, dup := duplicateKey(sp.Findings); dup {
				res.Violations = append(res.Violations, Violation{
					Rule:     r.Name(),
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("space %d (option %d) holds finding %s twice", sp.ID, opt, key),
					Entity:   EntitySpace,
					EntityID: sp.ID,
				})
			}
		}
	}
	return res, nil
}

func duplicateKey(findings []domain.Finding) (string, bool) {
	seen := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		key := fmt.Sprintf("%d/-", f.OptionID)
		if f.SubOptionID != nil {
			key = fmt.Sprintf("%d/%d", f.OptionID, *f.SubOptionID)
		}
		if _, ok := seen[key]; ok {
			return key, true
		}
		seen[key] = struct{}{}
	}
	return "", false
}

// NewDesignConsistencyRule logs teeth and spaces touched by a mutation whose
// adjacency-aware design differs from what their neighbours imply, such as
// findings registered with an explicit design.
func NewDesignConsistencyRule(table ResolverTable) Rule {
	return designConsistencyRule{table: table}
}

type designConsistencyRule struct {
	table ResolverTable
}

func (designConsistencyRule) Name() string { return "design_consistency" }

func (r designConsistencyRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	res := Result{}
	type key struct {
		entity EntityType
		id     int
		option int
	}
	checked := make(map[key]struct{}, len(changes))
	for _, c := range changes {
		k := key{c.Entity, c.EntityID, c.OptionID}
		if _, done := checked[k]; done {
			continue
		}
		checked[k] = struct{}{}
		rule := r.table.Rule(c.OptionID)
		if !rule.AdjacencyAware() {
			continue
		}
		switch c.Entity {
		case EntityTooth:
			tooth, ok := view.FindTooth(c.EntityID)
			if !ok {
				continue
			}
			want, _, _ := toothDesign(view, rule, tooth)
			for _, f := range tooth.Findings {
				if f.OptionID == c.OptionID && f.DynamicDesign != nil && *f.DynamicDesign != want {
					res.Violations = append(res.Violations, Violation{
						Rule:     r.Name(),
						Severity: SeverityLog,
						Message:  fmt.Sprintf("tooth %d option %d draws design %d, neighbours imply %d", tooth.ID, c.OptionID, *f.DynamicDesign, want),
						Entity:   EntityTooth,
						EntityID: tooth.ID,
					})
				}
			}
		case EntitySpace:
			sp, ok := view.FindSpace(c.OptionID, c.EntityID)
			if !ok || sp.DynamicDesign == nil {
				continue
			}
			if want := spaceDesign(view, rule, sp); *sp.DynamicDesign != want {
				res.Violations = append(res.Violations, Violation{
					Rule:     r.Name(),
					Severity: SeverityLog,
					Message:  fmt.Sprintf("space %d option %d draws design %d, neighbours imply %d", sp.ID, c.OptionID, *sp.DynamicDesign, want),
					Entity:   EntitySpace,
					EntityID: sp.ID,
				})
			}
		}
	}
	return res, nil
}

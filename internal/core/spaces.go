package core

import "odontocore/pkg/domain"

// SpaceToggle addresses one space of an option's space collection.
type SpaceToggle struct {
	SpaceID     int
	OptionID    int
	SubOptionID *int
	Color       *domain.Color
}

// SpaceStore owns the inter-tooth space collections, one per space-aware
// option. It reads and notifies the paired ToothStore during resolution. It
// is not safe for concurrent use; Service serialises access.
type SpaceStore struct {
	state   *chartState
	teeth   *ToothStore
	table   ResolverTable
	ids     *sequence
	journal *journal
}

// Space returns a copy of a space record.
func (s *SpaceStore) Space(optionID, id int) (domain.Space, bool) {
	sp := s.state.space(optionID, id)
	if sp == nil {
		return domain.Space{}, false
	}
	return domain.CloneSpace(*sp), true
}

// Spaces returns copies of an option's space collection in seed order.
func (s *SpaceStore) Spaces(optionID int) []domain.Space {
	list := s.state.spaces[optionID]
	out := make([]domain.Space, len(list))
	for i, sp := range list {
		out[i] = domain.CloneSpace(sp)
	}
	return out
}

// ToggleColor clears the space colour when it equals req.Color and sets it
// otherwise, then re-resolves the space and its two teeth. It applies to
// single-colour spaces only; anything else is a no-op returning false.
func (s *SpaceStore) ToggleColor(req SpaceToggle) bool {
	sp := s.state.space(req.OptionID, req.SpaceID)
	if sp == nil || sp.Shape != domain.ShapeSingleColor {
		return false
	}
	if sp.Color.Equal(req.Color) {
		sp.Color = nil
	} else {
		sp.Color = cloneColor(req.Color)
	}
	s.journal.record(domain.Change{Entity: domain.EntitySpace, EntityID: sp.ID, OptionID: req.OptionID, Action: domain.ActionToggle})
	s.resolve(req.OptionID, req.SpaceID, hopsOrigin)
	return true
}

// ToggleFinding removes the finding keyed by (option, sub-option) when it
// carries req.Color, replaces it when the colour differs, and appends it when
// absent. It applies to multi-finding spaces only.
func (s *SpaceStore) ToggleFinding(req SpaceToggle) bool {
	sp := s.state.space(req.OptionID, req.SpaceID)
	if sp == nil || sp.Shape != domain.ShapeMultiFinding {
		return false
	}
	change := domain.Change{Entity: domain.EntitySpace, EntityID: sp.ID, OptionID: req.OptionID, Action: domain.ActionToggle}
	idx := -1
	for i, f := range sp.Findings {
		if f.Matches(req.OptionID, req.SubOptionID) {
			idx = i
			break
		}
	}
	f := domain.Finding{
		UniqueID:    s.ids.next(),
		OptionID:    req.OptionID,
		SubOptionID: cloneIntPtr(req.SubOptionID),
		Color:       cloneColor(req.Color),
	}
	switch {
	case idx >= 0 && sp.Findings[idx].Color.Equal(req.Color):
		change.Action = domain.ActionRemove
		sp.Findings = append(sp.Findings[:idx], sp.Findings[idx+1:]...)
		if len(sp.Findings) == 0 {
			sp.Findings = nil
		}
	case idx >= 0:
		f.DynamicDesign = cloneIntPtr(sp.Findings[idx].DynamicDesign)
		sp.Findings[idx] = f
	default:
		change.Action = domain.ActionRegister
		f.DynamicDesign = cloneIntPtr(sp.DynamicDesign)
		sp.Findings = append(sp.Findings, f)
	}
	s.journal.record(change)
	s.resolve(req.OptionID, req.SpaceID, hopsOrigin)
	return true
}

// resolve recomputes the space's design from its two teeth. With hops left it
// forwards to both teeth, which recompute without forwarding back.
func (s *SpaceStore) resolve(optionID, spaceID, hops int) {
	sp := s.state.space(optionID, spaceID)
	if sp == nil {
		return
	}
	rule := s.table.Rule(optionID)
	design := 1
	if rule.AdjacencyAware() {
		design = spaceDesign(s.state, rule, *sp)
	}
	s.setDesign(sp, design)
	if hops <= 0 || !rule.AdjacencyAware() {
		return
	}
	left, right := sp.LeftToothID, sp.RightToothID
	if left != nil {
		s.teeth.resolve(*left, optionID, hops-1)
	}
	if right != nil {
		s.teeth.resolve(*right, optionID, hops-1)
	}
}

func (s *SpaceStore) setDesign(sp *domain.Space, design int) {
	if sp.DynamicDesign == nil || *sp.DynamicDesign != design {
		s.journal.record(domain.Change{Entity: domain.EntitySpace, EntityID: sp.ID, OptionID: sp.OptionID, Action: domain.ActionResolve, Before: cloneIntPtr(sp.DynamicDesign), After: domain.IntPtr(design)})
		sp.DynamicDesign = domain.IntPtr(design)
	}
	for i := range sp.Findings {
		sp.Findings[i].DynamicDesign = domain.IntPtr(design)
	}
}

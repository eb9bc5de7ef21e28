package core

import (
	"odontocore/internal/anatomy"
	"odontocore/internal/catalog"
	"odontocore/pkg/domain"
)

// RegisterRequest describes a finding applied to a tooth.
type RegisterRequest struct {
	ToothID     int
	OptionID    int
	SubOptionID *int
	Color       *domain.Color
	// Design, when set, fixes the variant and skips resolution.
	Design *domain.Design
	// Zone restricts fan-out options to the addressed tooth.
	Zone *int
}

// RemoveRequest describes a finding removed from a tooth.
type RemoveRequest struct {
	ToothID     int
	OptionID    int
	SubOptionID *int
	// DynamicDesign, when set, must also match for a finding to be removed.
	DynamicDesign *int
	Zone          *int
}

// ToothStore owns the findings applied to each tooth. It reads and notifies
// the paired SpaceStore during resolution. It is not safe for concurrent use;
// Service serialises access.
type ToothStore struct {
	state   *chartState
	spaces  *SpaceStore
	table   ResolverTable
	catalog *catalog.Catalog
	ids     *sequence
	journal *journal
}

// NewStores builds a tooth store and a space store over the same seed and
// wires them to each other.
func NewStores(cat *catalog.Catalog, table ResolverTable, seed anatomy.Seed) (*ToothStore, *SpaceStore) {
	return newStores(cat, table, newChartState(seed), &journal{})
}

func newStores(cat *catalog.Catalog, table ResolverTable, state *chartState, j *journal) (*ToothStore, *SpaceStore) {
	ids := &sequence{}
	teeth := &ToothStore{state: state, table: table, catalog: cat, ids: ids, journal: j}
	spaces := &SpaceStore{state: state, table: table, ids: ids, journal: j}
	teeth.spaces = spaces
	spaces.teeth = teeth
	return teeth, spaces
}

// Tooth returns a copy of the tooth with the given id.
func (s *ToothStore) Tooth(id int) (domain.Tooth, bool) {
	t := s.state.tooth(id)
	if t == nil {
		return domain.Tooth{}, false
	}
	return domain.CloneTooth(*t), true
}

// Teeth returns copies of every tooth in chart order.
func (s *ToothStore) Teeth() []domain.Tooth {
	out := make([]domain.Tooth, len(s.state.teeth))
	for i, t := range s.state.teeth {
		out[i] = domain.CloneTooth(t)
	}
	return out
}

// Register upserts a finding keyed by (option, sub-option) and resolves the
// design of the tooth and its neighbours. Unknown teeth or options leave the
// chart unchanged and return false.
func (s *ToothStore) Register(req RegisterRequest) bool {
	if !s.knownOption(req.OptionID) {
		return false
	}
	targets := s.targets(req.ToothID, req.OptionID, req.Zone)
	if len(targets) == 0 {
		return false
	}
	for _, id := range targets {
		s.upsert(id, req)
	}
	if req.Design != nil {
		return true
	}
	for _, id := range targets {
		s.resolve(id, req.OptionID, hopsOrigin)
	}
	return true
}

// Remove deletes findings matching (option, sub-option) and, when supplied,
// the design. Neighbours re-resolve afterwards. It returns whether any
// finding was deleted.
func (s *ToothStore) Remove(req RemoveRequest) bool {
	if !s.knownOption(req.OptionID) {
		return false
	}
	targets := s.targets(req.ToothID, req.OptionID, req.Zone)
	removed := false
	for _, id := range targets {
		if s.delete(id, req) {
			removed = true
		}
	}
	for _, id := range targets {
		s.resolve(id, req.OptionID, hopsOrigin)
	}
	return removed
}

func (s *ToothStore) knownOption(id int) bool {
	return s.catalog == nil || s.catalog.Has(id)
}

// targets expands a tooth id to the teeth a mutation applies to.
func (s *ToothStore) targets(toothID, optionID int, zone *int) []int {
	t := s.state.tooth(toothID)
	if t == nil {
		return nil
	}
	if s.table.Rule(optionID).FanOut && zone == nil {
		return s.state.jawTeeth(t.Display.Jaw)
	}
	return []int{toothID}
}

func (s *ToothStore) upsert(toothID int, req RegisterRequest) {
	t := s.state.tooth(toothID)
	f := domain.Finding{
		UniqueID:    s.ids.next(),
		OptionID:    req.OptionID,
		SubOptionID: cloneIntPtr(req.SubOptionID),
		Color:       cloneColor(req.Color),
		Zone:        cloneIntPtr(req.Zone),
	}
	if req.Design != nil {
		f.DynamicDesign = domain.IntPtr(req.Design.Number)
	}
	change := domain.Change{Entity: domain.EntityTooth, EntityID: toothID, OptionID: req.OptionID, Action: domain.ActionRegister, After: cloneIntPtr(f.DynamicDesign)}
	for i := range t.Findings {
		if t.Findings[i].Matches(req.OptionID, req.SubOptionID) {
			change.Before = cloneIntPtr(t.Findings[i].DynamicDesign)
			t.Findings[i] = f
			s.journal.record(change)
			return
		}
	}
	t.Findings = append(t.Findings, f)
	s.journal.record(change)
}

func (s *ToothStore) delete(toothID int, req RemoveRequest) bool {
	t := s.state.tooth(toothID)
	kept := t.Findings[:0]
	removed := false
	for _, f := range t.Findings {
		if f.Matches(req.OptionID, req.SubOptionID) && (req.DynamicDesign == nil || domain.SameInt(f.DynamicDesign, req.DynamicDesign)) {
			removed = true
			s.journal.record(domain.Change{Entity: domain.EntityTooth, EntityID: toothID, OptionID: req.OptionID, Action: domain.ActionRemove, Before: cloneIntPtr(f.DynamicDesign)})
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		kept = nil
	}
	t.Findings = kept
	return removed
}

// resolve recomputes the tooth's design for optionID. With hops left it
// forwards to the tooth's left and right spaces, which recompute without
// forwarding back.
func (s *ToothStore) resolve(toothID, optionID, hops int) {
	t := s.state.tooth(toothID)
	if t == nil {
		return
	}
	rule := s.table.Rule(optionID)
	if !rule.AdjacencyAware() {
		s.stampDefault(t, optionID)
		return
	}
	design, left, right := toothDesign(s.state, rule, *t)
	s.setDesign(t, optionID, design)
	if hops <= 0 {
		return
	}
	if left != nil {
		s.spaces.resolve(optionID, left.ID, hops-1)
	}
	if right != nil {
		s.spaces.resolve(optionID, right.ID, hops-1)
	}
}

// stampDefault assigns variant 1 to findings of optionID that have no design yet.
func (s *ToothStore) stampDefault(t *domain.Tooth, optionID int) {
	for i := range t.Findings {
		f := &t.Findings[i]
		if f.OptionID != optionID || f.DynamicDesign != nil {
			continue
		}
		f.DynamicDesign = domain.IntPtr(1)
		s.journal.record(domain.Change{Entity: domain.EntityTooth, EntityID: t.ID, OptionID: optionID, Action: domain.ActionResolve, After: domain.IntPtr(1)})
	}
}

func (s *ToothStore) setDesign(t *domain.Tooth, optionID, design int) {
	for i := range t.Findings {
		f := &t.Findings[i]
		if f.OptionID != optionID || (f.DynamicDesign != nil && *f.DynamicDesign == design) {
			continue
		}
		s.journal.record(domain.Change{Entity: domain.EntityTooth, EntityID: t.ID, OptionID: optionID, Action: domain.ActionResolve, Before: cloneIntPtr(f.DynamicDesign), After: domain.IntPtr(design)})
		f.DynamicDesign = domain.IntPtr(design)
	}
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

func cloneColor(c *domain.Color) *domain.Color {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

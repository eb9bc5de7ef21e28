package core

import (
	"sort"

	"odontocore/internal/anatomy"
	"odontocore/pkg/domain"
)

// chartState holds the teeth and space collections. The layout (which teeth
// and spaces exist, and in which order) is fixed at construction; only
// findings, colours and designs change.
type chartState struct {
	teeth    []domain.Tooth
	toothIdx map[int]int
	spaces   map[int][]domain.Space
	spaceIdx map[int]map[int]int
}

func newChartState(seed anatomy.Seed) *chartState {
	st := &chartState{
		toothIdx: make(map[int]int, len(seed.Teeth)),
		spaces:   make(map[int][]domain.Space),
		spaceIdx: make(map[int]map[int]int),
	}
	for _, t := range seed.Teeth {
		if _, dup := st.toothIdx[t.ID]; dup {
			continue
		}
		st.toothIdx[t.ID] = len(st.teeth)
		st.teeth = append(st.teeth, domain.CloneTooth(t))
	}
	for _, sp := range seed.Spaces {
		idx, ok := st.spaceIdx[sp.OptionID]
		if !ok {
			idx = make(map[int]int)
			st.spaceIdx[sp.OptionID] = idx
		}
		if _, dup := idx[sp.ID]; dup {
			continue
		}
		idx[sp.ID] = len(st.spaces[sp.OptionID])
		st.spaces[sp.OptionID] = append(st.spaces[sp.OptionID], domain.CloneSpace(sp))
	}
	return st
}

// clone deep-copies mutable content. Index maps are shared since the layout never changes.
func (st *chartState) clone() chartState {
	cp := chartState{
		teeth:    make([]domain.Tooth, len(st.teeth)),
		toothIdx: st.toothIdx,
		spaces:   make(map[int][]domain.Space, len(st.spaces)),
		spaceIdx: st.spaceIdx,
	}
	for i, t := range st.teeth {
		cp.teeth[i] = domain.CloneTooth(t)
	}
	for opt, list := range st.spaces {
		out := make([]domain.Space, len(list))
		for i, sp := range list {
			out[i] = domain.CloneSpace(sp)
		}
		cp.spaces[opt] = out
	}
	return cp
}

func (st *chartState) tooth(id int) *domain.Tooth {
	i, ok := st.toothIdx[id]
	if !ok {
		return nil
	}
	return &st.teeth[i]
}

func (st *chartState) space(optionID, id int) *domain.Space {
	i, ok := st.spaceIdx[optionID][id]
	if !ok {
		return nil
	}
	return &st.spaces[optionID][i]
}

// jawTeeth returns the ids of every tooth in the given jaw, in chart order.
func (st *chartState) jawTeeth(jaw domain.Jaw) []int {
	var out []int
	for _, t := range st.teeth {
		if t.Display.Jaw == jaw {
			out = append(out, t.ID)
		}
	}
	return out
}

// FindTooth implements neighborhood without copying findings.
func (st *chartState) FindTooth(id int) (domain.Tooth, bool) {
	t := st.tooth(id)
	if t == nil {
		return domain.Tooth{}, false
	}
	return *t, true
}

// FindSpace implements neighborhood.
func (st *chartState) FindSpace(optionID, id int) (domain.Space, bool) {
	sp := st.space(optionID, id)
	if sp == nil {
		return domain.Space{}, false
	}
	return *sp, true
}

// ListSpaces implements neighborhood.
func (st *chartState) ListSpaces(optionID int) []domain.Space {
	return st.spaces[optionID]
}

// chartView exposes a cloned read-only view of chart state to rules.
type chartView struct {
	state *chartState
}

var _ domain.RuleView = chartView{}

func (v chartView) ListTeeth() []domain.Tooth {
	out := make([]domain.Tooth, len(v.state.teeth))
	for i, t := range v.state.teeth {
		out[i] = domain.CloneTooth(t)
	}
	return out
}

func (v chartView) ListSpaces(optionID int) []domain.Space {
	list := v.state.spaces[optionID]
	out := make([]domain.Space, len(list))
	for i, sp := range list {
		out[i] = domain.CloneSpace(sp)
	}
	return out
}

func (v chartView) SpaceOptions() []int {
	out := make([]int, 0, len(v.state.spaces))
	for opt := range v.state.spaces {
		out = append(out, opt)
	}
	sort.Ints(out)
	return out
}

func (v chartView) FindTooth(id int) (domain.Tooth, bool) {
	t, ok := v.state.FindTooth(id)
	if !ok {
		return domain.Tooth{}, false
	}
	return domain.CloneTooth(t), true
}

func (v chartView) FindSpace(optionID, id int) (domain.Space, bool) {
	sp, ok := v.state.FindSpace(optionID, id)
	if !ok {
		return domain.Space{}, false
	}
	return domain.CloneSpace(sp), true
}

// journal collects the changes made during one mutation.
type journal struct {
	changes []domain.Change
}

func (j *journal) record(c domain.Change) {
	if j == nil {
		return
	}
	j.changes = append(j.changes, c)
}

func (j *journal) drain() []domain.Change {
	out := j.changes
	j.changes = nil
	return out
}

// sequence hands out monotonically increasing finding ids.
type sequence struct {
	last uint64
}

func (s *sequence) next() uint64 {
	s.last++
	return s.last
}

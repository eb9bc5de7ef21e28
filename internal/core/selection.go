package core

import (
	"odontocore/internal/catalog"
	"odontocore/pkg/domain"
)

// SelectionState is the user's in-progress choice.
type SelectionState struct {
	Option    *domain.Option
	Color     *domain.Color
	SubOption *domain.SubOption
	Design    *domain.Design
	Complete  bool
}

// Selection tracks the in-progress choice against a catalog and derives
// whether it is complete enough to apply.
type Selection struct {
	catalog *catalog.Catalog
	state   SelectionState
}

// NewSelection returns an empty selection over cat.
func NewSelection(cat *catalog.Catalog) *Selection {
	return &Selection{catalog: cat}
}

// State returns a copy of the current selection.
func (s *Selection) State() SelectionState {
	st := s.state
	if st.Option != nil {
		opt := *st.Option
		opt.Colors = append([]domain.Color(nil), opt.Colors...)
		opt.SubOptions = append([]domain.SubOption(nil), opt.SubOptions...)
		opt.Designs = append([]domain.Design(nil), opt.Designs...)
		opt.Variants = append([]domain.Design(nil), opt.Variants...)
		st.Option = &opt
	}
	st.Color = cloneColor(st.Color)
	if st.SubOption != nil {
		so := *st.SubOption
		st.SubOption = &so
	}
	if st.Design != nil {
		d := *st.Design
		st.Design = &d
	}
	return st
}

// SetSelectedOption selects an option and clears the other dimensions. An
// id missing from the catalog resets the selection.
func (s *Selection) SetSelectedOption(id int) {
	s.state = SelectionState{}
	if s.catalog == nil {
		return
	}
	opt, ok := s.catalog.Option(id)
	if !ok {
		return
	}
	s.state.Option = &opt
	s.refresh()
}

// SetSelectedColor sets the colour. nil clears it; a colour the selected
// option does not offer is ignored.
func (s *Selection) SetSelectedColor(c *domain.Color) {
	if c == nil {
		s.state.Color = nil
		s.refresh()
		return
	}
	if s.state.Option == nil {
		return
	}
	for _, offered := range s.state.Option.Colors {
		if offered.ID == c.ID {
			s.state.Color = &offered
			s.refresh()
			return
		}
	}
}

// SetSelectedSuboption sets the sub-option, matched by id. nil clears it.
func (s *Selection) SetSelectedSuboption(so *domain.SubOption) {
	if so == nil {
		s.state.SubOption = nil
		s.refresh()
		return
	}
	if s.state.Option == nil {
		return
	}
	for _, offered := range s.state.Option.SubOptions {
		if offered.ID == so.ID {
			s.state.SubOption = &offered
			s.refresh()
			return
		}
	}
}

// SetSelectedDesign sets the design, matched by number. nil clears it.
func (s *Selection) SetSelectedDesign(d *domain.Design) {
	if d == nil {
		s.state.Design = nil
		s.refresh()
		return
	}
	if s.state.Option == nil {
		return
	}
	for _, offered := range s.state.Option.Designs {
		if offered.Number == d.Number {
			s.state.Design = &offered
			s.refresh()
			return
		}
	}
}

// ResetSelection clears every field.
func (s *Selection) ResetSelection() {
	s.state = SelectionState{}
}

func (s *Selection) refresh() {
	opt := s.state.Option
	if opt == nil {
		s.state.Complete = false
		return
	}
	gated := len(opt.SubOptions) > 0 && s.state.SubOption == nil
	if !gated {
		if s.state.Color == nil && len(opt.Colors) == 1 {
			c := opt.Colors[0]
			s.state.Color = &c
		}
		if s.state.Design == nil && len(opt.Designs) == 1 {
			d := opt.Designs[0]
			s.state.Design = &d
		}
	}
	s.state.Complete = (len(opt.Colors) == 0 || s.state.Color != nil) &&
		(len(opt.SubOptions) == 0 || s.state.SubOption != nil) &&
		(len(opt.Designs) == 0 || s.state.Design != nil)
}

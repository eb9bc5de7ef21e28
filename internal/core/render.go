package core

import (
	"odontocore/internal/catalog"
	"odontocore/pkg/domain"
)

// RenderDecision is what a view draws for one finding: a component for the
// (option, design) pair and the colour name. Notice is set instead of
// Component when the component cannot be resolved.
type RenderDecision struct {
	Entity    EntityType
	EntityID  int
	OptionID  int
	Design    int
	ColorName string
	Component string
	Notice    string
}

func decide(cat *catalog.Catalog, entity EntityType, id, optionID int, design *int, color *domain.Color) RenderDecision {
	d := RenderDecision{Entity: entity, EntityID: id, OptionID: optionID, Design: 1}
	if design != nil {
		d.Design = *design
	}
	if color != nil {
		d.ColorName = color.Name
	}
	if cat == nil {
		d.Notice = catalog.NotFoundNotice
		return d
	}
	component, err := cat.DesignComponent(optionID, d.Design)
	if err != nil {
		d.Notice = catalog.NotFoundNotice
		return d
	}
	d.Component = component
	return d
}

func renderTooth(cat *catalog.Catalog, t domain.Tooth) []RenderDecision {
	out := make([]RenderDecision, 0, len(t.Findings))
	for _, f := range t.Findings {
		out = append(out, decide(cat, EntityTooth, t.ID, f.OptionID, f.DynamicDesign, f.Color))
	}
	return out
}

// renderSpaces draws marked spaces only: coloured single-colour spaces and
// every finding of multi-finding spaces.
func renderSpaces(cat *catalog.Catalog, spaces []domain.Space) []RenderDecision {
	var out []RenderDecision
	for _, sp := range spaces {
		switch sp.Shape {
		case domain.ShapeMultiFinding:
			for _, f := range sp.Findings {
				out = append(out, decide(cat, EntitySpace, sp.ID, sp.OptionID, f.DynamicDesign, f.Color))
			}
		default:
			if sp.Color != nil {
				out = append(out, decide(cat, EntitySpace, sp.ID, sp.OptionID, sp.DynamicDesign, sp.Color))
			}
		}
	}
	return out
}

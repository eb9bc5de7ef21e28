package core

import (
	"testing"

	"odontocore/internal/catalog"
	"odontocore/pkg/domain"
)

func selectionCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]domain.Option{
		{
			ID:      1,
			Name:    "two designs",
			Colors:  []domain.Color{*red},
			Designs: []domain.Design{{Number: 1, Component: "A"}, {Number: 2, Component: "B"}},
		},
		{
			ID:         2,
			Name:       "gated",
			Colors:     []domain.Color{*red},
			SubOptions: []domain.SubOption{{ID: 1, Name: "only"}},
			Designs:    []domain.Design{{Number: 1, Component: "A"}},
		},
		{ID: 3, Name: "bare"},
		{ID: 4, Name: "two colours", Colors: []domain.Color{*red, *blue}},
	}, []string{"A", "B"})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestSelectionAutoFillsColorButNotAmbiguousDesign(t *testing.T) {
	sel := NewSelection(selectionCatalog(t))
	sel.SetSelectedOption(1)
	st := sel.State()
	if !st.Color.Equal(red) {
		t.Fatalf("single colour should be auto-selected, got %+v", st.Color)
	}
	if st.Design != nil || st.Complete {
		t.Fatalf("two designs must not auto-fill: %+v", st)
	}
	sel.SetSelectedDesign(&domain.Design{Number: 2, Component: "B"})
	if !sel.State().Complete {
		t.Fatalf("selection should be complete after choosing a design")
	}
}

func TestSelectionSubOptionGate(t *testing.T) {
	sel := NewSelection(selectionCatalog(t))
	sel.SetSelectedOption(2)
	st := sel.State()
	if st.Color != nil || st.Design != nil || st.Complete {
		t.Fatalf("sub-option gate should block auto-fill: %+v", st)
	}
	sel.SetSelectedSuboption(&domain.SubOption{ID: 1, Name: "only"})
	st = sel.State()
	if !st.Color.Equal(red) || st.Design == nil || st.Design.Number != 1 {
		t.Fatalf("auto-fill should run once the gate opens: %+v", st)
	}
	if !st.Complete {
		t.Fatalf("selection should be complete")
	}
}

func TestSelectionBareOptionIsComplete(t *testing.T) {
	sel := NewSelection(selectionCatalog(t))
	sel.SetSelectedOption(3)
	if !sel.State().Complete {
		t.Fatalf("option offering nothing should be complete immediately")
	}
}

func TestSelectionColorChoice(t *testing.T) {
	sel := NewSelection(selectionCatalog(t))
	sel.SetSelectedOption(4)
	if st := sel.State(); st.Color != nil || st.Complete {
		t.Fatalf("two colours must not auto-fill: %+v", st)
	}
	sel.SetSelectedColor(blue)
	if st := sel.State(); !st.Complete || !st.Color.Equal(blue) {
		t.Fatalf("expected complete blue selection: %+v", st)
	}
	sel.SetSelectedColor(nil)
	if sel.State().Complete {
		t.Fatalf("clearing the colour should make the selection incomplete")
	}
}

func TestSelectionResets(t *testing.T) {
	sel := NewSelection(selectionCatalog(t))
	sel.SetSelectedOption(1)
	sel.SetSelectedDesign(&domain.Design{Number: 1, Component: "A"})

	sel.SetSelectedOption(4)
	if st := sel.State(); st.Design != nil || st.Option.ID != 4 {
		t.Fatalf("changing option should clear other dimensions: %+v", st)
	}

	sel.SetSelectedOption(99)
	if st := sel.State(); st.Option != nil || st.Complete {
		t.Fatalf("unknown option should reset the selection: %+v", st)
	}

	sel.SetSelectedOption(3)
	sel.ResetSelection()
	if st := sel.State(); st != (SelectionState{}) {
		t.Fatalf("reset should clear every field: %+v", st)
	}
}

func TestSelectionStateIsACopy(t *testing.T) {
	sel := NewSelection(selectionCatalog(t))
	sel.SetSelectedOption(1)
	st := sel.State()
	st.Color.Name = "mutated"
	st.Option.Designs[0].Component = "mutated"
	again := sel.State()
	if again.Color.Name != "red" || again.Option.Designs[0].Component != "A" {
		t.Fatalf("State leaked internal data: %+v", again)
	}
}

func TestSelectionIgnoresValuesTheOptionDoesNotOffer(t *testing.T) {
	green := &domain.Color{ID: 9, Name: "green"}
	sel := NewSelection(selectionCatalog(t))

	sel.SetSelectedColor(blue)
	if st := sel.State(); st.Color != nil || st.Complete {
		t.Fatalf("values without an option must be ignored: %+v", st)
	}

	sel.SetSelectedOption(4)
	sel.SetSelectedColor(green)
	if st := sel.State(); st.Color != nil || st.Complete {
		t.Fatalf("colour outside the palette accepted: %+v", st)
	}
	sel.SetSelectedColor(&domain.Color{ID: 2})
	if st := sel.State(); !st.Color.Equal(blue) || !st.Complete {
		t.Fatalf("colour should resolve to the catalog entry: %+v", st)
	}
	sel.SetSelectedColor(green)
	if st := sel.State(); !st.Color.Equal(blue) {
		t.Fatalf("rejected colour replaced the selection: %+v", st)
	}

	sel.SetSelectedOption(2)
	sel.SetSelectedSuboption(&domain.SubOption{ID: 7, Name: "bogus"})
	if st := sel.State(); st.SubOption != nil || st.Complete {
		t.Fatalf("unknown sub-option accepted: %+v", st)
	}

	sel.SetSelectedOption(1)
	sel.SetSelectedDesign(&domain.Design{Number: 5, Component: "A"})
	if st := sel.State(); st.Design != nil || st.Complete {
		t.Fatalf("unknown design accepted: %+v", st)
	}
	sel.SetSelectedDesign(&domain.Design{Number: 2})
	if st := sel.State(); st.Design == nil || st.Design.Component != "B" || !st.Complete {
		t.Fatalf("design should resolve to the catalog entry: %+v", st)
	}
}

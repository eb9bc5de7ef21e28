package core

import (
	"testing"

	"odontocore/pkg/domain"
)

func TestNeighborDesignRuleOrder(t *testing.T) {
	cases := []struct {
		name                               string
		hasLeft, hasRight, leftOn, rightOn bool
		want                               int
	}{
		{"no left space", false, true, false, true, 1},
		{"no left space wins over no right", false, false, false, false, 1},
		{"no right space", true, false, true, false, 2},
		{"both on", true, true, true, true, 3},
		{"left only", true, true, true, false, 2},
		{"right only", true, true, false, true, 1},
		{"neither", true, true, false, false, 1},
	}
	for _, tc := range cases {
		if got := neighborDesign(tc.hasLeft, tc.hasRight, tc.leftOn, tc.rightOn); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestDefaultResolverTable(t *testing.T) {
	table := DefaultResolverTable()
	for _, id := range []int{1, 2, 11, 30, 31, 32, 39} {
		if !table.Rule(id).AdjacencyAware() {
			t.Fatalf("option %d should be adjacency aware", id)
		}
	}
	for _, id := range []int{3, 4, 7, 12, 20, 21, 23, 24, 25, 28, 38, 99} {
		if table.Rule(id).AdjacencyAware() {
			t.Fatalf("option %d should resolve with the fixed design", id)
		}
	}
	if !table.Rule(7).FanOut || !table.Rule(31).FanOut || table.Rule(1).FanOut {
		t.Fatalf("unexpected fan-out flags")
	}
	if table.Rule(11).Lookup != LookupToothRefs {
		t.Fatalf("option 11 should follow tooth space references")
	}
	if r := table.Rule(39); r.Signal != SignalPresence || r.Shape != domain.ShapeMultiFinding {
		t.Fatalf("option 39 rule = %+v", r)
	}

	specs := table.SpaceSpecs()
	if len(specs) != 7 {
		t.Fatalf("expected 7 space specs, got %d", len(specs))
	}
	for i := 1; i < len(specs); i++ {
		if specs[i-1].OptionID >= specs[i].OptionID {
			t.Fatalf("space specs not sorted: %+v", specs)
		}
	}
	if specs[0].Shape != domain.ShapeSingleColor {
		t.Fatalf("default shape should be single colour, got %q", specs[0].Shape)
	}
}

func TestSpaceOnSignals(t *testing.T) {
	colorRule := AdjacencyRule{OptionID: 1, Design: DesignNeighbors}
	presenceRule := AdjacencyRule{OptionID: 39, Design: DesignNeighbors, Signal: SignalPresence}
	uncolored := &domain.Space{Findings: []domain.Finding{{OptionID: 39}}}
	if spaceOn(colorRule, nil) || spaceOn(presenceRule, nil) {
		t.Fatalf("absent space must be off")
	}
	if spaceOn(colorRule, uncolored) {
		t.Fatalf("colour signal must ignore uncoloured findings")
	}
	if !spaceOn(presenceRule, uncolored) {
		t.Fatalf("presence signal must count uncoloured findings")
	}
	if !spaceOn(colorRule, &domain.Space{Color: red}) {
		t.Fatalf("coloured space must be on")
	}
}

func TestToothOnSignals(t *testing.T) {
	colorRule := AdjacencyRule{OptionID: 1, Design: DesignNeighbors}
	presenceRule := AdjacencyRule{OptionID: 1, Design: DesignNeighbors, Signal: SignalPresence}
	tooth := domain.Tooth{ID: 11, Findings: []domain.Finding{{OptionID: 1}, {OptionID: 3, Color: red}}}
	if toothOn(colorRule, tooth) {
		t.Fatalf("uncoloured finding must not count for the colour signal")
	}
	if !toothOn(presenceRule, tooth) {
		t.Fatalf("presence signal must count any finding of the option")
	}
}

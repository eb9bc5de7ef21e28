package core

import (
	"testing"

	"odontocore/internal/anatomy"
	"odontocore/internal/catalog"
	"odontocore/pkg/domain"
)

var (
	red  = &domain.Color{ID: 1, Name: "red"}
	blue = &domain.Color{ID: 2, Name: "blue"}
)

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return cat
}

func newTestStores(t *testing.T) (*ToothStore, *SpaceStore) {
	t.Helper()
	table := DefaultResolverTable()
	return NewStores(mustCatalog(t), table, anatomy.Permanent(table.SpaceSpecs()...))
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	svc, err := NewDefaultService(opts...)
	if err != nil {
		t.Fatalf("NewDefaultService: %v", err)
	}
	return svc
}

func toothFinding(t *testing.T, teeth *ToothStore, toothID, optionID int) domain.Finding {
	t.Helper()
	tooth, ok := teeth.Tooth(toothID)
	if !ok {
		t.Fatalf("tooth %d missing", toothID)
	}
	for _, f := range tooth.Findings {
		if f.OptionID == optionID {
			return f
		}
	}
	t.Fatalf("tooth %d has no finding for option %d", toothID, optionID)
	return domain.Finding{}
}

func designOf(t *testing.T, v *int) int {
	t.Helper()
	if v == nil {
		t.Fatalf("design not resolved")
	}
	return *v
}

func mustSpace(t *testing.T, spaces *SpaceStore, optionID, id int) domain.Space {
	t.Helper()
	sp, ok := spaces.Space(optionID, id)
	if !ok {
		t.Fatalf("space %d for option %d missing", id, optionID)
	}
	return sp
}

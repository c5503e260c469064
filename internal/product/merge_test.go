package product

import (
	"reflect"
	"testing"
)

func TestMerge_DedupByIdentifier(t *testing.T) {
	t.Parallel()

	got := Merge([]Product{
		{ProductID: "1", Name: "First", Description: "one"},
		{ProductID: "2", Name: "Second", Description: "two"},
		{ProductID: "1", Name: "Duplicate", Description: "ignored"},
	})

	if len(got) != 2 {
		t.Fatalf("got %d products, want 2: %+v", len(got), got)
	}
	if got[0].Name != "First" {
		t.Errorf("first occurrence should win, got %q", got[0].Name)
	}
	if got[1].ProductID != "2" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()

	input := []Product{
		{ProductID: "1", Name: "Product 1", Description: NoDescription},
		{ProductID: "1", Name: "Real Name", Description: "real description"},
		{ProductID: "2"},
		{ProductID: "2", Name: "Another"},
	}

	once := Merge(input)
	twice := Merge(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMerge_PlaceholderUpgrade(t *testing.T) {
	t.Parallel()

	got := Merge([]Product{
		{ProductID: "42"}, // placeholders filled by normalize
		{ProductID: "42", Name: "Widget", Description: "A real description"},
	})

	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	if got[0].Name != "Widget" {
		t.Errorf("placeholder name should be upgraded, got %q", got[0].Name)
	}
	if got[0].Description != "A real description" {
		t.Errorf("sentinel description should be upgraded, got %q", got[0].Description)
	}
}

func TestMerge_RealValuesNeverDowngraded(t *testing.T) {
	t.Parallel()

	got := Merge(
		[]Product{{ProductID: "42", Name: "Widget", Description: "Real"}},
		[]Product{{ProductID: "42", Name: "Product 42", Description: NoDescription}},
	)

	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	if got[0].Name != "Widget" || got[0].Description != "Real" {
		t.Errorf("placeholder overwrote real value: %+v", got[0])
	}
}

func TestMerge_EmptyIdentifierDropped(t *testing.T) {
	t.Parallel()

	got := Merge([]Product{{Name: "No ID"}, {ProductID: "1"}})
	if len(got) != 1 || got[0].ProductID != "1" {
		t.Errorf("record without identifier should be dropped: %+v", got)
	}
}

func TestMerge_NormalizesEmptyFields(t *testing.T) {
	t.Parallel()

	got := Merge([]Product{{ProductID: "5"}})
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	if got[0].Name != "Product 5" {
		t.Errorf("got name %q, want placeholder", got[0].Name)
	}
	if got[0].Description != NoDescription {
		t.Errorf("got description %q, want sentinel", got[0].Description)
	}
}

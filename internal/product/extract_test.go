package product

import (
	"strings"
	"testing"

	"github.com/shopmind/shopmind/internal/knowledge"
)

func TestFromDocuments_MetadataAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		metadata map[string]any
		want     Product
	}{
		{
			name:     "camelCase identifier with name",
			metadata: map[string]any{"productId": "42", "name": "Widget"},
			want:     Product{ProductID: "42", Name: "Widget", Description: NoDescription},
		},
		{
			name:     "snake_case aliases",
			metadata: map[string]any{"product_id": "7", "product_name": "Gadget", "description": "A fine gadget"},
			want:     Product{ProductID: "7", Name: "Gadget", Description: "A fine gadget"},
		},
		{
			name:     "bare id alias with title",
			metadata: map[string]any{"id": "9", "title": "Sprocket"},
			want:     Product{ProductID: "9", Name: "Sprocket", Description: NoDescription},
		},
		{
			name:     "numeric identifier stringified",
			metadata: map[string]any{"productId": float64(42), "name": "Widget"},
			want:     Product{ProductID: "42", Name: "Widget", Description: NoDescription},
		},
		{
			name:     "identifier only gets placeholders",
			metadata: map[string]any{"productId": "5"},
			want:     Product{ProductID: "5", Name: "Product 5", Description: NoDescription},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FromDocuments([]knowledge.Match{{ID: "doc", Metadata: tt.metadata}})
			if len(got) != 1 {
				t.Fatalf("got %d products, want 1", len(got))
			}
			if got[0] != tt.want {
				t.Errorf("got %+v, want %+v", got[0], tt.want)
			}
		})
	}
}

func TestFromDocuments_NoIdentifierNoRecord(t *testing.T) {
	t.Parallel()

	got := FromDocuments([]knowledge.Match{
		{ID: "doc", Metadata: map[string]any{"name": "Nameless"}, Content: "nothing structured here"},
	})
	if len(got) != 0 {
		t.Errorf("expected no products without identifier, got %+v", got)
	}
}

func TestFromDocuments_MarkerScan(t *testing.T) {
	t.Parallel()

	content := `Our catalog highlights:

Widget Pro
Product ID: 42
Description: The flagship widget with
reinforced bearings.

Gadget Mini
Product ID: 43

A compact gadget for travel use.
`
	got := FromDocuments([]knowledge.Match{{ID: "doc", Content: content}})
	if len(got) != 2 {
		t.Fatalf("got %d products, want 2: %+v", len(got), got)
	}

	if got[0].ProductID != "42" || got[0].Name != "Widget Pro" {
		t.Errorf("first product wrong: %+v", got[0])
	}
	if got[0].Description != "The flagship widget with reinforced bearings." {
		t.Errorf("labeled description not normalized: %q", got[0].Description)
	}

	if got[1].ProductID != "43" || got[1].Name != "Gadget Mini" {
		t.Errorf("second product wrong: %+v", got[1])
	}
	if got[1].Description != "A compact gadget for travel use." {
		t.Errorf("paragraph description wrong: %q", got[1].Description)
	}
}

func TestFromDocuments_MarkerScanRejectsImplausibleNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"label-like line", "Category: tools\nProduct ID: 42"},
		{"overlong line", strings.Repeat("x", MaxNameLength+1) + "\nProduct ID: 42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FromDocuments([]knowledge.Match{{ID: "doc", Content: tt.content}})
			if len(got) != 1 {
				t.Fatalf("got %d products, want 1", len(got))
			}
			if got[0].Name != "Product 42" {
				t.Errorf("implausible name should fall back to placeholder, got %q", got[0].Name)
			}
		})
	}
}

func TestFromDocuments_MarkerUpgradesMetadataPlaceholder(t *testing.T) {
	t.Parallel()

	doc := knowledge.Match{
		ID:       "doc",
		Metadata: map[string]any{"productId": "42"}, // no name, no description
		Content:  "Widget Pro\nProduct ID: 42\nDescription: Reinforced bearings.",
	}

	got := FromDocuments([]knowledge.Match{doc})
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1: %+v", len(got), got)
	}
	if got[0].Name != "Widget Pro" {
		t.Errorf("marker scan should upgrade placeholder name, got %q", got[0].Name)
	}
	if got[0].Description != "Reinforced bearings." {
		t.Errorf("marker scan should upgrade sentinel description, got %q", got[0].Description)
	}
}

func TestFromDocuments_HeadingFallback(t *testing.T) {
	t.Parallel()

	content := `1. Widget Pro
   SKU reference ID: 42
   Description: Industrial strength widget.

2. Unrelated section
   No identifier in this block.
`
	got := FromDocuments([]knowledge.Match{{ID: "doc", Content: content}})
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1: %+v", len(got), got)
	}
	if got[0].ProductID != "42" {
		t.Errorf("got id %q, want 42", got[0].ProductID)
	}
	if got[0].Name != "Widget Pro" {
		t.Errorf("got name %q, want Widget Pro", got[0].Name)
	}
	if got[0].Description != "Industrial strength widget." {
		t.Errorf("got description %q", got[0].Description)
	}
}

func TestFromDocuments_HeadingFallbackNotUsedWhenMarkersExist(t *testing.T) {
	t.Parallel()

	content := `# Catalog
Some intro, order ID: 999 is irrelevant.

Widget Pro
Product ID: 42
`
	got := FromDocuments([]knowledge.Match{{ID: "doc", Content: content}})
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1: %+v", len(got), got)
	}
	if got[0].ProductID != "42" {
		t.Errorf("loose fallback marker leaked in: %+v", got)
	}
}

func TestFromDocuments_CrossDocumentDedup(t *testing.T) {
	t.Parallel()

	// Spec scenario: same identifier in two documents, second lacking a
	// name; the merged list has one record keeping the real name.
	docs := []knowledge.Match{
		{ID: "doc-1", Metadata: map[string]any{"productId": "42", "name": "Widget"}},
		{ID: "doc-2", Metadata: map[string]any{"productId": "42"}},
	}

	got := FromDocuments(docs)
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1: %+v", len(got), got)
	}
	if got[0].ProductID != "42" || got[0].Name != "Widget" {
		t.Errorf("got %+v, want productId 42 name Widget", got[0])
	}
}

func TestFromDocuments_DescriptionTruncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("verbose padding ", 40) // well over the bound
	content := "Widget\nProduct ID: 42\nDescription: " + long

	got := FromDocuments([]knowledge.Match{{ID: "doc", Content: content}})
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	if n := len([]rune(got[0].Description)); n > MaxDescriptionLength {
		t.Errorf("description length %d exceeds bound %d", n, MaxDescriptionLength)
	}
}

func TestFromDocuments_BoldMarkers(t *testing.T) {
	t.Parallel()

	content := "**Widget Pro**\n**Product ID:** 42\n**Description:** Shiny."
	got := FromDocuments([]knowledge.Match{{ID: "doc", Content: content}})
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1: %+v", len(got), got)
	}
	if got[0].ProductID != "42" || got[0].Name != "Widget Pro" || got[0].Description != "Shiny." {
		t.Errorf("bold markdown not handled: %+v", got[0])
	}
}

func TestFromText_TwoSegments(t *testing.T) {
	t.Parallel()

	text := `Here is what I found:

1. **Widget Pro**
   Product ID: 7
   Description: A premium widget for demanding workloads.

2. **Gadget Mini**
   Product ID: 9
   Details: Small, light, travel friendly.
`
	got := FromText(text)
	if len(got) != 2 {
		t.Fatalf("got %d products, want 2: %+v", len(got), got)
	}

	if got[0].ProductID != "7" || got[0].Name != "Widget Pro" {
		t.Errorf("first segment wrong: %+v", got[0])
	}
	if got[0].Description == NoDescription || got[0].Description == "" {
		t.Errorf("first description should be real, got %q", got[0].Description)
	}

	if got[1].ProductID != "9" || got[1].Name != "Gadget Mini" {
		t.Errorf("second segment wrong: %+v", got[1])
	}
	if got[1].Description != "Small, light, travel friendly." {
		t.Errorf("Details label not honored: %q", got[1].Description)
	}
}

func TestFromText_SegmentWithoutIdentifierSkipped(t *testing.T) {
	t.Parallel()

	text := `1. **Widget Pro**
   Product ID: 7

2. **Mystery Item**
   Description: No identifier given.
`
	got := FromText(text)
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1: %+v", len(got), got)
	}
	if got[0].ProductID != "7" {
		t.Errorf("got %+v", got[0])
	}
}

func TestFromText_NoAnchorsNoProducts(t *testing.T) {
	t.Parallel()

	if got := FromText("We stock 42 kinds of widgets."); len(got) != 0 {
		t.Errorf("expected no products from plain prose, got %+v", got)
	}
}

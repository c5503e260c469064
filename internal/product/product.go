// Package product extracts structured product records from unstructured
// knowledge-base documents and assistant-generated text.
//
// Extraction is best-effort and lossy: a document or text segment that
// cannot be parsed contributes zero records, never an error. Records are
// keyed by product identifier; merging is idempotent and placeholder
// values never overwrite real ones.
package product

import "fmt"

// Bounds applied during extraction. Empirical values carried over from the
// upstream service; tune here, not at call sites.
const (
	// MaxNameLength rejects implausibly long name candidates.
	MaxNameLength = 100

	// MaxDescriptionLength truncates extracted descriptions.
	MaxDescriptionLength = 300
)

// NoDescription is the sentinel used when no real description was found.
const NoDescription = "No description available"

// Product is a structured record extracted from documents or text.
// ProductID is the deduplication key; two records sharing it are the same
// logical product.
type Product struct {
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PlaceholderName synthesizes the default name for a product identifier.
func PlaceholderName(id string) string {
	return fmt.Sprintf("Product %s", id)
}

// hasRealName reports whether the record carries a non-placeholder name.
func (p Product) hasRealName() bool {
	return p.Name != "" && p.Name != PlaceholderName(p.ProductID)
}

// hasRealDescription reports whether the record carries a non-sentinel
// description.
func (p Product) hasRealDescription() bool {
	return p.Description != "" && p.Description != NoDescription
}

// normalize fills empty fields with their placeholder values.
func (p Product) normalize() Product {
	if p.Name == "" {
		p.Name = PlaceholderName(p.ProductID)
	}
	if p.Description == "" {
		p.Description = NoDescription
	}
	return p
}

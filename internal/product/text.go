package product

import (
	"regexp"
	"strings"
)

// segmentAnchor matches numbered bold-emphasis headers in assistant text,
// e.g. `1. **Widget Pro**`. Each anchor starts one product segment.
var segmentAnchor = regexp.MustCompile(`(?m)^[ \t]*\d+\.\s*\*\*(.+?)\*\*`)

// FromText extracts product records from final assistant text. The text is
// split into segments anchored at numbered bold headers; a segment without
// a product identifier is skipped. Used both as a fallback when tool
// results yielded nothing and as an enrichment source for reconciliation.
func FromText(text string) []Product {
	anchors := segmentAnchor.FindAllStringSubmatchIndex(text, -1)
	if anchors == nil {
		return nil
	}

	var products []Product
	for i, a := range anchors {
		segEnd := len(text)
		if i+1 < len(anchors) {
			segEnd = anchors[i+1][0]
		}
		segment := text[a[1]:segEnd]

		idMatch := productIDPattern.FindStringSubmatch(segment)
		if idMatch == nil {
			continue
		}

		p := Product{
			ProductID:   idMatch[1],
			Name:        cleanName(strings.TrimSuffix(strings.TrimSpace(text[a[2]:a[3]]), ":")),
			Description: segmentDescription(segment),
		}
		products = append(products, p.normalize())
	}
	return Merge(products)
}

// segmentDescription reads a "Description:" label, falling back to a
// "Details:" label.
func segmentDescription(segment string) string {
	for _, pattern := range []*regexp.Regexp{descLabelPattern, detailsLabelPattern} {
		if loc := pattern.FindStringIndex(segment); loc != nil {
			return normalizeDescription(untilBlankLine(segment[loc[1]:]))
		}
	}
	return ""
}

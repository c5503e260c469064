package product

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopmind/shopmind/internal/knowledge"
)

// Metadata key aliases tried in priority order. Documents come from
// heterogeneous ingestion paths, so the identifier and name live under
// different keys depending on the source.
var (
	idKeys   = []string{"productId", "product_id", "id"}
	nameKeys = []string{"name", "productName", "product_name", "title"}
	descKeys = []string{"description", "desc", "summary"}
)

var (
	// productIDPattern matches "Product ID: 42" markers in free text,
	// tolerating markdown bold around the label and the value.
	productIDPattern = regexp.MustCompile(`(?i)product\s*id\**\s*:\s*\**\s*(\d+)`)

	// fallbackIDPattern is the looser marker used only by the heading scan,
	// matching "ID: 42" when no full product markers exist in the document.
	fallbackIDPattern = regexp.MustCompile(`(?i)\bid\**\s*:\s*\**\s*(\d+)`)

	descLabelPattern    = regexp.MustCompile(`(?i)description\**\s*:\s*\**\s*`)
	detailsLabelPattern = regexp.MustCompile(`(?i)details\**\s*:\s*\**\s*`)

	// headingPattern matches numbered or markdown-heading lines.
	headingPattern = regexp.MustCompile(`(?m)^[ \t]*(?:\d+[.)][ \t]+|#{1,6}[ \t]+)(.+)$`)

	blankLinePattern  = regexp.MustCompile(`\n[ \t]*\n`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// listDecorPattern strips list markers and heading hashes from name
	// candidates.
	listDecorPattern = regexp.MustCompile(`^[ \t]*(?:[-*•]+|\d+[.)]|#{1,6})[ \t]*`)
)

// FromDocuments extracts product records from matched knowledge-base
// documents. Within a document the strategies run in strict priority order
// (structured metadata, then free-text marker scan, then a heading-scan
// fallback); across documents records are merged by identifier, first
// occurrence winning. Extraction never fails: unparseable documents simply
// contribute nothing.
func FromDocuments(docs []knowledge.Match) []Product {
	lists := make([][]Product, 0, len(docs))
	for _, doc := range docs {
		lists = append(lists, fromDocument(doc))
	}
	return Merge(lists...)
}

// fromDocument extracts and merges the records of a single document.
func fromDocument(doc knowledge.Match) []Product {
	var found []Product

	if p, ok := fromMetadata(doc.Metadata); ok {
		found = append(found, p)
	}

	scanned := scanMarkers(doc.Content)
	found = append(found, scanned...)

	// Heading scan only when neither metadata nor markers produced an
	// identifier; it uses a looser marker and would misfire otherwise.
	if len(found) == 0 {
		found = scanHeadings(doc.Content)
	}

	return Merge(found)
}

// fromMetadata resolves product fields through the key-alias tables.
// A record is accepted only when an identifier alias is present.
func fromMetadata(metadata map[string]any) (Product, bool) {
	id := lookupAlias(metadata, idKeys)
	if id == "" {
		return Product{}, false
	}
	return Product{
		ProductID:   id,
		Name:        lookupAlias(metadata, nameKeys),
		Description: lookupAlias(metadata, descKeys),
	}.normalize(), true
}

// lookupAlias returns the first present, non-empty value among the given
// key aliases, stringified. Unsupported value types are skipped.
func lookupAlias(metadata map[string]any, keys []string) string {
	for _, key := range keys {
		raw, ok := metadata[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			// JSON numbers decode to float64; identifiers are integral.
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}
			return fmt.Sprintf("%v", v)
		case int:
			return fmt.Sprintf("%d", v)
		}
	}
	return ""
}

// scanMarkers finds every "Product ID: <digits>" marker in the content and
// derives a name from the last non-empty line before the marker and a
// description from an explicit label or the following paragraph.
func scanMarkers(content string) []Product {
	matches := productIDPattern.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return nil
	}

	products := make([]Product, 0, len(matches))
	for _, m := range matches {
		start, end := m[0], m[1]
		id := content[m[2]:m[3]]

		p := Product{
			ProductID:   id,
			Name:        nameBefore(content[:start]),
			Description: descriptionAfter(content[end:]),
		}
		products = append(products, p.normalize())
	}
	return products
}

// nameBefore derives a name candidate from the last non-empty line of the
// text preceding a marker. Candidates that are implausibly long or carry a
// label-like colon are rejected.
func nameBefore(before string) string {
	lines := strings.Split(before, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if cleaned := cleanName(line); cleaned != "" {
			return cleaned
		}
		// A line that is pure decoration (the leading markup of the marker
		// line itself) keeps the scan going; a substantive rejection stops it.
		if strings.Trim(line, "*_-–—#>• \t") == "" {
			continue
		}
		return ""
	}
	return ""
}

// cleanName strips list/markup decoration and applies plausibility checks.
// Returns "" when the candidate is rejected.
func cleanName(candidate string) string {
	candidate = listDecorPattern.ReplaceAllString(candidate, "")
	candidate = strings.Trim(candidate, "*_ \t")
	candidate = strings.TrimRight(candidate, "-–— \t")
	candidate = strings.TrimSpace(candidate)

	if candidate == "" || len(candidate) > MaxNameLength {
		return ""
	}
	if strings.Contains(candidate, ":") {
		// A colon marks a label line ("Category: tools"), not a name.
		return ""
	}
	return candidate
}

// descriptionAfter derives a description from the text following a marker:
// an explicit "Description:" label when present, otherwise the next
// paragraph. The search is bounded to the current product's block so one
// product never steals the next one's description.
func descriptionAfter(after string) string {
	if next := productIDPattern.FindStringIndex(after); next != nil {
		after = after[:next[0]]
	}

	if loc := descLabelPattern.FindStringIndex(after); loc != nil {
		return normalizeDescription(untilBlankLine(after[loc[1]:]))
	}

	// Fall back to the paragraph after the marker line.
	nl := strings.IndexByte(after, '\n')
	if nl < 0 {
		return ""
	}
	return normalizeDescription(nextParagraph(after[nl+1:]))
}

// untilBlankLine returns s truncated at the first blank line.
func untilBlankLine(s string) string {
	if loc := blankLinePattern.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

// nextParagraph skips leading blank lines and returns the first paragraph.
func nextParagraph(s string) string {
	s = strings.TrimLeft(s, " \t\n")
	return untilBlankLine(s)
}

// normalizeDescription collapses newlines and runs of whitespace to single
// spaces and truncates to MaxDescriptionLength runes.
func normalizeDescription(s string) string {
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) > MaxDescriptionLength {
		s = string(runes[:MaxDescriptionLength])
	}
	return s
}

// scanHeadings is the last-resort strategy: numbered or heading-marked
// lines whose block eventually carries a loose "ID: <digits>" marker.
func scanHeadings(content string) []Product {
	headings := headingPattern.FindAllStringSubmatchIndex(content, -1)
	if headings == nil {
		return nil
	}

	var products []Product
	for i, h := range headings {
		blockEnd := len(content)
		if i+1 < len(headings) {
			blockEnd = headings[i+1][0]
		}
		block := content[h[1]:blockEnd]

		idMatch := fallbackIDPattern.FindStringSubmatch(block)
		if idMatch == nil {
			continue
		}

		p := Product{
			ProductID:   idMatch[1],
			Name:        cleanName(content[h[2]:h[3]]),
			Description: labeledDescription(block),
		}
		products = append(products, p.normalize())
	}
	return products
}

// labeledDescription extracts a "Description:"-labeled value from a block,
// or "" when absent.
func labeledDescription(block string) string {
	if loc := descLabelPattern.FindStringIndex(block); loc != nil {
		return normalizeDescription(untilBlankLine(block[loc[1]:]))
	}
	return ""
}

package knowledge

// Match is a single similarity-search hit from the vector backend.
// Metadata is an arbitrary JSON object; its shape depends on how the
// document was ingested and must not be assumed.
type Match struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

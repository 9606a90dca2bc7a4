package model

// UnknownRole is the sentinel category for postings no tier could match.
const UnknownRole = "Unknown"

// Detection methods, in the order the detector tries them.
const (
	MethodKeyword   = "keyword"
	MethodEmbedding = "embedding"
	MethodNone      = "none"
)

// RoleCategory is one canonical role with its alias strings and, once the
// embedding tier has run, a centroid vector (mean of per-alias embeddings).
// Immutable after load; shared read-only across detection calls.
type RoleCategory struct {
	Name     string
	Aliases  []string
	Centroid []float32
}

// Detection is the role detector's result for one posting.
// Keyword matches always carry confidence 1.0; embedding matches carry the
// cosine similarity against the winning centroid.
type Detection struct {
	Category   string  `json:"category"`
	Variation  string  `json:"variation"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// IsUnknown reports whether no tier produced a match.
func (d Detection) IsUnknown() bool {
	return d.Category == UnknownRole
}

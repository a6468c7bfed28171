package domain

import "time"

// Label is a single detected label with the provider's confidence (0..100).
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// LabelDocument is the labeling result persisted per image.
type LabelDocument struct {
	Image     string    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
	Labels    []Label   `json:"labels"`
}

// LabelCount is one entry of the corpus-wide label occurrence counts.
type LabelCount struct {
	Name  string
	Count int
}

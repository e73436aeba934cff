package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Feature is a product-level grouping of feedback. Name is unique per
// project (case-insensitive); association code treats a name collision as
// reuse, never as an error. Never mutated by the pipeline once created.
type Feature struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`

	// NameEmbedding backs nearest-neighbor feature search.
	NameEmbedding pgvector.Vector `json:"-"`

	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeatureCandidate is one feature_search result: a feature and its cosine
// distance to the query, ascending distance = better match.
type FeatureCandidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Distance    float64   `json:"distance"`
}

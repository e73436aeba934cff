package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is the final structured record linking a feedback item to its
// feature and sentiment. Created exactly once per RawFeedbackItem, by the
// FeatureAssociation handler, when association succeeds.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	FeatureID uuid.UUID `json:"feature_id"`
	Content   string    `json:"content"`

	// Sentiment is empty when association lands before the sentiment stage;
	// the two stages race independently for the same item.
	Sentiment Sentiment `json:"sentiment,omitempty"`

	CreatedBy         uuid.UUID `json:"created_by"`
	RawFeedbackItemID uuid.UUID `json:"raw_feedback_item_id"`
	CreatedAt         time.Time `json:"created_at"`
}

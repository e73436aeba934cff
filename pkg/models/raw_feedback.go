// Package models defines the feedback-engine data model.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RawFeedback represents one external submission prior to decomposition.
// Stored in raw_feedback table. Created by the ingress; mutated only by the
// SafetyCheck and Splitter handlers and by the fan-in check inside
// FeatureAssociation. Terminal once ProcessingComplete or ProcessingError
// is set.
type RawFeedback struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Email     *string   `json:"email,omitempty"`
	Content   string    `json:"content"`

	SafetyCheckComplete *time.Time `json:"safety_check_complete,omitempty"`
	SplittingComplete   *time.Time `json:"splitting_complete,omitempty"`
	ProcessingComplete  *time.Time `json:"processing_complete,omitempty"`
	ProcessingError     *string    `json:"processing_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawFeedbackItem is one atomic feedback unit produced by splitting; the
// unit of sentiment and association work. Terminal once a Feedback row
// exists for it or ProcessingError is set.
type RawFeedbackItem struct {
	ID            uuid.UUID `json:"id"`
	RawFeedbackID uuid.UUID `json:"raw_feedback_id"`
	Content       string    `json:"content"`

	SentimentCheckComplete     *time.Time `json:"sentiment_check_complete,omitempty"`
	SentimentCheckResult       *Sentiment `json:"sentiment_check_result,omitempty"`
	FeatureAssociationComplete *time.Time `json:"feature_association_complete,omitempty"`
	ProcessingError            *string    `json:"processing_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ProjectID is the parent RawFeedback's project, populated by the
	// association claim query's join. Not a column of raw_feedback_items.
	ProjectID uuid.UUID `json:"-"`
}

// Package audit emits structured moderation events as JSON for SIEM
// consumption. The pipeline drops unsafe submissions on the floor; this is
// the only place their content is retained.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/logging"
)

// EventType categorizes moderation events for filtering and alerting.
type EventType string

const (
	// EventUnsafeContent is logged when the safety check rejects a
	// submission.
	EventUnsafeContent EventType = "unsafe_content_rejected"
)

// ModerationEvent is one auditable moderation outcome.
type ModerationEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     EventType `json:"event_type"`
	ProjectID     uuid.UUID `json:"project_id"`
	RawFeedbackID uuid.UUID `json:"raw_feedback_id"`
	Reason        string    `json:"reason"`
	Content       string    `json:"content"`
	Severity      string    `json:"severity"`
}

// Auditor logs moderation events on a dedicated logger namespace so SIEM
// pipelines can route them separately from operational logs.
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor creates a new Auditor.
func NewAuditor(logger *zap.Logger) *Auditor {
	return &Auditor{logger: logger.Named("moderation_audit")}
}

// LogUnsafeContent records a rejected submission, including its (bounded)
// content. Logged at WARN: expected in normal operation but worth review.
func (a *Auditor) LogUnsafeContent(projectID, rawFeedbackID uuid.UUID, reason, content string) {
	event := ModerationEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     EventUnsafeContent,
		ProjectID:     projectID,
		RawFeedbackID: rawFeedbackID,
		Reason:        reason,
		Content:       logging.TruncateContent(content),
		Severity:      "warning",
	}

	// Marshaling known types does not fail.
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Rejected unsafe feedback",
		zap.String("event_json", string(eventJSON)),
		zap.String("project_id", projectID.String()),
		zap.String("raw_feedback_id", rawFeedbackID.String()),
		zap.String("reason", reason))
}

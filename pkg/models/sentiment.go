package models

import "fmt"

// Sentiment is the three-way classification of a feedback item.
type Sentiment string

const (
	// SentimentPositive: praise with no actionable ask.
	SentimentPositive Sentiment = "positive"
	// SentimentConstructive: any actionable improvement suggestion, even if
	// wrapped in positive or negative framing. Dominates the other two.
	SentimentConstructive Sentiment = "constructive"
	// SentimentNegative: dissatisfaction with no suggestion.
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment validates a string returned by the completion service.
func ParseSentiment(s string) (Sentiment, error) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentConstructive, SentimentNegative:
		return Sentiment(s), nil
	default:
		return "", fmt.Errorf("invalid sentiment %q", s)
	}
}

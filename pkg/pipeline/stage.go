// Package pipeline implements the asynchronous feedback-processing
// pipeline: the polling scheduler and the four stage handlers that turn a
// raw submission into structured feedback records.
package pipeline

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Handler processes at most one claimed row inside the given transaction.
// It returns whether a row was found and processed. All per-row failures
// (moderation verdicts, completion errors, parse errors) are recorded into
// the row's processing_error and reported as processed; a returned error
// means the stage could not run at all and the transaction must be rolled
// back, leaving the row eligible for retry.
type Handler interface {
	Handle(ctx context.Context, tx pgx.Tx) (bool, error)
}

// Stage couples a handler with its name for logging. The scheduler runs
// stages in slice order within each pass; that order is the only thing
// sequencing SafetyCheck before Splitter for a given row.
type Stage struct {
	Name    string
	Handler Handler
}

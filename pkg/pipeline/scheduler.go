package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxBeginner opens transactions for stage invocations. *pgxpool.Pool and
// *database.DB satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SchedulerConfig tunes the polling loop.
type SchedulerConfig struct {
	// StageDeadline bounds one stage invocation. On expiry the stage
	// transaction is rolled back and nothing is recorded for that stage
	// this tick; the row stays eligible and is retried on a later pass.
	StageDeadline time.Duration

	// IdleInterval is how long to sleep after a pass in which no stage
	// processed a row.
	IdleInterval time.Duration
}

// Scheduler drives an ordered list of stages in a self-throttling poll:
// busy pipelines loop immediately, idle pipelines sleep IdleInterval
// between passes.
type Scheduler struct {
	db            TxBeginner
	stages        []Stage
	stageDeadline time.Duration
	idleInterval  time.Duration
	logger        *zap.Logger
}

// NewScheduler creates a scheduler over the given ordered stages.
func NewScheduler(db TxBeginner, stages []Stage, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	stageDeadline := cfg.StageDeadline
	if stageDeadline <= 0 {
		stageDeadline = 2 * time.Minute
	}
	idleInterval := cfg.IdleInterval
	if idleInterval <= 0 {
		idleInterval = 5 * time.Second
	}

	return &Scheduler{
		db:            db,
		stages:        stages,
		stageDeadline: stageDeadline,
		idleInterval:  idleInterval,
		logger:        logger.Named("scheduler"),
	}
}

// Run polls until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Pipeline scheduler started",
		zap.Int("stages", len(s.stages)),
		zap.Duration("stage_deadline", s.stageDeadline),
		zap.Duration("idle_interval", s.idleInterval))

	for {
		worked := s.RunOnce(ctx)

		if ctx.Err() != nil {
			s.logger.Info("Pipeline scheduler stopped")
			return nil
		}

		if worked {
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Pipeline scheduler stopped")
			return nil
		case <-time.After(s.idleInterval):
		}
	}
}

// RunOnce executes one pass over all stages in order and reports whether
// any stage processed a row.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	worked := false
	for _, stage := range s.stages {
		if ctx.Err() != nil {
			return worked
		}
		if s.runStage(ctx, stage) {
			worked = true
		}
	}
	return worked
}

// runStage races one stage invocation against the stage deadline inside a
// fresh transaction. The deadline cancels the stage context, so in-flight
// store and completion calls unwind promptly; the transaction is then
// rolled back and no partial writes survive.
func (s *Scheduler) runStage(ctx context.Context, stage Stage) bool {
	stageCtx, cancel := context.WithTimeout(ctx, s.stageDeadline)
	defer cancel()

	tx, err := s.db.Begin(stageCtx)
	if err != nil {
		s.logger.Error("Failed to begin stage transaction",
			zap.String("stage", stage.Name),
			zap.Error(err))
		return false
	}

	type outcome struct {
		processed bool
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		processed, err := stage.Handler.Handle(stageCtx, tx)
		done <- outcome{processed: processed, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-stageCtx.Done():
		// Deadline or shutdown won the race. Cancel the handler and wait
		// for it to unwind before the transaction is touched again.
		cancel()
		out = <-done
		out.err = stageCtx.Err()
	}

	if out.err != nil {
		rollback(tx)
		if errors.Is(out.err, context.DeadlineExceeded) {
			s.logger.Warn("Stage deadline exceeded, transaction rolled back",
				zap.String("stage", stage.Name),
				zap.Duration("deadline", s.stageDeadline))
		} else if !errors.Is(out.err, context.Canceled) {
			s.logger.Error("Stage failed, transaction rolled back",
				zap.String("stage", stage.Name),
				zap.Error(out.err))
		}
		return false
	}

	if err := tx.Commit(stageCtx); err != nil {
		rollback(tx)
		s.logger.Error("Failed to commit stage transaction",
			zap.String("stage", stage.Name),
			zap.Error(err))
		return false
	}

	return out.processed
}

func rollback(tx pgx.Tx) {
	// Rollback after a failed commit or on a cancelled context is
	// best-effort; pgx returns ErrTxClosed if the transaction is gone.
	_ = tx.Rollback(context.Background())
}

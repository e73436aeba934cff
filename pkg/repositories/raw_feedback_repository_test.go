package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwell/feedback-engine/pkg/models"
	"github.com/loopwell/feedback-engine/pkg/testhelpers"
)

// The test database is shared, so claim queries may surface rows created
// by other tests. claimUntil keeps claiming inside the same transaction
// (claimed rows stay locked, so each call advances) until it reaches one
// of the wanted rows or the queue is empty.
func claimUntil(t *testing.T, claim func() (*models.RawFeedback, error), wanted map[uuid.UUID]bool) *models.RawFeedback {
	t.Helper()
	for i := 0; i < 100; i++ {
		fb, err := claim()
		require.NoError(t, err)
		if fb == nil {
			return nil
		}
		if wanted[fb.ID] {
			return fb
		}
	}
	t.Fatal("claim queue did not drain")
	return nil
}

func TestRawFeedbackRepository_CreateAndGet(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()
	ctx := context.Background()

	email := "user@example.com"
	fb := &models.RawFeedback{
		ProjectID: uuid.New(),
		Email:     &email,
		Content:   "The exports page times out on large projects",
	}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, fb))
	require.NotEqual(t, uuid.Nil, fb.ID)
	assert.False(t, fb.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fb.Content, got.Content)
	require.NotNil(t, got.Email)
	assert.Equal(t, email, *got.Email)
	assert.Nil(t, got.SafetyCheckComplete)
	assert.Nil(t, got.ProcessingError)
}

func TestRawFeedbackRepository_GetByIDMissing(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()

	got, err := repo.GetByID(context.Background(), db.DB.Pool, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRawFeedbackRepository_ClaimIsExclusive(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()
	ctx := context.Background()

	fb := &models.RawFeedback{ProjectID: uuid.New(), Content: "claim me once"}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, fb))
	wanted := map[uuid.UUID]bool{fb.ID: true}

	tx1, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx1.Rollback(ctx)

	claimed := claimUntil(t, func() (*models.RawFeedback, error) {
		return repo.ClaimNextForSafetyCheck(ctx, tx1)
	}, wanted)
	require.NotNil(t, claimed)
	assert.Equal(t, fb.ID, claimed.ID)

	// A second transaction must skip the locked row.
	tx2, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)

	stolen := claimUntil(t, func() (*models.RawFeedback, error) {
		return repo.ClaimNextForSafetyCheck(ctx, tx2)
	}, wanted)
	assert.Nil(t, stolen)
}

func TestRawFeedbackRepository_RollbackLeavesRowClaimable(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()
	ctx := context.Background()

	fb := &models.RawFeedback{ProjectID: uuid.New(), Content: "timed out mid-stage"}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, fb))
	wanted := map[uuid.UUID]bool{fb.ID: true}

	tx1, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	claimed := claimUntil(t, func() (*models.RawFeedback, error) {
		return repo.ClaimNextForSafetyCheck(ctx, tx1)
	}, wanted)
	require.NotNil(t, claimed)
	require.NoError(t, tx1.Rollback(ctx))

	// Nothing from the aborted attempt stuck.
	got, err := repo.GetByID(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SafetyCheckComplete)

	tx2, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)
	reclaimed := claimUntil(t, func() (*models.RawFeedback, error) {
		return repo.ClaimNextForSafetyCheck(ctx, tx2)
	}, wanted)
	require.NotNil(t, reclaimed)
	assert.Equal(t, fb.ID, reclaimed.ID)
}

// Splitting eligibility deliberately ignores the safety timestamp; stage
// order within a scheduler pass is what keeps moderation first. Only a
// recorded processing_error removes a row from the splitting queue.
func TestRawFeedbackRepository_SplittingClaimIgnoresSafetyTimestamp(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()
	ctx := context.Background()

	fb := &models.RawFeedback{ProjectID: uuid.New(), Content: "not yet moderated"}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, fb))
	wanted := map[uuid.UUID]bool{fb.ID: true}

	tx, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	got := claimUntil(t, func() (*models.RawFeedback, error) {
		return repo.ClaimNextForSplitting(ctx, tx)
	}, wanted)
	require.NotNil(t, got)
	assert.Equal(t, fb.ID, got.ID)
}

func TestRawFeedbackRepository_UnsafeRowLeavesPipeline(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()
	ctx := context.Background()

	fb := &models.RawFeedback{ProjectID: uuid.New(), Content: "rejected content"}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, fb))
	wanted := map[uuid.UUID]bool{fb.ID: true}

	reason := "Unsafe content: abusive"
	require.NoError(t, repo.MarkSafetyCheckComplete(ctx, db.DB.Pool, fb.ID, &reason))

	got, err := repo.GetByID(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProcessingError)
	assert.Equal(t, reason, *got.ProcessingError)
	require.NotNil(t, got.SafetyCheckComplete)

	tx, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	claimed := claimUntil(t, func() (*models.RawFeedback, error) {
		return repo.ClaimNextForSplitting(ctx, tx)
	}, wanted)
	assert.Nil(t, claimed)
}

func TestRawFeedbackRepository_MarkSplittingCompleteClearsError(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()
	ctx := context.Background()

	fb := &models.RawFeedback{ProjectID: uuid.New(), Content: "flaky then fine"}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, fb))
	require.NoError(t, repo.MarkSafetyCheckComplete(ctx, db.DB.Pool, fb.ID, nil))
	require.NoError(t, repo.SetProcessingError(ctx, db.DB.Pool, fb.ID, "splitting: transient failure"))
	require.NoError(t, repo.MarkSplittingComplete(ctx, db.DB.Pool, fb.ID))

	got, err := repo.GetByID(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProcessingError)
	assert.NotNil(t, got.SplittingComplete)
}

func TestRawFeedbackRepository_MarkMissingRow(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewRawFeedbackRepository()

	err := repo.MarkProcessingComplete(context.Background(), db.DB.Pool, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

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

func createSplitFeedback(t *testing.T, db *testhelpers.TestDB, contents ...string) (*models.RawFeedback, []*models.RawFeedbackItem) {
	t.Helper()
	ctx := context.Background()

	rawRepo := NewRawFeedbackRepository()
	itemRepo := NewRawFeedbackItemRepository()

	fb := &models.RawFeedback{ProjectID: uuid.New(), Content: "fixture"}
	require.NoError(t, rawRepo.Create(ctx, db.DB.Pool, fb))
	require.NoError(t, rawRepo.MarkSafetyCheckComplete(ctx, db.DB.Pool, fb.ID, nil))

	items, err := itemRepo.CreateBatch(ctx, db.DB.Pool, fb.ID, contents)
	require.NoError(t, err)
	require.Len(t, items, len(contents))
	require.NoError(t, rawRepo.MarkSplittingComplete(ctx, db.DB.Pool, fb.ID))

	return fb, items
}

func claimItemUntil(t *testing.T, claim func() (*models.RawFeedbackItem, error), wanted map[uuid.UUID]bool) *models.RawFeedbackItem {
	t.Helper()
	for i := 0; i < 100; i++ {
		item, err := claim()
		require.NoError(t, err)
		if item == nil {
			return nil
		}
		if wanted[item.ID] {
			return item
		}
	}
	t.Fatal("claim queue did not drain")
	return nil
}

func TestRawFeedbackItemRepository_CreateBatchPreservesOrder(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	itemRepo := NewRawFeedbackItemRepository()

	fb, items := createSplitFeedback(t, db, "first concern", "second concern")

	listed, err := itemRepo.ListByRawFeedback(context.Background(), db.DB.Pool, fb.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, items[0].ID, listed[0].ID)
	assert.Equal(t, "first concern", listed[0].Content)
	assert.Equal(t, "second concern", listed[1].Content)
}

func TestRawFeedbackItemRepository_SentimentClaimAndMark(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	itemRepo := NewRawFeedbackItemRepository()
	ctx := context.Background()

	fb, items := createSplitFeedback(t, db, "search is painfully slow")
	wanted := map[uuid.UUID]bool{items[0].ID: true}

	tx, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	claimed := claimItemUntil(t, func() (*models.RawFeedbackItem, error) {
		return itemRepo.ClaimNextForSentimentCheck(ctx, tx)
	}, wanted)
	require.NotNil(t, claimed)

	require.NoError(t, itemRepo.MarkSentimentChecked(ctx, tx, claimed.ID, models.SentimentNegative))
	require.NoError(t, tx.Commit(ctx))

	listed, err := itemRepo.ListByRawFeedback(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].SentimentCheckResult)
	assert.Equal(t, models.SentimentNegative, *listed[0].SentimentCheckResult)
	assert.NotNil(t, listed[0].SentimentCheckComplete)
}

func TestRawFeedbackItemRepository_AssociationClaimCarriesProject(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	itemRepo := NewRawFeedbackItemRepository()
	ctx := context.Background()

	fb, items := createSplitFeedback(t, db, "dark mode please")
	wanted := map[uuid.UUID]bool{items[0].ID: true}

	tx, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	claimed := claimItemUntil(t, func() (*models.RawFeedbackItem, error) {
		return itemRepo.ClaimNextForAssociation(ctx, tx)
	}, wanted)
	require.NotNil(t, claimed)
	assert.Equal(t, fb.ProjectID, claimed.ProjectID)
	assert.Equal(t, fb.ID, claimed.RawFeedbackID)
}

func TestRawFeedbackItemRepository_ErroredItemNotClaimable(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	itemRepo := NewRawFeedbackItemRepository()
	ctx := context.Background()

	_, items := createSplitFeedback(t, db, "keeps failing")
	require.NoError(t, itemRepo.SetProcessingError(ctx, db.DB.Pool, items[0].ID, "sentiment check: boom"))
	wanted := map[uuid.UUID]bool{items[0].ID: true}

	tx, err := db.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	claimed := claimItemUntil(t, func() (*models.RawFeedbackItem, error) {
		return itemRepo.ClaimNextForSentimentCheck(ctx, tx)
	}, wanted)
	assert.Nil(t, claimed)
}

func TestRawFeedbackItemRepository_AllItemsAssociated(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	itemRepo := NewRawFeedbackItemRepository()
	ctx := context.Background()

	fb, items := createSplitFeedback(t, db, "one", "two")

	done, err := itemRepo.AllItemsAssociated(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, itemRepo.MarkAssociationComplete(ctx, db.DB.Pool, items[0].ID))
	done, err = itemRepo.AllItemsAssociated(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, itemRepo.MarkAssociationComplete(ctx, db.DB.Pool, items[1].ID))
	done, err = itemRepo.AllItemsAssociated(ctx, db.DB.Pool, fb.ID)
	require.NoError(t, err)
	assert.True(t, done)
}

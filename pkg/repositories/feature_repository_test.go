package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwell/feedback-engine/pkg/apperrors"
	"github.com/loopwell/feedback-engine/pkg/models"
	"github.com/loopwell/feedback-engine/pkg/testhelpers"
)

// testVector returns a 1536-dim unit-ish vector dominated by one axis so
// cosine distances order predictably in search tests.
func testVector(axis int) pgvector.Vector {
	v := make([]float32, 1536)
	v[axis] = 1
	v[(axis+1)%1536] = 0.1
	return pgvector.NewVector(v)
}

func TestFeatureRepository_CreateAndGet(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewFeatureRepository()
	ctx := context.Background()

	projectID := uuid.New()
	feature := &models.Feature{
		ProjectID:     projectID,
		Name:          "Dark Mode",
		Description:   "A dark color theme for the UI",
		NameEmbedding: testVector(0),
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, feature))
	require.NotEqual(t, uuid.Nil, feature.ID)

	got, err := repo.GetByID(ctx, db.DB.Pool, projectID, feature.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dark Mode", got.Name)

	// Scoped to the owning project.
	got, err = repo.GetByID(ctx, db.DB.Pool, uuid.New(), feature.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFeatureRepository_NameUniqueCaseInsensitive(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewFeatureRepository()
	ctx := context.Background()

	projectID := uuid.New()
	first := &models.Feature{
		ProjectID:     projectID,
		Name:          "Dark Mode",
		NameEmbedding: testVector(1),
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, first))

	dup := &models.Feature{
		ProjectID:     projectID,
		Name:          "dark mode",
		NameEmbedding: testVector(2),
		CreatedBy:     uuid.New(),
	}
	err := repo.Create(ctx, db.DB.Pool, dup)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Same name in another project is fine.
	other := &models.Feature{
		ProjectID:     uuid.New(),
		Name:          "Dark Mode",
		NameEmbedding: testVector(3),
		CreatedBy:     uuid.New(),
	}
	assert.NoError(t, repo.Create(ctx, db.DB.Pool, other))
}

func TestFeatureRepository_GetByNameIgnoresCase(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewFeatureRepository()
	ctx := context.Background()

	projectID := uuid.New()
	feature := &models.Feature{
		ProjectID:     projectID,
		Name:          "Keyboard Shortcuts",
		NameEmbedding: testVector(4),
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, feature))

	got, err := repo.GetByName(ctx, db.DB.Pool, projectID, "keyboard SHORTCUTS")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, feature.ID, got.ID)

	got, err = repo.GetByName(ctx, db.DB.Pool, projectID, "unrelated")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFeatureRepository_SearchByEmbeddingOrdersByDistance(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewFeatureRepository()
	ctx := context.Background()

	projectID := uuid.New()
	near := &models.Feature{ProjectID: projectID, Name: "Search Speed", NameEmbedding: testVector(10), CreatedBy: uuid.New()}
	far := &models.Feature{ProjectID: projectID, Name: "Billing", NameEmbedding: testVector(500), CreatedBy: uuid.New()}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, near))
	require.NoError(t, repo.Create(ctx, db.DB.Pool, far))

	// Other project's features must not leak into results.
	foreign := &models.Feature{ProjectID: uuid.New(), Name: "Search Speed", NameEmbedding: testVector(10), CreatedBy: uuid.New()}
	require.NoError(t, repo.Create(ctx, db.DB.Pool, foreign))

	candidates, err := repo.SearchByEmbedding(ctx, db.DB.Pool, projectID, testVector(10), 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, near.ID, candidates[0].ID)
	assert.Equal(t, far.ID, candidates[1].ID)
	assert.Less(t, candidates[0].Distance, candidates[1].Distance)
}

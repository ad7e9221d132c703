package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dassyor/internal/model"
)

func TestPhaseCatalogSeedAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewPhaseRepository(GetTestDB())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	phases := seedCatalog(t, 4)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	listed, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	for i, p := range listed {
		assert.Equal(t, i+1, p.OrderIndex)
	}

	got, err := repo.GetByID(ctx, phases[2].ID)
	require.NoError(t, err)
	assert.Equal(t, phases[2].Name, got.Name)
}

func TestPhaseNamesAreUnique(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewPhaseRepository(GetTestDB())

	dup := []*model.Phase{
		{ID: uuid.New(), Name: "Identify problem", OrderIndex: 1, IsActive: true},
		{ID: uuid.New(), Name: "Identify problem", OrderIndex: 2, IsActive: true},
	}
	require.Error(t, repo.InsertBatch(ctx, dup))

	// The batch is all or nothing.
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

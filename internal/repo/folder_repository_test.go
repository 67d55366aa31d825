package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restora/models"
)

func mkFolder(ownerID, name string, parentID *string, sortOrder int) *models.Folder {
	return &models.Folder{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ParentID:  parentID,
		Name:      name,
		SortOrder: sortOrder,
	}
}

func TestFolderRepository_ListOrdering(t *testing.T) {
	db := newTestDB(t)
	r := NewFolderRepository(db)
	ctx := context.Background()

	// same sort order resolves by name; lower sort order wins overall
	require.NoError(t, r.Create(ctx, mkFolder("owner-1", "zebra", nil, 0)))
	require.NoError(t, r.Create(ctx, mkFolder("owner-1", "apple", nil, 0)))
	require.NoError(t, r.Create(ctx, mkFolder("owner-1", "first", nil, -1)))
	require.NoError(t, r.Create(ctx, mkFolder("owner-2", "other", nil, 0)))

	folders, err := r.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, folders, 3)
	assert.Equal(t, "first", folders[0].Name)
	assert.Equal(t, "apple", folders[1].Name)
	assert.Equal(t, "zebra", folders[2].Name)
}

func TestFolderRepository_SoftDeleteExcludesFromList(t *testing.T) {
	db := newTestDB(t)
	r := NewFolderRepository(db)
	ctx := context.Background()

	f := mkFolder("owner-1", "attic", nil, 0)
	require.NoError(t, r.Create(ctx, f))
	require.NoError(t, r.SoftDelete(ctx, "owner-1", f.ID))

	folders, err := r.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, folders)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"restora/models"
)

func newFolderService(t *testing.T) *FolderService {
	t.Helper()
	return NewFolderService(newTestDB(t), zap.NewNop().Sugar())
}

func strptr(s string) *string { return &s }

func TestBuildTree_NestingAndOrder(t *testing.T) {
	now := time.Now().UTC()
	folders := []models.Folder{
		{ID: "a", Name: "Archive", SortOrder: 1, CreatedAt: now},
		{ID: "b", Name: "Family", SortOrder: 0, CreatedAt: now},
		{ID: "c", Name: "Weddings", ParentID: strptr("b"), SortOrder: 0, CreatedAt: now},
		{ID: "d", Name: "Holidays", ParentID: strptr("b"), SortOrder: 0, CreatedAt: now},
		{ID: "e", Name: "1950s", ParentID: strptr("a"), SortOrder: 0, CreatedAt: now},
	}

	roots := BuildTree(folders)
	require.Len(t, roots, 2)
	// sort_order first, then name
	assert.Equal(t, "b", roots[0].ID)
	assert.Equal(t, "a", roots[1].ID)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "Holidays", roots[0].Children[0].Name)
	assert.Equal(t, "Weddings", roots[0].Children[1].Name)

	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, "1950s", roots[1].Children[0].Name)
}

func TestBuildTree_DanglingParentBecomesRoot(t *testing.T) {
	folders := []models.Folder{
		{ID: "x", Name: "Orphan", ParentID: strptr("missing")},
	}
	roots := BuildTree(folders)
	require.Len(t, roots, 1)
	assert.Equal(t, "x", roots[0].ID)
}

func TestBuildTree_Empty(t *testing.T) {
	assert.NotNil(t, BuildTree(nil))
	assert.Empty(t, BuildTree(nil))
}

func TestFolderService_CreateRequiresName(t *testing.T) {
	s := newFolderService(t)
	_, err := s.Create(context.Background(), "owner-1", "", nil, 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFolderService_CreateUnderMissingParent(t *testing.T) {
	s := newFolderService(t)
	_, err := s.Create(context.Background(), "owner-1", "child", strptr("1b8d7e0a-0000-0000-0000-000000000000"), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFolderService_RejectsCycles(t *testing.T) {
	s := newFolderService(t)
	ctx := context.Background()

	root, err := s.Create(ctx, "owner-1", "root", nil, 0)
	require.NoError(t, err)
	child, err := s.Create(ctx, "owner-1", "child", &root.ID, 0)
	require.NoError(t, err)
	grandchild, err := s.Create(ctx, "owner-1", "grandchild", &child.ID, 0)
	require.NoError(t, err)

	// direct self-parent
	_, err = s.Update(ctx, "owner-1", root.ID, FolderUpdate{ParentID: &root.ID})
	assert.ErrorIs(t, err, ErrInvalid)

	// descendant as parent
	_, err = s.Update(ctx, "owner-1", root.ID, FolderUpdate{ParentID: &grandchild.ID})
	assert.ErrorIs(t, err, ErrInvalid)

	// legal reparenting still works
	updated, err := s.Update(ctx, "owner-1", grandchild.ID, FolderUpdate{ParentID: &root.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, root.ID, *updated.ParentID)
}

func TestFolderService_TreeIsOwnerScoped(t *testing.T) {
	s := newFolderService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "owner-1", "mine", nil, 0)
	require.NoError(t, err)
	_, err = s.Create(ctx, "owner-2", "theirs", nil, 0)
	require.NoError(t, err)

	tree, err := s.Tree(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "mine", tree[0].Name)
}

func TestFolderService_ClearParentMovesToRoot(t *testing.T) {
	s := newFolderService(t)
	ctx := context.Background()

	root, err := s.Create(ctx, "owner-1", "root", nil, 0)
	require.NoError(t, err)
	child, err := s.Create(ctx, "owner-1", "child", &root.ID, 0)
	require.NoError(t, err)

	updated, err := s.Update(ctx, "owner-1", child.ID, FolderUpdate{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"restora/internal/repo"
	"restora/models"
)

// FolderService manages the per-owner folder tree. The schema does not
// prevent cycles, so parent assignment is checked here before writing.
type FolderService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewFolderService(db *gorm.DB, logger *zap.SugaredLogger) *FolderService {
	return &FolderService{db: db, logger: logger}
}

type FolderNode struct {
	ID        string        `json:"id"`
	ParentID  *string       `json:"parent_id,omitempty"`
	Name      string        `json:"name"`
	SortOrder int           `json:"sort_order"`
	CreatedAt time.Time     `json:"created_at"`
	Children  []*FolderNode `json:"children"`
}

// BuildTree converts a flat folder list into a tree. Nodes whose parent is
// missing from the list are treated as roots, so a dangling parent pointer
// cannot hide a subtree. Siblings are ordered by (sort_order, name).
func BuildTree(folders []models.Folder) []*FolderNode {
	byID := make(map[string]*FolderNode, len(folders))
	for _, f := range folders {
		byID[f.ID] = &FolderNode{
			ID:        f.ID,
			ParentID:  f.ParentID,
			Name:      f.Name,
			SortOrder: f.SortOrder,
			CreatedAt: f.CreatedAt,
			Children:  []*FolderNode{},
		}
	}

	var roots []*FolderNode
	for _, f := range folders {
		node := byID[f.ID]
		if f.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[*f.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	var sortNodes func(nodes []*FolderNode)
	sortNodes = func(nodes []*FolderNode) {
		sort.SliceStable(nodes, func(i, j int) bool {
			if nodes[i].SortOrder != nodes[j].SortOrder {
				return nodes[i].SortOrder < nodes[j].SortOrder
			}
			return nodes[i].Name < nodes[j].Name
		})
		for _, n := range nodes {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)

	if roots == nil {
		roots = []*FolderNode{}
	}
	return roots
}

// Tree returns the owner's full folder tree.
func (s *FolderService) Tree(ctx context.Context, ownerID string) ([]*FolderNode, error) {
	folders, err := repo.NewFolderRepository(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return BuildTree(folders), nil
}

// checkCycle rejects a parent assignment that would make folderID its own
// ancestor. The walk is bounded in case existing data already contains a
// loop.
func (s *FolderService) checkCycle(ctx context.Context, folders repo.FolderRepository, ownerID, folderID, parentID string) error {
	const maxDepth = 100
	current := parentID
	for i := 0; i < maxDepth; i++ {
		if current == folderID {
			return fmt.Errorf("%w: folder cannot be its own ancestor", ErrInvalid)
		}
		parent, err := folders.GetByID(ctx, ownerID, current)
		if err != nil {
			return dbErr(err)
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return fmt.Errorf("%w: folder hierarchy too deep", ErrInvalid)
}

func (s *FolderService) Create(ctx context.Context, ownerID, name string, parentID *string, sortOrder int) (*models.Folder, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: folder name required", ErrInvalid)
	}
	folders := repo.NewFolderRepository(s.db)
	if parentID != nil {
		if _, err := folders.GetByID(ctx, ownerID, *parentID); err != nil {
			return nil, dbErr(err)
		}
	}
	folder := &models.Folder{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ParentID:  parentID,
		Name:      name,
		SortOrder: sortOrder,
	}
	if err := folders.Create(ctx, folder); err != nil {
		return nil, err
	}
	s.logger.Infow("folder created", "folder_id", folder.ID, "name", folder.Name)
	return folder, nil
}

// FolderUpdate lists the fields a folder PATCH may change.
type FolderUpdate struct {
	Name        *string
	SortOrder   *int
	ParentID    *string
	ClearParent bool
}

func (s *FolderService) Update(ctx context.Context, ownerID, folderID string, u FolderUpdate) (*models.Folder, error) {
	folders := repo.NewFolderRepository(s.db)

	fields := map[string]any{}
	if u.Name != nil {
		if *u.Name == "" {
			return nil, fmt.Errorf("%w: folder name required", ErrInvalid)
		}
		fields["name"] = *u.Name
	}
	if u.SortOrder != nil {
		fields["sort_order"] = *u.SortOrder
	}
	switch {
	case u.ClearParent:
		fields["parent_id"] = nil
	case u.ParentID != nil:
		if *u.ParentID == folderID {
			return nil, fmt.Errorf("%w: folder cannot be its own parent", ErrInvalid)
		}
		if err := s.checkCycle(ctx, folders, ownerID, folderID, *u.ParentID); err != nil {
			return nil, err
		}
		fields["parent_id"] = *u.ParentID
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalid)
	}

	if err := folders.Update(ctx, ownerID, folderID, fields); err != nil {
		return nil, dbErr(err)
	}
	folder, err := folders.GetByID(ctx, ownerID, folderID)
	if err != nil {
		return nil, dbErr(err)
	}
	return folder, nil
}

// Delete soft-deletes a folder. Photos pointing at it keep their folder_id;
// listings treat an unresolvable folder like any other filter miss.
func (s *FolderService) Delete(ctx context.Context, ownerID, folderID string) error {
	if err := repo.NewFolderRepository(s.db).SoftDelete(ctx, ownerID, folderID); err != nil {
		return dbErr(err)
	}
	s.logger.Infow("folder deleted", "folder_id", folderID)
	return nil
}

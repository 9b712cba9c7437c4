package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/category"
	"github.com/fekuna/omnipos-stock-service/internal/category/dto"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo     category.Repository
	resolver *visibility.Resolver
	logger   logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, resolver *visibility.Resolver, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:     repo,
		resolver: resolver,
		logger:   log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.InvalidArgument("category name is required")
	}

	parentID := input.ParentID
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		if _, err := uc.GetCategory(ctx, *parentID, input.BranchID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ParentID:    parentID,
		Name:        name,
		Description: model.StringPtr(input.Description),
		BranchID:    model.StringPtr(input.BranchID),
		IsShared:    input.IsShared,
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id, branchID string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.NotFound("category", id)
	}
	if err := uc.resolver.Check(ctx, visibility.Categories, id, cat, branchID); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	all, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	visible, err := visibility.Filter(ctx, uc.resolver, visibility.Categories, all, filters.BranchID)
	if err != nil {
		return nil, 0, err
	}

	if filters.IncludeChildren {
		// Children are fetched unfiltered by parent so the tree can be built.
		sub := *filters
		sub.ParentID = nil
		everything, err := uc.repo.FindAll(ctx, &sub)
		if err != nil {
			return nil, 0, err
		}
		everything, err = visibility.Filter(ctx, uc.resolver, visibility.Categories, everything, filters.BranchID)
		if err != nil {
			return nil, 0, err
		}
		visible = buildTree(visible, everything)
	}

	return memory.Paginate(visible, filters.Page, filters.PageSize), len(visible), nil
}

// buildTree attaches descendants from pool to each of roots.
func buildTree(roots, pool []model.Category) []model.Category {
	byParent := map[string][]model.Category{}
	for _, c := range pool {
		if c.ParentID != nil {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}

	seen := map[string]bool{}
	var attach func(c model.Category) model.Category
	attach = func(c model.Category) model.Category {
		if seen[c.ID] {
			return c
		}
		seen[c.ID] = true
		for _, child := range byParent[c.ID] {
			c.Children = append(c.Children, attach(child))
		}
		return c
	}

	out := make([]model.Category, len(roots))
	for i, r := range roots {
		out[i] = attach(r)
	}
	return out
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.GetCategory(ctx, input.ID, input.BranchID)
	if err != nil {
		return nil, err
	}

	parentID := input.ParentID
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		if *parentID == cat.ID {
			return nil, apperror.InvalidArgument("category cannot be its own parent")
		}
		if err := uc.checkNoCycle(ctx, cat.ID, *parentID); err != nil {
			return nil, err
		}
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		cat.Name = name
	}
	cat.Description = model.StringPtr(input.Description)
	cat.IsShared = input.IsShared
	cat.SortOrder = input.SortOrder
	cat.IsActive = input.IsActive
	cat.ParentID = parentID
	cat.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// checkNoCycle walks up from parentID and fails if it reaches id.
func (uc *categoryUseCase) checkNoCycle(ctx context.Context, id, parentID string) error {
	current := parentID
	for depth := 0; current != ""; depth++ {
		if current == id || depth > 64 {
			return apperror.InvalidArgument("category parent would create a cycle")
		}
		c, err := uc.repo.FindByID(ctx, current)
		if err != nil {
			return err
		}
		if c == nil {
			return apperror.NotFound("category", current)
		}
		current = model.StringValue(c.ParentID)
	}
	return nil
}

func (uc *categoryUseCase) DeactivateCategory(ctx context.Context, id, branchID string) error {
	cat, err := uc.GetCategory(ctx, id, branchID)
	if err != nil {
		return err
	}
	if !cat.IsActive {
		return nil
	}
	cat.IsActive = false
	cat.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, cat); err != nil {
		return err
	}
	uc.logger.Info("category deactivated", zap.String("category_id", id), zap.String("branch_id", branchID))
	return nil
}

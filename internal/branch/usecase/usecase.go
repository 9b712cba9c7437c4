package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/branch"
	"github.com/fekuna/omnipos-stock-service/internal/branch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Policy reads through Lookup may lag a write by up to this long on other
// instances; the writing instance invalidates immediately.
const branchCacheTTL = 5 * time.Minute

type branchUseCase struct {
	repo   branch.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewBranchUseCase(repo branch.Repository, cache *cache.RedisClient, log logger.ZapLogger) branch.UseCase {
	return &branchUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *branchUseCase) RegisterBranch(ctx context.Context, input *dto.RegisterBranchInput) (*model.Branch, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if name == "" || code == "" {
		return nil, apperror.InvalidArgument("branch name and code are required")
	}
	mode := input.Mode
	if mode == "" {
		mode = model.IsolationIsolated
	}
	if !mode.Valid() {
		return nil, apperror.InvalidArgument(fmt.Sprintf("unknown isolation mode %q", mode))
	}

	existing, err := uc.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.KindInvalidArgument, "branch code already in use", map[string]string{"code": code})
	}

	now := time.Now().UTC()
	b := &model.Branch{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:              name,
		Code:              code,
		IsActive:          true,
		DataIsolationMode: mode,
		SharingFlags:      input.Flags,
	}
	if err := uc.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	uc.logger.Info("branch registered", zap.String("branch_id", b.ID), zap.String("code", code), zap.String("mode", string(mode)))
	return b, nil
}

func (uc *branchUseCase) UpdatePolicy(ctx context.Context, input *dto.UpdatePolicyInput) (*model.Branch, error) {
	if !input.Mode.Valid() {
		return nil, apperror.InvalidArgument(fmt.Sprintf("unknown isolation mode %q", input.Mode))
	}
	b, err := uc.GetBranch(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	b.DataIsolationMode = input.Mode
	b.SharingFlags = input.Flags
	if input.IsActive != nil {
		b.IsActive = *input.IsActive
	}
	b.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, b.ID)
	return b, nil
}

func (uc *branchUseCase) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	b, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperror.NotFound("branch", id)
	}
	return b, nil
}

func (uc *branchUseCase) ListBranches(ctx context.Context, activeOnly bool) ([]model.Branch, error) {
	return uc.repo.FindAll(ctx, activeOnly)
}

func (uc *branchUseCase) Lookup(ctx context.Context, id string) (*model.Branch, error) {
	if id == "" {
		return nil, nil
	}

	key := cacheKey(id)
	if uc.cache != nil {
		var cached model.Branch
		hit, err := uc.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			uc.logger.Warn("branch cache read failed", zap.String("branch_id", id), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	b, err := uc.repo.FindByID(ctx, id)
	if err != nil || b == nil {
		return b, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, key, b, branchCacheTTL); err != nil {
			uc.logger.Warn("branch cache write failed", zap.String("branch_id", id), zap.Error(err))
		}
	}
	return b, nil
}

func (uc *branchUseCase) RequireActive(ctx context.Context, id string) (*model.Branch, error) {
	b, err := uc.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperror.NotFound("branch", id)
	}
	if !b.IsActive {
		return nil, apperror.New(apperror.KindInvalidArgument, "branch is inactive", map[string]string{"branch_id": id})
	}
	return b, nil
}

func (uc *branchUseCase) invalidate(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, cacheKey(id)); err != nil {
		uc.logger.Warn("branch cache invalidation failed", zap.String("branch_id", id), zap.Error(err))
	}
}

func cacheKey(id string) string {
	return "branches:" + id
}

package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperror"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const listCacheTTL = time.Minute

type productUseCase struct {
	repo     product.Repository
	resolver *visibility.Resolver
	cache    *cache.RedisClient
	logger   logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, resolver *visibility.Resolver, cache *cache.RedisClient, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:     repo,
		resolver: resolver,
		cache:    cache,
		logger:   log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" || sku == "" {
		return nil, apperror.InvalidArgument("product name and sku are required")
	}

	unique, err := uc.repo.IsSKUUnique(ctx, sku, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperror.New(apperror.KindInvalidArgument, "sku already exists", map[string]string{"sku": sku})
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:        name,
		SKU:         sku,
		Description: model.StringPtr(input.Description),
		CategoryID:  model.StringPtr(input.CategoryID),
		SupplierID:  model.StringPtr(input.SupplierID),
		BranchID:    model.StringPtr(input.BranchID),
		IsShared:    input.IsShared,
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateListCache(ctx)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id, branchID string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound("product", id)
	}
	if err := uc.resolver.Check(ctx, visibility.Products, id, p, branchID); err != nil {
		return nil, err
	}
	return p, nil
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	// 1. Generate Cache Key
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		// 2. Check Cache
		var result cachedList
		hit, err := uc.cache.GetJSON(ctx, cacheKey, &result)
		if err != nil {
			uc.logger.Warn("product list cache read failed", zap.Error(err))
		} else if hit {
			return result.Products, result.Count, nil
		}
	}

	// 3. DB Query, then drop what the requesting branch may not see
	all, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	visible, err := visibility.Filter(ctx, uc.resolver, visibility.Products, all, filters.BranchID)
	if err != nil {
		return nil, 0, err
	}
	count := len(visible)
	products := memory.Paginate(visible, filters.Page, filters.PageSize)

	// 4. Set Cache
	if cacheKey != "" && uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, cacheKey, cachedList{Products: products, Count: count}, listCacheTTL); err != nil {
			uc.logger.Warn("product list cache write failed", zap.Error(err))
		}
	}

	return products, count, nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%s:%x", filters.BranchID, md5.Sum(data)), nil
}

// invalidateListCache drops every branch's list cache; a product's
// visibility can change for branches other than its owner.
func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, product.ListCachePattern); err != nil {
		uc.logger.Warn("product list cache invalidation failed", zap.Error(err))
	}
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.ID, input.BranchID)
	if err != nil {
		return nil, err
	}

	sku := strings.TrimSpace(input.SKU)
	if sku != "" && p.SKU != sku {
		unique, err := uc.repo.IsSKUUnique(ctx, sku, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, apperror.New(apperror.KindInvalidArgument, "sku already exists", map[string]string{"sku": sku})
		}
		p.SKU = sku
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		p.Name = name
	}
	p.Description = model.StringPtr(input.Description)
	p.CategoryID = model.StringPtr(input.CategoryID)
	p.SupplierID = model.StringPtr(input.SupplierID)
	p.IsShared = input.IsShared
	p.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateListCache(ctx)
	return p, nil
}

func (uc *productUseCase) DeactivateProduct(ctx context.Context, id, branchID string) error {
	p, err := uc.GetProduct(ctx, id, branchID)
	if err != nil {
		return err
	}
	if p.BranchID != nil && *p.BranchID != branchID {
		return apperror.New(apperror.KindInvalidArgument, "only the owning branch may deactivate a product", map[string]string{
			"product_id": id,
			"branch_id":  branchID,
		})
	}
	if !p.IsActive {
		return nil
	}

	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, p); err != nil {
		return err
	}

	uc.logger.Info("product deactivated", zap.String("product_id", id), zap.String("branch_id", branchID))
	uc.invalidateListCache(ctx)
	return nil
}

//go:generate mockgen -source=category_service.go -destination=../mocks/category_service.go -package=mocks .

package service

import (
	"context"
	"errors"
	"strings"

	"case-service/internal/models"
	"case-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Search(ctx context.Context, name string) ([]*models.Category, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error

	// Requests referencing the category keep existing with no category
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryCache holds the full category list. A cache that fails is treated
// as a miss.
type CategoryCache interface {
	Get(ctx context.Context) ([]*models.Category, bool)
	Set(ctx context.Context, categories []*models.Category)
	Invalidate(ctx context.Context)
}

type noCache struct{}

func (noCache) Get(context.Context) ([]*models.Category, bool) { return nil, false }
func (noCache) Set(context.Context, []*models.Category)        {}
func (noCache) Invalidate(context.Context)                     {}

type CategoryService struct {
	categoryRepo CategoryRepository
	cache        CategoryCache

	log *zap.Logger
}

func NewCategoryService(categoryRepo CategoryRepository, cache CategoryCache, log *zap.Logger) *CategoryService {
	if cache == nil {
		cache = noCache{}
	}

	return &CategoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		log:          log,
	}
}

func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	c := &models.Category{ID: uuid.New(), Name: name}

	if err := s.categoryRepo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		s.log.Error("failed to create category",
			zap.Error(err),
			zap.String("name", name),
		)
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.log.Info("category created",
		zap.String("category_id", c.ID.String()),
	)

	return c, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	if categories, ok := s.cache.Get(ctx); ok {
		return categories, nil
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		s.log.Error("failed to list categories", zap.Error(err))
		return nil, err
	}

	s.cache.Set(ctx, categories)

	return categories, nil
}

func (s *CategoryService) SearchCategories(ctx context.Context, query string) ([]*models.Category, error) {
	categories, err := s.categoryRepo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		s.log.Error("failed to search categories", zap.Error(err))
		return nil, err
	}
	return categories, nil
}

func (s *CategoryService) RenameCategory(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}

	if err := s.categoryRepo.Rename(ctx, id, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrCategoryNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return ErrCategoryExists
		}
		s.log.Error("failed to rename category",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return err
	}

	s.cache.Invalidate(ctx)

	return nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		s.log.Error("failed to delete category",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return err
	}

	s.cache.Invalidate(ctx)
	s.log.Info("category deleted",
		zap.String("category_id", id.String()),
	)

	return nil
}

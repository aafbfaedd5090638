// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"blog/internal/cache"
	"blog/internal/models"
	"blog/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	List(ctx context.Context, filter ArticleFilter, sort []SortOrder, page PageRequest) ([]models.Article, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type articleRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewArticleRepository returns a GORM-backed ArticleRepository. store may be
// nil to disable caching.
func NewArticleRepository(db *gorm.DB, store *cache.Store) ArticleRepository {
	return &articleRepository{db: db, cache: store}
}

func withPeople(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Editor")
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter, sort []SortOrder, page PageRequest) ([]models.Article, error) {
	defer observability.TrackRepository("list", "articles")()

	var articles []models.Article
	err := withPeople(r.db.WithContext(ctx)).
		Scopes(ArticleScopes(filter)...).
		Scopes(OrderScope(sort), PageScope(page)).
		Find(&articles).Error
	if err != nil {
		return nil, models.NewInternalError("", err)
	}
	return articles, nil
}

// GetByID returns NotFound "Article not found" when id is unknown. Found
// articles are cached until the next mutation.
func (r *articleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	defer observability.TrackRepository("get", "articles")()

	var article models.Article
	err := r.cache.Aside(ctx, "article", cache.ArticleKey(id), &article, func() error {
		if err := withPeople(r.db.WithContext(ctx)).First(&article, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Article")
			}
			return models.NewInternalError("", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	defer observability.TrackRepository("create", "articles")()

	if err := r.db.WithContext(ctx).Omit("Author", "Editor", "Comments").Create(article).Error; err != nil {
		return models.NewInternalError("", err)
	}
	return nil
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	defer observability.TrackRepository("update", "articles")()

	if err := r.db.WithContext(ctx).Omit("Author", "Editor", "Comments").Save(article).Error; err != nil {
		return models.NewInternalError("", err)
	}
	r.cache.Invalidate(ctx, cache.ArticleKey(article.ID), cache.ArticleCommentsKey(article.ID))
	return nil
}

// Delete removes the article and its comments in one transaction.
func (r *articleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackRepository("delete", "articles")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Article{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Article")
		}
		return nil
	})
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError("", err)
	}
	r.cache.Invalidate(ctx, cache.ArticleKey(id), cache.ArticleCommentsKey(id))
	return nil
}

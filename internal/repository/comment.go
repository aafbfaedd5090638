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

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByArticle(ctx context.Context, articleID uuid.UUID) ([]models.Comment, error)
	ListAll(ctx context.Context) ([]models.Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type commentRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

func NewCommentRepository(db *gorm.DB, store *cache.Store) CommentRepository {
	return &commentRepository{db: db, cache: store}
}

func commentDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Article").
		Preload("Article.Author").
		Preload("Article.Editor").
		Preload("Author").
		Preload("Editor")
}

// ListByArticle returns comments in insertion order.
func (r *commentRepository) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]models.Comment, error) {
	defer observability.TrackRepository("list_by_article", "comments")()

	var comments []models.Comment
	err := r.cache.Aside(ctx, "comments", cache.ArticleCommentsKey(articleID), &comments, func() error {
		return commentDetails(r.db.WithContext(ctx)).
			Where("article_id = ?", articleID).
			Order("date_created ASC").
			Order("id ASC").
			Find(&comments).Error
	})
	if err != nil {
		return nil, models.NewInternalError("", err)
	}
	return comments, nil
}

func (r *commentRepository) ListAll(ctx context.Context) ([]models.Comment, error) {
	defer observability.TrackRepository("list", "comments")()

	var comments []models.Comment
	if err := commentDetails(r.db.WithContext(ctx)).Order("date_created ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError("", err)
	}
	return comments, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	defer observability.TrackRepository("get", "comments")()

	var comment models.Comment
	if err := commentDetails(r.db.WithContext(ctx)).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment")
		}
		return nil, models.NewInternalError("", err)
	}
	return &comment, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackRepository("create", "comments")()

	if err := r.db.WithContext(ctx).Omit("Article", "Author", "Editor").Create(comment).Error; err != nil {
		return models.NewInternalError("", err)
	}
	r.cache.Invalidate(ctx, cache.ArticleCommentsKey(comment.ArticleID))
	return nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackRepository("update", "comments")()

	if err := r.db.WithContext(ctx).Omit("Article", "Author", "Editor").Save(comment).Error; err != nil {
		return models.NewInternalError("", err)
	}
	r.cache.Invalidate(ctx, cache.ArticleCommentsKey(comment.ArticleID))
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackRepository("delete", "comments")()

	var comment models.Comment
	if err := r.db.WithContext(ctx).Select("id", "article_id").First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment")
		}
		return models.NewInternalError("", err)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id).Error; err != nil {
		return models.NewInternalError("", err)
	}
	r.cache.Invalidate(ctx, cache.ArticleCommentsKey(comment.ArticleID))
	return nil
}

package repository

import (
	"context"
	"errors"
	"strings"

	"blog/internal/cache"
	"blog/internal/models"
	"blog/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsOther(ctx context.Context, id uuid.UUID, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewUserRepository returns a new UserRepository implementation. The cache
// store is used only to evict articles and comment lists that embed a user.
func NewUserRepository(db *gorm.DB, store *cache.Store) UserRepository {
	return &userRepository{db: db, cache: store}
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	defer observability.TrackRepository("list", "users")()

	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_date ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError("", err)
	}
	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer observability.TrackRepository("get", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, models.NewInternalError("", err)
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when no user matches exactly.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// GetByEmail returns (nil, nil) when no user matches exactly.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	defer observability.TrackRepository("find", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError("", err)
	}
	return &user, nil
}

// ExistsOther reports whether a user other than id already has username or email.
func (r *userRepository) ExistsOther(ctx context.Context, id uuid.UUID, username, email string) (bool, error) {
	defer observability.TrackRepository("exists_other", "users")()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id <> ?", id).
		Where(r.db.Where("username = ?", username).Or("email = ?", email)).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError("", err)
	}
	return count > 0, nil
}

// Create maps a unique index violation to the matching validation error.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackRepository("create", "users")()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if ok, detail := uniqueViolation(err); ok {
			if strings.Contains(detail, "email") {
				return models.NewValidationError("Email already exists")
			}
			return models.NewValidationError("Username already exists")
		}
		return models.NewInternalError("", err)
	}
	return nil
}

// Update saves user and evicts cached articles and comment lists that
// embed them as author or editor.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	defer observability.TrackRepository("update", "users")()

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if ok, _ := uniqueViolation(err); ok {
			return models.NewValidationError("Email or username already exist")
		}
		return models.NewInternalError("", err)
	}

	touched, err := touchedArticles(r.db.WithContext(ctx), user.ID)
	if err != nil {
		return models.NewInternalError("", err)
	}
	r.invalidateArticles(ctx, touched)
	return nil
}

// touchedArticles lists the articles whose cached form embeds userID:
// the ones they wrote or edited and the ones they commented on.
func touchedArticles(tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var articles, commented []uuid.UUID
	if err := tx.Model(&models.Article{}).
		Where("author_id = ? OR editor_id = ?", userID, userID).
		Pluck("id", &articles).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Comment{}).
		Where("author_id = ? OR editor_id = ?", userID, userID).
		Distinct().
		Pluck("article_id", &commented).Error; err != nil {
		return nil, err
	}
	return append(articles, commented...), nil
}

func (r *userRepository) invalidateArticles(ctx context.Context, ids []uuid.UUID) {
	keys := make([]string, 0, 2*len(ids))
	for _, articleID := range ids {
		keys = append(keys, cache.ArticleKey(articleID), cache.ArticleCommentsKey(articleID))
	}
	r.cache.Invalidate(ctx, keys...)
}

// Delete removes the user together with the articles and comments they
// authored, and clears them as editor elsewhere.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackRepository("delete", "users")()

	var touched []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User")
			}
			return err
		}

		var authored []uuid.UUID
		if err := tx.Model(&models.Article{}).Where("author_id = ?", id).Pluck("id", &authored).Error; err != nil {
			return err
		}
		var err error
		if touched, err = touchedArticles(tx, id); err != nil {
			return err
		}

		if len(authored) > 0 {
			if err := tx.Where("article_id IN ?", authored).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("editor_id = ?", id).Update("editor_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Article{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Article{}).Where("editor_id = ?", id).Update("editor_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError("", err)
	}

	r.invalidateArticles(ctx, touched)
	return nil
}

package repository

import (
	"testing"
	"time"

	"blog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a migrated in-memory database on a single connection.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Article{}, &models.Comment{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		LastName:    "Last",
		FirstName:   "First",
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hash",
		Role:        models.RoleAuthor,
		CreatedDate: time.Now().UTC(),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedArticle(t *testing.T, db *gorm.DB, author *models.User, title string, created time.Time, category *string) *models.Article {
	t.Helper()
	a := &models.Article{
		Title:       title,
		Content:     "content of " + title,
		Summary:     "content of " + title,
		CreatedDate: created,
		UpdatedDate: created,
		Category:    category,
		AuthorID:    author.ID,
		EditorID:    &author.ID,
	}
	require.NoError(t, db.Omit("Author", "Editor", "Comments").Create(a).Error)
	return a
}

func seedComment(t *testing.T, db *gorm.DB, article *models.Article, author *models.User, content string, created time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		Content:     content,
		DateCreated: created,
		DateEdited:  created,
		ArticleID:   article.ID,
		AuthorID:    author.ID,
		EditorID:    &author.ID,
	}
	require.NoError(t, db.Omit("Article", "Author", "Editor").Create(c).Error)
	return c
}

func strPtr(s string) *string { return &s }

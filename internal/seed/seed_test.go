package seed

import (
	"context"
	"testing"

	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
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

func TestRoleFor(t *testing.T) {
	assert.Equal(t, models.RoleAdmin, roleFor(0))
	assert.Equal(t, models.RoleUser, roleFor(1))
	assert.Equal(t, models.RoleAuthor, roleFor(3))
	assert.Equal(t, models.RoleAdmin, roleFor(10))
}

func TestRun(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db, Options{Users: 12, Articles: 20, CommentsPerArticle: 3, SkipBcrypt: true, Seed: 42})
	ctx := context.Background()

	require.NoError(t, s.Run(ctx))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 12)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(DefaultPassword)))

	var articles []models.Article
	require.NoError(t, db.Preload("Author").Find(&articles).Error)
	require.Len(t, articles, 20)
	for _, a := range articles {
		assert.NotEqual(t, models.RoleUser, a.Author.Role)
		assert.LessOrEqual(t, len([]rune(a.Summary)), 500)
		assert.Equal(t, a.CreatedDate, a.UpdatedDate)
	}

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.LessOrEqual(t, comments, int64(60))

	require.NoError(t, s.ClearAll(ctx))
	var left int64
	require.NoError(t, db.Model(&models.User{}).Count(&left).Error)
	assert.Zero(t, left)
}

func TestSeedArticles_NoWriters(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db, Options{SkipBcrypt: true, Seed: 1})

	articles, err := s.SeedArticles(context.Background(), []*models.User{{Role: models.RoleUser}}, 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

// Package seed fills a database with demo users, articles and comments for
// development and manual testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"blog/internal/auth"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

var categories = []string{"tech", "travel", "food", "science", "culture", "sports"}

// Options controls how much data is generated.
type Options struct {
	Users              int
	Articles           int
	CommentsPerArticle int
	MaxDays            int
	// SkipBcrypt hashes at bcrypt.MinCost.
	SkipBcrypt bool
	Seed       int64
}

// Seeder writes generated rows through GORM.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Seeder{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ClearAll deletes comments, articles and users in dependency order.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Comment{}, &models.Article{}, &models.User{}} {
		if err := db.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	middleware.Logger.Info("seed: cleared existing data")
	return nil
}

// Run generates users, then articles by AUTHOR and ADMIN users, then comments.
func (s *Seeder) Run(ctx context.Context) error {
	users, err := s.SeedUsers(ctx, s.opts.Users)
	if err != nil {
		return err
	}
	articles, err := s.SeedArticles(ctx, users, s.opts.Articles)
	if err != nil {
		return err
	}
	if _, err := s.SeedComments(ctx, users, articles, s.opts.CommentsPerArticle); err != nil {
		return err
	}
	middleware.Logger.Info("seed: done",
		slog.Int("users", len(users)), slog.Int("articles", len(articles)))
	return nil
}

func (s *Seeder) passwordHash() (string, error) {
	cost := bcrypt.DefaultCost
	if s.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	return string(hashed), nil
}

func (s *Seeder) pastTime() time.Time {
	back := time.Duration(s.rng.Intn(s.opts.MaxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back).Truncate(time.Microsecond)
}

// roleFor gives roughly one admin per ten users and a third authors.
func roleFor(i int) models.Role {
	switch {
	case i%10 == 0:
		return models.RoleAdmin
	case i%3 == 0:
		return models.RoleAuthor
	default:
		return models.RoleUser
	}
}

// SeedUsers creates n users with unique usernames and emails.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	hash, err := s.passwordHash()
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		username := fmt.Sprintf("%s%d", s.faker.Username(), i)
		users = append(users, &models.User{
			LastName:    last,
			FirstName:   first,
			Username:    username,
			Email:       fmt.Sprintf("%s@%s", username, s.faker.DomainName()),
			Password:    hash,
			Categories:  []string{categories[s.rng.Intn(len(categories))]},
			Role:        roleFor(i),
			CreatedDate: s.pastTime(),
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(users, 100).Error; err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return users, nil
}

// SeedArticles creates n articles spread over the users allowed to write.
func (s *Seeder) SeedArticles(ctx context.Context, users []*models.User, n int) ([]*models.Article, error) {
	var writers []*models.User
	for _, u := range users {
		if auth.Satisfies(u.Role, models.RoleAuthor) {
			writers = append(writers, u)
		}
	}
	if len(writers) == 0 || n <= 0 {
		return nil, nil
	}

	articles := make([]*models.Article, 0, n)
	for i := 0; i < n; i++ {
		author := writers[s.rng.Intn(len(writers))]
		content := s.faker.Paragraph(2, 4, 12, "\n\n")
		created := s.pastTime()
		var category *string
		if s.rng.Intn(4) > 0 {
			c := categories[s.rng.Intn(len(categories))]
			category = &c
		}
		articles = append(articles, &models.Article{
			Title:       s.faker.Sentence(5),
			Content:     content,
			Summary:     service.Summarize(content),
			CreatedDate: created,
			UpdatedDate: created,
			MediaURLs:   []string{},
			Category:    category,
			AuthorID:    author.ID,
			EditorID:    &author.ID,
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(articles, 100).Error; err != nil {
		return nil, fmt.Errorf("seed articles: %w", err)
	}
	return articles, nil
}

// SeedComments adds up to perArticle comments to every article.
func (s *Seeder) SeedComments(ctx context.Context, users []*models.User, articles []*models.Article, perArticle int) ([]*models.Comment, error) {
	if len(users) == 0 || perArticle <= 0 {
		return nil, nil
	}

	var comments []*models.Comment
	for _, a := range articles {
		count := s.rng.Intn(perArticle + 1)
		for j := 0; j < count; j++ {
			author := users[s.rng.Intn(len(users))]
			at := a.CreatedDate.Add(time.Duration(j+1) * time.Minute)
			comments = append(comments, &models.Comment{
				Content:     s.faker.Sentence(12),
				DateCreated: at,
				DateEdited:  at,
				ArticleID:   a.ID,
				AuthorID:    author.ID,
				EditorID:    &author.ID,
			})
		}
	}
	if len(comments) == 0 {
		return comments, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(comments, 200).Error; err != nil {
		return nil, fmt.Errorf("seed comments: %w", err)
	}
	return comments, nil
}

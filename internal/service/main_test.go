package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"blog/internal/auth"
	"blog/internal/models"
	"blog/internal/notifications"
	"blog/internal/repository"
	"blog/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory repository.UserRepository.
type memUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]models.User
	errFn func(op string) error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]models.User{}}
}

func (r *memUsers) fail(op string) error {
	if r.errFn == nil {
		return nil
	}
	return r.errFn(op)
}

func (r *memUsers) add(u models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.byID[u.ID] = u
	return &u
}

func (r *memUsers) List(_ context.Context) ([]models.User, error) {
	if err := r.fail("List"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedDate.Before(out[j].CreatedDate) })
	return out, nil
}

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if err := r.fail("GetByID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("User")
	}
	return &u, nil
}

func (r *memUsers) find(match func(models.User) bool) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if err := r.fail("GetByUsername"); err != nil {
		return nil, err
	}
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Username, username) }), nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if err := r.fail("GetByEmail"); err != nil {
		return nil, err
	}
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *memUsers) ExistsOther(_ context.Context, id uuid.UUID, username, email string) (bool, error) {
	found := r.find(func(u models.User) bool {
		return u.ID != id && (strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email))
	})
	return found != nil, nil
}

func (r *memUsers) Create(_ context.Context, user *models.User) error {
	if err := r.fail("Create"); err != nil {
		return err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.ID] = *user
	return nil
}

func (r *memUsers) Update(_ context.Context, user *models.User) error {
	if err := r.fail("Update"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.ID] = *user
	return nil
}

func (r *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return models.NewNotFoundError("User")
	}
	delete(r.byID, id)
	return nil
}

// memArticles is an in-memory repository.ArticleRepository.
type memArticles struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]models.Article
	updates int
	listed  []repository.SortOrder
}

func newMemArticles() *memArticles {
	return &memArticles{byID: map[uuid.UUID]models.Article{}}
}

func (r *memArticles) List(_ context.Context, _ repository.ArticleFilter, sort []repository.SortOrder, _ repository.PageRequest) ([]models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listed = sort
	out := make([]models.Article, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *memArticles) GetByID(_ context.Context, id uuid.UUID) (*models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("Article")
	}
	a.MediaURLs = append([]string(nil), a.MediaURLs...)
	return &a, nil
}

func (r *memArticles) Create(_ context.Context, article *models.Article) error {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[article.ID] = *article
	return nil
}

func (r *memArticles) Update(_ context.Context, article *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.byID[article.ID] = *article
	return nil
}

func (r *memArticles) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return models.NewNotFoundError("Article")
	}
	delete(r.byID, id)
	return nil
}

// memComments is an in-memory repository.CommentRepository.
type memComments struct {
	mu    sync.Mutex
	order []uuid.UUID
	byID  map[uuid.UUID]models.Comment
}

func newMemComments() *memComments {
	return &memComments{byID: map[uuid.UUID]models.Comment{}}
}

func (r *memComments) ListByArticle(_ context.Context, articleID uuid.UUID) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Comment{}
	for _, id := range r.order {
		if c, ok := r.byID[id]; ok && c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memComments) ListAll(_ context.Context) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Comment{}
	for _, id := range r.order {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memComments) GetByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment")
	}
	return &c, nil
}

func (r *memComments) Create(_ context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, comment.ID)
	r.byID[comment.ID] = *comment
	return nil
}

func (r *memComments) Update(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[comment.ID] = *comment
	return nil
}

func (r *memComments) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return models.NewNotFoundError("Comment")
	}
	delete(r.byID, id)
	return nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// plainHasher keeps tests fast; it is not a real hash.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Verify(hash, password string) bool { return hash == "hashed:"+password }

type stubTokens struct {
	issued []string
	err    error
}

func (s *stubTokens) Issue(user *models.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.issued = append(s.issued, user.Username)
	return "token-for-" + user.Username, nil
}

type stubRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (s *stubRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.revoked == nil {
		s.revoked = map[string]time.Time{}
	}
	s.revoked[tokenID] = expiresAt
	return nil
}

// steppedClock returns start, start+step, start+2*step and so on.
func steppedClock(start time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func memFileStore() (*storage.FileStore, afero.Fs) {
	fs := afero.NewMemMapFs()
	return storage.NewFileStore(fs), fs
}

func readOnlyFileStore() *storage.FileStore {
	return storage.NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()))
}

func principalFor(u *models.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation, message)
}

func assertNotFound(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound, message)
}

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/models"
	"blog/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type harness struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	fs     afero.Fs
}

func testConfig() *config.Config {
	return &config.Config{
		Env:         "test",
		JWTSecret:   "test-secret",
		JWTIssuer:   "blog-api",
		JWTAudience: "blog-client",
		JWTTTL:      time.Hour,
		MaxUploadMB: 5,
		CacheTTL:    time.Minute,
		UploadDir:   "uploads",
	}
}

// newHarness builds a full app over in-memory sqlite and an in-memory
// upload area. Redis is absent.
func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	fs := afero.NewMemMapFs()
	files := storage.NewFileStore(fs)
	require.NoError(t, files.EnsureDirs())

	s, err := NewServerWithDeps(testConfig(), db, nil, files)
	require.NoError(t, err)

	return &harness{server: s, app: s.NewApp(), db: db, fs: fs}
}

// seedUser inserts a user whose password is "password".
func (h *harness) seedUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		LastName:    "Last",
		FirstName:   "First",
		Username:    username,
		Email:       username + "@example.com",
		Password:    string(hash),
		Categories:  []string{},
		Role:        role,
		CreatedDate: time.Now().UTC(),
	}
	require.NoError(t, h.db.Create(u).Error)
	return u
}

func (h *harness) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := h.server.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func (h *harness) seedArticle(t *testing.T, author *models.User, title string) *models.Article {
	t.Helper()
	now := time.Now().UTC()
	a := &models.Article{
		Title:       title,
		Content:     "content of " + title,
		Summary:     "content of " + title,
		CreatedDate: now,
		UpdatedDate: now,
		MediaURLs:   []string{},
		AuthorID:    author.ID,
	}
	require.NoError(t, h.db.Create(a).Error)
	return a
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) upload(t *testing.T, path, token, filename string, content []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorBody(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	return decode[models.ErrorResponse](t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(bytes.TrimSpace(data))
}

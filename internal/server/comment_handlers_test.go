package server

import (
	"fmt"
	"net/http"
	"testing"

	"blog/internal/dto"
	"blog/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentLifecycle(t *testing.T) {
	h := newHarness(t)
	author := h.seedUser(t, "writer", models.RoleAuthor)
	reader := h.seedUser(t, "reader", models.RoleUser)
	stranger := h.seedUser(t, "stranger", models.RoleUser)
	article := h.seedArticle(t, author, "Discussed")
	base := fmt.Sprintf("/articles/%s/comments", article.ID)

	resp := h.do(t, http.MethodPost, base, "", map[string]any{"content": "first"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = h.do(t, http.MethodPost, base, h.tokenFor(t, reader), map[string]any{"content": "first"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.Comment](t, resp)
	assert.Equal(t, "first", created.Content)
	assert.Equal(t, created.DateCreated, created.DateEdited)
	require.NotNil(t, created.Author)
	assert.Equal(t, "reader", created.Author.Username)

	// Anyone signed in may edit.
	resp = h.do(t, http.MethodPut, base+"/"+created.ID.String(), h.tokenFor(t, stranger), map[string]any{"content": "edited"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode[dto.Comment](t, resp)
	assert.Equal(t, "edited", edited.Content)
	require.NotNil(t, edited.Editor)
	assert.Equal(t, "stranger", edited.Editor.Username)
	assert.Equal(t, "reader", edited.Author.Username)

	resp = h.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]dto.Comment](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Content)

	resp = h.do(t, http.MethodGet, "/comments", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.Comment](t, resp), 1)

	// Delete is open, even anonymously.
	resp = h.do(t, http.MethodDelete, base+"/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = h.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", readBody(t, resp))
}

func TestComment_NotFound(t *testing.T) {
	h := newHarness(t)
	author := h.seedUser(t, "writer", models.RoleAuthor)
	token := h.tokenFor(t, author)
	article := h.seedArticle(t, author, "Quiet")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		msg    string
	}{
		{"list unknown article", http.MethodGet, fmt.Sprintf("/articles/%s/comments", uuid.New()), nil, http.StatusNotFound, "Article not found"},
		{"create unknown article", http.MethodPost, fmt.Sprintf("/articles/%s/comments", uuid.New()), map[string]any{"content": "x"}, http.StatusNotFound, "Article not found"},
		{"edit unknown comment", http.MethodPut, fmt.Sprintf("/articles/%s/comments/%s", article.ID, uuid.New()), map[string]any{"content": "x"}, http.StatusNotFound, "Comment not found"},
		{"delete unknown comment", http.MethodDelete, fmt.Sprintf("/articles/%s/comments/%s", article.ID, uuid.New()), nil, http.StatusNotFound, "Comment not found"},
		{"bad comment id", http.MethodDelete, fmt.Sprintf("/articles/%s/comments/zzz", article.ID), nil, http.StatusBadRequest, "Invalid comment ID"},
		{"empty content", http.MethodPost, fmt.Sprintf("/articles/%s/comments", article.ID), map[string]any{"content": ""}, http.StatusBadRequest, "Fields can not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.msg, errorBody(t, resp).Error)
		})
	}
}

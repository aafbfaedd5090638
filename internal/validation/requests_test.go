package validation

import (
	"testing"

	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidation(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Equal(t, msg, err.Error())
}

func TestArticleRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		title   string
		content string
		ok      bool
	}{
		{name: "both set", title: "T", content: "C", ok: true},
		{name: "whitespace counts as set", title: " ", content: "\t", ok: true},
		{name: "empty title", title: "", content: "C"},
		{name: "empty content", title: "T", content: ""},
		{name: "both empty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ArticleRequest(tc.title, tc.content)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assertValidation(t, err, MsgEmptyFields)
		})
	}
}

func TestCommentRequest(t *testing.T) {
	t.Parallel()
	assert.NoError(t, CommentRequest("nice"))
	assertValidation(t, CommentRequest(""), MsgEmptyFields)
}

func TestRegisterRequest(t *testing.T) {
	t.Parallel()
	assert.NoError(t, RegisterRequest("Doe", "Jane", "jane", "secret", "jane@example.com"))
	assertValidation(t, RegisterRequest("Doe", "Jane", "jane", "", "jane@example.com"), MsgEmptyFields)
	assertValidation(t, RegisterRequest("", "Jane", "jane", "secret", "jane@example.com"), MsgEmptyFields)
}

func TestUserEditRequest(t *testing.T) {
	t.Parallel()

	role, err := UserEditRequest("Doe", "Jane", "jane", "jane@example.com", "AUTHOR")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAuthor, role)

	role, err = UserEditRequest("Doe", "Jane", "jane", "jane@example.com", "ROLE_ADMIN")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	_, err = UserEditRequest("Doe", "Jane", "", "jane@example.com", "USER")
	assertValidation(t, err, MsgEmptyFields)

	_, err = UserEditRequest("Doe", "Jane", "jane", "jane@example.com", "")
	assertValidation(t, err, MsgEmptyFields)

	_, err = UserEditRequest("Doe", "Jane", "jane", "jane@example.com", "SUPERUSER")
	assertValidation(t, err, MsgInvalidRole)
}

func TestRoleRequest(t *testing.T) {
	t.Parallel()

	role, err := RoleRequest("user")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)

	_, err = RoleRequest("root")
	assertValidation(t, err, MsgInvalidRole)
}

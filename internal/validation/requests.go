// Package validation holds the request checks run before any mutation.
package validation

import "blog/internal/models"

const (
	MsgEmptyFields = "Fields can not be empty"
	MsgInvalidRole = "Invalid role"
)

func anyEmpty(fields ...string) bool {
	for _, f := range fields {
		if f == "" {
			return true
		}
	}
	return false
}

// ArticleRequest requires a title and content.
func ArticleRequest(title, content string) error {
	if anyEmpty(title, content) {
		return models.NewValidationError(MsgEmptyFields)
	}
	return nil
}

func CommentRequest(content string) error {
	if content == "" {
		return models.NewValidationError(MsgEmptyFields)
	}
	return nil
}

// RegisterRequest checks field presence only. Username and email uniqueness
// need a repository and are checked by the user service.
func RegisterRequest(lastName, firstName, username, password, email string) error {
	if anyEmpty(lastName, firstName, username, password, email) {
		return models.NewValidationError(MsgEmptyFields)
	}
	return nil
}

// UserEditRequest requires every profile field and a known role. The role
// is returned parsed so callers do not parse it twice.
func UserEditRequest(lastName, firstName, username, email, role string) (models.Role, error) {
	if anyEmpty(lastName, firstName, username, email) {
		return "", models.NewValidationError(MsgEmptyFields)
	}
	return RoleRequest(role)
}

func RoleRequest(role string) (models.Role, error) {
	if role == "" {
		return "", models.NewValidationError(MsgEmptyFields)
	}
	parsed, ok := models.ParseRole(role)
	if !ok {
		return "", models.NewValidationError(MsgInvalidRole)
	}
	return parsed, nil
}

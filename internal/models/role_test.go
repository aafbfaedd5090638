package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"ADMIN", RoleAdmin, true},
		{"author", RoleAuthor, true},
		{"ROLE_USER", RoleUser, true},
		{" role_admin ", RoleAdmin, true},
		{"MODERATOR", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleAuthority(t *testing.T) {
	assert.Equal(t, "ROLE_AUTHOR", RoleAuthor.Authority())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("admin").Valid())
}

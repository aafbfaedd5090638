package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"blog/internal/auth"
	"blog/internal/models"
	"blog/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc     *UserService
	users   *memUsers
	tokens  *stubTokens
	revoker *stubRevoker
	fs      afero.Fs
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := newMemUsers()
	tokens := &stubTokens{}
	revoker := &stubRevoker{}
	files, fs := memFileStore()

	svc := NewUserService(users, plainHasher{}, tokens, revoker, files)
	svc.now = fixedClock(testStart)
	return &userFixture{svc: svc, users: users, tokens: tokens, revoker: revoker, fs: fs}
}

func validRegister() RegisterInput {
	return RegisterInput{LastName: "Doe", FirstName: "Jane", Username: "jane", Password: "secret", Email: "jane@example.com"}
}

func TestUserService_Register(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	token, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)
	assert.Equal(t, "token-for-jane", token)

	stored, err := f.users.GetByUsername(ctx, "jane")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.RoleUser, stored.Role)
	assert.Equal(t, "hashed:secret", stored.Password)
	assert.Equal(t, testStart, stored.CreatedDate)
	assert.NotNil(t, stored.Categories)
}

func TestUserService_Register_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		message string
	}{
		{"empty password", func(in *RegisterInput) { in.Password = "" }, "Fields can not be empty"},
		{"empty email", func(in *RegisterInput) { in.Email = "" }, "Fields can not be empty"},
		{"duplicate username", func(in *RegisterInput) { in.Email = "other@example.com" }, "Username already exists"},
		{"duplicate email", func(in *RegisterInput) { in.Username = "someone" }, "Email already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture(t)
			_, err := f.svc.Register(context.Background(), validRegister())
			require.NoError(t, err)

			in := validRegister()
			tt.mutate(&in)
			_, err = f.svc.Register(context.Background(), in)
			assertValidationError(t, err, tt.message)
			assert.Len(t, f.tokens.issued, 1)
		})
	}
}

func TestUserService_Register_TokenFailureAfterCreate(t *testing.T) {
	f := newUserFixture(t)
	f.tokens.err = errors.New("no secret")

	_, err := f.svc.Register(context.Background(), validRegister())
	assertAppError(t, err, models.CodeInternal, "")
}

func TestUserService_Login(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	token, err := f.svc.Login(ctx, LoginInput{Username: "jane", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "token-for-jane", token)

	_, err = f.svc.Login(ctx, LoginInput{Username: "jane", Password: "wrong"})
	assertAppError(t, err, models.CodeUnauthenticated, "Bad credentials")

	_, err = f.svc.Login(ctx, LoginInput{Username: "nobody", Password: "secret"})
	assertAppError(t, err, models.CodeUnauthenticated, "Bad credentials")
}

func TestUserService_Logout(t *testing.T) {
	f := newUserFixture(t)
	exp := testStart.Add(time.Hour)

	require.NoError(t, f.svc.Logout(context.Background(), auth.Principal{TokenID: "jti-1", ExpiresAt: exp}))
	assert.Equal(t, exp, f.revoker.revoked["jti-1"])

	f.revoker.err = errors.New("redis down")
	err := f.svc.Logout(context.Background(), auth.Principal{TokenID: "jti-2", ExpiresAt: exp})
	assertAppError(t, err, models.CodeInternal, "")

	f.svc.revoker = nil
	assert.NoError(t, f.svc.Logout(context.Background(), auth.Principal{TokenID: "jti-3"}))
}

func TestUserService_GetByUsername(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	out, err := f.svc.GetByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", out.Email)

	_, err = f.svc.GetByUsername(ctx, "ghost")
	assertNotFound(t, err, "User not found")
}

func TestUserService_UpdateRole(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.users.add(models.User{Username: "u", Email: "u@example.com", Role: models.RoleUser})

	out, err := f.svc.UpdateRole(ctx, u.ID, models.RoleAuthor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAuthor, out.Role)

	_, err = f.svc.UpdateRole(ctx, uuid.New(), models.RoleAdmin)
	assertNotFound(t, err, "User not found")

	_, err = f.svc.UpdateRole(ctx, u.ID, models.Role("ROOT"))
	assertValidationError(t, err, "Invalid role")
}

func TestUserService_Update(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.users.add(models.User{Username: "u", Email: "u@example.com", Password: "hashed:pw", Role: models.RoleUser, Categories: []string{"old"}})
	f.users.add(models.User{Username: "taken", Email: "taken@example.com", Role: models.RoleUser})
	admin := principalFor(f.users.add(models.User{Username: "root", Email: "root@example.com", Role: models.RoleAdmin}))

	in := UserEditInput{LastName: "L", FirstName: "F", Username: "u2", Email: "u2@example.com", Role: "AUTHOR", Categories: []string{"go"}}
	out, err := f.svc.Update(ctx, u.ID, in, admin)
	require.NoError(t, err)
	assert.Equal(t, "u2", out.Username)
	assert.Equal(t, models.RoleAuthor, out.Role)
	assert.Equal(t, []string{"go"}, out.Categories)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:pw", stored.Password)

	in.Username = "taken"
	_, err = f.svc.Update(ctx, u.ID, in, admin)
	assertValidationError(t, err, "Email or username already exist")

	in.Username = "u2"
	in.Role = "WIZARD"
	_, err = f.svc.Update(ctx, u.ID, in, admin)
	assertValidationError(t, err, "Invalid role")

	in.Role = "USER"
	_, err = f.svc.Update(ctx, uuid.New(), in, admin)
	assertNotFound(t, err, "User not found")
}

func TestUserService_Update_KeepsOwnUsername(t *testing.T) {
	f := newUserFixture(t)
	u := f.users.add(models.User{Username: "same", Email: "same@example.com", Role: models.RoleUser})

	out, err := f.svc.Update(context.Background(), u.ID, UserEditInput{
		LastName: "L", FirstName: "F", Username: "same", Email: "same@example.com", Role: "USER",
	}, principalFor(u))
	require.NoError(t, err)
	assert.Equal(t, "same", out.Username)
}

func TestUserService_Update_SelfOrAdmin(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.users.add(models.User{Username: "self", Email: "self@example.com", Role: models.RoleUser})
	other := f.users.add(models.User{Username: "other", Email: "other@example.com", Role: models.RoleAuthor})

	in := UserEditInput{LastName: "L", FirstName: "F", Username: "self", Email: "self@example.com", Role: "USER"}
	_, err := f.svc.Update(ctx, u.ID, in, principalFor(other))
	assertAppError(t, err, models.CodeForbidden, "Access denied")

	in.Role = "ADMIN"
	_, err = f.svc.Update(ctx, u.ID, in, principalFor(u))
	assertAppError(t, err, models.CodeForbidden, "Only administrators can change roles")

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestUserService_Delete(t *testing.T) {
	f := newUserFixture(t)
	u := f.users.add(models.User{Username: "gone", Email: "g@example.com", Role: models.RoleUser})

	require.NoError(t, f.svc.Delete(context.Background(), u.ID))
	_, err := f.svc.GetByID(context.Background(), u.ID)
	assertNotFound(t, err, "User not found")
}

func TestUserService_UploadProfilePicture(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.users.add(models.User{Username: "pic", Email: "p@example.com", Role: models.RoleUser})

	self := principalFor(u)
	out, err := f.svc.UploadProfilePicture(ctx, u.ID, Upload{Filename: "me.jpeg", Reader: strings.NewReader("jpg")}, self)
	require.NoError(t, err)

	name := "user-" + u.ID.String() + ".jpeg"
	assert.Equal(t, name, out.ProfilePicture)
	data, err := afero.ReadFile(f.fs, storage.DirProfilePictures+"/"+name)
	require.NoError(t, err)
	assert.Equal(t, "jpg", string(data))

	admin := auth.Principal{UserID: uuid.New(), Role: models.RoleAdmin}
	_, err = f.svc.UploadProfilePicture(ctx, uuid.New(), Upload{Filename: "x.png", Reader: strings.NewReader("x")}, admin)
	assertNotFound(t, err, "User not found")

	stranger := auth.Principal{UserID: uuid.New(), Role: models.RoleAuthor}
	_, err = f.svc.UploadProfilePicture(ctx, u.ID, Upload{Filename: "x.png", Reader: strings.NewReader("x")}, stranger)
	assertAppError(t, err, models.CodeForbidden, "Access denied")

	f.svc.files = readOnlyFileStore()
	_, err = f.svc.UploadProfilePicture(ctx, u.ID, Upload{Filename: "x.png", Reader: strings.NewReader("x")}, self)
	assertAppError(t, err, models.CodeInternal, "Failed to upload profile picture")
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blog/internal/auth"
	"blog/internal/dto"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/observability"
	"blog/internal/repository"
	"blog/internal/storage"
	"blog/internal/validation"

	"github.com/google/uuid"
)

const (
	msgBadCredentials = "Bad credentials"
	msgAccessDenied   = "Access denied"
	msgRoleChange     = "Only administrators can change roles"
)

// TokenIssuer issues bearer tokens for persisted users.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// TokenRevoker invalidates a token before it expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type UserService struct {
	users   repository.UserRepository
	hasher  auth.PasswordHasher
	tokens  TokenIssuer
	revoker TokenRevoker
	files   *storage.FileStore
	now     Clock
}

type RegisterInput struct {
	LastName  string
	FirstName string
	Username  string
	Password  string
	Email     string
}

type LoginInput struct {
	Username string
	Password string
}

type UserEditInput struct {
	LastName       string
	FirstName      string
	Username       string
	Email          string
	Role           string
	ProfilePicture string
	Categories     []string
}

func NewUserService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
	revoker TokenRevoker,
	files *storage.FileStore,
) *UserService {
	return &UserService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		files:   files,
		now:     systemClock,
	}
}

func (s *UserService) List(ctx context.Context) ([]dto.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToUsers(users), nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*dto.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToUser(user), nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*dto.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}
	return dto.ToUser(user), nil
}

// Register creates a USER account and returns a token for it. The token
// is issued only after the user is persisted.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (_ string, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Register")
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.RegisterRequest(in.LastName, in.FirstName, in.Username, in.Password, in.Email); err != nil {
		return "", err
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", models.NewValidationError("Username already exists")
	}
	existing, err = s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", models.NewValidationError("Email already exists")
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", models.NewInternalError("", err)
	}

	user := &models.User{
		LastName:    in.LastName,
		FirstName:   in.FirstName,
		Username:    in.Username,
		Email:       in.Email,
		Password:    hashed,
		Categories:  []string{},
		Role:        models.RoleUser,
		CreatedDate: s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", models.NewInternalError("", err)
	}
	middleware.Logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return token, nil
}

// Login checks the credentials and returns a fresh token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (_ string, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Login")
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return "", err
	}
	if user == nil || !s.hasher.Verify(user.Password, in.Password) {
		observability.AuthFailures.WithLabelValues("bad_credentials").Inc()
		return "", models.NewAuthenticationError(msgBadCredentials)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", models.NewInternalError("", err)
	}
	return token, nil
}

// Logout revokes the caller's token until it would have expired.
func (s *UserService) Logout(ctx context.Context, p auth.Principal) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return models.NewInternalError("", err)
	}
	return nil
}

func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*dto.User, error) {
	if !role.Valid() {
		return nil, models.NewValidationError(validation.MsgInvalidRole)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return dto.ToUser(user), nil
}

// Update overwrites the profile and role. Username and email must not be
// used by any other user. Only the user themselves or an admin may edit,
// and only an admin may change the role.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UserEditInput, p auth.Principal) (_ *dto.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Update")
	defer func() { observability.EndSpan(span, err) }()

	role, err := validation.UserEditRequest(in.LastName, in.FirstName, in.Username, in.Email, in.Role)
	if err != nil {
		return nil, err
	}
	if err := requireSelfOrAdmin(p, id); err != nil {
		return nil, err
	}
	taken, err := s.users.ExistsOther(ctx, id, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("Email or username already exist")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if role != user.Role && !auth.Satisfies(p.Role, models.RoleAdmin) {
		return nil, models.NewForbiddenError(msgRoleChange)
	}

	user.LastName = in.LastName
	user.FirstName = in.FirstName
	user.Username = in.Username
	user.Email = in.Email
	user.Role = role
	user.ProfilePicture = in.ProfilePicture
	if in.Categories != nil {
		user.Categories = in.Categories
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return dto.ToUser(user), nil
}

// Delete removes the user and everything they authored.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

// ProfilePictureName is the stored file name of a user's profile picture.
func ProfilePictureName(id uuid.UUID, ext string) string {
	return fmt.Sprintf("user-%s%s", id, ext)
}

func (s *UserService) UploadProfilePicture(ctx context.Context, id uuid.UUID, up Upload, p auth.Principal) (*dto.User, error) {
	if err := requireSelfOrAdmin(p, id); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := ProfilePictureName(id, storage.Ext(up.Filename))
	n, err := s.files.Save(storage.DirProfilePictures, name, up.Reader)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("profile_picture", "error").Inc()
		middleware.Logger.ErrorContext(ctx, "profile picture write failed", slog.String("error", err.Error()))
		return nil, models.NewInternalError("Failed to upload profile picture", err)
	}
	observability.UploadsTotal.WithLabelValues("profile_picture", "ok").Inc()
	observability.UploadBytes.WithLabelValues("profile_picture").Observe(float64(n))

	user.ProfilePicture = name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return dto.ToUser(user), nil
}

func requireSelfOrAdmin(p auth.Principal, id uuid.UUID) error {
	if p.UserID == id || auth.Satisfies(p.Role, models.RoleAdmin) {
		return nil
	}
	return models.NewForbiddenError(msgAccessDenied)
}

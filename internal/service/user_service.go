package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Thejus-u/charity-forum/internal/middleware"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

type UserService struct {
	userRepo      repository.UserRepository
	tokens        TokenIssuer
	hashCost      int
	profileCaches ProfileCacheInvalidator
}

// ProfileCacheInvalidator drops cached views that embed a user's profile.
type ProfileCacheInvalidator interface {
	InvalidateForUser(ctx context.Context, userID uint)
}

type RegisterInput struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"firstName" validate:"max=50"`
	LastName  string `json:"lastName" validate:"max=50"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	UserID    uint    `json:"-"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	Avatar    *string `json:"avatar" validate:"omitempty,url,max=500"`
}

type ChangePasswordInput struct {
	UserID          uint   `json:"-"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func NewUserService(userRepo repository.UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{userRepo: userRepo, tokens: tokens, hashCost: bcrypt.DefaultCost}
}

// WithProfileCaches registers caches to invalidate after a profile update.
func (s *UserService) WithProfileCaches(inv ProfileCacheInvalidator) *UserService {
	s.profileCaches = inv
	return s
}

// WithHashCost overrides the bcrypt cost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email is already registered")
	}
	existing, err = s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hash),
		Role:      models.RoleMember,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetPublicProfile returns the display form and counters of a user.
func (s *UserService) GetPublicProfile(ctx context.Context, id uint) (*PublicProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		UserSummary:    *user.Summary(),
		Bio:            user.Bio,
		Role:           user.Role,
		TotalDonations: user.TotalDonations,
		TotalPosts:     user.TotalPosts,
		CreatedAt:      user.CreatedAt,
	}, nil
}

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	models.UserSummary
	Bio            string      `json:"bio"`
	Role           models.Role `json:"role"`
	TotalDonations float64     `json:"totalDonations"`
	TotalPosts     int         `json:"totalPosts"`
	CreatedAt      time.Time   `json:"createdAt"`
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) (models.Page[models.User], error) {
	page, limit, offset := normalizePage(page, limit)
	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, total, page, limit), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Avatar != nil {
		user.Avatar = strings.TrimSpace(*in.Avatar)
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	if s.profileCaches != nil {
		s.profileCaches.InvalidateForUser(ctx, user.ID)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
		return models.NewFieldValidationError([]models.FieldError{
			{Field: "currentPassword", Message: "is incorrect"},
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.hashCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, string(hash))
}

// SetRole changes target's role. Admins cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewFieldValidationError([]models.FieldError{
			{Field: "role", Message: "must be one of: member, moderator, admin"},
		})
	}
	if actorID == targetID {
		return nil, models.NewBusinessRuleError("You cannot change your own role")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user role changed",
		slog.Uint64("target_id", uint64(targetID)),
		slog.String("from", string(user.Role)),
		slog.String("to", string(role)))
	user.Role = role
	return user, nil
}

// EnsureUser creates user with password when no account holds its email.
// It returns the existing or created account.
func (s *UserService) EnsureUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.Password = string(hash)
	if user.Role == "" {
		user.Role = models.RoleMember
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return nil, errors.New("username already taken by another account")
		}
		return nil, err
	}
	return user, nil
}

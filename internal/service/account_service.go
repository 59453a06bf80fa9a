package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/repository"
	"github.com/Eursukkul/quickfix-service/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 6

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.Role
}

// Session is a freshly issued token and the user it belongs to.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Me(ctx context.Context, actor Actor) (*models.User, error)
	SetMembership(ctx context.Context, actor Actor, tier models.MembershipTier) (*models.User, error)
	Plans() []models.MembershipPlan
}

type accountService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewAccountService(users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) AccountService {
	return &accountService{users: users, tokens: tokens, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *accountService) issue(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}

	switch {
	case in.Name == "":
		return nil, validationError("name is required")
	case in.Email == "":
		return nil, validationError("email is required")
	case len(in.Password) < minPasswordLen:
		return nil, validationError("password must be at least %d characters", minPasswordLen)
	case in.Role != models.RoleCustomer && in.Role != models.RoleProvider:
		return nil, validationError("role must be customer or provider")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, validationError("email is malformed")
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         in.Role,
		Membership:   models.TierNone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

func (s *accountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *accountService) Me(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", actor.ID, err)
	}
	return user, nil
}

// SetMembership records the tier; payment for it is handled elsewhere.
func (s *accountService) SetMembership(ctx context.Context, actor Actor, tier models.MembershipTier) (*models.User, error) {
	if !tier.IsValid() {
		return nil, validationError("unknown membership tier %q", tier)
	}

	if err := s.users.UpdateMembership(ctx, actor.ID, tier); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update membership: %w", err)
	}

	s.logger.Info("membership updated", zap.Uint("user_id", actor.ID), zap.String("tier", string(tier)))
	return s.Me(ctx, actor)
}

func (s *accountService) Plans() []models.MembershipPlan {
	return models.MembershipPlans()
}

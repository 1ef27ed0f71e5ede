package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"handmade-kart/internal/model"
	"handmade-kart/internal/notify"
	"handmade-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	verificationTTL   = 24 * time.Hour
	minPasswordLength = 8
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

var conflictMessages = map[string]string{
	"email":    "Email already registered",
	"username": "Username already taken",
	"phoneNum": "Phone number already registered",
}

type userService struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	mailer    notify.Mailer
	publicURL string
	now       func() time.Time
	logger    zerolog.Logger
}

// NewUserService creates a new user service. publicURL prefixes verification links.
func NewUserService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	mailer notify.Mailer,
	publicURL string,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
		logger:    logger.With().Str("service", "user").Logger(),
	}
}

// Register creates an unverified user and sends the verification email. If the
// email cannot be sent the user is removed again so the address can retry.
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if err := s.checkConflict(ctx, email, username, req.PhoneNum); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := newVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	now := s.now()
	expires := now.Add(verificationTTL)

	user := &model.User{
		ID:                    uuid.New(),
		Username:              username,
		Email:                 email,
		PasswordHash:          hash,
		PhoneNum:              req.PhoneNum,
		Role:                  model.RoleUser,
		VerificationToken:     &token,
		VerificationExpiresAt: &expires,
		CreatedAt:             now,
	}
	if err = s.create(ctx, user); err != nil {
		return nil, err
	}

	err = s.mailer.Send(ctx, notify.Message{
		To:       user.Email,
		Subject:  "Verify your email",
		Template: notify.TemplateVerification,
		Data: map[string]string{
			"Username": user.Username,
			"Link":     s.publicURL + "/api/verify?token=" + url.QueryEscape(token),
		},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send verification email")
		if derr := s.userRepo.Delete(ctx, user.ID); derr != nil {
			s.logger.Error().Err(derr).Str("user_id", user.ID.String()).Msg("failed to remove unverified user")
		}
		return nil, model.NewDomainError(model.ErrCodeInternalError, "Failed to send verification email")
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func validateRegistration(req *model.RegisterRequest) error {
	if req == nil {
		return model.NewValidationError("Registration payload is required")
	}
	var fields []string
	if name := strings.TrimSpace(req.Username); name == "" || len(name) > 100 {
		fields = append(fields, "username")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		fields = append(fields, "email")
	}
	if len(req.Password) < minPasswordLength {
		fields = append(fields, "password")
	}
	if !phonePattern.MatchString(req.PhoneNum) {
		fields = append(fields, "phoneNum")
	}
	if len(fields) > 0 {
		return model.NewValidationError("Invalid registration fields", fields...)
	}
	return nil
}

func (s *userService) checkConflict(ctx context.Context, email, username, phone string) error {
	field, err := s.userRepo.FindConflict(ctx, email, username, phone)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check existing users")
		return fmt.Errorf("failed to register user: %w", err)
	}
	if field != "" {
		return &model.DomainError{Code: model.ErrCodeConflict, Message: conflictMessages[field], Fields: []string{field}}
	}
	return nil
}

// create inserts user, mapping a lost race on a unique column onto a conflict.
func (s *userService) create(ctx context.Context, user *model.User) error {
	err := s.userRepo.Create(ctx, user)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return model.NewConflictError("Account already exists")
	}
	s.logger.Error().Err(err).Msg("failed to create user")
	return fmt.Errorf("failed to register user: %w", err)
}

func newVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return model.NewValidationError("Verification token is required", "token")
	}

	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up verification token")
		return fmt.Errorf("failed to verify email: %w", err)
	}
	if user == nil || user.VerificationExpiresAt == nil || s.now().After(*user.VerificationExpiresAt) {
		return model.NewValidationError("Invalid or expired verification token", "token")
	}

	if err = s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to mark user verified")
		return fmt.Errorf("failed to verify email: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("email verified")
	return nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	invalid := model.NewDomainError(model.ErrCodeUnauthorised, "Invalid email or password")
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, invalid
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get user by email")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if user == nil || !s.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, invalid
	}
	if !user.IsVerified {
		return nil, model.NewDomainError(model.ErrCodeForbidden, "Email not verified")
	}

	token, expires, err := s.tokens.Sign(model.Identity{
		UserID:   user.ID,
		Role:     user.Role,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to sign token")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	s.logger.Debug().Str("user_id", user.ID.String()).Msg("user logged in")
	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      model.UserSummary{ID: user.ID, Email: user.Email, Username: user.Username},
	}, nil
}

// EnsureAdmin promotes the account with req.Email, creating it already verified if absent.
func (s *userService) EnsureAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		if err = s.checkConflict(ctx, email, strings.TrimSpace(req.Username), req.PhoneNum); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user = &model.User{
			ID:           uuid.New(),
			Username:     strings.TrimSpace(req.Username),
			Email:        email,
			PasswordHash: hash,
			PhoneNum:     req.PhoneNum,
			Role:         model.RoleAdmin,
			IsVerified:   true,
			CreatedAt:    s.now(),
		}
		if err = s.create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info().Str("user_id", user.ID.String()).Msg("admin account created")
		return user, nil
	}

	if user.Role != model.RoleAdmin {
		if err = s.userRepo.SetRole(ctx, user.ID, model.RoleAdmin); err != nil {
			return nil, fmt.Errorf("failed to promote user: %w", err)
		}
		user.Role = model.RoleAdmin
	}
	if !user.IsVerified {
		if err = s.userRepo.MarkVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to verify admin: %w", err)
		}
		user.IsVerified = true
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("admin account ensured")
	return user, nil
}

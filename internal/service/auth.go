package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/auth"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

const tokenTypeBearer = "bearer"

// AuthService registers accounts and issues, refreshes and revokes tokens.
type AuthService struct {
	accounts repository.AccountRepository
	refresh  repository.RefreshTokenRepository
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(
	accounts repository.AccountRepository,
	refresh repository.RefreshTokenRepository,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	events EventPublisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		refresh:  refresh,
		tokens:   tokens,
		hasher:   hasher,
		events:   events,
		logger:   logger,
		now:      utcNow,
	}
}

// RegisterInput is a self-service USER registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	DOB      string
	Gender   string
}

// Register creates a USER account and returns an access token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.TokenPair, error) {
	var gender domain.Gender
	if in.Gender != "" {
		g, err := domain.ParseGender(in.Gender)
		if err != nil {
			return nil, err
		}
		gender = g
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Phone:        in.Phone,
		DOB:          in.DOB,
		Gender:       gender,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	access, err := s.tokens.IssueAccess(account.ID, account.Role)
	if err != nil {
		return nil, err
	}

	if err := s.events.AccountRegistered(ctx, account); err != nil {
		warn(ctx, s.logger, "failed to publish account.registered", err, slog.String("account_id", account.ID))
	}
	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID),
		slog.String("role", string(account.Role)),
	)

	return &domain.TokenPair{
		AccessToken: access,
		TokenType:   tokenTypeBearer,
		Role:        account.Role,
		UserID:      account.ID,
	}, nil
}

// Login checks credentials and returns an access and a refresh token. The
// refresh token is persisted by hash only.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials()
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !account.IsActive || !s.hasher.Matches(account.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials()
	}

	access, err := s.tokens.IssueAccess(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.tokens.IssueRefresh(account.ID)
	if err != nil {
		return nil, err
	}

	err = s.refresh.Create(ctx, &domain.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		TokenHash: auth.HashToken(refresh),
		CreatedAt: s.now(),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in", slog.String("account_id", account.ID))

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		Role:         account.Role,
		UserID:       account.ID,
	}, nil
}

// Logout revokes a refresh token. Unknown and already revoked tokens are
// accepted silently, so calling it twice is harmless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Revoke(ctx, auth.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every live refresh token of the account and returns how
// many were revoked. Access tokens already issued stay valid until expiry.
func (s *AuthService) LogoutAll(ctx context.Context, accountID string) (int64, error) {
	n, err := s.refresh.RevokeAllForAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("revoke account refresh tokens: %w", err)
	}
	s.logger.InfoContext(ctx, "account signed out everywhere",
		slog.String("account_id", accountID),
		slog.Int64("revoked", n),
	)
	return n, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != auth.TypeRefresh {
		return nil, domain.ErrWrongTokenType()
	}

	stored, err := s.refresh.GetByHash(ctx, auth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrTokenInvalid()
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if stored.IsRevoked || stored.AccountID != claims.AccountID() {
		return nil, domain.ErrTokenInvalid()
	}

	account, err := s.accounts.GetByID(ctx, stored.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrAccountNotFound()
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !account.IsActive {
		return nil, domain.ErrInvalidCredentials()
	}

	access, err := s.tokens.IssueAccess(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken: access,
		TokenType:   tokenTypeBearer,
		Role:        account.Role,
		UserID:      account.ID,
	}, nil
}

// EnsureAdmin creates the ADMIN account unless the email is already taken.
// created is false when an ADMIN with that email already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (_ *domain.Account, created bool, err error) {
	existing, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			return nil, false, apperrors.Conflict(fmt.Sprintf("%s is registered with role %s", existing.Email, existing.Role))
		}
		return existing, false, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, false, fmt.Errorf("load account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	admin := &domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin account created", slog.String("account_id", admin.ID))
	return admin, true, nil
}

// ResetAllPasswords sets every account's password to password.
func (s *AuthService) ResetAllPasswords(ctx context.Context, password string) (int64, error) {
	if password == "" {
		return 0, apperrors.InvalidInput("password must not be empty")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, err
	}
	n, err := s.accounts.SetAllPasswords(ctx, hash)
	if err != nil {
		return 0, err
	}
	s.logger.WarnContext(ctx, "all account passwords reset", slog.Int64("accounts", n))
	return n, nil
}

// ListAccounts pages through accounts, optionally restricted to one role.
func (s *AuthService) ListAccounts(ctx context.Context, role string, params pagination.Params) ([]domain.Account, int, error) {
	var r domain.Role
	if role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, 0, apperrors.InvalidInput(err.Error())
		}
		r = parsed
	}
	return s.accounts.List(ctx, r, params)
}

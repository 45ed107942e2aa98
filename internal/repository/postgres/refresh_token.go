package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/database"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a RefreshTokenRepository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a token hash.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) (err error) {
	const query = `
		INSERT INTO refresh_tokens (id, account_id, token_hash, is_revoked, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "refresh_tokens.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, t.ID, t.AccountID, t.TokenHash, t.IsRevoked, t.CreatedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetByHash returns the stored token or apperrors.ErrNotFound.
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (_ *domain.RefreshToken, err error) {
	const query = `
		SELECT id, account_id, token_hash, is_revoked, created_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	ctx, end := database.TraceQuery(ctx, "refresh_tokens.get_by_hash", query)
	defer func() { end(err) }()

	var t domain.RefreshToken
	err = r.db.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID, &t.AccountID, &t.TokenHash, &t.IsRevoked, &t.CreatedAt, &t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("refresh token", "(hash)")
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	return &t, nil
}

// Revoke sets is_revoked. The statement only ever sets the flag to true, so
// it cannot un-revoke, and matching no row is not an error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) (err error) {
	const query = `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token_hash = $1 AND NOT is_revoked`

	ctx, end := database.TraceQuery(ctx, "refresh_tokens.revoke", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForAccount revokes every unrevoked token of the account.
func (r *RefreshTokenRepository) RevokeAllForAccount(ctx context.Context, accountID string) (_ int64, err error) {
	const query = `UPDATE refresh_tokens SET is_revoked = TRUE WHERE account_id = $1 AND NOT is_revoked`

	ctx, end := database.TraceQuery(ctx, "refresh_tokens.revoke_all_for_account", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("revoke account refresh tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

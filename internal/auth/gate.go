package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
)

// AccountLookup resolves a token subject.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// Gate authenticates bearer tokens and authorizes them against a role set.
// It never writes.
type Gate struct {
	tokens   *TokenService
	accounts AccountLookup
}

// NewGate creates a Gate.
func NewGate(tokens *TokenService, accounts AccountLookup) *Gate {
	return &Gate{tokens: tokens, accounts: accounts}
}

// Authorize runs the checks in a fixed order: signature and format, expiry,
// token type, role, then account existence. With no required roles any
// authenticated account passes the role check.
func (g *Gate) Authorize(ctx context.Context, bearer string, required ...domain.Role) (*domain.Account, error) {
	claims, err := g.tokens.Verify(bearer)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, domain.ErrWrongTokenType()
	}
	if len(required) > 0 && !slices.Contains(required, claims.Role) {
		return nil, domain.ErrForbidden(claims.Role)
	}

	account, err := g.accounts.GetByID(ctx, claims.AccountID())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrAccountNotFound()
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	return account, nil
}

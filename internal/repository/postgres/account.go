package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/database"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

const constraintAccountEmail = "uq_accounts_email"

const accountColumns = `id, name, email, password_hash, role::text, phone,
	COALESCE(to_char(dob, 'YYYY-MM-DD'), ''), COALESCE(gender::text, ''),
	image_url, is_active, created_at, updated_at`

const insertAccountSQL = `
	INSERT INTO accounts (id, name, email, password_hash, role, phone, dob, gender, image_url, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::date, NULLIF($8, '')::gender, $9, $10, $11, $12)`

// AccountRepository implements repository.AccountRepository.
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func accountArgs(a *domain.Account) []any {
	return []any{
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.Phone,
		a.DOB, string(a.Gender), a.ImageURL, a.IsActive, a.CreatedAt, a.UpdatedAt,
	}
}

// insertAccount is shared with the doctor repository's transaction.
func insertAccount(ctx context.Context, db execer, a *domain.Account) error {
	if _, err := db.Exec(ctx, insertAccountSQL, accountArgs(a)...); err != nil {
		if database.IsUniqueViolation(err, constraintAccountEmail) {
			return domain.ErrDuplicateEmail(a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (err error) {
	ctx, end := database.TraceQuery(ctx, "accounts.create", insertAccountSQL)
	defer func() { end(err) }()

	return insertAccount(ctx, r.db, a)
}

// GetByID returns the account or apperrors.ErrNotFound.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(ctx, "accounts.get_by_id", query, id)
}

// GetByEmail returns the account or apperrors.ErrNotFound.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanOne(ctx, "accounts.get_by_email", query, domain.NormalizeEmail(email))
}

// Update writes name, phone, dob, gender and image_url.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) (err error) {
	query := `
		UPDATE accounts
		SET name = $1, phone = $2, dob = NULLIF($3, '')::date, gender = NULLIF($4, '')::gender,
		    image_url = $5, updated_at = $6
		WHERE id = $7`

	ctx, end := database.TraceQuery(ctx, "accounts.update", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, a.Name, a.Phone, a.DOB, string(a.Gender), a.ImageURL, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", a.ID)
	}
	return nil
}

// UpdatePassword replaces one account's password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) (err error) {
	const query = `UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "accounts.update_password", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", id)
	}
	return nil
}

// SetAllPasswords replaces every account's password hash.
func (r *AccountRepository) SetAllPasswords(ctx context.Context, passwordHash string) (_ int64, err error) {
	const query = `UPDATE accounts SET password_hash = $1, updated_at = NOW()`

	ctx, end := database.TraceQuery(ctx, "accounts.set_all_passwords", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("reset passwords: %w", err)
	}
	return ct.RowsAffected(), nil
}

// List pages through accounts, newest first. An empty role lists all.
func (r *AccountRepository) List(ctx context.Context, role domain.Role, params pagination.Params) (_ []domain.Account, _ int, err error) {
	const where = `WHERE ($1 = '' OR role::text = $1)`

	ctx, end := database.TraceQuery(ctx, "accounts.list", "SELECT FROM accounts "+where)
	defer func() { end(err) }()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts `+where, string(role)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts `+where+` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		string(role), params.PerPage, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, params.PerPage)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, total, nil
}

// CountByRole returns account counts keyed by role. Missing roles are zero.
func (r *AccountRepository) CountByRole(ctx context.Context) (_ map[domain.Role]int, err error) {
	const query = `SELECT role::text, COUNT(*) FROM accounts GROUP BY role`

	ctx, end := database.TraceQuery(ctx, "accounts.count_by_role", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count accounts by role: %w", err)
	}
	defer rows.Close()

	counts := map[domain.Role]int{}
	for rows.Next() {
		var role domain.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

func (r *AccountRepository) scanOne(ctx context.Context, op, query string, arg any) (_ *domain.Account, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	a, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("account", fmt.Sprint(arg))
	}
	return a, err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Phone,
		&a.DOB, &a.Gender, &a.ImageURL, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

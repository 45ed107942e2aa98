package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/database"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

const constraintPaymentAppointment = "uq_payments_appointment"

const paymentColumns = `id, appointment_id, amount, method::text, status::text, created_at, updated_at`

// PaymentRepository implements repository.PaymentRepository.
type PaymentRepository struct {
	db database.DBTX
}

// NewPaymentRepository creates a PaymentRepository.
func NewPaymentRepository(db database.DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment. One payment per appointment.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) (err error) {
	query := `
		INSERT INTO payments (id, appointment_id, amount, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "payments.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		p.ID, p.AppointmentID, p.Amount, string(p.Method), string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, constraintPaymentAppointment) {
			return apperrors.AlreadyExists("payment", "appointment_id", p.AppointmentID)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID returns the payment or apperrors.ErrNotFound.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetByAppointmentID returns the payment attached to an appointment.
func (r *PaymentRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*domain.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE appointment_id = $1`, appointmentID)
}

// ListByUser returns payments of appointments booked by userID, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Payment, int, error) {
	const where = ` WHERE appointment_id IN (SELECT id FROM appointments WHERE user_id = $1)`
	return r.list(ctx, "payments.list_by_user", where, []any{userID}, params)
}

// List returns every payment, newest first.
func (r *PaymentRepository) List(ctx context.Context, params pagination.Params) ([]domain.Payment, int, error) {
	return r.list(ctx, "payments.list", "", nil, params)
}

// UpdateStatus settles the payment and mirrors the status onto its
// appointment in one transaction.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) (_ *domain.Payment, err error) {
	ctx, end := database.TraceQuery(ctx, "payments.update_status", "UPDATE payments; UPDATE appointments")
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPayment(tx.QueryRow(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3 RETURNING `+paymentColumns,
		string(status), at, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("payment", id)
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE appointments SET payment_status = $1, updated_at = $2 WHERE id = $3`,
		string(status), at, p.AppointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("mirror appointment payment status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// Totals returns payment counts per status and the sum of PAID amounts.
func (r *PaymentRepository) Totals(ctx context.Context) (_ map[domain.PaymentStatus]int, _ int64, err error) {
	const query = `SELECT status::text, COUNT(*), COALESCE(SUM(amount), 0)::bigint FROM payments GROUP BY status`

	ctx, end := database.TraceQuery(ctx, "payments.totals", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("payment totals: %w", err)
	}
	defer rows.Close()

	counts := map[domain.PaymentStatus]int{}
	var revenue int64
	for rows.Next() {
		var (
			s   domain.PaymentStatus
			n   int
			sum int64
		)
		if err := rows.Scan(&s, &n, &sum); err != nil {
			return nil, 0, fmt.Errorf("scan payment totals: %w", err)
		}
		counts[s] = n
		if s == domain.PaymentPaid {
			revenue = sum
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payment totals: %w", err)
	}
	return counts, revenue, nil
}

func (r *PaymentRepository) list(ctx context.Context, op, where string, args []any, params pagination.Params) (_ []domain.Payment, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, op, "SELECT FROM payments"+where)
	defer func() { end(err) }()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM payments%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, n+1, n+2)
	rows, err := r.db.Query(ctx, query, append(args, params.PerPage, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0, params.PerPage)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, total, nil
}

func (r *PaymentRepository) getOne(ctx context.Context, query, arg string) (_ *domain.Payment, err error) {
	ctx, end := database.TraceQuery(ctx, "payments.get", query)
	defer func() { end(err) }()

	p, err := scanPayment(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("payment", arg)
	}
	return p, err
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(&p.ID, &p.AppointmentID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

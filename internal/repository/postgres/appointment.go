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

const constraintDoctorSlot = "uq_doctor_slot_active"

const appointmentColumns = `ap.id, ap.user_id, ap.doctor_id, COALESCE(da.name, ''),
	to_char(ap.appointment_date, 'YYYY-MM-DD'), to_char(ap.appointment_time, 'HH24:MI'),
	ap.status::text, ap.payment_status::text, ap.created_at, ap.updated_at`

// appointmentJoin resolves the doctor's display name for appointmentColumns.
// The appointment table itself must be aliased ap.
const appointmentJoin = `
	LEFT JOIN doctors d ON d.id = ap.doctor_id
	LEFT JOIN accounts da ON da.id = d.account_id`

// AppointmentRepository implements repository.AppointmentRepository.
type AppointmentRepository struct {
	db database.DBTX
}

// NewAppointmentRepository creates an AppointmentRepository.
func NewAppointmentRepository(db database.DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts the appointment. The partial unique index on the slot is
// the final arbiter between concurrent bookings.
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) (err error) {
	query := `
		INSERT INTO appointments (id, user_id, doctor_id, appointment_date, appointment_time, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "appointments.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		a.ID, a.UserID, a.DoctorID, a.Date, a.Time,
		string(a.Status), string(a.PaymentStatus), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, constraintDoctorSlot) {
			return domain.ErrSlotUnavailable(a.Date, a.Time)
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// GetByID returns the appointment or apperrors.ErrNotFound.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (_ *domain.Appointment, err error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ap` + appointmentJoin + ` WHERE ap.id = $1`

	ctx, end := database.TraceQuery(ctx, "appointments.get_by_id", query)
	defer func() { end(err) }()

	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", id)
	}
	return a, err
}

// SlotTaken reports whether a non-cancelled appointment holds the slot.
func (r *AppointmentRepository) SlotTaken(ctx context.Context, doctorID, date, clock string) (_ bool, err error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2::date AND appointment_time = $3::time
			  AND status <> 'CANCELLED'
		)`

	ctx, end := database.TraceQuery(ctx, "appointments.slot_taken", query)
	defer func() { end(err) }()

	var taken bool
	if err := r.db.QueryRow(ctx, query, doctorID, date, clock).Scan(&taken); err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

// TransitionStatus moves the row from one status to another in a single
// conditional UPDATE. It reports false when the row was no longer in from.
func (r *AppointmentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.Status) (_ *domain.Appointment, _ bool, err error) {
	query := `
		WITH ap AS (
			UPDATE appointments SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status::text = $3
			RETURNING *
		)
		SELECT ` + appointmentColumns + ` FROM ap` + appointmentJoin

	ctx, end := database.TraceQuery(ctx, "appointments.transition_status", query)
	defer func() { end(err) }()

	a, err := scanAppointment(r.db.QueryRow(ctx, query, string(to), id, string(from)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// List pages through appointments, newest first. Empty filter fields match
// everything.
func (r *AppointmentRepository) List(ctx context.Context, f domain.AppointmentFilter, params pagination.Params) (_ []domain.Appointment, _ int, err error) {
	const where = ` WHERE ($1 = '' OR ap.user_id::text = $1)
		AND ($2 = '' OR ap.doctor_id::text = $2)
		AND ($3 = '' OR ap.status::text = $3)`

	ctx, end := database.TraceQuery(ctx, "appointments.list", "SELECT FROM appointments ap"+where)
	defer func() { end(err) }()

	args := []any{f.UserID, f.DoctorID, string(f.Status)}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments ap`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments ap`+appointmentJoin+where+` ORDER BY ap.created_at DESC, ap.id DESC LIMIT $4 OFFSET $5`,
		append(args, params.PerPage, params.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.Appointment, 0, params.PerPage)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appointments = append(appointments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate appointments: %w", err)
	}
	return appointments, total, nil
}

// CountByStatus counts appointments per status, for one doctor or for all
// when doctorID is empty.
func (r *AppointmentRepository) CountByStatus(ctx context.Context, doctorID string) (_ map[domain.Status]int, err error) {
	const query = `SELECT status::text, COUNT(*) FROM appointments WHERE ($1 = '' OR doctor_id::text = $1) GROUP BY status`

	ctx, end := database.TraceQuery(ctx, "appointments.count_by_status", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("count appointments by status: %w", err)
	}
	defer rows.Close()

	counts := map[domain.Status]int{}
	for rows.Next() {
		var s domain.Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// ListForDoctorOnDate returns one day of a doctor's schedule with patient
// names, ordered by time.
func (r *AppointmentRepository) ListForDoctorOnDate(ctx context.Context, doctorID, date string) (_ []domain.TodayPatient, err error) {
	const query = `
		SELECT ap.id, a.name, to_char(ap.appointment_time, 'HH24:MI'), ap.status::text
		FROM appointments ap
		JOIN accounts a ON a.id = ap.user_id
		WHERE ap.doctor_id = $1 AND ap.appointment_date = $2::date
		ORDER BY ap.appointment_time, ap.id`

	ctx, end := database.TraceQuery(ctx, "appointments.list_for_doctor_on_date", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list doctor schedule: %w", err)
	}
	defer rows.Close()

	patients := []domain.TodayPatient{}
	for rows.Next() {
		var p domain.TodayPatient
		if err := rows.Scan(&p.AppointmentID, &p.PatientName, &p.Time, &p.Status); err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID, &a.UserID, &a.DoctorID, &a.DoctorName, &a.Date, &a.Time,
		&a.Status, &a.PaymentStatus, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}

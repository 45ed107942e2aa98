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

const doctorSelect = `
	SELECT d.id, d.account_id, a.name, a.email, a.phone, d.speciality, d.experience_years,
	       d.about, d.consultation_fee, d.is_available, d.image_url, d.created_at, d.updated_at
	FROM doctors d
	JOIN accounts a ON a.id = d.account_id`

// DoctorRepository implements repository.DoctorRepository.
type DoctorRepository struct {
	db database.DBTX
}

// NewDoctorRepository creates a DoctorRepository.
func NewDoctorRepository(db database.DBTX) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// CreateWithAccount inserts the DOCTOR account and its profile atomically.
func (r *DoctorRepository) CreateWithAccount(ctx context.Context, account *domain.Account, d *domain.Doctor) (err error) {
	ctx, end := database.TraceQuery(ctx, "doctors.create_with_account", "INSERT INTO accounts; INSERT INTO doctors")
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertAccount(ctx, tx, account); err != nil {
		return err
	}

	query := `
		INSERT INTO doctors (id, account_id, speciality, experience_years, about, consultation_fee, is_available, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = tx.Exec(ctx, query,
		d.ID, d.AccountID, d.Speciality, d.ExperienceYears, d.About,
		d.ConsultationFee, d.IsAvailable, d.ImageURL, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns the doctor or apperrors.ErrNotFound.
func (r *DoctorRepository) GetByID(ctx context.Context, id string) (*domain.Doctor, error) {
	return r.getOne(ctx, doctorSelect+` WHERE d.id = $1`, id)
}

// GetByAccountID returns the profile owned by accountID.
func (r *DoctorRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Doctor, error) {
	return r.getOne(ctx, doctorSelect+` WHERE d.account_id = $1`, accountID)
}

// Update writes the self-service profile fields and availability.
func (r *DoctorRepository) Update(ctx context.Context, d *domain.Doctor) (err error) {
	query := `
		UPDATE doctors
		SET speciality = $1, experience_years = $2, about = $3, consultation_fee = $4,
		    is_available = $5, image_url = $6, updated_at = $7
		WHERE id = $8`

	ctx, end := database.TraceQuery(ctx, "doctors.update", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		d.Speciality, d.ExperienceYears, d.About, d.ConsultationFee,
		d.IsAvailable, d.ImageURL, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("doctor", d.ID)
	}
	return nil
}

// SetAvailability flips the availability flag and returns the fresh row.
func (r *DoctorRepository) SetAvailability(ctx context.Context, id string, available bool) (_ *domain.Doctor, err error) {
	const query = `UPDATE doctors SET is_available = $1, updated_at = NOW() WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "doctors.set_availability", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, available, id)
	if err != nil {
		return nil, fmt.Errorf("set doctor availability: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperrors.NotFound("doctor", id)
	}
	return r.GetByID(ctx, id)
}

// List pages through the directory, newest first. Speciality matches
// case-insensitively.
func (r *DoctorRepository) List(ctx context.Context, f domain.DoctorFilter, params pagination.Params) (_ []domain.Doctor, _ int, err error) {
	const where = ` WHERE (NOT $1 OR d.is_available) AND ($2 = '' OR d.speciality ILIKE $2)`

	ctx, end := database.TraceQuery(ctx, "doctors.list", doctorSelect+where)
	defer func() { end(err) }()

	var total int
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM doctors d`+where, f.AvailableOnly, f.Speciality).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	rows, err := r.db.Query(ctx,
		doctorSelect+where+` ORDER BY d.created_at DESC, d.id DESC LIMIT $3 OFFSET $4`,
		f.AvailableOnly, f.Speciality, params.PerPage, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	doctors := make([]domain.Doctor, 0, params.PerPage)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doctors: %w", err)
	}
	return doctors, total, nil
}

func (r *DoctorRepository) getOne(ctx context.Context, query, arg string) (_ *domain.Doctor, err error) {
	ctx, end := database.TraceQuery(ctx, "doctors.get", query)
	defer func() { end(err) }()

	d, err := scanDoctor(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("doctor", arg)
	}
	return d, err
}

func scanDoctor(row pgx.Row) (*domain.Doctor, error) {
	var d domain.Doctor
	err := row.Scan(
		&d.ID, &d.AccountID, &d.Name, &d.Email, &d.Phone, &d.Speciality, &d.ExperienceYears,
		&d.About, &d.ConsultationFee, &d.IsAvailable, &d.ImageURL, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan doctor: %w", err)
	}
	return &d, nil
}

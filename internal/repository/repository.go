package repository

import (
	"context"
	"time"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

// AccountRepository persists accounts of every role.
type AccountRepository interface {
	// Create inserts an account. A taken email yields DUPLICATE_EMAIL.
	Create(ctx context.Context, account *domain.Account) error

	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByEmail matches the normalized (lower-case) email.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Update writes the mutable profile fields. Role and email are untouched.
	Update(ctx context.Context, account *domain.Account) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetAllPasswords replaces every account's password hash and returns the
	// number of rows changed.
	SetAllPasswords(ctx context.Context, passwordHash string) (int64, error)

	List(ctx context.Context, role domain.Role, params pagination.Params) ([]domain.Account, int, error)

	// CountByRole returns the number of accounts per role.
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
}

// RefreshTokenRepository persists issued refresh tokens by hash. Rows are
// never deleted.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke marks the token revoked. Unknown and already revoked hashes are
	// not an error.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllForAccount revokes every live token of the account.
	RevokeAllForAccount(ctx context.Context, accountID string) (int64, error)
}

// DoctorRepository is the doctor directory.
type DoctorRepository interface {
	// CreateWithAccount inserts the account and its doctor profile in one
	// transaction. Neither row exists if either insert fails.
	CreateWithAccount(ctx context.Context, account *domain.Account, doctor *domain.Doctor) error

	GetByID(ctx context.Context, id string) (*domain.Doctor, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.Doctor, error)
	Update(ctx context.Context, doctor *domain.Doctor) error
	SetAvailability(ctx context.Context, id string, available bool) (*domain.Doctor, error)
	List(ctx context.Context, filter domain.DoctorFilter, params pagination.Params) ([]domain.Doctor, int, error)
}

// AppointmentRepository is the appointment ledger store.
type AppointmentRepository interface {
	// Create inserts a BOOKED appointment. Losing the slot to a concurrent
	// booking yields SLOT_UNAVAILABLE.
	Create(ctx context.Context, appointment *domain.Appointment) error

	GetByID(ctx context.Context, id string) (*domain.Appointment, error)

	// SlotTaken reports whether a non-cancelled appointment holds the slot.
	SlotTaken(ctx context.Context, doctorID, date, clock string) (bool, error)

	// TransitionStatus moves the appointment from one status to another only
	// if it is still in from. It returns false when the row was not in from.
	TransitionStatus(ctx context.Context, id string, from, to domain.Status) (*domain.Appointment, bool, error)

	List(ctx context.Context, filter domain.AppointmentFilter, params pagination.Params) ([]domain.Appointment, int, error)

	CountByStatus(ctx context.Context, doctorID string) (map[domain.Status]int, error)

	// ListForDoctorOnDate returns the doctor's schedule for one day with
	// patient names, ordered by time.
	ListForDoctorOnDate(ctx context.Context, doctorID, date string) ([]domain.TodayPatient, error)
}

// DocumentRepository stores appointment documents. Append-only.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	ListByAppointment(ctx context.Context, appointmentID string) ([]domain.Document, error)
}

// PaymentRepository stores the single payment of an appointment.
type PaymentRepository interface {
	// Create inserts a payment. A second payment for the same appointment
	// yields ALREADY_EXISTS.
	Create(ctx context.Context, payment *domain.Payment) error

	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*domain.Payment, error)

	// ListByUser returns payments of appointments booked by userID.
	ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Payment, int, error)
	List(ctx context.Context, params pagination.Params) ([]domain.Payment, int, error)

	// UpdateStatus sets the payment status and mirrors it onto the
	// appointment in the same transaction.
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) (*domain.Payment, error)

	// Totals returns payment counts per status and the sum of PAID amounts.
	Totals(ctx context.Context) (map[domain.PaymentStatus]int, int64, error)
}

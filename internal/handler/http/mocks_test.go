package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepo) Update(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockAccountRepo) SetAllPasswords(ctx context.Context, hash string) (int64, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccountRepo) List(ctx context.Context, role domain.Role, params pagination.Params) ([]domain.Account, int, error) {
	args := m.Called(ctx, role, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Account), args.Int(1), args.Error(2)
}

func (m *mockAccountRepo) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Role]int), args.Error(1)
}

type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, t *domain.RefreshToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockRefreshTokenRepo) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, hash string) error {
	return m.Called(ctx, hash).Error(0)
}

func (m *mockRefreshTokenRepo) RevokeAllForAccount(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

type mockDoctorRepo struct {
	mock.Mock
}

func (m *mockDoctorRepo) CreateWithAccount(ctx context.Context, a *domain.Account, d *domain.Doctor) error {
	return m.Called(ctx, a, d).Error(0)
}

func (m *mockDoctorRepo) GetByID(ctx context.Context, id string) (*domain.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Doctor), args.Error(1)
}

func (m *mockDoctorRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.Doctor, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Doctor), args.Error(1)
}

func (m *mockDoctorRepo) Update(ctx context.Context, d *domain.Doctor) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDoctorRepo) SetAvailability(ctx context.Context, id string, available bool) (*domain.Doctor, error) {
	args := m.Called(ctx, id, available)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Doctor), args.Error(1)
}

func (m *mockDoctorRepo) List(ctx context.Context, f domain.DoctorFilter, params pagination.Params) ([]domain.Doctor, int, error) {
	args := m.Called(ctx, f, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Doctor), args.Int(1), args.Error(2)
}

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *domain.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) SlotTaken(ctx context.Context, doctorID, date, clock string) (bool, error) {
	args := m.Called(ctx, doctorID, date, clock)
	return args.Bool(0), args.Error(1)
}

func (m *mockAppointmentRepo) TransitionStatus(ctx context.Context, id string, from, to domain.Status) (*domain.Appointment, bool, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Appointment), args.Bool(1), args.Error(2)
}

func (m *mockAppointmentRepo) List(ctx context.Context, f domain.AppointmentFilter, params pagination.Params) ([]domain.Appointment, int, error) {
	args := m.Called(ctx, f, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Appointment), args.Int(1), args.Error(2)
}

func (m *mockAppointmentRepo) CountByStatus(ctx context.Context, doctorID string) (map[domain.Status]int, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Status]int), args.Error(1)
}

func (m *mockAppointmentRepo) ListForDoctorOnDate(ctx context.Context, doctorID, date string) ([]domain.TodayPatient, error) {
	args := m.Called(ctx, doctorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TodayPatient), args.Error(1)
}

type mockDocumentRepo struct {
	mock.Mock
}

func (m *mockDocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDocumentRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]domain.Document, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepo) GetByAppointmentID(ctx context.Context, appointmentID string) (*domain.Payment, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepo) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Payment, int, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Payment), args.Int(1), args.Error(2)
}

func (m *mockPaymentRepo) List(ctx context.Context, params pagination.Params) ([]domain.Payment, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Payment), args.Int(1), args.Error(2)
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, id string, s domain.PaymentStatus, at time.Time) (*domain.Payment, error) {
	args := m.Called(ctx, id, s, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepo) Totals(ctx context.Context) (map[domain.PaymentStatus]int, int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(map[domain.PaymentStatus]int), args.Get(1).(int64), args.Error(2)
}

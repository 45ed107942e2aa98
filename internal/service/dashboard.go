package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/validator"
)

// DashboardService aggregates counts for the admin and doctor dashboards.
type DashboardService struct {
	accounts     repository.AccountRepository
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	payments     repository.PaymentRepository
	now          func() time.Time
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(
	accounts repository.AccountRepository,
	doctors repository.DoctorRepository,
	appointments repository.AppointmentRepository,
	payments repository.PaymentRepository,
) *DashboardService {
	return &DashboardService{
		accounts:     accounts,
		doctors:      doctors,
		appointments: appointments,
		payments:     payments,
		now:          utcNow,
	}
}

// Admin returns system-wide counts.
func (s *DashboardService) Admin(ctx context.Context) (*domain.AdminDashboard, error) {
	roles, err := s.accounts.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.appointments.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	payments, revenue, err := s.payments.Totals(ctx)
	if err != nil {
		return nil, err
	}
	_, available, err := s.doctors.List(ctx, domain.DoctorFilter{AvailableOnly: true}, pagination.New(1, 1))
	if err != nil {
		return nil, fmt.Errorf("count available doctors: %w", err)
	}

	return &domain.AdminDashboard{
		Users:                 roles[domain.RoleUser],
		Doctors:               roles[domain.RoleDoctor],
		Admins:                roles[domain.RoleAdmin],
		AvailableDoctors:      available,
		BookedAppointments:    statuses[domain.StatusBooked],
		CompletedAppointments: statuses[domain.StatusCompleted],
		CancelledAppointments: statuses[domain.StatusCancelled],
		PendingPayments:       payments[domain.PaymentPending],
		PaidPayments:          payments[domain.PaymentPaid],
		RefundedPayments:      payments[domain.PaymentRefunded],
		Revenue:               revenue,
	}, nil
}

// Doctor returns today's schedule and lifetime completed and cancelled
// counts for the doctor owned by accountID. "Today" is the UTC date.
func (s *DashboardService) Doctor(ctx context.Context, accountID string) (*domain.DoctorDashboard, error) {
	doctor, err := s.doctors.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(validator.DateLayout)
	patients, err := s.appointments.ListForDoctorOnDate(ctx, doctor.ID, today)
	if err != nil {
		return nil, err
	}
	statuses, err := s.appointments.CountByStatus(ctx, doctor.ID)
	if err != nil {
		return nil, err
	}

	return &domain.DoctorDashboard{
		Date:                  today,
		TodayAppointments:     len(patients),
		CompletedAppointments: statuses[domain.StatusCompleted],
		CancelledAppointments: statuses[domain.StatusCancelled],
		TodayPatients:         patients,
	}, nil
}

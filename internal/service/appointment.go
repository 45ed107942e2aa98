package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/validator"
)

// AppointmentService is the appointment ledger: booking, cancellation and
// completion over the BOOKED -> CANCELLED | COMPLETED state machine.
type AppointmentService struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	events       EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

// NewAppointmentService creates an AppointmentService.
func NewAppointmentService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	events EventPublisher,
	logger *slog.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		doctors:      doctors,
		events:       events,
		logger:       logger,
		now:          utcNow,
	}
}

// BookInput is a booking request.
type BookInput struct {
	DoctorID string
	Date     string
	Time     string
}

// Book reserves a slot for the calling USER. The pre-check gives a clean
// error in the common case; the slot index decides concurrent races.
func (s *AppointmentService) Book(ctx context.Context, account *domain.Account, in BookInput) (*domain.Appointment, error) {
	if _, err := time.Parse(validator.DateLayout, in.Date); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid appointment_date %q: must be YYYY-MM-DD", in.Date))
	}
	clock, err := validator.ParseClock(in.Time)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid appointment_time %q: must be HH:MM", in.Time))
	}
	slot := clock.Format(validator.ClockLayout)

	doctor, err := s.doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsAvailable {
		return nil, apperrors.InvalidInput("doctor is not available")
	}

	taken, err := s.appointments.SlotTaken(ctx, doctor.ID, in.Date, slot)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrSlotUnavailable(in.Date, slot)
	}

	now := s.now()
	appt := &domain.Appointment{
		ID:            uuid.NewString(),
		UserID:        account.ID,
		DoctorID:      doctor.ID,
		DoctorName:    doctor.Name,
		Date:          in.Date,
		Time:          slot,
		Status:        domain.StatusBooked,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	appointmentTransitions.WithLabelValues(string(domain.StatusBooked)).Inc()
	if err := s.events.AppointmentBooked(ctx, appt); err != nil {
		warn(ctx, s.logger, "failed to publish appointment.booked", err, slog.String("appointment_id", appt.ID))
	}
	s.logger.InfoContext(ctx, "appointment booked",
		slog.String("appointment_id", appt.ID),
		slog.String("doctor_id", appt.DoctorID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
	)
	return appt, nil
}

// Cancel cancels a BOOKED appointment. A USER may only cancel their own;
// anyone else's is reported as not found. ADMIN may cancel any.
func (s *AppointmentService) Cancel(ctx context.Context, account *domain.Account, id string) (*domain.Appointment, error) {
	appt, _, err := s.Accessible(ctx, account, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, appt, domain.StatusCancelled)
}

// Complete marks an appointment of the calling doctor as COMPLETED.
func (s *AppointmentService) Complete(ctx context.Context, account *domain.Account, id string) (*domain.Appointment, error) {
	appt, _, err := s.Accessible(ctx, account, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, appt, domain.StatusCompleted)
}

// Accessible loads an appointment the account may act on and reports which
// side of the appointment the account is on. Appointments that exist but
// belong to someone else are reported as NOT_FOUND.
func (s *AppointmentService) Accessible(ctx context.Context, account *domain.Account, id string) (*domain.Appointment, domain.Uploader, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	switch account.Role {
	case domain.RoleAdmin:
		return appt, "", nil
	case domain.RoleUser:
		if appt.UserID == account.ID {
			return appt, domain.UploaderUser, nil
		}
	case domain.RoleDoctor:
		doctor, err := s.doctors.GetByAccountID(ctx, account.ID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", err
		}
		if doctor != nil && appt.DoctorID == doctor.ID {
			return appt, domain.UploaderDoctor, nil
		}
	}
	return nil, "", apperrors.NotFound("appointment", id)
}

func (s *AppointmentService) transition(ctx context.Context, appt *domain.Appointment, to domain.Status) (*domain.Appointment, error) {
	if !appt.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidStateTransition(appt.Status, to)
	}

	updated, ok, err := s.appointments.TransitionStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another transition.
		current, err := s.appointments.GetByID(ctx, appt.ID)
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidStateTransition(current.Status, to)
	}

	appointmentTransitions.WithLabelValues(string(to)).Inc()
	if err := s.events.AppointmentStatusChanged(ctx, updated, appt.Status); err != nil {
		warn(ctx, s.logger, "failed to publish appointment status change", err, slog.String("appointment_id", appt.ID))
	}
	s.logger.InfoContext(ctx, "appointment status changed",
		slog.String("appointment_id", appt.ID),
		slog.String("from", string(appt.Status)),
		slog.String("to", string(to)),
	)
	return updated, nil
}

// ListForUser lists the caller's own appointments, newest first.
func (s *AppointmentService) ListForUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Appointment, int, error) {
	return s.appointments.List(ctx, domain.AppointmentFilter{UserID: userID}, params)
}

// ListForDoctor lists the appointments of the doctor owned by accountID.
func (s *AppointmentService) ListForDoctor(ctx context.Context, accountID string, params pagination.Params) ([]domain.Appointment, int, error) {
	doctor, err := s.doctors.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}
	return s.appointments.List(ctx, domain.AppointmentFilter{DoctorID: doctor.ID}, params)
}

// ListAll is the admin listing with an optional status filter.
func (s *AppointmentService) ListAll(ctx context.Context, status string, params pagination.Params) ([]domain.Appointment, int, error) {
	var filter domain.AppointmentFilter
	if status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = st
	}
	return s.appointments.List(ctx, filter, params)
}

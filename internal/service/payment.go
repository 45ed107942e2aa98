package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

// PaymentService records and settles appointment payments.
type PaymentService struct {
	payments     repository.PaymentRepository
	appointments *AppointmentService
	events       EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(
	payments repository.PaymentRepository,
	appointments *AppointmentService,
	events EventPublisher,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:     payments,
		appointments: appointments,
		events:       events,
		logger:       logger,
		now:          utcNow,
	}
}

// CreatePaymentInput is a patient's payment for one appointment.
type CreatePaymentInput struct {
	AppointmentID string
	Amount        int64
	Method        string
}

// Create records a PENDING payment for an appointment the caller booked.
// A second payment for the same appointment is ALREADY_EXISTS.
func (s *PaymentService) Create(ctx context.Context, account *domain.Account, in CreatePaymentInput) (*domain.Payment, error) {
	if in.Amount <= 0 {
		return nil, apperrors.InvalidInput("amount must be greater than 0")
	}
	method, err := parseMethod(in.Method)
	if err != nil {
		return nil, err
	}

	appt, _, err := s.appointments.Accessible(ctx, account, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status == domain.StatusCancelled {
		return nil, apperrors.InvalidInput("cannot pay for a cancelled appointment")
	}

	now := s.now()
	p := &domain.Payment{
		ID:            uuid.NewString(),
		AppointmentID: appt.ID,
		Amount:        in.Amount,
		Method:        method,
		Status:        domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.events.PaymentCreated(ctx, p); err != nil {
		warn(ctx, s.logger, "failed to publish payment.created", err, slog.String("payment_id", p.ID))
	}
	s.logger.InfoContext(ctx, "payment recorded",
		slog.String("payment_id", p.ID),
		slog.String("appointment_id", p.AppointmentID),
		slog.Int64("amount", p.Amount),
	)
	return p, nil
}

// ListForUser lists payments of the caller's appointments.
func (s *PaymentService) ListForUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Payment, int, error) {
	return s.payments.ListByUser(ctx, userID, params)
}

// List is the admin listing of every payment.
func (s *PaymentService) List(ctx context.Context, params pagination.Params) ([]domain.Payment, int, error) {
	return s.payments.List(ctx, params)
}

// UpdateStatus settles a payment. The appointment's payment_status follows
// in the same transaction.
func (s *PaymentService) UpdateStatus(ctx context.Context, id, status string) (*domain.Payment, error) {
	target := domain.PaymentStatus(status)
	if !target.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q: must be PENDING, PAID or REFUNDED", status))
	}

	current, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.payments.UpdateStatus(ctx, id, target, s.now())
	if err != nil {
		return nil, err
	}

	if current.Status != target {
		if err := s.events.PaymentStatusChanged(ctx, updated, current.Status); err != nil {
			warn(ctx, s.logger, "failed to publish payment.status_changed", err, slog.String("payment_id", id))
		}
	}
	s.logger.InfoContext(ctx, "payment status updated",
		slog.String("payment_id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(target)),
	)
	return updated, nil
}

func parseMethod(s string) (domain.PaymentMethod, error) {
	switch m := domain.PaymentMethod(s); m {
	case domain.MethodCard, domain.MethodCash, domain.MethodBankTransfer, domain.MethodMobileWallet:
		return m, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("invalid method %q: must be CARD, CASH, BANK_TRANSFER or MOBILE_WALLET", s))
}

package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	pkgkafka "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/kafka"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/logger"
)

// Kafka topics for booking domain events.
const (
	TopicAccountRegistered    = "booking.account.registered"
	TopicDoctorCreated        = "booking.doctor.created"
	TopicAppointmentBooked    = "booking.appointment.booked"
	TopicAppointmentCancelled = "booking.appointment.cancelled"
	TopicAppointmentCompleted = "booking.appointment.completed"
	TopicPaymentCreated       = "booking.payment.created"
	TopicPaymentStatusChanged = "booking.payment.status_changed"
)

// Aggregate types.
const (
	AggregateAccount     = "account"
	AggregateDoctor      = "doctor"
	AggregateAppointment = "appointment"
	AggregatePayment     = "payment"
)

// Source identifies this service on every event.
const Source = "booking-api"

// AccountRegisteredData is the payload of account.registered. Credentials
// are never included.
type AccountRegisteredData struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// DoctorCreatedData is the payload of doctor.created.
type DoctorCreatedData struct {
	DoctorID        string `json:"doctor_id"`
	AccountID       string `json:"account_id"`
	Speciality      string `json:"speciality"`
	ConsultationFee int64  `json:"consultation_fee"`
}

// AppointmentData is the payload of every appointment event.
type AppointmentData struct {
	AppointmentID string `json:"appointment_id"`
	UserID        string `json:"user_id"`
	DoctorID      string `json:"doctor_id"`
	Date          string `json:"appointment_date"`
	Time          string `json:"appointment_time"`
	OldStatus     string `json:"old_status,omitempty"`
	NewStatus     string `json:"new_status"`
}

// PaymentData is the payload of payment events.
type PaymentData struct {
	PaymentID     string `json:"payment_id"`
	AppointmentID string `json:"appointment_id"`
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	OldStatus     string `json:"old_status,omitempty"`
	NewStatus     string `json:"new_status"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer turns domain changes into Kafka events. A Producer built with a
// nil Publisher drops every event, which is how events are disabled when no
// brokers are configured.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a Producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// Enabled reports whether events leave the process.
func (p *Producer) Enabled() bool {
	return p.kafka != nil
}

// AccountRegistered publishes account.registered.
func (p *Producer) AccountRegistered(ctx context.Context, a *domain.Account) error {
	return p.publish(ctx, TopicAccountRegistered, AggregateAccount, a.ID, AccountRegisteredData{
		AccountID: a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
	})
}

// DoctorCreated publishes doctor.created.
func (p *Producer) DoctorCreated(ctx context.Context, d *domain.Doctor) error {
	return p.publish(ctx, TopicDoctorCreated, AggregateDoctor, d.ID, DoctorCreatedData{
		DoctorID:        d.ID,
		AccountID:       d.AccountID,
		Speciality:      d.Speciality,
		ConsultationFee: d.ConsultationFee,
	})
}

// AppointmentBooked publishes appointment.booked.
func (p *Producer) AppointmentBooked(ctx context.Context, a *domain.Appointment) error {
	return p.publish(ctx, TopicAppointmentBooked, AggregateAppointment, a.ID, appointmentData(a, ""))
}

// AppointmentStatusChanged publishes appointment.cancelled or
// appointment.completed depending on the new status.
func (p *Producer) AppointmentStatusChanged(ctx context.Context, a *domain.Appointment, from domain.Status) error {
	var topic string
	switch a.Status {
	case domain.StatusCancelled:
		topic = TopicAppointmentCancelled
	case domain.StatusCompleted:
		topic = TopicAppointmentCompleted
	default:
		return fmt.Errorf("no topic for appointment status %s", a.Status)
	}
	return p.publish(ctx, topic, AggregateAppointment, a.ID, appointmentData(a, from))
}

// PaymentCreated publishes payment.created.
func (p *Producer) PaymentCreated(ctx context.Context, pay *domain.Payment) error {
	return p.publish(ctx, TopicPaymentCreated, AggregatePayment, pay.ID, paymentData(pay, ""))
}

// PaymentStatusChanged publishes payment.status_changed.
func (p *Producer) PaymentStatusChanged(ctx context.Context, pay *domain.Payment, from domain.PaymentStatus) error {
	return p.publish(ctx, TopicPaymentStatusChanged, AggregatePayment, pay.ID, paymentData(pay, from))
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	if p.kafka == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateType, aggregateID, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)
	evt.ActorID = logger.UserIDFromContext(ctx)

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "domain event published",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func appointmentData(a *domain.Appointment, from domain.Status) AppointmentData {
	return AppointmentData{
		AppointmentID: a.ID,
		UserID:        a.UserID,
		DoctorID:      a.DoctorID,
		Date:          a.Date,
		Time:          a.Time,
		OldStatus:     string(from),
		NewStatus:     string(a.Status),
	}
}

func paymentData(p *domain.Payment, from domain.PaymentStatus) PaymentData {
	return PaymentData{
		PaymentID:     p.ID,
		AppointmentID: p.AppointmentID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		OldStatus:     string(from),
		NewStatus:     string(p.Status),
	}
}

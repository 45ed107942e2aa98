package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

func TestCreatePayment(t *testing.T) {
	f := newFixture(t)
	ann, _, appt := bookedAppointment(t, f)
	ctx := context.Background()

	p, err := f.payment.Create(ctx, ann, CreatePaymentInput{AppointmentID: appt.ID, Amount: 150000, Method: "CARD"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, domain.MethodCard, p.Method)
	f.events.AssertCalled(t, "PaymentCreated", mock.Anything, p)

	_, err = f.payment.Create(ctx, ann, CreatePaymentInput{AppointmentID: appt.ID, Amount: 150000, Method: "CASH"})
	requireCode(t, err, "ALREADY_EXISTS")

	mine, total, err := f.payment.ListForUser(ctx, ann.ID, pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, p.ID, mine[0].ID)
}

func TestCreatePayment_Rejections(t *testing.T) {
	f := newFixture(t)
	ann, _, appt := bookedAppointment(t, f)
	bob := f.user(t, "Bob", "bob@example.com")
	ctx := context.Background()

	_, err := f.payment.Create(ctx, ann, CreatePaymentInput{AppointmentID: appt.ID, Amount: 0, Method: "CARD"})
	requireCode(t, err, "INVALID_INPUT")

	_, err = f.payment.Create(ctx, ann, CreatePaymentInput{AppointmentID: appt.ID, Amount: 10, Method: "BITCOIN"})
	requireCode(t, err, "INVALID_INPUT")

	_, err = f.payment.Create(ctx, bob, CreatePaymentInput{AppointmentID: appt.ID, Amount: 10, Method: "CARD"})
	requireCode(t, err, "NOT_FOUND")

	_, err = f.appointment.Cancel(ctx, ann, appt.ID)
	require.NoError(t, err)
	_, err = f.payment.Create(ctx, ann, CreatePaymentInput{AppointmentID: appt.ID, Amount: 10, Method: "CARD"})
	requireCode(t, err, "INVALID_INPUT")

	assert.Empty(t, f.payments.byID)
}

func TestUpdatePaymentStatus_MirrorsAppointment(t *testing.T) {
	f := newFixture(t)
	ann, _, appt := bookedAppointment(t, f)
	ctx := context.Background()

	p, err := f.payment.Create(ctx, ann, CreatePaymentInput{AppointmentID: appt.ID, Amount: 150000, Method: "MOBILE_WALLET"})
	require.NoError(t, err)

	paid, err := f.payment.UpdateStatus(ctx, p.ID, "PAID")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, paid.Status)
	f.events.AssertCalled(t, "PaymentStatusChanged", mock.Anything, paid, domain.PaymentPending)

	stored, err := f.appointments.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, stored.PaymentStatus)

	_, err = f.payment.UpdateStatus(ctx, p.ID, "LOST")
	requireCode(t, err, "INVALID_INPUT")

	_, err = f.payment.UpdateStatus(ctx, "missing", "PAID")
	requireCode(t, err, "NOT_FOUND")
}

func TestUpdatePaymentStatus_UnchangedPublishesNothing(t *testing.T) {
	f := newFixture(t)
	ann, _, appt := bookedAppointment(t, f)
	ctx := context.Background()

	p, err := f.payment.Create(ctx, ann, CreatePaymentInput{AppointmentID: appt.ID, Amount: 100, Method: "CASH"})
	require.NoError(t, err)

	events := &mockEvents{}
	f.payment.events = events

	_, err = f.payment.UpdateStatus(ctx, p.ID, "PENDING")
	require.NoError(t, err)
	events.AssertNotCalled(t, "PaymentStatusChanged", mock.Anything, mock.Anything, mock.Anything)
}

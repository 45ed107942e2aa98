// Package service holds the booking business logic. Services depend on the
// repository interfaces and are wired in internal/app.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/cache"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

// EventPublisher is satisfied by *event.Producer.
type EventPublisher interface {
	AccountRegistered(ctx context.Context, a *domain.Account) error
	DoctorCreated(ctx context.Context, d *domain.Doctor) error
	AppointmentBooked(ctx context.Context, a *domain.Appointment) error
	AppointmentStatusChanged(ctx context.Context, a *domain.Appointment, from domain.Status) error
	PaymentCreated(ctx context.Context, p *domain.Payment) error
	PaymentStatusChanged(ctx context.Context, p *domain.Payment, from domain.PaymentStatus) error
}

// DoctorCache is satisfied by *cache.DoctorCache.
type DoctorCache interface {
	Get(ctx context.Context, speciality string, params pagination.Params) (*cache.DoctorPage, bool, error)
	Set(ctx context.Context, speciality string, params pagination.Params, page *cache.DoctorPage) error
	Invalidate(ctx context.Context) error
}

var appointmentTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "booking_appointments_total",
		Help: "Appointments that entered a status, by status.",
	},
	[]string{"status"},
)

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

func utcNow() time.Time { return time.Now().UTC() }

// storeUpload saves f under folder. Rejections caused by the file itself
// keep their INVALID_INPUT error; any other storage failure becomes
// UPLOAD_FAILED.
func storeUpload(ctx context.Context, store storage.Storage, folder string, f *Upload) (string, error) {
	res, err := store.Upload(ctx, &storage.UploadInput{
		Key:         storage.NewKey(folder, f.Filename),
		ContentType: f.ContentType,
		Size:        f.Size,
		Data:        f.Data,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return "", err
		}
		return "", domain.ErrUploadFailed(err)
	}
	return res.URL, nil
}

// warn logs a failed side effect that must not fail the request.
func warn(ctx context.Context, l *slog.Logger, msg string, err error, attrs ...any) {
	l.WarnContext(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
}

func parseStatus(s string) (domain.Status, error) {
	st := domain.Status(s)
	if !st.IsValid() {
		return "", apperrors.InvalidInput(fmt.Sprintf("invalid status %q: must be BOOKED, COMPLETED or CANCELLED", s))
	}
	return st, nil
}

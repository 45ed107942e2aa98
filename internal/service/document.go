package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
)

// DocumentService attaches files to appointments.
type DocumentService struct {
	documents    repository.DocumentRepository
	appointments *AppointmentService
	media        storage.Storage
	logger       *slog.Logger
	now          func() time.Time
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(
	documents repository.DocumentRepository,
	appointments *AppointmentService,
	media storage.Storage,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		documents:    documents,
		appointments: appointments,
		media:        media,
		logger:       logger,
		now:          utcNow,
	}
}

// Upload stores file and records it against the appointment. Only the
// patient or the doctor of the appointment may upload.
func (s *DocumentService) Upload(ctx context.Context, account *domain.Account, appointmentID, fileType string, file *Upload) (*domain.Document, error) {
	if file == nil {
		return nil, apperrors.InvalidInput("file is required")
	}
	ft, err := domain.ParseFileType(fileType)
	if err != nil {
		return nil, err
	}

	appt, side, err := s.appointments.Accessible(ctx, account, appointmentID)
	if err != nil {
		return nil, err
	}
	if side == "" {
		return nil, domain.ErrForbidden(account.Role)
	}

	url, err := storeUpload(ctx, s.media, storage.FolderDocuments, file)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:            uuid.NewString(),
		AppointmentID: appt.ID,
		UploadedBy:    side,
		FileURL:       url,
		FileType:      ft,
		CreatedAt:     s.now(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	s.logger.InfoContext(ctx, "document uploaded",
		slog.String("document_id", doc.ID),
		slog.String("appointment_id", appt.ID),
		slog.String("uploaded_by", string(side)),
	)
	return doc, nil
}

// List returns the documents of an appointment the account can see.
func (s *DocumentService) List(ctx context.Context, account *domain.Account, appointmentID string) ([]domain.Document, error) {
	appt, _, err := s.appointments.Accessible(ctx, account, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.documents.ListByAppointment(ctx, appt.ID)
}

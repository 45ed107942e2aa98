package postgres

import (
	"context"
	"fmt"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/database"
)

// DocumentRepository implements repository.DocumentRepository.
type DocumentRepository struct {
	db database.DBTX
}

// NewDocumentRepository creates a DocumentRepository.
func NewDocumentRepository(db database.DBTX) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document row.
func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) (err error) {
	query := `
		INSERT INTO appointment_documents (id, appointment_id, uploaded_by, file_url, file_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "documents.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		d.ID, d.AppointmentID, string(d.UploadedBy), d.FileURL, string(d.FileType), d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ListByAppointment returns the documents of an appointment, oldest first.
func (r *DocumentRepository) ListByAppointment(ctx context.Context, appointmentID string) (_ []domain.Document, err error) {
	query := `
		SELECT id, appointment_id, uploaded_by::text, file_url, file_type::text, created_at
		FROM appointment_documents
		WHERE appointment_id = $1
		ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "documents.list_by_appointment", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.AppointmentID, &d.UploadedBy, &d.FileURL, &d.FileType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

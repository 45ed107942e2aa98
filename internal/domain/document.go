package domain

import (
	"strings"
	"time"
)

// FileType classifies an uploaded document.
type FileType string

const (
	FileTypeImage FileType = "IMAGE"
	FileTypePDF   FileType = "PDF"
	FileTypeOther FileType = "OTHER"
)

// ParseFileType is case-insensitive. An empty string means OTHER.
func ParseFileType(s string) (FileType, error) {
	if strings.TrimSpace(s) == "" {
		return FileTypeOther, nil
	}
	switch t := FileType(strings.ToUpper(strings.TrimSpace(s))); t {
	case FileTypeImage, FileTypePDF, FileTypeOther:
		return t, nil
	}
	return "", ErrInvalidFileType(s)
}

// Uploader records which side of the appointment attached a document.
type Uploader string

const (
	UploaderUser   Uploader = "USER"
	UploaderDoctor Uploader = "DOCTOR"
)

// Document is an append-only file reference attached to an appointment.
type Document struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	UploadedBy    Uploader  `json:"uploaded_by"`
	FileURL       string    `json:"file_url"`
	FileType      FileType  `json:"file_type"`
	CreatedAt     time.Time `json:"created_at"`
}

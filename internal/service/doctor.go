package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/auth"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/cache"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

// DoctorService manages the doctor directory.
type DoctorService struct {
	doctors repository.DoctorRepository
	hasher  *auth.PasswordHasher
	media   storage.Storage
	cache   DoctorCache
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewDoctorService creates a DoctorService.
func NewDoctorService(
	doctors repository.DoctorRepository,
	hasher *auth.PasswordHasher,
	media storage.Storage,
	cache DoctorCache,
	events EventPublisher,
	logger *slog.Logger,
) *DoctorService {
	return &DoctorService{
		doctors: doctors,
		hasher:  hasher,
		media:   media,
		cache:   cache,
		events:  events,
		logger:  logger,
		now:     utcNow,
	}
}

// CreateDoctorInput is an admin-created doctor: the DOCTOR account plus its
// profile.
type CreateDoctorInput struct {
	Name            string
	Email           string
	Password        string
	Phone           string
	Speciality      string
	ExperienceYears int
	About           string
	ConsultationFee int64
	IsAvailable     *bool
	Image           *Upload
}

// DoctorUpdate carries the self-service fields. Nil means unchanged.
type DoctorUpdate struct {
	Speciality      *string
	ExperienceYears *int
	About           *string
	ConsultationFee *int64
	IsAvailable     *bool
}

// Create inserts the DOCTOR account and profile in one transaction.
func (s *DoctorService) Create(ctx context.Context, in CreateDoctorInput) (*domain.Doctor, error) {
	if in.ExperienceYears < 0 {
		return nil, apperrors.InvalidInput("experience_years must not be negative")
	}
	if in.ConsultationFee < 0 {
		return nil, apperrors.InvalidInput("consultation_fee must not be negative")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if in.Image != nil {
		if imageURL, err = storeUpload(ctx, s.media, storage.FolderDoctors, in.Image); err != nil {
			return nil, err
		}
	}

	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}

	now := s.now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         domain.RoleDoctor,
		Phone:        in.Phone,
		ImageURL:     imageURL,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	doctor := &domain.Doctor{
		ID:              uuid.NewString(),
		AccountID:       account.ID,
		Name:            account.Name,
		Email:           account.Email,
		Phone:           account.Phone,
		Speciality:      in.Speciality,
		ExperienceYears: in.ExperienceYears,
		About:           in.About,
		ConsultationFee: in.ConsultationFee,
		IsAvailable:     available,
		ImageURL:        imageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.doctors.CreateWithAccount(ctx, account, doctor); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.invalidate(ctx)
	if err := s.events.DoctorCreated(ctx, doctor); err != nil {
		warn(ctx, s.logger, "failed to publish doctor.created", err, slog.String("doctor_id", doctor.ID))
	}
	s.logger.InfoContext(ctx, "doctor created",
		slog.String("doctor_id", doctor.ID),
		slog.String("account_id", account.ID),
	)
	return doctor, nil
}

// GetProfile returns the profile owned by a DOCTOR account.
func (s *DoctorService) GetProfile(ctx context.Context, accountID string) (*domain.Doctor, error) {
	return s.doctors.GetByAccountID(ctx, accountID)
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *DoctorService) UpdateProfile(ctx context.Context, accountID string, in DoctorUpdate) (*domain.Doctor, error) {
	doctor, err := s.doctors.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if in.Speciality != nil {
		if *in.Speciality == "" {
			return nil, apperrors.InvalidInput("speciality must not be empty")
		}
		doctor.Speciality = *in.Speciality
	}
	if in.ExperienceYears != nil {
		if *in.ExperienceYears < 0 {
			return nil, apperrors.InvalidInput("experience_years must not be negative")
		}
		doctor.ExperienceYears = *in.ExperienceYears
	}
	if in.About != nil {
		doctor.About = *in.About
	}
	if in.ConsultationFee != nil {
		if *in.ConsultationFee < 0 {
			return nil, apperrors.InvalidInput("consultation_fee must not be negative")
		}
		doctor.ConsultationFee = *in.ConsultationFee
	}
	if in.IsAvailable != nil {
		doctor.IsAvailable = *in.IsAvailable
	}

	doctor.UpdatedAt = s.now()
	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}

	s.invalidate(ctx)
	return doctor, nil
}

// SetAvailability is the admin toggle for a doctor's availability.
func (s *DoctorService) SetAvailability(ctx context.Context, doctorID string, available bool) (*domain.Doctor, error) {
	doctor, err := s.doctors.SetAvailability(ctx, doctorID, available)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "doctor availability changed",
		slog.String("doctor_id", doctorID),
		slog.Bool("is_available", available),
	)
	return doctor, nil
}

// List is the admin directory listing.
func (s *DoctorService) List(ctx context.Context, filter domain.DoctorFilter, params pagination.Params) ([]domain.Doctor, int, error) {
	return s.doctors.List(ctx, filter, params)
}

// ListPublic lists available doctors through the cache as public entries.
// Cache failures fall back to the database.
func (s *DoctorService) ListPublic(ctx context.Context, speciality string, params pagination.Params) ([]domain.PublicDoctor, int, error) {
	page, ok, err := s.cache.Get(ctx, speciality, params)
	if err != nil {
		warn(ctx, s.logger, "doctor cache read failed", err)
	}
	if ok {
		return page.Doctors, page.Total, nil
	}

	doctors, total, err := s.doctors.List(ctx, domain.DoctorFilter{AvailableOnly: true, Speciality: speciality}, params)
	if err != nil {
		return nil, 0, err
	}

	public := make([]domain.PublicDoctor, 0, len(doctors))
	for i := range doctors {
		public = append(public, doctors[i].Public())
	}

	if err := s.cache.Set(ctx, speciality, params, &cache.DoctorPage{Doctors: public, Total: total}); err != nil {
		warn(ctx, s.logger, "doctor cache write failed", err)
	}
	return public, total, nil
}

func (s *DoctorService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		warn(ctx, s.logger, "doctor cache invalidation failed", err)
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/validator"
)

// ProfileService reads and edits the caller's own account.
type ProfileService struct {
	accounts repository.AccountRepository
	media    storage.Storage
	logger   *slog.Logger
	now      func() time.Time
}

// NewProfileService creates a ProfileService.
func NewProfileService(accounts repository.AccountRepository, media storage.Storage, logger *slog.Logger) *ProfileService {
	return &ProfileService{accounts: accounts, media: media, logger: logger, now: utcNow}
}

// ProfileUpdate carries the fields present in the form. Nil means unchanged.
type ProfileUpdate struct {
	Name   *string
	Phone  *string
	DOB    *string
	Gender *string
	Image  *Upload
}

// Get returns the account behind accountID.
func (s *ProfileService) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// Update applies in to the account. Gender is matched case-insensitively;
// an empty gender or dob clears the field.
func (s *ProfileService) Update(ctx context.Context, accountID string, in ProfileUpdate) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		account.Name = *in.Name
	}
	if in.Phone != nil {
		account.Phone = *in.Phone
	}
	if in.DOB != nil {
		if *in.DOB != "" {
			if _, err := time.Parse(validator.DateLayout, *in.DOB); err != nil {
				return nil, apperrors.InvalidInput(fmt.Sprintf("invalid dob %q: must be YYYY-MM-DD", *in.DOB))
			}
		}
		account.DOB = *in.DOB
	}
	if in.Gender != nil {
		account.Gender = ""
		if *in.Gender != "" {
			g, err := domain.ParseGender(*in.Gender)
			if err != nil {
				return nil, err
			}
			account.Gender = g
		}
	}
	if in.Image != nil {
		url, err := storeUpload(ctx, s.media, storage.FolderProfiles, in.Image)
		if err != nil {
			return nil, err
		}
		account.ImageURL = url
	}

	account.UpdatedAt = s.now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("account_id", account.ID))
	return account, nil
}

package domain

import "time"

// Doctor is the directory entry of a DOCTOR account. Name, Email and
// Phone are read from the owning account.
type Doctor struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Speciality      string    `json:"speciality"`
	ExperienceYears int       `json:"experience_years"`
	About           string    `json:"about,omitempty"`
	ConsultationFee int64     `json:"consultation_fee"`
	IsAvailable     bool      `json:"is_available"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DoctorFilter narrows directory listings.
type DoctorFilter struct {
	AvailableOnly bool
	Speciality    string
}

// PublicDoctor is the directory entry shown to unauthenticated callers. It
// carries no account identifiers or contact details.
type PublicDoctor struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Speciality      string `json:"speciality"`
	ExperienceYears int    `json:"experience_years"`
	About           string `json:"about,omitempty"`
	ConsultationFee int64  `json:"consultation_fee"`
	ImageURL        string `json:"image_url,omitempty"`
}

// Public projects d for the public directory.
func (d *Doctor) Public() PublicDoctor {
	return PublicDoctor{
		ID:              d.ID,
		Name:            d.Name,
		Speciality:      d.Speciality,
		ExperienceYears: d.ExperienceYears,
		About:           d.About,
		ConsultationFee: d.ConsultationFee,
		ImageURL:        d.ImageURL,
	}
}

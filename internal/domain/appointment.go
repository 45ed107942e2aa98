package domain

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// AllowedTransitions lists the legal moves out of each status. COMPLETED and
// CANCELLED are terminal.
func AllowedTransitions() map[Status][]Status {
	return map[Status][]Status{
		StatusBooked:    {StatusCancelled, StatusCompleted},
		StatusCompleted: {},
		StatusCancelled: {},
	}
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range AllowedTransitions()[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PaymentStatus is shared by appointments and payments.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// IsValid reports whether p is a known payment status.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Appointment occupies one slot (doctor, date, time). Date is YYYY-MM-DD
// and Time is HH:MM. DoctorName is read from the doctor's account and is
// not stored on the appointment row.
type Appointment struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	DoctorID      string        `json:"doctor_id"`
	DoctorName    string        `json:"doctor_name,omitempty"`
	Date          string        `json:"appointment_date"`
	Time          string        `json:"appointment_time"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// AppointmentFilter narrows admin listings. Empty Status means all.
type AppointmentFilter struct {
	UserID   string
	DoctorID string
	Status   Status
}

package domain

// AdminDashboard aggregates counts across the whole system.
type AdminDashboard struct {
	Users                 int   `json:"users"`
	Doctors               int   `json:"doctors"`
	Admins                int   `json:"admins"`
	AvailableDoctors      int   `json:"available_doctors"`
	BookedAppointments    int   `json:"booked_appointments"`
	CompletedAppointments int   `json:"completed_appointments"`
	CancelledAppointments int   `json:"cancelled_appointments"`
	PendingPayments       int   `json:"pending_payments"`
	PaidPayments          int   `json:"paid_payments"`
	RefundedPayments      int   `json:"refunded_payments"`
	Revenue               int64 `json:"revenue"`
}

// TodayPatient is one row of a doctor's schedule for the current day.
type TodayPatient struct {
	AppointmentID string `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	Time          string `json:"appointment_time"`
	Status        Status `json:"status"`
}

// DoctorDashboard summarises one doctor's workload.
type DoctorDashboard struct {
	Date                  string         `json:"date"`
	TodayAppointments     int            `json:"today_appointments"`
	CompletedAppointments int            `json:"completed_appointments"`
	CancelledAppointments int            `json:"cancelled_appointments"`
	TodayPatients         []TodayPatient `json:"today_patients"`
}

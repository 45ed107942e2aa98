package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/service"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/httputil"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/validator"
)

// AdminHandler serves /api/admin.
type AdminHandler struct {
	auth         *service.AuthService
	doctors      *service.DoctorService
	appointments *service.AppointmentService
	payments     *service.PaymentService
	dashboard    *service.DashboardService
	maxUpload    int64
	logger       *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	auth *service.AuthService,
	doctors *service.DoctorService,
	appointments *service.AppointmentService,
	payments *service.PaymentService,
	dashboard *service.DashboardService,
	maxUpload int64,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		auth:         auth,
		doctors:      doctors,
		appointments: appointments,
		payments:     payments,
		dashboard:    dashboard,
		maxUpload:    maxUpload,
		logger:       logger,
	}
}

// createDoctorForm holds the text fields of POST /api/admin/doctors.
type createDoctorForm struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=3,max=72"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Speciality      string `json:"speciality" validate:"required,max=100"`
	ExperienceYears int64  `json:"experience_years" validate:"gte=0"`
	About           string `json:"about" validate:"max=2000"`
	ConsultationFee int64  `json:"consultation_fee" validate:"gte=0"`
}

// AvailabilityRequest is the JSON body of PATCH
// /api/admin/doctors/{id}/availability.
type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

// PaymentStatusRequest is the JSON body of PATCH
// /api/admin/payments/{id}/status.
type PaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PAID REFUNDED"`
}

// CreateDoctor handles POST /api/admin/doctors (multipart).
func (h *AdminHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxUpload); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	form := createDoctorForm{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Password:   r.FormValue("password"),
		Phone:      r.FormValue("phone"),
		Speciality: r.FormValue("speciality"),
		About:      r.FormValue("about"),
	}
	var err error
	if form.ExperienceYears, err = formInt64(r, "experience_years"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if form.ConsultationFee, err = formInt64(r, "consultation_fee"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	available, err := formBool(r, "is_available")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(form); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	image, done, err := formFile(r, "image")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer done()

	doctor, err := h.doctors.Create(r.Context(), service.CreateDoctorInput{
		Name:            form.Name,
		Email:           form.Email,
		Password:        form.Password,
		Phone:           form.Phone,
		Speciality:      form.Speciality,
		ExperienceYears: int(form.ExperienceYears),
		About:           form.About,
		ConsultationFee: form.ConsultationFee,
		IsAvailable:     available,
		Image:           image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, doctor)
}

// ListDoctors handles GET /api/admin/doctors?available=&speciality=.
func (h *AdminHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	var filter domain.DoctorFilter
	if v := r.URL.Query().Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("available must be true or false"), h.logger)
			return
		}
		filter.AvailableOnly = b
	}
	filter.Speciality = r.URL.Query().Get("speciality")

	params := pagination.FromRequest(r)
	items, total, err := h.doctors.List(r.Context(), filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

// SetAvailability handles PATCH /api/admin/doctors/{id}/availability.
func (h *AdminHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)

	var req AvailabilityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	doctor, err := h.doctors.SetAvailability(r.Context(), id, *req.IsAvailable)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, doctor)
}

// ListAppointments handles GET /api/admin/appointments?status=.
func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	items, total, err := h.appointments.ListAll(r.Context(), r.URL.Query().Get("status"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

// CancelAppointment handles POST /api/admin/appointments/{id}/cancel.
func (h *AdminHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	appt, err := h.appointments.Cancel(r.Context(), mustAccount(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, appt)
}

// ListPayments handles GET /api/admin/payments.
func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	items, total, err := h.payments.List(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

// UpdatePaymentStatus handles PATCH /api/admin/payments/{id}/status.
func (h *AdminHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)

	var req PaymentStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p, err := h.payments.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// ListAccounts handles GET /api/admin/accounts?role=.
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	items, total, err := h.auth.ListAccounts(r.Context(), r.URL.Query().Get("role"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Admin(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, dash)
}

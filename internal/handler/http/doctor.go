package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/service"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/httputil"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/validator"
)

// DoctorHandler serves /api/doctor for DOCTOR accounts.
type DoctorHandler struct {
	doctors      *service.DoctorService
	appointments *service.AppointmentService
	documents    *service.DocumentService
	dashboard    *service.DashboardService
	maxUpload    int64
	logger       *slog.Logger
}

// NewDoctorHandler creates a DoctorHandler.
func NewDoctorHandler(
	doctors *service.DoctorService,
	appointments *service.AppointmentService,
	documents *service.DocumentService,
	dashboard *service.DashboardService,
	maxUpload int64,
	logger *slog.Logger,
) *DoctorHandler {
	return &DoctorHandler{
		doctors:      doctors,
		appointments: appointments,
		documents:    documents,
		dashboard:    dashboard,
		maxUpload:    maxUpload,
		logger:       logger,
	}
}

// UpdateDoctorProfileRequest is the partial JSON body of PATCH
// /api/doctor/profile.
type UpdateDoctorProfileRequest struct {
	Speciality      *string `json:"speciality" validate:"omitempty,min=1,max=100"`
	ExperienceYears *int    `json:"experience_years" validate:"omitempty,gte=0"`
	About           *string `json:"about" validate:"omitempty,max=2000"`
	ConsultationFee *int64  `json:"consultation_fee" validate:"omitempty,gte=0"`
	IsAvailable     *bool   `json:"is_available"`
}

// GetProfile handles GET /api/doctor/profile.
func (h *DoctorHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.doctors.GetProfile(r.Context(), mustAccount(r).ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, doctor)
}

// UpdateProfile handles PATCH /api/doctor/profile.
func (h *DoctorHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)

	var req UpdateDoctorProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	doctor, err := h.doctors.UpdateProfile(r.Context(), mustAccount(r).ID, service.DoctorUpdate{
		Speciality:      req.Speciality,
		ExperienceYears: req.ExperienceYears,
		About:           req.About,
		ConsultationFee: req.ConsultationFee,
		IsAvailable:     req.IsAvailable,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, doctor)
}

// ListAppointments handles GET /api/doctor/appointments.
func (h *DoctorHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	items, total, err := h.appointments.ListForDoctor(r.Context(), mustAccount(r).ID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

// CompleteAppointment handles PATCH /api/doctor/appointments/{id}/complete.
func (h *DoctorHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	appt, err := h.appointments.Complete(r.Context(), mustAccount(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, appt)
}

// UploadDocument handles POST /api/doctor/appointments/{id}/documents.
func (h *DoctorHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	uploadDocument(w, r, h.documents, h.maxUpload, h.logger)
}

// ListDocuments handles GET /api/doctor/appointments/{id}/documents.
func (h *DoctorHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	listDocuments(w, r, h.documents, h.logger)
}

// Dashboard handles GET /api/doctor/dashboard.
func (h *DoctorHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Doctor(r.Context(), mustAccount(r).ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, dash)
}

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

// UserHandler serves /api/user for patients.
type UserHandler struct {
	profiles     *service.ProfileService
	appointments *service.AppointmentService
	documents    *service.DocumentService
	payments     *service.PaymentService
	maxUpload    int64
	logger       *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(
	profiles *service.ProfileService,
	appointments *service.AppointmentService,
	documents *service.DocumentService,
	payments *service.PaymentService,
	maxUpload int64,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		profiles:     profiles,
		appointments: appointments,
		documents:    documents,
		payments:     payments,
		maxUpload:    maxUpload,
		logger:       logger,
	}
}

// BookRequest is the JSON body of POST /api/user/appointments.
type BookRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"appointment_date" validate:"required,date"`
	Time     string `json:"appointment_time" validate:"required,clock"`
}

// CreatePaymentRequest is the JSON body of POST /api/user/payments.
type CreatePaymentRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Method        string `json:"method" validate:"required,oneof=CARD CASH BANK_TRANSFER MOBILE_WALLET"`
}

// GetProfile handles GET /api/user/profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account, err := h.profiles.Get(r.Context(), mustAccount(r).ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, account)
}

// UpdateProfile handles PATCH /api/user/profile (multipart).
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxUpload); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	image, done, err := formFile(r, "image")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer done()

	account, err := h.profiles.Update(r.Context(), mustAccount(r).ID, service.ProfileUpdate{
		Name:   formString(r, "name"),
		Phone:  formString(r, "phone"),
		DOB:    formString(r, "dob"),
		Gender: formString(r, "gender"),
		Image:  image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, account)
}

// Book handles POST /api/user/appointments.
func (h *UserHandler) Book(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)

	var req BookRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	appt, err := h.appointments.Book(r.Context(), mustAccount(r), service.BookInput{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, appt)
}

// ListAppointments handles GET /api/user/appointments.
func (h *UserHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	items, total, err := h.appointments.ListForUser(r.Context(), mustAccount(r).ID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

// CancelAppointment handles POST /api/user/appointments/{id}/cancel.
func (h *UserHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
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

// UploadDocument handles POST /api/user/appointments/{id}/documents.
func (h *UserHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	uploadDocument(w, r, h.documents, h.maxUpload, h.logger)
}

// ListDocuments handles GET /api/user/appointments/{id}/documents.
func (h *UserHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	listDocuments(w, r, h.documents, h.logger)
}

// CreatePayment handles POST /api/user/payments.
func (h *UserHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)

	var req CreatePaymentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p, err := h.payments.Create(r.Context(), mustAccount(r), service.CreatePaymentInput{
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		Method:        req.Method,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, p)
}

// ListPayments handles GET /api/user/payments.
func (h *UserHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	items, total, err := h.payments.ListForUser(r.Context(), mustAccount(r).ID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

// uploadDocument is shared by the patient and doctor document routes.
func uploadDocument(w http.ResponseWriter, r *http.Request, svc *service.DocumentService, maxUpload int64, l *slog.Logger) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := parseForm(w, r, maxUpload); err != nil {
		httputil.WriteError(w, r, err, l)
		return
	}
	file, done, err := formFile(r, "file")
	if err != nil {
		httputil.WriteError(w, r, err, l)
		return
	}
	defer done()

	var fileType string
	if v := formString(r, "file_type"); v != nil {
		fileType = *v
	}

	doc, err := svc.Upload(r.Context(), mustAccount(r), id, fileType, file)
	if err != nil {
		httputil.WriteError(w, r, err, l)
		return
	}
	httputil.WriteData(w, http.StatusCreated, doc)
}

func listDocuments(w http.ResponseWriter, r *http.Request, svc *service.DocumentService, l *slog.Logger) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	docs, err := svc.List(r.Context(), mustAccount(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, l)
		return
	}
	httputil.WriteData(w, http.StatusOK, docs)
}

package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/service"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/httputil"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

// DirectoryHandler serves the public doctor directory.
type DirectoryHandler struct {
	doctors *service.DoctorService
	logger  *slog.Logger
}

// NewDirectoryHandler creates a DirectoryHandler.
func NewDirectoryHandler(doctors *service.DoctorService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{doctors: doctors, logger: logger}
}

// ListDoctors handles GET /api/doctors?speciality=.
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	speciality := strings.TrimSpace(r.URL.Query().Get("speciality"))

	items, total, err := h.doctors.ListPublic(r.Context(), speciality, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params))
}

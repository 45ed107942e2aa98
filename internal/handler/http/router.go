package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/auth"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/service"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/health"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/middleware"
)

const serviceName = "booking"

// Services bundles the business services the router dispatches to.
type Services struct {
	Auth        *service.AuthService
	Profile     *service.ProfileService
	Doctor      *service.DoctorService
	Appointment *service.AppointmentService
	Document    *service.DocumentService
	Payment     *service.PaymentService
	Dashboard   *service.DashboardService
}

// RouterConfig carries the HTTP-level settings.
type RouterConfig struct {
	CORS               middleware.CORSConfig
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	MaxUploadBytes     int64
	// MediaDir, when set, is served read-only under MediaBaseURL.
	MediaDir     string
	MediaBaseURL string
}

// NewRouter creates the chi router with every booking route registered.
// ctx bounds background work owned by the router, such as the rate limiter
// sweeper.
func NewRouter(
	ctx context.Context,
	svc Services,
	gate *auth.Gate,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics(serviceName))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.MediaDir != "" {
		base := "/" + strings.Trim(cfg.MediaBaseURL, "/")
		r.Handle(base+"/*", http.StripPrefix(base+"/", http.FileServer(http.Dir(cfg.MediaDir))))
	}

	authHandler := NewAuthHandler(svc.Auth, logger)
	userHandler := NewUserHandler(svc.Profile, svc.Appointment, svc.Document, svc.Payment, cfg.MaxUploadBytes, logger)
	doctorHandler := NewDoctorHandler(svc.Doctor, svc.Appointment, svc.Document, svc.Dashboard, cfg.MaxUploadBytes, logger)
	adminHandler := NewAdminHandler(svc.Auth, svc.Doctor, svc.Appointment, svc.Payment, svc.Dashboard, cfg.MaxUploadBytes, logger)
	directoryHandler := NewDirectoryHandler(svc.Doctor, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger))
			r.Use(ContentTypeJSON)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/refresh", authHandler.Refresh)
			r.With(RequireRole(gate, domain.RoleUser, domain.RoleDoctor, domain.RoleAdmin)).
				Post("/logout-all", authHandler.LogoutAll)
		})

		r.Get("/doctors", directoryHandler.ListDoctors)

		r.Route("/user", func(r chi.Router) {
			r.Use(RequireRole(gate, domain.RoleUser))

			r.Get("/profile", userHandler.GetProfile)
			r.Patch("/profile", userHandler.UpdateProfile)

			r.Get("/appointments", userHandler.ListAppointments)
			r.Post("/appointments", userHandler.Book)
			r.Post("/appointments/{id}/cancel", userHandler.CancelAppointment)
			r.Get("/appointments/{id}/documents", userHandler.ListDocuments)
			r.Post("/appointments/{id}/documents", userHandler.UploadDocument)

			r.Get("/payments", userHandler.ListPayments)
			r.Post("/payments", userHandler.CreatePayment)
		})

		r.Route("/doctor", func(r chi.Router) {
			r.Use(RequireRole(gate, domain.RoleDoctor))

			r.Get("/profile", doctorHandler.GetProfile)
			r.Patch("/profile", doctorHandler.UpdateProfile)
			r.Get("/dashboard", doctorHandler.Dashboard)

			r.Get("/appointments", doctorHandler.ListAppointments)
			r.Patch("/appointments/{id}/complete", doctorHandler.CompleteAppointment)
			r.Get("/appointments/{id}/documents", doctorHandler.ListDocuments)
			r.Post("/appointments/{id}/documents", doctorHandler.UploadDocument)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(gate, domain.RoleAdmin))

			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/accounts", adminHandler.ListAccounts)

			r.Get("/doctors", adminHandler.ListDoctors)
			r.Post("/doctors", adminHandler.CreateDoctor)
			r.Patch("/doctors/{id}/availability", adminHandler.SetAvailability)

			r.Get("/appointments", adminHandler.ListAppointments)
			r.Post("/appointments/{id}/cancel", adminHandler.CancelAppointment)

			r.Get("/payments", adminHandler.ListPayments)
			r.Patch("/payments/{id}/status", adminHandler.UpdatePaymentStatus)
		})
	})

	return r
}

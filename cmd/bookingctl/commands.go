package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/app"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/config"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/service"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/logger"
)

const commandTimeout = 2 * time.Minute

// session is what every command needs: config, a logger and a migrated pool.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	l := logger.New("bookingctl", cfg.LogLevel)

	pool, err := app.OpenDatabase(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: l, pool: pool}, nil
}

func (s *session) authService() (*service.AuthService, error) {
	return app.NewAuthService(s.pool, s.cfg, s.logger)
}

func (s *session) Close() {
	s.pool.Close()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the ADMIN account if it does not exist",
		Long:  "Creates the ADMIN account; a second run with the same email is a no-op. Flags default to ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			name = firstNonEmpty(name, s.cfg.AdminName)
			email = firstNonEmpty(email, s.cfg.AdminEmail)
			password = firstNonEmpty(password, s.cfg.AdminPassword)
			if password == "" {
				return errors.New("admin password required: pass --password or set ADMIN_PASSWORD")
			}

			svc, err := s.authService()
			if err != nil {
				return err
			}
			account, created, err := svc.EnsureAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", account.Email, account.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", account.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "admin display name")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func resetPasswordsCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-passwords",
		Short: "Set every account's password to the given value",
		Long:  "Replaces the password hash of every account. Intended for seeded development databases.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return errors.New("--password is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			svc, err := s.authService()
			if err != nil {
				return err
			}
			n, err := svc.ResetAllPasswords(ctx, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d password(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password for every account")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

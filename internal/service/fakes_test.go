package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/auth"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/cache"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage/memory"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/pagination"
)

// --- in-memory repositories ---

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]domain.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]domain.Account{}}
}

func (m *memAccounts) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return domain.ErrDuplicateEmail(a.Email)
		}
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("account", id)
	}
	return &a, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == domain.NormalizeEmail(email) {
			return &a, nil
		}
	}
	return nil, apperrors.NotFound("account", email)
}

func (m *memAccounts) Update(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return apperrors.NotFound("account", a.ID)
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return apperrors.NotFound("account", id)
	}
	a.PasswordHash = hash
	m.byID[id] = a
	return nil
}

func (m *memAccounts) SetAllPasswords(_ context.Context, hash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.byID {
		a.PasswordHash = hash
		m.byID[id] = a
	}
	return int64(len(m.byID)), nil
}

func (m *memAccounts) List(_ context.Context, role domain.Role, _ pagination.Params) ([]domain.Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.byID {
		if role == "" || a.Role == role {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *memAccounts) CountByRole(context.Context) (map[domain.Role]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domain.Role]int{}
	for _, a := range m.byID {
		counts[a.Role]++
	}
	return counts, nil
}

type memRefreshTokens struct {
	mu     sync.Mutex
	byHash map[string]domain.RefreshToken
}

func newMemRefreshTokens() *memRefreshTokens {
	return &memRefreshTokens{byHash: map[string]domain.RefreshToken{}}
}

func (m *memRefreshTokens) Create(_ context.Context, t *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[t.TokenHash] = *t
	return nil
}

func (m *memRefreshTokens) GetByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok {
		return nil, apperrors.NotFound("refresh token", "(hash)")
	}
	return &t, nil
}

func (m *memRefreshTokens) Revoke(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byHash[hash]; ok {
		t.IsRevoked = true
		m.byHash[hash] = t
	}
	return nil
}

func (m *memRefreshTokens) RevokeAllForAccount(_ context.Context, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.byHash {
		if t.AccountID == accountID && !t.IsRevoked {
			t.IsRevoked = true
			m.byHash[h] = t
			n++
		}
	}
	return n, nil
}

type memDoctors struct {
	mu       sync.Mutex
	accounts *memAccounts
	byID     map[string]domain.Doctor
	lists    int
}

func newMemDoctors(accounts *memAccounts) *memDoctors {
	return &memDoctors{accounts: accounts, byID: map[string]domain.Doctor{}}
}

func (m *memDoctors) CreateWithAccount(ctx context.Context, a *domain.Account, d *domain.Doctor) error {
	if err := m.accounts.Create(ctx, a); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[d.ID] = *d
	return nil
}

func (m *memDoctors) GetByID(_ context.Context, id string) (*domain.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", id)
	}
	return &d, nil
}

func (m *memDoctors) GetByAccountID(_ context.Context, accountID string) (*domain.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byID {
		if d.AccountID == accountID {
			return &d, nil
		}
	}
	return nil, apperrors.NotFound("doctor", accountID)
}

func (m *memDoctors) Update(_ context.Context, d *domain.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[d.ID]; !ok {
		return apperrors.NotFound("doctor", d.ID)
	}
	m.byID[d.ID] = *d
	return nil
}

func (m *memDoctors) SetAvailability(_ context.Context, id string, available bool) (*domain.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", id)
	}
	d.IsAvailable = available
	m.byID[id] = d
	return &d, nil
}

func (m *memDoctors) List(_ context.Context, f domain.DoctorFilter, _ pagination.Params) ([]domain.Doctor, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []domain.Doctor
	for _, d := range m.byID {
		if f.AvailableOnly && !d.IsAvailable {
			continue
		}
		if f.Speciality != "" && d.Speciality != f.Speciality {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

// memAppointments enforces the active-slot uniqueness atomically, like the
// partial unique index does.
type memAppointments struct {
	mu       sync.Mutex
	accounts *memAccounts
	byID     map[string]domain.Appointment
	updates  int
}

func newMemAppointments(accounts *memAccounts) *memAppointments {
	return &memAppointments{accounts: accounts, byID: map[string]domain.Appointment{}}
}

func (m *memAppointments) Create(_ context.Context, a *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takenLocked(a.DoctorID, a.Date, a.Time) {
		return domain.ErrSlotUnavailable(a.Date, a.Time)
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memAppointments) takenLocked(doctorID, date, clock string) bool {
	for _, e := range m.byID {
		if e.DoctorID == doctorID && e.Date == date && e.Time == clock && e.Status != domain.StatusCancelled {
			return true
		}
	}
	return false
}

func (m *memAppointments) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", id)
	}
	return &a, nil
}

func (m *memAppointments) SlotTaken(_ context.Context, doctorID, date, clock string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takenLocked(doctorID, date, clock), nil
}

func (m *memAppointments) TransitionStatus(_ context.Context, id string, from, to domain.Status) (*domain.Appointment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.Status != from {
		return nil, false, nil
	}
	m.updates++
	a.Status = to
	m.byID[id] = a
	return &a, true, nil
}

func (m *memAppointments) List(_ context.Context, f domain.AppointmentFilter, _ pagination.Params) ([]domain.Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Appointment
	for _, a := range m.byID {
		if (f.UserID == "" || a.UserID == f.UserID) &&
			(f.DoctorID == "" || a.DoctorID == f.DoctorID) &&
			(f.Status == "" || a.Status == f.Status) {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *memAppointments) CountByStatus(_ context.Context, doctorID string) (map[domain.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domain.Status]int{}
	for _, a := range m.byID {
		if doctorID == "" || a.DoctorID == doctorID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (m *memAppointments) ListForDoctorOnDate(ctx context.Context, doctorID, date string) ([]domain.TodayPatient, error) {
	m.mu.Lock()
	var rows []domain.Appointment
	for _, a := range m.byID {
		if a.DoctorID == doctorID && a.Date == date {
			rows = append(rows, a)
		}
	}
	m.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].Time < rows[j].Time })
	out := []domain.TodayPatient{}
	for _, a := range rows {
		acc, err := m.accounts.GetByID(ctx, a.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.TodayPatient{AppointmentID: a.ID, PatientName: acc.Name, Time: a.Time, Status: a.Status})
	}
	return out, nil
}

func (m *memAppointments) setPaymentStatus(id string, s domain.PaymentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID[id]
	a.PaymentStatus = s
	m.byID[id] = a
}

type memDocuments struct {
	mu   sync.Mutex
	docs []domain.Document
}

func (m *memDocuments) Create(_ context.Context, d *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, *d)
	return nil
}

func (m *memDocuments) ListByAppointment(_ context.Context, appointmentID string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Document{}
	for _, d := range m.docs {
		if d.AppointmentID == appointmentID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memPayments struct {
	mu           sync.Mutex
	appointments *memAppointments
	byID         map[string]domain.Payment
}

func newMemPayments(appointments *memAppointments) *memPayments {
	return &memPayments{appointments: appointments, byID: map[string]domain.Payment{}}
}

func (m *memPayments) Create(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.AppointmentID == p.AppointmentID {
			return apperrors.AlreadyExists("payment", "appointment_id", p.AppointmentID)
		}
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memPayments) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("payment", id)
	}
	return &p, nil
}

func (m *memPayments) GetByAppointmentID(_ context.Context, appointmentID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.AppointmentID == appointmentID {
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("payment", appointmentID)
}

func (m *memPayments) ListByUser(ctx context.Context, userID string, _ pagination.Params) ([]domain.Payment, int, error) {
	var out []domain.Payment
	m.mu.Lock()
	all := make([]domain.Payment, 0, len(m.byID))
	for _, p := range m.byID {
		all = append(all, p)
	}
	m.mu.Unlock()
	for _, p := range all {
		a, err := m.appointments.GetByID(ctx, p.AppointmentID)
		if err == nil && a.UserID == userID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *memPayments) List(context.Context, pagination.Params) ([]domain.Payment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Payment, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memPayments) UpdateStatus(_ context.Context, id string, s domain.PaymentStatus, at time.Time) (*domain.Payment, error) {
	m.mu.Lock()
	p, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return nil, apperrors.NotFound("payment", id)
	}
	p.Status = s
	p.UpdatedAt = at
	m.byID[id] = p
	m.mu.Unlock()

	m.appointments.setPaymentStatus(p.AppointmentID, s)
	return &p, nil
}

func (m *memPayments) Totals(context.Context) (map[domain.PaymentStatus]int, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domain.PaymentStatus]int{}
	var revenue int64
	for _, p := range m.byID {
		counts[p.Status]++
		if p.Status == domain.PaymentPaid {
			revenue += p.Amount
		}
	}
	return counts, revenue, nil
}

// --- event publisher mock ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) AccountRegistered(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockEvents) DoctorCreated(ctx context.Context, d *domain.Doctor) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockEvents) AppointmentBooked(ctx context.Context, a *domain.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockEvents) AppointmentStatusChanged(ctx context.Context, a *domain.Appointment, from domain.Status) error {
	return m.Called(ctx, a, from).Error(0)
}

func (m *mockEvents) PaymentCreated(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockEvents) PaymentStatusChanged(ctx context.Context, p *domain.Payment, from domain.PaymentStatus) error {
	return m.Called(ctx, p, from).Error(0)
}

// permissiveEvents accepts every event.
func permissiveEvents() *mockEvents {
	m := &mockEvents{}
	for _, method := range []string{"AccountRegistered", "DoctorCreated", "AppointmentBooked", "PaymentCreated"} {
		m.On(method, mock.Anything, mock.Anything).Return(nil).Maybe()
	}
	m.On("AppointmentStatusChanged", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PaymentStatusChanged", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// --- fixture ---

var testNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type fixture struct {
	accounts     *memAccounts
	refresh      *memRefreshTokens
	doctors      *memDoctors
	appointments *memAppointments
	documents    *memDocuments
	payments     *memPayments
	media        *memory.Storage
	events       *mockEvents
	tokens       *auth.TokenService

	auth        *AuthService
	profile     *ProfileService
	doctor      *DoctorService
	appointment *AppointmentService
	document    *DocumentService
	payment     *PaymentService
	dashboard   *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return testNow }

	tokens, err := auth.NewTokenService("0123456789abcdef0123456789abcdef", "HS256", time.Hour, 7*24*time.Hour, auth.WithClock(clock))
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(4)

	f := &fixture{
		accounts:  newMemAccounts(),
		refresh:   newMemRefreshTokens(),
		documents: &memDocuments{},
		media:     memory.New("/media"),
		events:    permissiveEvents(),
		tokens:    tokens,
	}
	f.doctors = newMemDoctors(f.accounts)
	f.appointments = newMemAppointments(f.accounts)
	f.payments = newMemPayments(f.appointments)

	l := quietLogger()
	f.auth = NewAuthService(f.accounts, f.refresh, tokens, hasher, f.events, l)
	f.profile = NewProfileService(f.accounts, f.media, l)
	f.doctor = NewDoctorService(f.doctors, hasher, f.media, cache.NewDoctorCache(nil, time.Minute), f.events, l)
	f.appointment = NewAppointmentService(f.appointments, f.doctors, f.events, l)
	f.document = NewDocumentService(f.documents, f.appointment, f.media, l)
	f.payment = NewPaymentService(f.payments, f.appointment, f.events, l)
	f.dashboard = NewDashboardService(f.accounts, f.doctors, f.appointments, f.payments)

	for _, setNow := range []*func() time.Time{
		&f.auth.now, &f.profile.now, &f.doctor.now, &f.appointment.now,
		&f.document.now, &f.payment.now, &f.dashboard.now,
	} {
		*setNow = clock
	}
	return f
}

// user registers a USER and returns the stored account.
func (f *fixture) user(t *testing.T, name, email string) *domain.Account {
	t.Helper()
	pair, err := f.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "pw-" + name})
	require.NoError(t, err)
	a, err := f.accounts.GetByID(context.Background(), pair.UserID)
	require.NoError(t, err)
	return a
}

// doctorAccount creates an available doctor and returns its account and
// profile.
func (f *fixture) doctorAccount(t *testing.T, name, email string) (*domain.Account, *domain.Doctor) {
	t.Helper()
	d, err := f.doctor.Create(context.Background(), CreateDoctorInput{
		Name:            name,
		Email:           email,
		Password:        "doc-pw",
		Speciality:      "Cardiology",
		ConsultationFee: 150000,
	})
	require.NoError(t, err)
	a, err := f.accounts.GetByID(context.Background(), d.AccountID)
	require.NoError(t, err)
	return a, d
}

func admin() *domain.Account {
	return &domain.Account{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin}
}

func codeOf(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code, appErr.Error())
}

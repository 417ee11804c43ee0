package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/gallery"
	"studio-app/internal/domain/users"
	gallerysvc "studio-app/internal/service/galleries"
	"studio-app/internal/service/reports"
	sessionsvc "studio-app/internal/service/sessions"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sessionID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"

type stubReports struct {
	err       error
	lastLimit int
	lastID    uint
}

func (s *stubReports) Stats(context.Context) (*reports.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &reports.Stats{
		TotalCustomers:   3,
		TotalRevenue:     decimal.RequireFromString("1200"),
		RecentRevenue:    decimal.RequireFromString("400"),
		SessionsByStatus: map[string]int64{booking.StatusBooked: 2},
		ActivePlans:      1,
	}, nil
}

func (s *stubReports) Users(context.Context) ([]users.User, error) {
	return []users.User{{
		ID:        4,
		FirstName: "Ada",
		Email:     "ada@example.com",
		Role:      users.RoleCustomer,
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}}, s.err
}

func (s *stubReports) Payments(_ context.Context, limit int) ([]reports.PaymentRow, error) {
	s.lastLimit = limit
	return []reports.PaymentRow{}, s.err
}

func (s *stubReports) Customer(_ context.Context, id uint) (*reports.Customer, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &reports.Customer{User: users.User{ID: id, Email: "ada@example.com"}, Sessions: []booking.Session{}}, nil
}

type stubSessions struct {
	err        error
	lastDay    *time.Time
	lastStatus string
}

func (s *stubSessions) ListAll(_ context.Context, day *time.Time) ([]booking.Session, error) {
	s.lastDay = day
	return nil, s.err
}

func (s *stubSessions) UpdateStatus(_ context.Context, id, status string) (*booking.Session, error) {
	s.lastStatus = status
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Session{ID: id, Status: status}, nil
}

type stubGalleries struct {
	err       error
	lastInput gallerysvc.CreateInput
}

func (s *stubGalleries) Create(_ context.Context, in gallerysvc.CreateInput) (*gallerysvc.Created, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &gallerysvc.Created{
		Gallery:   gallery.Gallery{ID: "g-1", Slug: "mia-spring"},
		AccessURL: "https://studio.test/gallery/mia-spring",
	}, nil
}

func (s *stubGalleries) List(context.Context) ([]gallery.Gallery, error) {
	return nil, s.err
}

func (s *stubGalleries) Card(_ context.Context, id string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.3 " + id), nil
}

type fixture struct {
	reports   *stubReports
	sessions  *stubSessions
	galleries *stubGalleries
	router    *gin.Engine
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{reports: &stubReports{}, sessions: &stubSessions{}, galleries: &stubGalleries{}}
	h := NewHandler(f.reports, f.sessions, f.galleries, zap.NewNop())
	r := gin.New()
	r.GET("/admin/dashboard", h.Dashboard)
	r.GET("/admin/users", h.ListUsers)
	r.GET("/admin/users/:id", h.UserDetails)
	r.GET("/admin/payments", h.ListPayments)
	r.GET("/admin/sessions", h.ListSessions)
	r.PATCH("/admin/sessions/:id/status", h.UpdateSessionStatus)
	r.POST("/admin/galleries", h.CreateGallery)
	r.GET("/admin/galleries", h.ListGalleries)
	r.GET("/admin/galleries/:id/card.pdf", h.GalleryCard)
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestDashboard(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/admin/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalRevenue":"1200"`)
	assert.Contains(t, w.Body.String(), `"sessionsByStatus":{"booked":2}`)

	f.reports.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, f.do(http.MethodGet, "/admin/dashboard", "").Code)
}

func TestListUsersHidesSecrets(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/admin/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"createdAt":"2026-03-01 09:30"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestListPaymentsPassesLimit(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/admin/payments?limit=25", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, 25, f.reports.lastLimit)
}

func TestUserDetails(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/admin/users/4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(4), f.reports.lastID)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/admin/users/abc", "").Code)

	f.reports.err = reports.ErrCustomerNotFound
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/admin/users/9", "").Code)
}

func TestListSessionsByDate(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/admin/sessions?date=2026-06-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	require.NotNil(t, f.sessions.lastDay)
	assert.Equal(t, time.June, f.sessions.lastDay.Month())

	f.do(http.MethodGet, "/admin/sessions", "")
	assert.Nil(t, f.sessions.lastDay)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/admin/sessions?date=June", "").Code)
}

func TestUpdateSessionStatus(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPatch, "/admin/sessions/s-1/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, booking.StatusCompleted, f.sessions.lastStatus)

	w = f.do(http.MethodPatch, "/admin/sessions/s-1/status", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"status"`)

	f.sessions.err = sessionsvc.ErrInvalidTransition
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/admin/sessions/s-1/status", `{"status":"booked"}`).Code)

	f.sessions.err = sessionsvc.ErrSessionNotFound
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPatch, "/admin/sessions/s-1/status", `{"status":"booked"}`).Code)
}

func TestCreateGalleryDefaults(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/admin/galleries", `{"sessionId":"`+sessionID+`","name":"Mia Spring","publicShareEnabled":true,"downloadEnabled":false}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"accessUrl":"https://studio.test/gallery/mia-spring"`)

	in := f.galleries.lastInput
	assert.True(t, in.PublicShareEnabled)
	assert.False(t, in.DownloadEnabled)
	assert.True(t, in.SocialShareEnabled)
	assert.True(t, in.WatermarkEnabled)
	assert.Zero(t, in.ExpiryDays)
}

func TestCreateGalleryErrors(t *testing.T) {
	body := `{"sessionId":"` + sessionID + `","name":"Mia"}`
	tests := []struct {
		err  error
		code int
	}{
		{gallerysvc.ErrSessionNotFound, http.StatusNotFound},
		{gallerysvc.ErrSessionNotCompleted, http.StatusBadRequest},
		{gallerysvc.ErrGalleryExists, http.StatusBadRequest},
		{gallerysvc.ErrPasswordMissing, http.StatusBadRequest},
		{errors.New("timeout"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newFixture()
			f.galleries.err = tt.err
			assert.Equal(t, tt.code, f.do(http.MethodPost, "/admin/galleries", body).Code)
		})
	}

	f := newFixture()
	w := f.do(http.MethodPost, "/admin/galleries", `{"sessionId":"`+sessionID+`","name":"Mia","expiryDays":400}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"expiryDays"`)
}

func TestGalleryCard(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/admin/galleries/g-1/card.pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	f.galleries.err = gallerysvc.ErrGalleryNotFound
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/admin/galleries/g-1/card.pdf", "").Code)
}

func TestListGalleriesNeverNull(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/admin/galleries", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

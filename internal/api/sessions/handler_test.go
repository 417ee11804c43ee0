package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/users"
	sessionsvc "studio-app/internal/service/sessions"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const packageID = "6f1c9a0e-3b7d-4c52-9a61-0f2e8d4b7c11"

type stubService struct {
	slots       []string
	createErr   error
	getErr      error
	lastDay     time.Time
	lastDur     int
	lastUserID  uint
	lastInput   sessionsvc.CreateInput
	lastActor   users.Actor
	lastID      string
	listed      []booking.Session
	availErr    error
	createCalls int
}

func (s *stubService) Availability(_ context.Context, day time.Time, duration int) ([]string, error) {
	s.lastDay = day
	s.lastDur = duration
	return s.slots, s.availErr
}

func (s *stubService) Create(_ context.Context, userID uint, in sessionsvc.CreateInput) (*sessionsvc.Created, error) {
	s.createCalls++
	s.lastUserID = userID
	s.lastInput = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &sessionsvc.Created{
		Session: booking.Session{
			ID:            "sess-1",
			SessionNumber: "EM20260001",
			SessionDate:   datatypes.Date(in.Date),
			SessionTime:   in.Time,
			Status:        booking.StatusBooked,
		},
		Quote: booking.Quote{
			Total:   decimal.RequireFromString("400"),
			Deposit: decimal.RequireFromString("120"),
			Balance: decimal.RequireFromString("280"),
		},
	}, nil
}

func (s *stubService) List(_ context.Context, userID uint) ([]booking.Session, error) {
	s.lastUserID = userID
	return s.listed, nil
}

func (s *stubService) Get(_ context.Context, actor users.Actor, id string) (*booking.Session, error) {
	s.lastActor = actor
	s.lastID = id
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &booking.Session{ID: id, SessionNumber: "EM20260002"}, nil
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/availability", h.Availability)
	authed := r.Group("/", func(c *gin.Context) {
		c.Set("user_id", uint(7))
		c.Set("role", users.RoleCustomer)
	})
	authed.POST("/sessions", h.Create)
	authed.GET("/sessions", h.List)
	authed.GET("/sessions/:id", h.Get)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAvailability(t *testing.T) {
	svc := &stubService{slots: []string{"10:00", "10:30"}}
	w := do(newRouter(svc), http.MethodGet, "/availability?date=2026-05-20&duration=90", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"date": "2026-05-20",
		"availableSlots": ["10:00", "10:30"],
		"studioHours": {"start": "10:00", "end": "18:00"}
	}`, w.Body.String())
	assert.Equal(t, 90, svc.lastDur)
	assert.Equal(t, time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), svc.lastDay)
}

func TestAvailabilityEmptyAndErrors(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/availability?date=2026-05-20", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"availableSlots":[]`)

	w = do(r, http.MethodGet, "/availability", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"date"`)

	svc.availErr = errors.New("db down")
	w = do(r, http.MethodGet, "/availability?date=2026-05-20", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateSession(t *testing.T) {
	svc := &stubService{}
	body := `{
		"packageId": "` + packageID + `",
		"sessionDate": "2026-05-20",
		"sessionTime": "10:00",
		"children": [{"firstName": " Mia ", "lastName": "Lopez", "birthDate": "2020-02-29"}],
		"specialRequests": "Outdoor props"
	}`

	w := do(newRouter(svc), http.MethodPost, "/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp["id"])
	assert.Equal(t, "EM20260001", resp["sessionNumber"])
	assert.Equal(t, "2026-05-20", resp["sessionDate"])
	assert.Equal(t, "400", resp["totalAmount"])
	assert.Equal(t, "120", resp["depositAmount"])
	assert.Equal(t, "280", resp["balanceDue"])

	assert.Equal(t, uint(7), svc.lastUserID)
	require.Len(t, svc.lastInput.Children, 1)
	assert.Equal(t, "Mia", svc.lastInput.Children[0].FirstName)
	require.NotNil(t, svc.lastInput.Children[0].BirthDate)
	assert.Equal(t, time.February, svc.lastInput.Children[0].BirthDate.Month())
}

func TestCreateSessionValidation(t *testing.T) {
	svc := &stubService{}
	w := do(newRouter(svc), http.MethodPost, "/sessions", `{
		"packageId": "nope",
		"sessionDate": "2026-5-20",
		"sessionTime": "9am",
		"children": []
	}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	for _, field := range []string{"packageId", "sessionDate", "sessionTime", "children"} {
		assert.Contains(t, body, `"field":"`+field+`"`)
	}
	assert.Zero(t, svc.createCalls)
}

func TestCreateSessionErrorMapping(t *testing.T) {
	body := `{"packageId":"` + packageID + `","sessionDate":"2026-05-20","sessionTime":"10:15","children":[{"firstName":"A","lastName":"B"}]}`
	tests := []struct {
		err  error
		code int
	}{
		{sessionsvc.ErrPackageNotFound, http.StatusNotFound},
		{sessionsvc.ErrSlotUnavailable, http.StatusBadRequest},
		{sessionsvc.ErrOutsideStudioHours, http.StatusBadRequest},
		{sessionsvc.ErrDateInPast, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := do(newRouter(&stubService{createErr: tt.err}), http.MethodPost, "/sessions", body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestGetSession(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/sessions/abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.lastID)
	assert.Equal(t, users.Actor{ID: 7, Role: users.RoleCustomer}, svc.lastActor)

	svc.getErr = sessionsvc.ErrSessionNotFound
	w = do(r, http.MethodGet, "/sessions/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessionsNeverNull(t *testing.T) {
	w := do(newRouter(&stubService{}), http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

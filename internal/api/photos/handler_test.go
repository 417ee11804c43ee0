package photos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studio-app/internal/domain/gallery"
	"studio-app/internal/domain/users"
	photosvc "studio-app/internal/service/photos"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	sessionID = "3c8e1f2a-5b6d-4e7f-9a0b-1c2d3e4f5a6b"
	photoID   = "7a6b5c4d-3e2f-4a1b-8c9d-0e1f2a3b4c5d"
)

type stubService struct {
	err          error
	lastActor    users.Actor
	lastUpload   photosvc.UploadInput
	lastComplete photosvc.CompleteInput
}

func (s *stubService) IssueUploadURL(_ context.Context, actor users.Actor, in photosvc.UploadInput) (*photosvc.UploadTicket, error) {
	s.lastActor = actor
	s.lastUpload = in
	if s.err != nil {
		return nil, s.err
	}
	return &photosvc.UploadTicket{
		PhotoID:   photoID,
		UploadURL: "https://storage.example.com/put",
		Path:      "sessions/" + in.SessionID + "/original/1-abc.jpg",
		ExpiresAt: time.Unix(3600, 0).UTC(),
	}, nil
}

func (s *stubService) Complete(_ context.Context, actor users.Actor, in photosvc.CompleteInput) (*gallery.Photo, error) {
	s.lastActor = actor
	s.lastComplete = in
	if s.err != nil {
		return nil, s.err
	}
	thumb := "sessions/s/thumb/1.jpg"
	return &gallery.Photo{ID: in.PhotoID, OriginalPath: in.OriginalPath, ThumbnailPath: &thumb, Status: gallery.PhotoUploaded}, nil
}

func (s *stubService) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, zap.NewNop())
	r := gin.New()
	authed := r.Group("/", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("role", users.RoleAdmin)
	})
	authed.POST("/photos/upload-url", h.UploadURL)
	authed.POST("/photos/upload-complete", h.UploadComplete)
	return r
}

func do(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestUploadURL(t *testing.T) {
	svc := &stubService{}
	w := do(newRouter(svc), "/photos/upload-url",
		`{"sessionId":"`+sessionID+`","fileName":"IMG 001.jpg","contentType":"image/jpeg","fileSize":2048}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"uploadUrl":"https://storage.example.com/put"`)
	assert.Equal(t, int64(2048), svc.lastUpload.FileSize)
	assert.True(t, svc.lastActor.IsAdmin())
}

func TestUploadURLErrors(t *testing.T) {
	body := `{"sessionId":"` + sessionID + `","fileName":"a.gif","contentType":"image/gif","fileSize":10}`
	tests := []struct {
		err   error
		code  int
		field string
	}{
		{photosvc.ErrUnsupportedType, http.StatusBadRequest, "contentType"},
		{photosvc.ErrFileTooLarge, http.StatusBadRequest, "fileSize"},
		{photosvc.ErrSessionNotFound, http.StatusNotFound, ""},
		{photosvc.ErrForbidden, http.StatusForbidden, ""},
		{errors.New("sign failed"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := do(newRouter(&stubService{err: tt.err}), "/photos/upload-url", body)
			assert.Equal(t, tt.code, w.Code)
			if tt.field != "" {
				assert.Contains(t, w.Body.String(), `"field":"`+tt.field+`"`)
			}
		})
	}
}

func TestUploadURLValidation(t *testing.T) {
	svc := &stubService{}
	w := do(newRouter(svc), "/photos/upload-url", `{"sessionId":"`+sessionID+`","fileName":"a.jpg","contentType":"image/jpeg","fileSize":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"fileSize"`)
	assert.Empty(t, svc.lastUpload.SessionID)
}

func TestUploadComplete(t *testing.T) {
	svc := &stubService{}
	w := do(newRouter(svc), "/photos/upload-complete",
		`{"photoId":"`+photoID+`","originalPath":"sessions/s/original/1.jpg","derivedPaths":{"large":"sessions/s/large/1.jpg"}}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "sessions/s/large/1.jpg", svc.lastComplete.Derived.Large)
	assert.Empty(t, svc.lastComplete.Derived.Thumbnail)
	assert.Contains(t, w.Body.String(), `"original":"https://cdn.example.com/sessions/s/original/1.jpg"`)
	assert.Contains(t, w.Body.String(), `"thumbnail":"https://cdn.example.com/sessions/s/thumb/1.jpg"`)
	assert.Contains(t, w.Body.String(), `"medium":"https://cdn.example.com/sessions/s/original/1.jpg"`)
}

func TestUploadCompleteErrors(t *testing.T) {
	body := `{"photoId":"` + photoID + `","originalPath":"sessions/s/original/1.jpg"}`
	for err, code := range map[error]int{
		photosvc.ErrPhotoNotFound: http.StatusNotFound,
		photosvc.ErrPathMismatch:  http.StatusBadRequest,
		photosvc.ErrObjectMissing: http.StatusBadRequest,
		photosvc.ErrForeignPath:   http.StatusBadRequest,
		photosvc.ErrForbidden:     http.StatusForbidden,
	} {
		w := do(newRouter(&stubService{err: err}), "/photos/upload-complete", body)
		assert.Equal(t, code, w.Code, err.Error())
	}
}

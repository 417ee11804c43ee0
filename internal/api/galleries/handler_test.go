package galleries

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studio-app/internal/domain/gallery"
	gallerysvc "studio-app/internal/service/galleries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const photoID = "9b2e4c6a-1d3f-4a5b-8c7d-6e5f4a3b2c1d"

type stubService struct {
	err          error
	lastSlug     string
	lastCode     string
	lastPassword string
	lastPhoto    string
}

func (s *stubService) Describe(_ context.Context, slug string) (*gallerysvc.Summary, error) {
	s.lastSlug = slug
	if s.err != nil {
		return nil, s.err
	}
	return &gallerysvc.Summary{ID: "g-1", Name: "Mia's Spring Session", Slug: slug, RequiresPassword: true}, nil
}

func (s *stubService) Access(_ context.Context, slug, code, password string) (*gallerysvc.Unlocked, error) {
	s.lastSlug, s.lastCode, s.lastPassword = slug, code, password
	if s.err != nil {
		return nil, s.err
	}
	return &gallerysvc.Unlocked{
		Gallery: gallerysvc.Summary{Slug: slug},
		Photos:  []gallerysvc.PhotoView{{ID: photoID, ThumbnailURL: "https://cdn.example.com/t.jpg"}},
	}, nil
}

func (s *stubService) Download(_ context.Context, slug, code, password, photo string) (*gallerysvc.DownloadLink, error) {
	s.lastSlug, s.lastCode, s.lastPassword, s.lastPhoto = slug, code, password, photo
	if s.err != nil {
		return nil, s.err
	}
	return &gallerysvc.DownloadLink{URL: "https://signed.example.com/x", FileName: "mia.jpg", ExpiresAt: time.Unix(0, 0).UTC()}, nil
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/galleries/:slug", h.Describe)
	r.POST("/galleries/:slug", h.Access)
	r.POST("/galleries/:slug/download", h.Download)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestDescribe(t *testing.T) {
	svc := &stubService{}
	w := do(newRouter(svc), http.MethodGet, "/galleries/mias-spring-session", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"requiresPassword":true`)
	assert.NotContains(t, w.Body.String(), "photos")
	assert.Equal(t, "mias-spring-session", svc.lastSlug)
}

func TestAccess(t *testing.T) {
	svc := &stubService{}
	w := do(newRouter(svc), http.MethodPost, "/galleries/mia", `{"accessCode":"A1B2C3D4","password":"tulips"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn.example.com/t.jpg")
	assert.Equal(t, "A1B2C3D4", svc.lastCode)
	assert.Equal(t, "tulips", svc.lastPassword)
}

func TestAccessWithoutCode(t *testing.T) {
	svc := &stubService{err: gallery.ErrInvalidCode}
	w := do(newRouter(svc), http.MethodPost, "/galleries/mia", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "mia", svc.lastSlug)
	assert.Empty(t, svc.lastCode)

	// Expiry wins over a missing code.
	svc = &stubService{err: gallery.ErrExpired}
	w = do(newRouter(svc), http.MethodPost, "/galleries/mia", `{}`)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "mia", svc.lastSlug)

	svc = &stubService{err: gallery.ErrExpired}
	w = do(newRouter(svc), http.MethodPost, "/galleries/mia/download", `{"photoId":"`+photoID+`"}`)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, photoID, svc.lastPhoto)
}

func TestAccessErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		body string
	}{
		{gallerysvc.ErrGalleryNotFound, http.StatusNotFound, "Gallery not found"},
		{gallery.ErrExpired, http.StatusGone, "expired"},
		{gallery.ErrInvalidCode, http.StatusUnauthorized, "Invalid access code"},
		{gallery.ErrPasswordRequired, http.StatusUnauthorized, "Password required"},
		{gallery.ErrInvalidPassword, http.StatusUnauthorized, "Invalid password"},
		{errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := do(newRouter(&stubService{err: tt.err}), http.MethodPost, "/galleries/mia", `{"accessCode":"A1B2C3D4"}`)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestDescribeExpired(t *testing.T) {
	w := do(newRouter(&stubService{err: gallery.ErrExpired}), http.MethodGet, "/galleries/mia", "")
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestDownload(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := do(r, http.MethodPost, "/galleries/mia/download", `{"accessCode":"A1B2C3D4","photoId":"`+photoID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"url":"https://signed.example.com/x"`)
	assert.Equal(t, photoID, svc.lastPhoto)

	svc.err = gallerysvc.ErrDownloadDisabled
	w = do(r, http.MethodPost, "/galleries/mia/download", `{"accessCode":"A1B2C3D4","photoId":"`+photoID+`"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.err = gallerysvc.ErrPhotoNotFound
	w = do(r, http.MethodPost, "/galleries/mia/download", `{"accessCode":"A1B2C3D4","photoId":"`+photoID+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var expiry = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func protectedGallery(t *testing.T, password string) Gallery {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	return Gallery{AccessCode: "AB12CD34", PasswordHash: &h, PasswordProtected: true, ExpiresAt: expiry}
}

func TestAuthorizeOpenGallery(t *testing.T) {
	g := Gallery{AccessCode: "AB12CD34", ExpiresAt: expiry}

	assert.NoError(t, g.Authorize(expiry.Add(-time.Hour), "AB12CD34", ""))
	assert.ErrorIs(t, g.Authorize(expiry.Add(-time.Hour), "ab12cd34", ""), ErrInvalidCode)
	assert.ErrorIs(t, g.Authorize(expiry.Add(-time.Hour), "", ""), ErrInvalidCode)

	blank := Gallery{ExpiresAt: expiry}
	assert.ErrorIs(t, blank.Authorize(expiry.Add(-time.Hour), "", ""), ErrInvalidCode)
}

func TestAuthorizeExpiryBoundary(t *testing.T) {
	g := Gallery{AccessCode: "AB12CD34", ExpiresAt: expiry}

	assert.NoError(t, g.Authorize(expiry, "AB12CD34", ""))
	assert.ErrorIs(t, g.Authorize(expiry.Add(time.Nanosecond), "AB12CD34", ""), ErrExpired)
}

func TestAuthorizeChecksExpiryBeforeCredentials(t *testing.T) {
	g := protectedGallery(t, "secret-pass")

	err := g.Authorize(expiry.Add(time.Second), "WRONG", "")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestAuthorizePasswordRequired(t *testing.T) {
	g := protectedGallery(t, "secret-pass")
	now := expiry.Add(-time.Hour)

	assert.ErrorIs(t, g.Authorize(now, "AB12CD34", ""), ErrPasswordRequired)
	assert.ErrorIs(t, g.Authorize(now, "AB12CD34", "nope"), ErrInvalidPassword)
	assert.ErrorIs(t, g.Authorize(now, "XXXXXXXX", "secret-pass"), ErrInvalidCode)
	assert.NoError(t, g.Authorize(now, "AB12CD34", "secret-pass"))
}

func TestPhotoPathsFallBackToOriginal(t *testing.T) {
	thumb := "sessions/s1/thumbnail/a.jpg"
	p := Photo{OriginalPath: "sessions/s1/original/a.jpg", ThumbnailPath: &thumb}

	paths := p.Paths()
	assert.Equal(t, thumb, paths.Thumbnail)
	assert.Equal(t, p.OriginalPath, paths.Large)
	assert.Equal(t, p.OriginalPath, paths.Medium)
	assert.Equal(t, p.OriginalPath, paths.Small)
}

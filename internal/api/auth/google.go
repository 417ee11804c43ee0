package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"studio-app/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer    = "https://accounts.google.com"
	stateCookie     = "oauth_state"
	stateCookieLife = 300
)

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
	SecureCookies    bool
}

// GoogleAuth runs the OpenID Connect sign-in. The provider discovery document
// is fetched on first use and kept.
type GoogleAuth struct {
	cfg    GoogleConfig
	oauth  *oauth2.Config
	verify func(ctx context.Context, raw string) (*googleIDClaims, error)

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewGoogleAuth(cfg GoogleConfig) *GoogleAuth {
	g := &GoogleAuth{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
	g.verify = g.verifyIDToken
	return g
}

func (g *GoogleAuth) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google oidc provider: %w", err)
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	return g.verifier, nil
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

var errInvalidIDToken = errors.New("invalid id_token")

func (g *GoogleAuth) verifyIDToken(ctx context.Context, raw string) (*googleIDClaims, error) {
	verifier, err := g.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	idToken, err := verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidIDToken, err)
	}
	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidIDToken, err)
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, fmt.Errorf("%w: missing sub or email", errInvalidIDToken)
	}
	return &claims, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not enabled"})
		return
	}
	state, err := randomState()
	if err != nil {
		h.log.Error("generate oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, stateCookieLife, "/", "", h.google.cfg.SecureCookies, true)
	c.Redirect(http.StatusFound, h.google.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not enabled"})
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.google.cfg.SecureCookies, true)

	ctx := c.Request.Context()
	tok, err := h.google.oauth.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("google code exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing id_token"})
		return
	}
	claims, err := h.google.verify(ctx, rawIDToken)
	if err != nil {
		h.log.Warn("google id token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id_token"})
		return
	}

	user, err := h.findOrCreateGoogleUser(ctx, claims)
	if err != nil {
		h.log.Error("google user", zap.String("email", claims.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	if h.google.cfg.FrontendRedirect == "" {
		h.respondWithToken(c, http.StatusOK, *user)
		return
	}
	token, err := h.tokens.Issue(*user)
	if err != nil {
		h.log.Error("sign token", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}
	c.Redirect(http.StatusFound, h.google.cfg.FrontendRedirect+"?token="+url.QueryEscape(token))
}

// findOrCreateGoogleUser matches by Google subject, then links an existing
// account with the same email, and otherwise creates a new customer.
func (h *Handler) findOrCreateGoogleUser(ctx context.Context, gc *googleIDClaims) (*users.User, error) {
	user, err := h.users.FindUserByGoogleSub(ctx, gc.Sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	email := normalizeEmail(gc.Email)
	sub := gc.Sub
	user, err = h.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.GoogleSub == nil {
			user.GoogleSub = &sub
			if err := h.users.SaveUser(ctx, user); err != nil {
				return nil, err
			}
			h.log.Info("google account linked", zap.Uint("user_id", user.ID))
		}
		return user, nil
	case !errors.Is(err, users.ErrNotFound):
		return nil, err
	}

	user = &users.User{
		FirstName:    firstNonEmpty(gc.GivenName, gc.Name, email),
		LastName:     gc.FamilyName,
		Email:        email,
		AuthProvider: users.ProviderGoogle,
		GoogleSub:    &sub,
		Role:         h.roleFor(email),
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	h.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("provider", users.ProviderGoogle))
	return user, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore returns users.ErrNotFound for missing rows and
// users.ErrEmailTaken when CreateUser hits the unique email index.
type UserStore interface {
	CreateUser(ctx context.Context, u *users.User) error
	FindUserByEmail(ctx context.Context, email string) (*users.User, error)
	FindUserByGoogleSub(ctx context.Context, sub string) (*users.User, error)
	FindUserByID(ctx context.Context, id uint) (*users.User, error)
	SaveUser(ctx context.Context, u *users.User) error
}

type Handler struct {
	users      UserStore
	tokens     *Tokens
	adminEmail string
	google     *GoogleAuth
	log        *zap.Logger
}

type Option func(*Handler)

// WithGoogle enables the Google sign-in routes.
func WithGoogle(g *GoogleAuth) Option {
	return func(h *Handler) { h.google = g }
}

func NewHandler(store UserStore, tokens *Tokens, adminEmail string, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		users:      store,
		tokens:     tokens,
		adminEmail: normalizeEmail(adminEmail),
		log:        log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

const weakPasswordMessage = "Password must be at least 8 characters long and contain both letters and numbers"

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// roleFor grants admin to the configured studio owner address.
func (h *Handler) roleFor(email string) string {
	if h.adminEmail != "" && email == h.adminEmail {
		return users.RoleAdmin
	}
	return users.RoleCustomer
}

type registerRequest struct {
	FirstName        string `json:"firstName" binding:"required,max=100"`
	LastName         string `json:"lastName" binding:"required,max=100"`
	Phone            string `json:"phone" binding:"max=30"`
	Email            string `json:"email" binding:"required,trimmed_email"`
	Password         string `json:"password" binding:"required"`
	MarketingConsent bool   `json:"marketingConsent"`
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var input registerRequest
	if !request.JSON(c, &input) {
		return
	}
	if !isPasswordStrong(input.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": weakPasswordMessage})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	password := string(hashed)
	email := normalizeEmail(input.Email)

	user := users.User{
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Phone:            strings.TrimSpace(input.Phone),
		Email:            email,
		Password:         &password,
		AuthProvider:     users.ProviderLocal,
		Role:             h.roleFor(email),
		MarketingConsent: input.MarketingConsent,
	}
	if err := h.users.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
			return
		}
		h.log.Error("create user", zap.String("email", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}
	h.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	h.respondWithToken(c, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,trimmed_email"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var input loginRequest
	if !request.JSON(c, &input) {
		return
	}

	user, err := h.users.FindUserByEmail(c.Request.Context(), normalizeEmail(input.Email))
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			h.log.Error("find user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account uses Google sign-in"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	h.respondWithToken(c, http.StatusOK, *user)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// POST /auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if !request.JSON(c, &body) {
		return
	}
	if !isPasswordStrong(body.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": weakPasswordMessage})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindUserByID(ctx, request.Actor(c).ID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This account does not have a password. Sign in with Google instead."})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Old password is incorrect"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	password := string(hashed)
	user.Password = &password
	if err := h.users.SaveUser(ctx, user); err != nil {
		h.log.Error("save user", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user users.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error("sign token", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

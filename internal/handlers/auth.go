package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"interntrack/internal/models"
	"interntrack/internal/store"
)

const (
	tokenTTL          = 24 * time.Hour
	minPasswordLength = 6
	maxEmailLength    = 254
	maxNameLength     = 200
)

type AuthHandler struct {
	users     store.Users
	jwtSecret []byte
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthHandler(users store.Users, jwtSecret []byte, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, log: log, now: time.Now}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeJSON(w, r, &c) {
		return
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || c.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if _, err := mail.ParseAddress(c.Email); err != nil || len(c.Email) > maxEmailLength {
		writeMessage(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(c.Password) < minPasswordLength {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	name := strings.TrimSpace(c.FullName)
	if utf8.RuneCountInString(name) > maxNameLength {
		writeMessage(w, http.StatusBadRequest, "Name is too long (max 200 characters)")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("hash password failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	u := models.User{
		ID:           uuid.New(),
		Email:        c.Email,
		PasswordHash: string(hashed),
		CreatedAt:    h.now(),
	}
	if name != "" {
		u.FullName = &name
	}
	user, err := h.users.CreateUser(r.Context(), u)
	if errors.Is(err, store.ErrDuplicate) {
		writeMessage(w, http.StatusBadRequest, "Registration failed. Email may already be in use.")
		return
	}
	if err != nil {
		h.log.Error("create user failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := h.issueJWT(user.ID)
	if err != nil {
		h.log.Error("issue token failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeJSON(w, r, &c) {
		return
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || c.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), c.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.log.Error("load user failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "server error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := h.issueJWT(user.ID)
	if err != nil {
		h.log.Error("issue token failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// GetMe returns the current user's profile.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), currentUser(r))
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		h.log.Error("load user failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	FullName          *string `json:"full_name"`
	InternshipCompany *string `json:"internship_company"`
}

// UpdateMe updates the profile fields that appear on the compiled report.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var body profileRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	for _, p := range []*string{body.FullName, body.InternshipCompany} {
		if p == nil {
			continue
		}
		*p = strings.TrimSpace(*p)
		if utf8.RuneCountInString(*p) > maxNameLength {
			writeMessage(w, http.StatusBadRequest, "Value is too long (max 200 characters)")
			return
		}
	}
	user, err := h.users.UpdateProfile(r.Context(), currentUser(r), body.FullName, body.InternshipCompany)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		h.log.Error("update profile failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "could not update")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) issueJWT(userID uuid.UUID) (string, error) {
	now := h.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

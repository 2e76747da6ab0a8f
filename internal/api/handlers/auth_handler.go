package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

type AuthHandler struct {
	db        core.DbClient
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(db core.DbClient, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, jwtSecret: jwtSecret, logger: logger}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "email and a password of at least 8 characters are required"})
		return
	}

	existing, err := h.db.GetProfileByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if existing != nil {
		respondJSON(w, http.StatusConflict, errorBody{Error: "account already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	now := time.Now().UTC()
	profile := &models.Profile{
		ID:                 uuid.NewString(),
		Email:              req.Email,
		PasswordHash:       string(hash),
		FullName:           req.FullName,
		SubscriptionTier:   models.TierFree,
		SubscriptionStatus: "active",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.db.CreateProfile(r.Context(), profile); err != nil {
		respondError(w, h.logger, err)
		return
	}

	token, err := h.generateJWT(profile.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"token": token, "profile": profile})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	profile, err := h.db.GetProfileByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if profile == nil || bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	token, err := h.generateJWT(profile.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"token": token, "profile": profile})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.db.GetProfileByID(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if profile == nil {
		respondError(w, h.logger, core.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) generateJWT(id string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": id,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(h.jwtSecret))
}

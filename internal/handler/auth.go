// Package handler contains the HTTP layer: request parsing, cookie
// handling, and response shaping. Business rules live in the service
// layer; nothing here touches a repository directly.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/converse/internal/auth"
	"github.com/sakif/converse/internal/service"
)

// maxImageUpload caps profile image uploads at 8 MB.
const maxImageUpload = 8 << 20

// AuthHandler serves the account endpoints: signup, login, logout,
// profile, and profile-image management.
type AuthHandler struct {
	svc    *service.AuthService
	ttl    time.Duration // session cookie lifetime, matches the token TTL
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, ttl time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, ttl: ttl, logger: logger}
}

// setSessionCookie installs the session token. SameSite=None + Secure is
// required because the frontend is served from a different origin than
// this API; browsers refuse SameSite=None without Secure.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// clearSessionCookie overwrites the cookie with an already-expired empty
// value. The token itself stays valid until its natural expiry; only the
// client-held copy is destroyed.
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signupUser is the narrow projection returned on signup: the profile
// fields don't exist yet, so only id, email, and the setup flag go back.
type signupUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	ProfileSetup bool   `json:"profileSetup"`
}

// HandleSignup registers an account and opens a session.
//
// HTTP: POST /signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Email and Password is required"})
		return
	}

	result, err := h.svc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User Registered successfully",
		"user": signupUser{
			ID:           result.User.ID,
			Email:        result.User.Email,
			ProfileSetup: result.User.ProfileSetup,
		},
	})
}

// HandleLogin verifies credentials and opens a session.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Email and Password is required"})
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User logged in successfully",
		"user":    result.User.Public(),
	})
}

// HandleLogout clears the session cookie. Deliberately unauthenticated:
// a client with an expired session must still be able to log out.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successfully"})
}

// HandleUserInfo returns the caller's own public profile.
//
// HTTP: GET /user-info (auth required)
func (h *AuthHandler) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Color     int    `json:"color"`
}

// HandleUpdateProfile sets the caller's name and color and marks the
// profile as set up.
//
// HTTP: POST /update-profile (auth required)
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "First Name, Last Name are required"})
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), userID, req.FirstName, req.LastName, req.Color)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HandleAddProfileImage stores an uploaded image (multipart field
// "profile-image") and attaches it to the caller's profile.
//
// HTTP: POST /add-profile-image (auth required)
func (h *AuthHandler) HandleAddProfileImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload)
	file, header, err := r.FormFile("profile-image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "No image uploaded"})
		return
	}
	defer file.Close()

	user, err := h.svc.AddProfileImage(r.Context(), userID, header.Filename, file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Image uploaded successfully",
		"image":   user.Image,
	})
}

// HandleRemoveProfileImage deletes the caller's profile image blob and
// clears the reference.
//
// HTTP: DELETE /remove-profile-image (auth required)
func (h *AuthHandler) HandleRemoveProfileImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.RemoveProfileImage(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile image removed successfully"})
}

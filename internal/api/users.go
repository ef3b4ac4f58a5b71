package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/schedule"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// signupRequest is the request body for POST /users/signup.
type signupRequest struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
	DeviceID string    `json:"deviceId"`
}

// authResponse is returned by signup and login.
type authResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// handleSignup registers a new account. For device-owning roles the
// account, its device and the device's default schedule are created in
// one transaction: a duplicate hardware identifier must not leave a
// half-registered user behind.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Name == "":
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "name is required")
		return
	case req.Email == "":
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "email is required")
		return
	case len(req.Password) < minPasswordLength:
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "password must be at least 8 characters")
		return
	case !auth.IsValidRole(req.Role):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "role must be one of patient, caretaker, farmer, ringer")
		return
	case req.Role.OwnsDevice() && strings.TrimSpace(req.DeviceID) == "":
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "deviceId is required for this role")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "invalid email address")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	ctx := r.Context()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("beginning signup transaction", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	user := &auth.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, tx, user); err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Role.OwnsDevice() {
		dev, err := s.registry.Register(ctx, tx, req.DeviceID, req.Role, user.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if err := s.users.SetDevice(ctx, tx, user.ID, dev.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		user.DeviceRef = dev.ID

		if err := s.schedules.SeedDefaults(ctx, tx, dev.DeviceID, schedule.DefaultTimes(req.Role)); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("committing signup transaction", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	token, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("generating access token", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	s.logger.Info("account registered", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// loginRequest is the request body for POST /users/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin authenticates an account and issues an access token.
// Unknown email and wrong password produce the same response.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "email and password are required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), s.db, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("looking up account", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	token, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("generating access token", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// handleGetProfile returns the authenticated user's account.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	user, err := s.users.GetByID(r.Context(), s.db, p.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// updateProfileRequest is the request body for PUT /users/profile.
type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// handleUpdateProfile updates the authenticated user's name and email.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.users.GetByID(r.Context(), s.db, p.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "invalid email address")
			return
		}
		user.Email = email
	}

	if err := s.users.UpdateProfile(r.Context(), s.db, user); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleListPatients returns all patient accounts. Caretaker only,
// enforced by the router.
func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.users.ListByRole(r.Context(), s.db, auth.RolePatient)
	if err != nil {
		s.logger.Error("listing patients", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"patients": patients})
}

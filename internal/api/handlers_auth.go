// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/smokewatch/internal/audit"
	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/database"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
	"github.com/tomtom215/smokewatch/internal/validation"
)

const resourceUser = "user"

var (
	errInvalidCredentials = unauthorized("invalid credentials")
	errInvalidRefresh     = unauthorized("invalid refresh token")
	errAccountInactive    = forbidden("account is inactive")
	errEmailTaken         = badRequest("email is already registered")
)

// Register handles POST /auth/register.
//
// Anyone may create a security_staff account while open registration is
// enabled. Other roles, or any role once it is disabled, need a
// system_admin bearer token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = models.RoleSecurityStaff
	}

	admin, err := h.authorizeRegistration(r, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Role != models.RoleSystemAdmin && (req.VenueID == nil || *req.VenueID == "") {
		writeError(w, r, validation.NewFieldError("venueId", "required", "venueId is required for this role"))
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}

	ctx := r.Context()
	if req.VenueID != nil && *req.VenueID != "" {
		if _, err := h.store.GetVenue(ctx, *req.VenueID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				err = errVenueNotFound
			}
			writeError(w, r, err)
			return
		}
	}

	if _, err := h.store.GetUserByEmail(ctx, req.Email); err == nil {
		writeError(w, r, errEmailTaken)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost())
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Role:         req.Role,
		VenueID:      req.VenueID,
		IsActive:     true,
		NotificationPreferences: models.NotificationPreferences{
			Email:            true,
			PushNotification: true,
		},
	}
	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			err = errEmailTaken
		}
		writeError(w, r, err)
		return
	}

	resp, err := h.issueTokens(r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SetRefreshToken(ctx, user.ID, &resp.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}

	e := audit.FromRequest(r, models.AuditRegister, resourceUser, user.ID, audit.OutcomeSuccess)
	if admin != nil {
		audit.WithActor(e, admin.UserID, admin.Role)
	} else {
		audit.WithActor(e, user.ID, user.Role)
	}
	h.recordEvent(r, e)

	logging.Ctx(ctx).Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	WriteCreated(w, r, resp)
}

// authorizeRegistration applies the self-registration rule and returns the
// admin principal when one was required. A bearer token is optional on this
// route, so it is checked inline instead of by middleware.
func (h *Handler) authorizeRegistration(r *http.Request, role models.Role) (*auth.Claims, error) {
	openRegistration := h.config != nil && h.config.Security.OpenRegistration
	if role == models.RoleSecurityStaff && openRegistration {
		return nil, nil
	}

	token, ok := bearer(r)
	if !ok {
		return nil, unauthorized("an administrator token is required to register this role")
	}
	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, unauthorized("invalid or expired token")
	}
	if !claims.IsSystemAdmin() {
		return nil, forbidden("only system administrators can register this role")
	}
	return claims, nil
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	ctx := r.Context()

	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		e := audit.FromRequest(r, models.AuditLoginFailure, resourceUser, "", audit.OutcomeFailure)
		e.Details = models.JSONMap{"email": logging.SanitizeEmail(req.Email), "reason": "unknown email"}
		h.recordEvent(r, e)
		writeError(w, r, errInvalidCredentials)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		e := audit.WithActor(audit.FromRequest(r, models.AuditLoginFailure, resourceUser, user.ID, audit.OutcomeFailure), user.ID, user.Role)
		e.Details = models.JSONMap{"reason": "wrong password"}
		h.recordEvent(r, e)
		writeError(w, r, errInvalidCredentials)
		return
	}
	if !user.IsActive {
		e := audit.WithActor(audit.FromRequest(r, models.AuditLoginFailure, resourceUser, user.ID, audit.OutcomeFailure), user.ID, user.Role)
		e.Details = models.JSONMap{"reason": "inactive"}
		h.recordEvent(r, e)
		writeError(w, r, errAccountInactive)
		return
	}

	resp, err := h.issueTokens(r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateUserLogin(ctx, user.ID, resp.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}

	h.recordEvent(r, audit.WithActor(
		audit.FromRequest(r, models.AuditLoginSuccess, resourceUser, user.ID, audit.OutcomeSuccess),
		user.ID, user.Role))
	WriteSuccess(w, r, resp)
}

// Refresh handles POST /auth/refresh. The presented token must be the one
// stored at the last login or refresh, and both tokens rotate.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, r, errInvalidRefresh)
		return
	}

	user, err := h.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errInvalidRefresh
		}
		writeError(w, r, err)
		return
	}
	if user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(req.RefreshToken)) != 1 {
		logging.Ctx(ctx).Warn().Str("user_id", user.ID).Msg("Refresh token does not match the stored token")
		writeError(w, r, errInvalidRefresh)
		return
	}
	if !user.IsActive {
		writeError(w, r, errAccountInactive)
		return
	}

	resp, err := h.issueTokens(r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SetRefreshToken(ctx, user.ID, &resp.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, resp)
}

// ChangePassword handles POST /auth/change-password. The stored refresh
// token is revoked, so other sessions must log in again.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, r, validation.NewFieldError("confirmPassword", "eqfield", "confirmPassword must match newPassword"))
		return
	}
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}

	ctx := r.Context()
	user, err := h.store.GetUserByID(ctx, principal(r).UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errUserNotFound
		}
		writeError(w, r, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		h.record(r, models.AuditPasswordChange, resourceUser, user.ID, audit.OutcomeFailure)
		writeError(w, r, unauthorized("current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.bcryptCost())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		writeError(w, r, err)
		return
	}

	h.record(r, models.AuditPasswordChange, resourceUser, user.ID, audit.OutcomeSuccess)
	WriteSuccess(w, r, map[string]string{"message": "password changed"})
}

// Logout handles POST /auth/logout by revoking the stored refresh token.
// Access tokens stay valid until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	if err := h.store.SetRefreshToken(r.Context(), claims.UserID, nil); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errUserNotFound
		}
		writeError(w, r, err)
		return
	}
	h.record(r, models.AuditLogout, resourceUser, claims.UserID, audit.OutcomeSuccess)
	WriteSuccess(w, r, map[string]string{"message": "logged out"})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(r.Context(), principal(r).UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = errUserNotFound
		}
		writeError(w, r, err)
		return
	}
	WriteSuccess(w, r, user)
}

func (h *Handler) issueTokens(r *http.Request, user *models.User) (*AuthResponse, error) {
	pair, err := h.tokens.GenerateTokenPair(user)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue tokens")
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Public(),
	}, nil
}

func (h *Handler) bcryptCost() int {
	if h.config == nil {
		return 0
	}
	return h.config.Security.BcryptCost
}

func bearer(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

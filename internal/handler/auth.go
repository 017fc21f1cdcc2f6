// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the authoring view of a member. No password hash.
type userResponse struct {
	ID    int64  `json:"id"`
	OrgID int64  `json:"org_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, OrgID: u.OrgID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Login authenticates a member and starts a session.
// Invalid email and invalid password produce the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.logger.Warn("failed login attempt", "email", req.Email)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	// Rotate the session token on privilege change.
	if err := h.sm.RenewToken(r.Context()); err != nil {
		h.logger.Error("failed to renew session token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong")
		return
	}
	h.sm.Put(r.Context(), session.KeyUserID, user.ID)

	h.logger.Info("user logged in", "user_id", user.ID, "org_id", user.OrgID)
	writeJSON(w, http.StatusOK, toUserResponse(&user))
}

// Logout destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sm.Destroy(r.Context()); err != nil {
		h.logger.Error("failed to destroy session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// Me returns the authenticated member.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// User roles within an organization.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleWriter = "writer"
)

// User is a member of an organization's authoring staff.
type User struct {
	ID           int64     `json:"id"`
	OrgID        int64     `json:"org_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// roleLevel maps roles to an ordering for privilege comparisons.
func roleLevel(role string) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleWriter:
		return 1
	default:
		return 0
	}
}

// HasRole reports whether the user's role is at least the given role.
func (u *User) HasRole(role string) bool {
	return roleLevel(u.Role) >= roleLevel(role)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"github.com/inkwell-sh/inkwell/internal/model"
)

// Capabilities gating authoring actions. Writers work on their own drafts,
// editors control the published surface, admins manage the organization.
const (
	CapDraftCreate = "draft:create"
	CapDraftEdit   = "draft:edit"
	CapDraftDelete = "draft:delete"
	CapPublish     = "post:publish"
	CapPostEdit    = "post:edit"
	CapPostDelete  = "post:delete"
	CapOrgManage   = "org:manage"
)

// Can reports whether the user holds the capability. ownerID is the author
// of the resource being acted on; pass 0 when there is no owner (creation).
// Organization scoping is the caller's job; Can only answers the role
// question.
func Can(user *model.User, capability string, ownerID int64) bool {
	if user == nil {
		return false
	}

	switch capability {
	case CapDraftCreate:
		return user.HasRole(model.RoleWriter)
	case CapDraftEdit, CapDraftDelete:
		if user.ID == ownerID {
			return user.HasRole(model.RoleWriter)
		}
		return user.HasRole(model.RoleEditor)
	case CapPublish, CapPostEdit, CapPostDelete:
		return user.HasRole(model.RoleEditor)
	case CapOrgManage:
		return user.HasRole(model.RoleAdmin)
	default:
		return false
	}
}

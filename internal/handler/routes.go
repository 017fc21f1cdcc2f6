// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/inkwell-sh/inkwell/internal/middleware"
)

// Routes returns the authoring route tree. The caller wraps it with the
// session manager's LoadAndSave and CSRF protection; login stays outside
// the authenticated group.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.loginLimiter != nil {
		r.With(h.loginLimiter).Post("/login", h.Login)
	} else {
		r.Post("/login", h.Login)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.sm))
		r.Use(middleware.LoadUser(h.sm, h.db))

		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)

		r.Get("/organization", h.GetOrganization)
		r.Post("/organization/api-key", h.RotateAPIKey)

		r.Get("/drafts", h.ListDrafts)
		r.Post("/drafts", h.CreateDraft)
		r.Get("/drafts/{id}", h.GetDraft)
		r.Put("/drafts/{id}", h.SaveDraft)
		r.Delete("/drafts/{id}", h.DeleteDraft)
		r.Post("/drafts/{id}/publish", h.PublishDraft)

		r.Get("/posts", h.ListPosts)
		r.Post("/posts/{id}/unpublish", h.UnpublishPost)
		r.Delete("/posts/{id}", h.DeletePost)
		r.Put("/posts/{id}/tags", h.SetPostTags)

		r.Get("/comments/pending", h.ListPendingComments)
		r.Post("/comments/{id}/approve", h.ApproveComment)
		r.Delete("/comments/{id}", h.DeleteComment)

		r.Post("/categories", h.CreateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)
		r.Post("/tags", h.CreateTag)
		r.Delete("/tags/{id}", h.DeleteTag)

		r.Get("/webhooks", h.ListWebhooks)
		r.Post("/webhooks", h.CreateWebhook)
		r.Delete("/webhooks/{id}", h.DeleteWebhook)
	})

	return r
}

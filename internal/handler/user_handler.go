/*
Package handler provides HTTP handler functions for the signed-in user's direct messages.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/auth/jwt"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/resp"
)

// HandleGetSession returns the identity carried by the request token.
func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"username":  identity.Username,
			"expiresAt": identity.ExpiresAt,
		})
	}
}

// HandleDirectMessages returns the recent conversation between the signed-in user and a peer.
func HandleDirectMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		msgs, err := deps.Manager.DirectHistory(r.Context(), identity.Username, chi.URLParam(r, "peer"))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		if msgs == nil {
			msgs = []message.DirectMessage{}
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": msgs})
	}
}

// HandleMarkDirectMessageRead marks a direct message addressed to the signed-in user as read.
func HandleMarkDirectMessageRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		updated, err := deps.Manager.MarkDirectMessageRead(r.Context(), chi.URLParam(r, "id"), identity.Username)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		if !updated {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"read": true})
	}
}

/*
Package handler provides HTTP handler functions for account signup and login.
*/
package handler

import (
	"net/http"

	"roomchat/internal/app/account"
	"roomchat/internal/pkg/auth/jwt"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/req"
	"roomchat/internal/pkg/resp"
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is the response body of signup and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  account.User `json:"user"`
}

// HandleSignup creates a new account and signs the user in.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input account.SignupInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.Accounts.Signup(r.Context(), input)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		token, err := jwt.GenerateToken(user.Username, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "signup: jwt generation failed", "username", user.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, AuthResult{Token: token, User: user})
	}
}

// HandleLogin verifies user credentials and issues a JWT token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.Accounts.Login(r.Context(), input.Username, input.Password)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		token, err := jwt.GenerateToken(user.Username, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed", "username", user.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, AuthResult{Token: token, User: user})
	}
}

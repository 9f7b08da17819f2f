package handler

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"secrets/internal/app/session"
	"secrets/internal/app/user"
	"secrets/internal/pkg/errs"
	"secrets/internal/pkg/logx"
	"secrets/internal/pkg/req"
	"secrets/internal/pkg/resp"
	"secrets/internal/views"
)

// MaxSecretLength is the longest secret accepted, in characters.
const MaxSecretLength = 500

// HandleSecrets renders every submitted secret without its author.
func HandleSecrets(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Users.FindAllWithSecret(r.Context())
		if err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Msg("secrets: failed to list secrets")
			renderError(deps, w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		secrets := make([]string, 0, len(users))
		for _, u := range users {
			secrets = append(secrets, u.Secret)
		}

		renderPage(deps, w, r, views.Secrets, views.Page{Title: "Secrets", Secrets: secrets})
	}
}

// HandleSubmitPage renders the submit form, pre-filled with the user's
// current secret.
func HandleSubmitPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := ""
		if u := session.UserFromContext(r.Context()); u != nil {
			current = u.Secret
		}

		renderPage(deps, w, r, views.Submit, views.Page{
			Title:           "Submit",
			CurrentSecret:   current,
			MaxSecretLength: MaxSecretLength,
		})
	}
}

// HandleSubmit stores the posted secret on the authenticated user,
// replacing any earlier one.
func HandleSubmit(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := session.UserFromContext(r.Context())
		if current == nil {
			resp.Redirect(w, r, pathLogin)
			return
		}

		if customErr := req.BindForm(w, r); customErr != nil {
			renderError(deps, w, r, customErr)
			return
		}

		secret := req.Field(r, "secret")
		if secret == "" {
			resp.RedirectWithError(w, r, pathSubmit, errs.NewError(errs.ErrSecretEmpty))
			return
		}
		if utf8.RuneCountInString(secret) > MaxSecretLength {
			resp.RedirectWithError(w, r, pathSubmit, errs.NewError(errs.ErrSecretTooLong))
			return
		}

		if err := deps.Users.UpdateSecret(r.Context(), current.ID, secret); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				// The account vanished after the session was resolved.
				logx.Ctx(r.Context()).Warn().Str("user_id", current.ID).Msg("submit: user no longer exists")
				resp.Redirect(w, r, pathLogin)
				return
			}

			logx.Ctx(r.Context()).Error().Err(err).Str("user_id", current.ID).Msg("submit: failed to save secret")
			renderError(deps, w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		logx.Ctx(r.Context()).Info().Str("user_id", current.ID).Msg("secret submitted")
		resp.Redirect(w, r, pathSecrets)
	}
}

package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"secrets/internal/pkg/errs"
	"secrets/internal/pkg/logx"
	"secrets/internal/pkg/randx"
	"secrets/internal/pkg/resp"
)

const (
	stateCookieName = "secrets_oauth_state"
	stateCookiePath = "/auth/google"
	stateTTL        = 10 * time.Minute
)

// HandleFederatedBegin sends the browser to the identity provider, binding
// the attempt to this browser with a state cookie.
func HandleFederatedBegin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Federated == nil {
			renderError(deps, w, r, errs.NewError(errs.ErrFederatedUnavailable))
			return
		}

		state, err := randx.OAuthState()
		if err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Msg("federated: failed to generate state")
			renderError(deps, w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     stateCookiePath,
			MaxAge:   int(stateTTL.Seconds()),
			HttpOnly: true,
			Secure:   !deps.Config.IsDevelopment(),
			SameSite: http.SameSiteLaxMode,
		})

		resp.Redirect(w, r, deps.Federated.Begin(state))
	}
}

// HandleFederatedCallback finishes the provider round trip: it checks state,
// exchanges the code, links or creates the local user and signs them in.
// Any provider-side failure sends the browser back to the login page.
func HandleFederatedCallback(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Federated == nil {
			renderError(deps, w, r, errs.NewError(errs.ErrFederatedUnavailable))
			return
		}

		log := logx.Ctx(r.Context())
		fail := func() {
			resp.RedirectWithError(w, r, pathLogin, errs.NewError(errs.ErrFederatedFailed))
		}

		expected := ""
		if c, err := r.Cookie(stateCookieName); err == nil {
			expected = c.Value
		}
		clearStateCookie(w, !deps.Config.IsDevelopment())

		q := r.URL.Query()
		if providerErr := q.Get("error"); providerErr != "" {
			log.Warn().Str("provider_error", providerErr).Msg("federated: provider denied sign in")
			fail()
			return
		}

		state := q.Get("state")
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
			log.Warn().Msg("federated: state mismatch")
			fail()
			return
		}

		u, created, err := deps.Federated.Complete(r.Context(), q.Get("code"))
		if err != nil {
			log.Warn().Err(err).Str("provider", deps.Federated.ProviderName()).Msg("federated: sign in failed")
			fail()
			return
		}

		if err := deps.Sessions.Establish(w, r, u); err != nil {
			log.Error().Err(err).Str("user_id", u.ID).Msg("federated: failed to establish session")
			renderError(deps, w, r, errs.NewError(errs.ErrSessionFailed))
			return
		}

		log.Info().Str("user_id", u.ID).Bool("created", created).Msg("federated user signed in")
		resp.Redirect(w, r, pathSecrets)
	}
}

func clearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

/*
Package handler provides the HTTP handlers and routing for the secrets server.

Form posts follow post-redirect-get: a handler either redirects to the next
page, or back to the form with an error code in the query string.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"

	"secrets/internal/app/password"
	"secrets/internal/app/session"
	"secrets/internal/app/user"
	"secrets/internal/pkg/errs"
	"secrets/internal/pkg/logx"
	"secrets/internal/pkg/req"
	"secrets/internal/pkg/resp"
	"secrets/internal/views"
)

const (
	pathHome     = "/"
	pathLogin    = "/login"
	pathRegister = "/register"
	pathSecrets  = "/secrets"
	pathSubmit   = "/submit"
)

// Usernames are usually email addresses; anything printable without
// whitespace is accepted.
var usernameRegex = regexp.MustCompile(`^[^\s\x00-\x1f\x7f]{1,254}$`)

// HandleHome renders the landing page.
func HandleHome(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(deps, w, r, views.Home, views.Page{})
	}
}

// HandleRegisterPage renders the registration form.
func HandleRegisterPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session.IsAuthenticated(r) {
			resp.RedirectWithError(w, r, pathSecrets, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}
		renderPage(deps, w, r, views.Register, views.Page{Title: "Register"})
	}
}

// HandleRegister creates a local user and signs them in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session.IsAuthenticated(r) {
			resp.RedirectWithError(w, r, pathSecrets, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		if customErr := req.BindForm(w, r); customErr != nil {
			renderError(deps, w, r, customErr)
			return
		}

		username := req.Field(r, "username")
		plain := req.Raw(r, "password")

		if !usernameRegex.MatchString(username) {
			resp.RedirectWithError(w, r, pathRegister, errs.NewError(errs.ErrInvalidUsername))
			return
		}
		if err := password.Validate(plain); err != nil {
			resp.RedirectWithError(w, r, pathRegister, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hash, err := deps.Passwords.Hash(plain)
		if err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Msg("register: failed to hash password")
			renderError(deps, w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		created, err := deps.Users.Create(r.Context(), &user.User{
			Username:     username,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, user.ErrUsernameTaken) {
				logx.Ctx(r.Context()).Warn().Str("username", username).Msg("registration conflict: username already exists")
				resp.RedirectWithError(w, r, pathRegister, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Ctx(r.Context()).Error().Err(err).Msg("register: failed to create user")
			renderError(deps, w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		if err := deps.Sessions.Establish(w, r, created); err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Str("user_id", created.ID).Msg("register: failed to establish session")
			renderError(deps, w, r, errs.NewError(errs.ErrSessionFailed))
			return
		}

		logx.Ctx(r.Context()).Info().Str("user_id", created.ID).Msg("user registered")
		resp.Redirect(w, r, pathSecrets)
	}
}

// HandleLoginPage renders the login form.
func HandleLoginPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session.IsAuthenticated(r) {
			resp.RedirectWithError(w, r, pathSecrets, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}
		renderPage(deps, w, r, views.Login, views.Page{Title: "Login"})
	}
}

// HandleLogin verifies local credentials. Every kind of failure, including
// an unknown user or a federated-only account, looks the same to the client.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if customErr := req.BindForm(w, r); customErr != nil {
			renderError(deps, w, r, customErr)
			return
		}

		username := req.Field(r, "username")
		plain := req.Raw(r, "password")
		log := logx.Ctx(r.Context())

		if username == "" || plain == "" {
			resp.RedirectWithError(w, r, pathLogin, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		u, err := deps.Users.FindByUsername(r.Context(), username)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				deps.Passwords.VerifyMissing(plain)
				log.Warn().Str("username", username).Msg("login failed: unknown user")
				resp.RedirectWithError(w, r, pathLogin, errs.NewError(errs.ErrInvalidCredentials))
				return
			}

			log.Error().Err(err).Msg("login: failed to look up user")
			renderError(deps, w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		if !u.HasPassword() {
			deps.Passwords.VerifyMissing(plain)
			log.Warn().Str("user_id", u.ID).Msg("login failed: account has no password")
			resp.RedirectWithError(w, r, pathLogin, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if !deps.Passwords.Verify(u.PasswordHash, plain) {
			log.Warn().Str("user_id", u.ID).Msg("login failed: wrong password")
			resp.RedirectWithError(w, r, pathLogin, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if deps.Passwords.NeedsRehash(u.PasswordHash) {
			rehashPassword(deps, r, u, plain)
		}

		if err := deps.Sessions.Establish(w, r, u); err != nil {
			log.Error().Err(err).Str("user_id", u.ID).Msg("login: failed to establish session")
			renderError(deps, w, r, errs.NewError(errs.ErrSessionFailed))
			return
		}

		log.Info().Str("user_id", u.ID).Msg("user logged in")
		resp.Redirect(w, r, pathSecrets)
	}
}

// rehashPassword upgrades a hash made with an outdated cost. Failure only
// costs the upgrade, never the login.
func rehashPassword(deps *AppDeps, r *http.Request, u *user.User, plain string) {
	hash, err := deps.Passwords.Hash(plain)
	if err != nil {
		logx.Ctx(r.Context()).Warn().Err(err).Str("user_id", u.ID).Msg("failed to rehash password")
		return
	}

	if err := deps.Users.UpdatePasswordHash(r.Context(), u.ID, hash); err != nil {
		logx.Ctx(r.Context()).Warn().Err(err).Str("user_id", u.ID).Msg("failed to store rehashed password")
		return
	}
	u.PasswordHash = hash
}

// HandleLogout ends the session and returns to the landing page.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.Logout(w, r); err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Msg("logout: failed to revoke session")
		}
		resp.Redirect(w, r, pathHome)
	}
}

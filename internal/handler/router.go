package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"secrets/internal/app/session"
	"secrets/internal/pkg/errs"
	"secrets/internal/pkg/limiter"
	"secrets/internal/pkg/logx"
	"secrets/internal/pkg/resp"
	"secrets/internal/views"
)

const (
	// AuthRate and AuthBurst bound credential posts per client IP.
	AuthRate  = 0.5
	AuthBurst = 10
)

// Router sets up the routing table: global middleware, session resolution,
// the public pages and the authenticated ones.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(
		rate.Limit(AuthRate),
		AuthBurst,
		errorHandler(deps, errs.ErrRateLimitExceeded),
	)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	if deps.Config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.Config.RequestTimeout))
	}

	r.NotFound(errorHandler(deps, errs.ErrPageNotFound))
	r.MethodNotAllowed(errorHandler(deps, errs.ErrMethodNotAllowed))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{"status": "ok"})
	})
	r.Handle("/css/*", views.Static())

	// Logout needs no user, so it keeps working while the stores are down.
	r.Get("/logout", HandleLogout(deps))

	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware(deps.Users, errorHandler(deps, errs.ErrStorageFailed)))

		r.Get(pathHome, HandleHome(deps))

		r.Get(pathRegister, HandleRegisterPage(deps))
		r.With(authLimiter.Middleware).Post(pathRegister, HandleRegister(deps))

		r.Get(pathLogin, HandleLoginPage(deps))
		r.With(authLimiter.Middleware).Post(pathLogin, HandleLogin(deps))

		r.Get("/auth/google", HandleFederatedBegin(deps))
		r.Get("/auth/google/secrets", HandleFederatedCallback(deps))

		r.Group(func(r chi.Router) {
			r.Use(session.RequireAuth(pathLogin))

			r.Get(pathSecrets, HandleSecrets(deps))
			r.Get(pathSubmit, HandleSubmitPage(deps))
			r.Post(pathSubmit, HandleSubmit(deps))
		})
	})

	return r
}

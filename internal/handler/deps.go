package handler

import (
	"secrets/internal/app/federated"
	"secrets/internal/app/password"
	"secrets/internal/app/session"
	"secrets/internal/app/user"
	"secrets/internal/configs"
	"secrets/internal/views"
)

// AppDeps carries everything the handlers need. Federated is nil when no
// identity provider is configured.
type AppDeps struct {
	Config    *configs.AppConfig
	Users     user.Store
	Passwords *password.Verifier
	Sessions  *session.Manager
	Federated *federated.Adapter
	Views     *views.Renderer
}

package handler

import (
	"net/http"

	"secrets/internal/pkg/errs"
	"secrets/internal/pkg/logx"
	"secrets/internal/pkg/resp"
	"secrets/internal/views"
)

// renderPage renders name with status 200, filling the fields every page shares.
func renderPage(deps *AppDeps, w http.ResponseWriter, r *http.Request, name string, page views.Page) {
	page.FederatedEnabled = deps.Federated != nil
	if page.Error == nil {
		if customErr, ok := errs.Lookup(r.URL.Query().Get("error")); ok {
			page.Error = customErr
		}
	}

	if err := deps.Views.Render(w, http.StatusOK, name, page); err != nil {
		logx.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError answers with the error page, or the JSON envelope for
// clients that only accept JSON.
func renderError(deps *AppDeps, w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	if resp.WantsJSON(r) {
		resp.RespondError(w, r, customErr)
		return
	}

	page := views.Page{
		Title:            "Error",
		Error:            customErr,
		FederatedEnabled: deps.Federated != nil,
	}
	if err := deps.Views.Render(w, customErr.Status, views.Error, page); err != nil {
		logx.Ctx(r.Context()).Error().Err(err).Int("code", customErr.Code).Msg("failed to render error page")
		http.Error(w, customErr.Message, customErr.Status)
	}
}

// errorHandler adapts renderError for use as a plain http.Handler.
func errorHandler(deps *AppDeps, code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderError(deps, w, r, errs.NewError(code))
	}
}

/*
Package views holds the server-rendered HTML pages and their static assets.

Templates and stylesheets are embedded in the binary, so the server has no
runtime dependency on the working directory.
*/
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"secrets/internal/pkg/errs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names, matching the files under templates/.
const (
	Home     = "home"
	Login    = "login"
	Register = "register"
	Secrets  = "secrets"
	Submit   = "submit"
	Error    = "error"
)

var pageNames = []string{Home, Login, Register, Secrets, Submit, Error}

// Page is the data every template receives.
type Page struct {
	Title string

	// Error is shown above the page's form, if set.
	Error *errs.CustomError

	// FederatedEnabled toggles the "Sign In with Google" button.
	FederatedEnabled bool

	// Secrets is the anonymous aggregate shown on the secrets page.
	Secrets []string

	// CurrentSecret pre-fills the submit form with the user's own secret.
	CurrentSecret   string
	MaxSecretLength int
}

// Renderer executes the parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the shared partials.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}

	for _, name := range pageNames {
		tpl, err := template.New(name+".html").ParseFS(templateFS, "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = tpl
	}

	return r, nil
}

// Render executes page name into a buffer and only then writes the status
// and body, so a template failure never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name+".html", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// Static serves the embedded stylesheet tree rooted at static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

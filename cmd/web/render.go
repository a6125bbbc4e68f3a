package main

import (
	"bytes"
	"github.com/justinas/nosurf"
	"github.com/myrjola/heartcollector/internal/contexthelpers"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/ui"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
)

// baseFuncs are replaced per request in pageTemplate. Fragments keep them because they are published to every
// subscriber of a game and htmx posts carry the CSRF token in a header.
var baseFuncs = template.FuncMap{
	"nonce":       func() template.HTMLAttr { return "" },
	"csrf":        func() template.HTML { return "" },
	"csrfToken":   func() string { return "" },
	"currentPath": func() string { return "" },
}

func parseTemplates(patterns ...string) (*template.Template, error) {
	t, err := template.New("").Funcs(baseFuncs).ParseFS(ui.Files, patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "parse templates", slog.String("patterns", strings.Join(patterns, ",")))
	}
	return t, nil
}

func parseFragments() (*template.Template, error) {
	return parseTemplates("templates/partials/*.gohtml", "templates/fragments/*.gohtml")
}

func (app *application) pageTemplate(r *http.Request, pageName string) (*template.Template, error) {
	t, err := parseTemplates("templates/base.gohtml", "templates/partials/*.gohtml",
		"templates/pages/"+pageName+"/*.gohtml")
	if err != nil {
		return nil, err
	}

	nonce := contexthelpers.CSPNonce(r.Context())
	csrfToken := contexthelpers.CSRFToken(r.Context())
	t.Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(`nonce="` + nonce + `"`) //nolint:gosec // the nonce is ASCII letters only.
		},
		"csrf": func() template.HTML {
			//nolint:gosec // the token is base64 encoded.
			return template.HTML(`<input type="hidden" name="` + nosurf.FormFieldName + `" value="` +
				template.HTMLEscapeString(csrfToken) + `">`)
		},
		"csrfToken": func() string {
			return csrfToken
		},
		"currentPath": func() string {
			return contexthelpers.CurrentPath(r.Context())
		},
	})
	return t, nil
}

func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, err := app.pageTemplate(r, page)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	// Render to a buffer first so that a failing template doesn't produce a half-written page.
	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, "base", data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template", slog.String("page", page)))
		return
	}

	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fragmentRenderer renders the htmx out-of-band fragments published on the event stream.
type fragmentRenderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// render executes the named fragment. Failures are logged and yield an empty string because there is no request to
// fail.
func (f *fragmentRenderer) render(name string, data any) string {
	var sb strings.Builder
	if err := f.templates.ExecuteTemplate(&sb, name, data); err != nil {
		f.logger.Error("execute fragment", slog.String("fragment", name), errors.SlogError(err))
		return ""
	}
	return strings.TrimSpace(sb.String())
}

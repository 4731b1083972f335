package handlers

import (
	"html/template"
	"net/http"

	"github.com/GrandGaleTechnologies/docops-console/internal/guard"
	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/rs/zerolog/log"
)

// PagesHandler serves the console's page routes. Each page is a thin
// shell; the data on it comes from the /api endpoints. What matters
// here is the gate in front: every page request runs through the route
// guard, so an unauthenticated browser never sees a console page and a
// signed-in one never sees the login form.
type PagesHandler struct{}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · DocOps Console</title>
</head>
<body data-page="{{.Page}}">
<div id="root" data-user="{{.UserEmail}}"></div>
<script src="/static/console.js" defer></script>
</body>
</html>
`))

var loadingTemplate = template.Must(template.New("loading").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="2">
<title>Loading · DocOps Console</title>
</head>
<body data-page="loading">Loading…</body>
</html>
`))

type pageData struct {
	Title     string
	Page      string
	UserEmail string
}

// Page titles by path.
var pageTitles = map[string]string{
	guard.HomePath:  "Dashboard",
	"/sync":         "Syncs",
	"/projects":     "Projects",
	guard.LoginPath: "Sign in",
}

// NewPagesHandler creates the pages handler.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// Serve renders the page at the request path, subject to the route
// guard's decision.
func (h *PagesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	decision := guard.Decide(guard.State{
		Authenticated: session.Authenticated(),
		Loading:       middleware.SessionUnresolved(r.Context()),
		Path:          r.URL.Path,
	})
	middleware.IncrementGuardDecision(decision.String())

	switch decision {
	case guard.RenderLoading:
		h.renderLoading(w)
	case guard.RedirectToLogin:
		http.Redirect(w, r, guard.LoginPath, http.StatusFound)
	case guard.RedirectToHome:
		http.Redirect(w, r, guard.HomePath, http.StatusFound)
	case guard.Render:
		h.renderPage(w, r, session)
	}
}

func (h *PagesHandler) renderPage(w http.ResponseWriter, r *http.Request, session *models.Session) {
	path := r.URL.Path
	title, ok := pageTitles[path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := pageData{Title: title, Page: path}
	if session.User != nil {
		data.UserEmail = session.User.Email
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to render page")
	}
}

func (h *PagesHandler) renderLoading(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Retry-After", "2")
	if err := loadingTemplate.Execute(w, nil); err != nil {
		log.Error().Err(err).Msg("Failed to render loading page")
	}
}

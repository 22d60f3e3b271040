package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/matzehuels/flowguide/pkg/navigate"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Title is the heading shown on every page.
const Title = "Interactive flowchart to select uncertainty assessment methods"

// pageData is the template input.
type pageData struct {
	Title    string
	Path     string
	Page     navigate.Page
	HasGraph bool
	Links    []navLink
}

type navLink struct {
	Label string
	Path  string
}

var navLinks = []navLink{
	{"Home", navigate.PathHome},
	{"Flowchart Explorer", navigate.PathExplorer},
	{"Guided Selection Flowchart", navigate.PathGuided},
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusNotFound)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int) {
	page := navigate.ResolvePage(r.URL.Path)
	data := pageData{
		Title:    Title,
		Path:     r.URL.Path,
		Page:     page,
		HasGraph: page.HasGraph(),
		Links:    navLinks,
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("render page", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

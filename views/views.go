// Package views holds the embedded page templates and static assets.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"

	"github.com/sfkaos/zeke-site/services"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names.
const (
	Index        = "index.tmpl"
	JournalIndex = "journal_index.tmpl"
	JournalEntry = "journal_entry.tmpl"
	Status       = "status.tmpl"
)

var funcs = template.FuncMap{
	"categoryIcon": services.CategoryIcon,
	"statusClass":  services.StatusClass,
	"shortDate":    services.FormatShortDate,
	"longDate":     services.FormatLongDate,
}

// Load parses every embedded template.
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
}

// Execute renders one template to bytes.
func Execute(t *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Static returns the embedded static asset tree.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page is the data every template receives for the document head.
type Page struct {
	Title       string
	Description string
}

// StatusPage is the data of the Status template.
type StatusPage struct {
	Page
	Heading string
	Message string
}

var (
	NotFoundPage = StatusPage{
		Page:    Page{Title: "Not Found", Description: "Page not found"},
		Heading: "Not Found",
		Message: "This page could not be found.",
	}
	ErrorPage = StatusPage{
		Page:    Page{Title: "Error", Description: "Something went wrong"},
		Heading: "Something went wrong",
		Message: "Please try again in a minute.",
	}
)

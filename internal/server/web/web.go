package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"deref":   models.Deref,
		"derefID": derefID,
		"stamp":   stamp,
	}).ParseFS(templateFS, "templates/*.html")
}

func derefID(id *int64) any {
	if id == nil {
		return ""
	}
	return *id
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

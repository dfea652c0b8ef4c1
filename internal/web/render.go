// Package web holds the HTML rendering, flash messages, form validation and
// error-to-response mapping shared by the route handlers.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layout = "layout.html"

// Page is the value every template is executed with.
type Page struct {
	Flash         string
	Authenticated bool
	Data          any
}

// Renderer executes the page templates and maps errors to responses.
type Renderer struct {
	pages map[string]*template.Template
	log   *zap.Logger
}

func NewRenderer(log *zap.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"inc":        func(i int) int { return i + 1 },
		"alarm":      formatAlarm,
		"alarmInput": formatAlarmInput,
		"weekdays":   func() []string { return models.Weekdays },
	}

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		name := path.Base(f)
		if name == layout {
			continue
		}
		t, err := template.New(layout).Funcs(funcs).ParseFS(templatesFS, "templates/"+layout, f)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, log: log}, nil
}

// Render writes page with data. Templates are executed into a buffer first so
// a template failure becomes a clean 500.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := rn.pages[page]
	if !ok {
		rn.serverError(w, r, fmt.Errorf("unknown template %q", page))
		return
	}

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, layout, Page{
		Flash:         PopFlash(w, r),
		Authenticated: UserID(r.Context()) != "",
		Data:          data,
	})
	if err != nil {
		rn.serverError(w, r, fmt.Errorf("execute template %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Redirect answers a mutation with 303 See Other, optionally queueing a flash message.
func (rn *Renderer) Redirect(w http.ResponseWriter, r *http.Request, url, flash string) {
	if flash != "" {
		SetFlash(w, flash)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Fail maps a service error to a response. NotFound renders a 404 page;
// errors the user may see are flashed and redirected to back; everything
// else is logged and answered with a bare 500.
func (rn *Renderer) Fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if errors.Is(err, apperr.ErrNotFound) {
		rn.NotFound(w, r)
		return
	}
	if apperr.IsValidation(err) {
		rn.log.Debug("rejected input", zap.String("path", r.URL.Path), zap.Error(err))
	}
	if msg, ok := apperr.UserMessage(err); ok {
		rn.Redirect(w, r, back, msg)
		return
	}
	rn.serverError(w, r, err)
}

// NotFound renders the 404 page.
func (rn *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rn.Render(w, r, http.StatusNotFound, "error.html", errorPage{
		Status:  http.StatusNotFound,
		Message: "The page or item you asked for does not exist.",
	})
}

func (rn *Renderer) serverError(w http.ResponseWriter, r *http.Request, err error) {
	rn.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

type errorPage struct {
	Status  int
	Message string
}

func formatAlarm(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("Mon 02 Jan 2006, 15:04")
}

func formatAlarmInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(models.AlarmInputLayout)
}

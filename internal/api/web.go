package api

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"github.com/brandlens/brandlens/internal/export"
	"github.com/brandlens/brandlens/internal/session"
)

const sessionCookie = "brandlens_session"

// WebDeps holds dependencies for the browser-facing handler.
type WebDeps struct {
	Sessions *session.Manager
	CSRFKey  []byte
	Secure   bool // true when served over TLS; controls cookie flags
}

// NewWebHandler builds the CSRF-protected UI handler: the submission form,
// the results table, and the CSV download.
func NewWebHandler(deps WebDeps) (http.Handler, error) {
	r, err := newRouter(deps)
	if err != nil {
		return nil, err
	}
	protect := csrf.Protect(deps.CSRFKey, csrf.Secure(deps.Secure), csrf.Path("/"))
	return protect(r), nil
}

// newRouter is the unprotected route set; tests exercise it directly.
func newRouter(deps WebDeps) (http.Handler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	r.Get("/", handleIndex(deps, tmpl))
	r.Post("/submit", handleSubmit(deps))
	r.Get("/export.csv", handleExport(deps))
	return r, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// sessionFor resolves the browser session from the cookie, minting a new
// session ID on first contact.
func sessionFor(deps WebDeps, w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return deps.Sessions.Get(c.Value)
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   deps.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return deps.Sessions.Get(id)
}

type resultRow struct {
	Prompt    string
	Mentioned string
	Position  string
	Failed    bool
}

type indexData struct {
	Draft     session.Draft
	Banner    string
	InFlight  bool
	Results   []resultRow
	CSRFField template.HTML
}

func handleIndex(deps WebDeps, tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFor(deps, w, r)

		records, err := sess.Results()
		if err != nil {
			http.Error(w, "failed to load results", http.StatusInternalServerError)
			return
		}

		rows := make([]resultRow, len(records))
		for i, rec := range records {
			row := resultRow{Prompt: rec.Prompt, Mentioned: "No", Failed: rec.Error != ""}
			if rec.Mentioned {
				row.Mentioned = "Yes"
			}
			// Non-positive positions mean "not found"; the dash is a
			// display convention only and never reaches the CSV export.
			if rec.Position > 0 {
				row.Position = strconv.Itoa(rec.Position)
			} else {
				row.Position = "-"
			}
			rows[i] = row
		}

		render(w, tmpl, "index", indexData{
			Draft:     sess.Draft(),
			Banner:    sess.Banner(),
			InFlight:  sess.InFlight(),
			Results:   rows,
			CSRFField: csrf.TemplateField(r),
		})
	}
}

func handleSubmit(deps WebDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFor(deps, w, r)

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		sess.UpdatePrompt(r.PostFormValue("prompt"))
		sess.UpdateBrand(r.PostFormValue("brand"))

		// Once issued, a submission cannot be aborted by a later user
		// action, so the backend call is detached from the request context.
		// Validation failures and dropped attempts land back on the form
		// like every other outcome; the session banner carries the message.
		_, _ = sess.Submit(context.WithoutCancel(r.Context()))

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func handleExport(deps WebDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFor(deps, w, r)

		data, err := sess.ExportCSV()
		if errors.Is(err, export.ErrNoResults) {
			sess.SetNotice(session.NoticeNothingToExport)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if err != nil {
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="brand-mentions.csv"`)
		w.Write(data)
	}
}

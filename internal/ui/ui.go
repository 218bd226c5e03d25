package ui

import (
	"encoding/json"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mcules/gender-form/internal/activity"
	"github.com/mcules/gender-form/internal/answers"
	"github.com/mcules/gender-form/internal/auth"
	"github.com/mcules/gender-form/internal/form"
	"github.com/mcules/gender-form/internal/metrics"
	"github.com/mcules/gender-form/internal/state"
)

// Comments in this file are intentionally in English.

type Handler struct {
	State      *state.FormState
	Controller *form.Controller
	Store      *answers.Store
	Auth       *auth.Authenticator
	Activity   *activity.Log
	Latency    *metrics.Tracker
	Logger     *zap.Logger

	// Host of the prediction endpoint, for the stats footer.
	UpstreamHost string

	templates *template.Template
}

func NewHandler(
	st *state.FormState,
	controller *form.Controller,
	store *answers.Store,
	authenticator *auth.Authenticator,
	activityLog *activity.Log,
	latency *metrics.Tracker,
	templateDir string,
) (*Handler, error) {
	tpl, err := template.ParseFiles(
		filepath.Join(templateDir, "layout.html"),
		filepath.Join(templateDir, "form.html"),
		filepath.Join(templateDir, "activity.html"),
		filepath.Join(templateDir, "answers.html"),
		filepath.Join(templateDir, "keys.html"),
		filepath.Join(templateDir, "login.html"),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		State:      st,
		Controller: controller,
		Store:      store,
		Auth:       authenticator,
		Activity:   activityLog,
		Latency:    latency,
		templates:  tpl,
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	// The form itself is the app; it stays public.
	mux.HandleFunc("/ui/", h.formPage)
	mux.HandleFunc("/ui/submit", h.submit)
	mux.HandleFunc("/ui/save", h.save)
	mux.HandleFunc("/ui/clear", h.clear)

	// Admin surfaces sit behind the session login.
	mux.HandleFunc("/ui/activity", h.authMiddleware(h.activityPage))
	mux.HandleFunc("/ui/answers", h.authMiddleware(h.answersPage))
	mux.HandleFunc("/ui/answers/delete", h.authMiddleware(h.deleteAnswer))
	mux.HandleFunc("/ui/keys", h.authMiddleware(h.keys))
	mux.HandleFunc("/ui/keys/create", h.authMiddleware(h.createKey))
	mux.HandleFunc("/ui/keys/delete", h.authMiddleware(h.deleteKey))
	mux.HandleFunc("/ui/password", h.authMiddleware(h.changePassword))

	mux.HandleFunc("/ui/login", h.login)
	mux.HandleFunc("/ui/logout", h.logout)

	// Simple health endpoint for the server itself
	mux.HandleFunc("/health", h.health)
}

type viewModel struct {
	Title string
	Now   time.Time
	User  *answers.UserRecord
	Form  state.Snapshot
	Data  any

	// Prediction endpoint stats for the footer; zero value when unobserved.
	Upstream metrics.UpstreamLatency
}

func (h *Handler) newViewModel(title string) viewModel {
	vm := viewModel{
		Title: title,
		Now:   time.Now(),
		Form:  h.State.Snapshot(),
	}
	if h.Latency != nil && h.UpstreamHost != "" {
		vm.Upstream, _ = h.Latency.Get(h.UpstreamHost)
	}
	return vm
}

func (h *Handler) formPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/ui/" && r.URL.Path != "/ui" {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path == "/ui" {
		http.Redirect(w, r, "/ui/", http.StatusFound)
		return
	}
	h.render(w, "form.html", h.newViewModel("Gender Form"))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.Controller.Submit(r.Context(), r.FormValue("name"))
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.Controller.Save(r.Context(), r.FormValue("name"), r.FormValue("gender")); err != nil {
		http.Error(w, "failed to save answer", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.Controller.Clear(r.Context()); err != nil {
		http.Error(w, "failed to clear answer", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (h *Handler) answersPage(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.ListAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	vm := h.newViewModel("Saved Answers")
	vm.User = h.getUser(r)
	vm.Data = all
	h.render(w, "answers.html", vm)
}

func (h *Handler) deleteAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	name := r.FormValue("name")
	if name != "" {
		_ = h.Store.Delete(r.Context(), name)
	}
	http.Redirect(w, r, "/ui/answers", http.StatusSeeOther)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"status": "ok"}
	if h.Latency != nil {
		out["upstreams"] = h.Latency.Snapshot()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handler) render(w http.ResponseWriter, name string, vm viewModel) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := h.templates.ExecuteTemplate(w, "layout.html", map[string]any{
		"Page": name,
		"VM":   vm,
	})
	if err != nil && h.Logger != nil {
		h.Logger.Error("template render failed", zap.String("page", name), zap.Error(err))
	}
}

package ui

import (
	"context"
	"net/http"

	"github.com/mcules/gender-form/internal/answers"
)

type ctxKeyUser struct{}

func (h *Handler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil {
			http.Redirect(w, r, "/ui/login", http.StatusFound)
			return
		}

		// The cookie carries a random session token; the user is resolved
		// server-side.
		u, exists, err := h.Auth.LookupSession(r.Context(), cookie.Value)
		if err != nil || !exists {
			http.Redirect(w, r, "/ui/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser{}, &u)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, "login.html", h.newViewModel("Login"))
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	u, err := h.Auth.AuthenticateUser(r.Context(), username, password)
	if err != nil {
		vm := h.newViewModel("Login")
		vm.Data = "Ungültiger Benutzername oder Passwort"
		h.render(w, "login.html", vm)
		return
	}

	sess, err := h.Auth.CreateSession(r.Context(), u.Username)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   86400,
	})

	http.Redirect(w, r, "/ui/answers", http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session"); err == nil {
		_ = h.Auth.DeleteSession(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/ui/login", http.StatusFound)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	currentUser := h.getUser(r)
	newPassword := r.FormValue("password")

	if currentUser == nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if newPassword == "" {
		http.Error(w, "Password required", http.StatusBadRequest)
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), currentUser.Username, newPassword); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/ui/answers", http.StatusSeeOther)
}

func (h *Handler) getUser(r *http.Request) *answers.UserRecord {
	if v := r.Context().Value(ctxKeyUser{}); v != nil {
		return v.(*answers.UserRecord)
	}
	return nil
}

package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/RahulSJav/Expenses/internal/auth"
	"github.com/RahulSJav/Expenses/internal/log"
	"github.com/RahulSJav/Expenses/internal/models"
	"github.com/RahulSJav/Expenses/internal/service"
	"github.com/RahulSJav/Expenses/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour

	flashCookieName = "flash"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	svc          *service.Service
	templateDir  string
	secureCookie bool
	log          *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, svc *service.Service, templateDir string, secureCookie bool, logger *log.Logger) *Handlers {
	return &Handlers{
		db:           db,
		svc:          svc,
		templateDir:  templateDir,
		secureCookie: secureCookie,
		log:          logger.WithComponent(log.ComponentHTTP),
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication. Unauthenticated
// requests are redirected to the login page, never served partial content.
// It also implements rolling sessions: a session past the halfway point of
// its lifetime is renewed automatically.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		if time.Until(sessionInfo.ExpiresAt) < SessionDuration/2 {
			newExpiresAt := time.Now().Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value)
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    string
	Message string
}

func (h *Handlers) setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie set by a preceding redirect.
func (h *Handlers) popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, found := strings.Cut(value, "|")
	if !found {
		return &Flash{Kind: "info", Message: value}
	}
	return &Flash{Kind: kind, Message: message}
}

// AuthViewModel holds data for the login and registration pages.
type AuthViewModel struct {
	Flash *Flash
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", AuthViewModel{Flash: h.popFlash(w, r)})
}

// Register handles the registration form submission. Success does not log
// the user in; they are sent to the login page.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "danger", "Invalid form submission")
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	preferredName := strings.TrimSpace(r.FormValue("preferred_name"))

	if username == "" || password == "" || preferredName == "" {
		h.setFlash(w, "danger", "Username, password and preferred name are required")
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.log.Error("failed to hash password", "error", err)
		h.renderError(w, http.StatusInternalServerError)
		return
	}

	if _, err := h.db.CreateUser(username, hash, preferredName); err != nil {
		if errors.Is(err, storage.ErrDuplicateUsername) {
			h.setFlash(w, "danger", "Username already exists! Try a different one.")
			http.Redirect(w, r, "/register", http.StatusFound)
			return
		}
		h.log.Error("failed to create user", "error", err)
		h.renderError(w, http.StatusInternalServerError)
		return
	}

	h.setFlash(w, "success", "Registered successfully. Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go straight to the expenses page
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/expenses", http.StatusFound)
			return
		}
	}
	h.render(w, "login.html", AuthViewModel{Flash: h.popFlash(w, r)})
}

// Login handles the login form submission. A missing user and a wrong
// password produce the same message so usernames cannot be probed.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "danger", "Invalid form submission")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	user, err := h.db.GetUserByUsername(username)
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		h.setFlash(w, "danger", "Invalid username or password")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.log.Error("failed to generate session token", "error", err)
		h.renderError(w, http.StatusInternalServerError)
		return
	}

	expiresAt := time.Now().Add(SessionDuration)
	if err := h.db.CreateSession(token, user.ID, expiresAt); err != nil {
		h.log.Error("failed to create session", "error", err)
		h.renderError(w, http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

// Logout ends the session and returns to the login page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			h.log.Error("failed to delete session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		h.log.Error("template parse failed", "view", viewName, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		h.log.Error("template execution failed", "view", viewName, "error", err)
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

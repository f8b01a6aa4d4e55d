package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"quit-tracker/internal/auth"
	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
	"quit-tracker/internal/settings"
	"quit-tracker/internal/storage"
	"quit-tracker/internal/tracker"

	"go.uber.org/zap"
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
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	users        *auth.Service
	tracker      *tracker.Service
	templateDir  string
	secureCookie bool
	log          *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, tr *tracker.Service, templateDir string, secureCookie bool, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		db:           db,
		users:        auth.NewService(db),
		tracker:      tr,
		templateDir:  templateDir,
		secureCookie: secureCookie,
		log:          log,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
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

		// Rolling session: renew if past halfway point
		now := time.Now()
		if sessionInfo.ExpiresAt.Sub(now) < SessionDuration/2 {
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err != nil {
				h.log.Warn("session renewal failed", zap.Error(err))
			} else {
				h.setSessionCookie(w, cookie.Value)
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthViewModel holds data for the login and signup pages.
type AuthViewModel struct {
	Error    string
	Username string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.loggedIn(r) {
		http.Redirect(w, r, "/tracker", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", AuthViewModel{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.render(w, r, "login.html", AuthViewModel{Error: "Username and password are required", Username: username})
		return
	}

	accountID, err := h.users.Authenticate(username, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Error("authenticate failed", zap.Error(err))
		}
		h.render(w, r, "login.html", AuthViewModel{Error: "Invalid username or password", Username: username})
		return
	}

	if err := h.startSession(w, accountID); err != nil {
		h.log.Error("create session failed", zap.Error(err))
		h.render(w, r, "login.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}
	http.Redirect(w, r, "/tracker", http.StatusFound)
}

// SignupForm renders the account creation page.
func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	if h.loggedIn(r) {
		http.Redirect(w, r, "/tracker", http.StatusFound)
		return
	}
	h.render(w, r, "signup.html", AuthViewModel{})
}

// Signup creates an account and logs it in.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "signup.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if password != r.FormValue("confirm") {
		h.render(w, r, "signup.html", AuthViewModel{Error: "Passwords do not match", Username: username})
		return
	}

	accountID, err := h.users.Register(username, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.render(w, r, "signup.html", AuthViewModel{Error: "Username and password are required", Username: username})
		return
	case errors.Is(err, auth.ErrUserExists):
		h.render(w, r, "signup.html", AuthViewModel{Error: "That username is taken", Username: username})
		return
	case err != nil:
		h.log.Error("register failed", zap.Error(err))
		h.render(w, r, "signup.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}
	h.log.Info("account created", zap.Int64("account_id", accountID))

	if err := h.startSession(w, accountID); err != nil {
		h.log.Error("create session failed", zap.Error(err))
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/tracker", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			h.log.Error("delete session failed", zap.Error(err))
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = h.db.ValidateSession(cookie.Value)
	return err == nil
}

func (h *Handlers) startSession(w http.ResponseWriter, accountID int64) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}
	if err := h.db.CreateSession(token, accountID, time.Now().Add(SessionDuration)); err != nil {
		return err
	}
	h.setSessionCookie(w, token)
	return nil
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

var templateFuncs = template.FuncMap{
	"money":   settings.FormatMoney,
	"date":    calendar.FormatDate,
	"optdate": calendar.FormatOptionalDate,
	"stamp": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
	"inc": func(i int) int { return i + 1 },
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(
		filepath.Join(h.templateDir, "base.html"),
		filepath.Join(h.templateDir, viewName),
	)
	if err != nil {
		h.log.Error("template parse failed", zap.String("view", viewName), zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		h.log.Error("template execution failed", zap.String("view", viewName), zap.Error(err))
	}
}

// redirect sends the browser to path, through HX-Location for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Location", `{"path":"`+path+`", "target":"#content"}`)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

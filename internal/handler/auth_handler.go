package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/OdenEater/wedding-sns/internal/auth"
	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/go-chi/chi/v5"
)

const (
	oauthStateCookie = "wedding_oauth_state"
	oauthStateMaxAge = 600
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.opts.SecureCookies)
	h.writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.opts.SecureCookies)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.opts.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// oauthStart redirects to the provider with a fresh state cookie.
func (h *Handler) oauthStart(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil || chi.URLParam(r, "provider") != h.oauth.Name() {
		http.NotFound(w, r)
		return
	}

	state, err := auth.NewState()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// oauthCallback finishes the authorization-code flow and returns the
// browser to the app with a session cookie.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	c, err := r.Cookie(oauthStateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		h.writeMessage(w, http.StatusBadRequest, "auth.oauthError", map[string]any{"reason": "state mismatch"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth", MaxAge: -1})

	if reason := q.Get("error"); reason != "" {
		h.redirectWithError(w, r, reason)
		return
	}

	email, err := h.oauth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		observability.FromContext(r.Context()).WarnContext(r.Context(), "oauth exchange failed",
			slog.String("provider", h.oauth.Name()), slog.Any("error", err))
		h.redirectWithError(w, r, "exchange_failed")
		return
	}

	res, err := h.auth.SignInOAuth(r.Context(), h.oauth.Name(), email)
	if err != nil {
		observability.FromContext(r.Context()).ErrorContext(r.Context(), "oauth sign-in failed", slog.Any("error", err))
		h.redirectWithError(w, r, "sign_in_failed")
		return
	}

	auth.SetSessionCookie(w, res.Token, h.opts.SecureCookies)
	http.Redirect(w, r, h.opts.AfterLoginURL, http.StatusFound)
}

// redirectWithError sends the browser to the login page with a reason.
func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	target, err := url.Parse(h.opts.AfterLoginURL)
	if err != nil {
		target = &url.URL{Path: "/"}
	}
	target = target.JoinPath("login")
	target.RawQuery = url.Values{"error": {reason}}.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/messages"
)

// Required rejects requests without a valid token.
func (t *Tokens) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := t.Validate(r)
		if err != nil {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Optional attaches a session when a valid token is present. An invalid
// token is treated the same as no token.
func (t *Tokens) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, err := t.Validate(r); err == nil {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// Gate is Optional when anonymous reads are allowed, Required otherwise.
func (t *Tokens) Gate(allowAnonymous bool) func(http.Handler) http.Handler {
	if allowAnonymous {
		return t.Optional
	}
	return t.Required
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: messages.Default().Get("auth.loginRequired"),
	})
}

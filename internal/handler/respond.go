package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/repository"
	"github.com/OdenEater/wedding-sns/internal/service"
)

var errInvalidBody = errors.New("invalid request body")

// errorMapping maps a sentinel to a status and a message catalog key.
type errorMapping struct {
	err    error
	status int
	key    string
}

var errorMappings = []errorMapping{
	{errInvalidBody, http.StatusBadRequest, "errors.badRequest"},
	{service.ErrInvalidInput, http.StatusBadRequest, "errors.badRequest"},
	{service.ErrInvalidContent, http.StatusBadRequest, "post.tooLong"},
	{service.ErrNestedReply, http.StatusBadRequest, "errors.nestedReply"},
	{service.ErrInvalidAvatar, http.StatusBadRequest, "profile.invalidAvatar"},
	{service.ErrForbidden, http.StatusForbidden, "post.forbidden"},
	{repository.ErrInvalidCredentials, http.StatusUnauthorized, "auth.invalidCredentials"},
	{repository.ErrPostNotFound, http.StatusNotFound, "post.notFound"},
	{repository.ErrProfileNotFound, http.StatusNotFound, "profile.notFound"},
	{repository.ErrUserNotFound, http.StatusNotFound, "profile.notFound"},
	{repository.ErrSetlistItemNotFound, http.StatusNotFound, "setlist.notFound"},
	{repository.ErrDuplicateEmail, http.StatusConflict, "auth.emailTaken"},
	{repository.ErrAlreadyLiked, http.StatusConflict, "errors.conflict"},
	{repository.ErrNotLiked, http.StatusConflict, "errors.conflict"},
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.GlobalLogger.Warn("failed to encode response", slog.Any("error", err))
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, key string, params map[string]any) {
	h.writeJSON(w, status, domain.ErrorResponse{
		Code:    status,
		Message: h.msg.Format(key, params),
	})
}

// writeError maps err to a status code. Unknown errors are logged and
// reported as 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			h.writeMessage(w, m.status, m.key, map[string]any{"max": domain.MaxPostLength})
			return
		}
	}

	observability.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	h.writeMessage(w, http.StatusInternalServerError, "errors.internal", nil)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

package handler

import (
	"errors"
	"net/http"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/repository"
	"github.com/OdenEater/wedding-sns/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) listSetlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.setlist.List(r.Context(), h.isAdmin(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.GetSetlistResponse{Items: items})
}

func (h *Handler) updateSetlist(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSetlistRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, r, repository.ErrSetlistItemNotFound)
		return
	}

	item, err := h.setlist.SetPublic(r.Context(), h.isAdmin(r), id, req.IsPublic)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			h.writeMessage(w, http.StatusForbidden, "setlist.forbidden", nil)
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

package handler

import (
	"net/http"

	"github.com/OdenEater/wedding-sns/internal/avatars"
)

type avatarCatalogResponse struct {
	Groups []avatars.Group `json:"groups"`
}

func (h *Handler) avatarCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, avatarCatalogResponse{
		Groups: h.avatars.Groups(h.msg, h.opts.GroomName, h.opts.BrideName),
	})
}

func (h *Handler) messageCatalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(h.msg.JSON())
}

package handler

import (
	"net/http"
	"strings"

	"github.com/OdenEater/wedding-sns/internal/auth"
	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func profileID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", repository.ErrProfileNotFound
	}
	return id, nil
}

// listProfiles serves GET /api/profiles?ids=a,b.
func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	profiles, err := h.profiles.List(r.Context(), ids)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.GetProfilesResponse{Profiles: profiles})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	profile, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) profilePosts(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	posts, err := h.posts.ByUser(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.GetPostsResponse{Posts: posts})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	profile, err := h.profiles.Update(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	var req domain.CompleteOnboardingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	profile, err := h.profiles.CompleteOnboarding(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/OdenEater/wedding-sns/internal/auth"
	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/repository"
	"github.com/OdenEater/wedding-sns/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// postID returns the {id} path parameter. Malformed ids are reported as
// not found instead of reaching the database.
func postID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", repository.ErrPostNotFound
	}
	return id, nil
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Timeline(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.GetPostsResponse{Posts: posts})
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	post, err := h.posts.ByID(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) replies(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	posts, err := h.posts.Replies(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.GetPostsResponse{Posts: posts})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ParentID != nil {
		if _, err := uuid.Parse(*req.ParentID); err != nil {
			h.writeError(w, r, repository.ErrPostNotFound)
			return
		}
	}

	post, err := h.posts.Create(r.Context(), auth.UserID(r.Context()), req.Content, req.ParentID)
	if err != nil {
		h.writeContentError(w, r, err, req.Content)
		return
	}
	h.writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req domain.UpdatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	post, err := h.posts.Update(r.Context(), auth.UserID(r.Context()), id, req.Content)
	if err != nil {
		h.writeContentError(w, r, err, req.Content)
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.posts.Delete(r.Context(), auth.UserID(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) like(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	like, err := h.posts.Like(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, like)
}

func (h *Handler) unlike(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.posts.Unlike(r.Context(), auth.UserID(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) likers(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.posts.Likers(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.GetLikesResponse{Users: users})
}

// writeContentError distinguishes empty content from content that is too long.
func (h *Handler) writeContentError(w http.ResponseWriter, r *http.Request, err error, content string) {
	if errors.Is(err, service.ErrInvalidContent) && strings.TrimSpace(content) == "" {
		h.writeMessage(w, http.StatusBadRequest, "post.empty", nil)
		return
	}
	h.writeError(w, r, err)
}

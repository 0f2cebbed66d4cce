// Package handler exposes the HTTP API and the realtime websocket.
package handler

import (
	"context"
	"net/http"

	"github.com/OdenEater/wedding-sns/internal/auth"
	"github.com/OdenEater/wedding-sns/internal/avatars"
	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/messages"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================
// Dependencies
// ============================================

type AuthAPI interface {
	Signup(ctx context.Context, email, password string) (*domain.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResponse, error)
	SignInOAuth(ctx context.Context, provider, email string) (*domain.AuthResponse, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	IsAdmin(email string) bool
}

type PostAPI interface {
	Timeline(ctx context.Context, viewerID string) ([]domain.PostWithCounts, error)
	Replies(ctx context.Context, viewerID, parentID string) ([]domain.PostWithCounts, error)
	ByUser(ctx context.Context, viewerID, userID string) ([]domain.PostWithCounts, error)
	ByID(ctx context.Context, viewerID, postID string) (*domain.PostWithCounts, error)
	Create(ctx context.Context, userID, content string, parentID *string) (*domain.Post, error)
	Update(ctx context.Context, userID, postID, content string) (*domain.Post, error)
	Delete(ctx context.Context, userID, postID string) error
	Like(ctx context.Context, userID, postID string) (*domain.Like, error)
	Unlike(ctx context.Context, userID, postID string) error
	Likers(ctx context.Context, postID string) ([]domain.LikeUser, error)
}

type ProfileAPI interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	List(ctx context.Context, ids []string) ([]domain.Profile, error)
	Update(ctx context.Context, actorID, profileID string, req domain.UpdateProfileRequest) (*domain.Profile, error)
	CompleteOnboarding(ctx context.Context, actorID, profileID string, req domain.CompleteOnboardingRequest) (*domain.Profile, error)
}

type SetlistAPI interface {
	List(ctx context.Context, isAdmin bool) ([]domain.SetlistItem, error)
	SetPublic(ctx context.Context, isAdmin bool, id string, isPublic bool) (*domain.SetlistItem, error)
}

// Options carries the configuration the handlers read.
type Options struct {
	AllowAnonymous bool
	AllowedOrigins []string
	SecureCookies  bool
	GroomName      string
	BrideName      string
	// AfterLoginURL is where the OAuth callback sends the browser.
	AfterLoginURL string
}

type Handler struct {
	auth     AuthAPI
	posts    PostAPI
	profiles ProfileAPI
	setlist  SetlistAPI
	tokens   *auth.Tokens
	oauth    auth.OAuthProvider
	hub      *realtime.Hub
	msg      *messages.Catalog
	avatars  *avatars.Catalog
	opts     Options
}

type Deps struct {
	Auth     AuthAPI
	Posts    PostAPI
	Profiles ProfileAPI
	Setlist  SetlistAPI
	Tokens   *auth.Tokens
	// OAuth may be nil when no provider is configured.
	OAuth auth.OAuthProvider
	Hub   *realtime.Hub
}

func New(d Deps, opts Options) *Handler {
	if opts.AfterLoginURL == "" {
		opts.AfterLoginURL = "/"
	}
	return &Handler{
		auth:     d.Auth,
		posts:    d.Posts,
		profiles: d.Profiles,
		setlist:  d.Setlist,
		tokens:   d.Tokens,
		oauth:    d.OAuth,
		hub:      d.Hub,
		msg:      messages.Default(),
		avatars:  avatars.Default(),
		opts:     opts,
	}
}

// ============================================
// Router
// ============================================

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/oauth/{provider}", h.oauthStart)
		r.Get("/callback", h.oauthCallback)
		r.With(h.tokens.Required).Get("/user", h.currentUser)
	})

	gate := h.tokens.Gate(h.opts.AllowAnonymous)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog/avatars", h.avatarCatalog)
		r.Get("/catalog/messages", h.messageCatalog)

		// 閲覧系
		r.Group(func(r chi.Router) {
			r.Use(gate)
			r.Get("/posts", h.timeline)
			r.Get("/posts/{id}", h.getPost)
			r.Get("/posts/{id}/replies", h.replies)
			r.Get("/posts/{id}/likes", h.likers)
			r.Get("/profiles", h.listProfiles)
			r.Get("/profiles/{id}", h.getProfile)
			r.Get("/profiles/{id}/posts", h.profilePosts)
			r.Get("/setlist", h.listSetlist)
		})

		// 書き込み系
		r.Group(func(r chi.Router) {
			r.Use(h.tokens.Required)
			r.Post("/posts", h.createPost)
			r.Patch("/posts/{id}", h.updatePost)
			r.Delete("/posts/{id}", h.deletePost)
			r.Post("/posts/{id}/likes", h.like)
			r.Delete("/posts/{id}/likes", h.unlike)
			r.Patch("/profiles/{id}", h.updateProfile)
			r.Post("/profiles/{id}/onboarding", h.completeOnboarding)
			r.Patch("/setlist/{id}", h.updateSetlist)
		})
	})

	r.With(gate).Get("/realtime", h.serveRealtime)

	return r
}

// isAdmin reports whether the caller is the configured admin.
func (h *Handler) isAdmin(r *http.Request) bool {
	s := auth.FromContext(r.Context())
	return s != nil && h.auth.IsAdmin(s.Email)
}

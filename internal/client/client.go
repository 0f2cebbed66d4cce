// Package client is the Go client of the wedding SNS backend. It holds the
// page controllers: each one owns its state, talks to the backend and
// re-fetches on realtime notifications.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/session"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not signed in")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
)

// APIError is a non-2xx response. Message is the localized text sent by
// the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest:
		return ErrBadRequest
	}
	return nil
}

// Client is the one shared handle to the backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	store   *session.Store
}

// New returns a Client for baseURL. store receives the session on sign-in
// and is cleared on sign-out or when the backend rejects the token.
func New(baseURL string, httpClient *http.Client, store *session.Store) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if store == nil {
		store = session.NewStore()
	}
	return &Client{baseURL: u, http: httpClient, store: store}, nil
}

func (c *Client) Session() *session.Store {
	return c.store
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.store.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e domain.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ============================================
// Auth
// ============================================

func (c *Client) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*domain.User, error) {
	var res domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, nil, domain.LoginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	c.store.Set(&session.Session{User: *res.User, Token: res.Token})
	return res.User, nil
}

// ResumeSession adopts a token obtained elsewhere (the OAuth cookie) and
// checks it against the backend.
func (c *Client) ResumeSession(ctx context.Context, token string) (*domain.User, error) {
	c.store.Set(&session.Session{Token: token})
	return c.CurrentUser(ctx)
}

// CurrentUser is "get current user". Any failure counts as no session.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	if c.store.Token() == "" {
		return nil, ErrUnauthorized
	}
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, nil, &user); err != nil {
		c.store.Clear()
		return nil, ErrUnauthorized
	}
	c.store.Set(&session.Session{User: user, Token: c.store.Token()})
	return &user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	c.store.Clear()
	return err
}

// ============================================
// Posts
// ============================================

func (c *Client) Timeline(ctx context.Context) ([]domain.PostWithCounts, error) {
	var res domain.GetPostsResponse
	err := c.do(ctx, http.MethodGet, "/api/posts", nil, nil, &res)
	return res.Posts, err
}

func (c *Client) Post(ctx context.Context, id string) (*domain.PostWithCounts, error) {
	var post domain.PostWithCounts
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(id), nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) Replies(ctx context.Context, parentID string) ([]domain.PostWithCounts, error) {
	var res domain.GetPostsResponse
	err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(parentID)+"/replies", nil, nil, &res)
	return res.Posts, err
}

func (c *Client) PostsByUser(ctx context.Context, userID string) ([]domain.PostWithCounts, error) {
	var res domain.GetPostsResponse
	err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(userID)+"/posts", nil, nil, &res)
	return res.Posts, err
}

func (c *Client) CreatePost(ctx context.Context, content string, parentID *string) (*domain.Post, error) {
	var post domain.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", nil, domain.CreatePostRequest{Content: content, ParentID: parentID}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id, content string) (*domain.Post, error) {
	var post domain.Post
	if err := c.do(ctx, http.MethodPatch, "/api/posts/"+url.PathEscape(id), nil, domain.UpdatePostRequest{Content: content}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Like(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/likes", nil, nil, nil)
}

func (c *Client) Unlike(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(postID)+"/likes", nil, nil, nil)
}

// LikedUsers lists who liked postID, newest first.
func (c *Client) LikedUsers(ctx context.Context, postID string) ([]domain.LikeUser, error) {
	var res domain.GetLikesResponse
	err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(postID)+"/likes", nil, nil, &res)
	return res.Users, err
}

// ============================================
// Profiles & setlist
// ============================================

func (c *Client) Profile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Profiles fetches the profiles for ids in one round trip.
func (c *Client) Profiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	var res domain.GetProfilesResponse
	err := c.do(ctx, http.MethodGet, "/api/profiles", url.Values{"ids": {strings.Join(ids, ",")}}, nil, &res)
	return res.Profiles, err
}

func (c *Client) UpdateProfile(ctx context.Context, id string, username, avatarURL *string) (*domain.Profile, error) {
	var p domain.Profile
	req := domain.UpdateProfileRequest{Username: username, AvatarURL: avatarURL}
	if err := c.do(ctx, http.MethodPatch, "/api/profiles/"+url.PathEscape(id), nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CompleteOnboarding(ctx context.Context, id string, username, avatarURL *string) (*domain.Profile, error) {
	var p domain.Profile
	req := domain.CompleteOnboardingRequest{Username: username, AvatarURL: avatarURL}
	if err := c.do(ctx, http.MethodPost, "/api/profiles/"+url.PathEscape(id)+"/onboarding", nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Setlist(ctx context.Context) ([]domain.SetlistItem, error) {
	var res domain.GetSetlistResponse
	err := c.do(ctx, http.MethodGet, "/api/setlist", nil, nil, &res)
	return res.Items, err
}

func (c *Client) SetSetlistPublic(ctx context.Context, id string, isPublic bool) (*domain.SetlistItem, error) {
	var item domain.SetlistItem
	if err := c.do(ctx, http.MethodPatch, "/api/setlist/"+url.PathEscape(id), nil, domain.UpdateSetlistRequest{IsPublic: isPublic}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/OdenEater/wedding-sns/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	userA = "0190f1a2-0000-7000-8000-00000000000a"
	userB = "0190f1a2-0000-7000-8000-00000000000b"
	post1 = "0190f1a2-0000-7000-8000-000000000101"
	post2 = "0190f1a2-0000-7000-8000-000000000102"
	reply = "0190f1a2-0000-7000-8000-000000000201"
)

// fakeBackend is an in-memory stand-in for the API. The bearer token is the
// user id.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	users    map[string]domain.User
	profiles map[string]domain.Profile
	posts    []domain.Post
	likes    map[string]map[string]bool
	setlist  []domain.SetlistItem
	fail     map[string]int
	hits     map[string]int
	requests map[string][]byte
	conns    []*websocket.Conn

	connected chan struct{}
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	now := time.Now()
	b := &fakeBackend{
		t: t,
		users: map[string]domain.User{
			userA: {ID: userA, Email: "taro@example.com"},
			userB: {ID: userB, Email: "hanako@example.com", IsAdmin: true},
		},
		profiles: map[string]domain.Profile{
			userA: {ID: userA, Username: ptr("たろう"), OnboardingCompleted: true, CreatedAt: now.Add(-time.Hour)},
			userB: {ID: userB, Username: ptr("はなこ"), OnboardingCompleted: true, CreatedAt: now.Add(-time.Hour)},
		},
		posts: []domain.Post{
			{ID: post1, UserID: userA, Content: "おめでとう", CreatedAt: now.Add(-2 * time.Minute)},
			{ID: post2, UserID: userB, Content: "ありがとう", CreatedAt: now.Add(-time.Minute)},
			{ID: reply, UserID: userB, ParentID: ptr(post1), Content: "お幸せに", CreatedAt: now},
		},
		likes: map[string]map[string]bool{},
		setlist: []domain.SetlistItem{
			{ID: "s1", OrderNum: 1, Title: "入場曲", IsPublic: true},
			{ID: "s2", OrderNum: 2, IsPublic: false},
		},
		fail:      map[string]int{},
		hits:      map[string]int{},
		requests:  map[string][]byte{},
		connected: make(chan struct{}, 8),
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Post("/auth/login", b.login)
	r.Get("/auth/user", b.currentUser)
	r.Post("/auth/logout", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Get("/realtime", b.realtime)
	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", b.timeline)
		r.Post("/posts", b.createPost)
		r.Get("/posts/{id}", b.getPost)
		r.Patch("/posts/{id}", b.updatePost)
		r.Delete("/posts/{id}", b.deletePost)
		r.Get("/posts/{id}/replies", b.replies)
		r.Post("/posts/{id}/likes", b.like)
		r.Delete("/posts/{id}/likes", b.unlike)
		r.Get("/posts/{id}/likes", b.likers)
		r.Get("/profiles", b.listProfiles)
		r.Get("/profiles/{id}", b.getProfile)
		r.Patch("/profiles/{id}", b.updateProfile)
		r.Post("/profiles/{id}/onboarding", b.completeOnboarding)
		r.Get("/profiles/{id}/posts", b.userPosts)
		r.Get("/setlist", b.listSetlist)
		r.Patch("/setlist/{id}", b.updateSetlist)
	})
	b.srv = httptest.NewServer(r)
	t.Cleanup(func() {
		b.mu.Lock()
		for _, c := range b.conns {
			_ = c.Close()
		}
		b.mu.Unlock()
		b.srv.Close()
	})
	return b
}

func ptr[T any](v T) *T { return &v }

// client returns a Client signed in as userID, or anonymous when empty.
func (b *fakeBackend) client(userID string) *Client {
	b.t.Helper()
	store := session.NewStore()
	if userID != "" {
		store.Set(&session.Session{User: b.users[userID], Token: userID})
	}
	c, err := New(b.srv.URL, b.srv.Client(), store)
	require.NoError(b.t, err)
	return c
}

// failOn makes every request to "METHOD /path" answer status.
func (b *fakeBackend) failOn(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[route] = status
}

func (b *fakeBackend) hitCount(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

func (b *fakeBackend) lastBody(route string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[route]
}

func (b *fakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.hits[route]++
		status := b.fail[route]
		b.mu.Unlock()
		if status != 0 {
			writeTestJSON(w, status, domain.ErrorResponse{Code: status, Message: "失敗"})
			return
		}
		if r.Body != nil && r.Method != http.MethodGet {
			var raw json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
				b.mu.Lock()
				b.requests[route] = raw
				b.mu.Unlock()
				r.Body = readCloser(raw)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (b *fakeBackend) viewer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// notify pushes a change event to every connected websocket.
func (b *fakeBackend) notify(table realtime.Table, typ realtime.EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.conns {
		require.NoError(b.t, c.WriteJSON(realtime.NewEvent(table, typ)))
	}
}

func (b *fakeBackend) withCounts(p domain.Post, viewer string) domain.PostWithCounts {
	out := domain.PostWithCounts{
		ID: p.ID, UserID: p.UserID, ParentID: p.ParentID, Content: p.Content, CreatedAt: p.CreatedAt,
		LikesCount:  int64(len(b.likes[p.ID])),
		IsLikedByMe: b.likes[p.ID][viewer],
	}
	for _, q := range b.posts {
		if q.ParentID != nil && *q.ParentID == p.ID {
			out.RepliesCount++
		}
	}
	return out
}

func (b *fakeBackend) list(viewer string, keep func(domain.Post) bool, newestFirst bool) []domain.PostWithCounts {
	out := []domain.PostWithCounts{}
	for _, p := range b.posts {
		if keep(p) {
			out = append(out, b.withCounts(p, viewer))
		}
	}
	slices.SortFunc(out, func(x, y domain.PostWithCounts) int {
		if newestFirst {
			return y.CreatedAt.Compare(x.CreatedAt)
		}
		return x.CreatedAt.Compare(y.CreatedAt)
	})
	return out
}

func (b *fakeBackend) find(id string) int {
	return slices.IndexFunc(b.posts, func(p domain.Post) bool { return p.ID == id })
}

// ============================================
// Handlers
// ============================================

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == req.Email && req.Password == "password" {
			writeTestJSON(w, http.StatusOK, domain.AuthResponse{User: &u, Token: u.ID})
			return
		}
	}
	writeTestJSON(w, http.StatusUnauthorized, domain.ErrorResponse{Code: 401, Message: "メールアドレスまたはパスワードが正しくありません"})
}

func (b *fakeBackend) currentUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[b.viewer(r)]
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeTestJSON(w, http.StatusOK, u)
}

func (b *fakeBackend) realtime(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.conns = append(b.conns, conn)
	b.mu.Unlock()
	b.connected <- struct{}{}
}

func (b *fakeBackend) timeline(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	posts := b.list(b.viewer(r), func(p domain.Post) bool { return p.ParentID == nil }, true)
	writeTestJSON(w, http.StatusOK, domain.GetPostsResponse{Posts: posts})
}

func (b *fakeBackend) replies(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	posts := b.list(b.viewer(r), func(p domain.Post) bool { return p.ParentID != nil && *p.ParentID == id }, false)
	writeTestJSON(w, http.StatusOK, domain.GetPostsResponse{Posts: posts})
}

func (b *fakeBackend) userPosts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	posts := b.list(b.viewer(r), func(p domain.Post) bool { return p.ParentID == nil && p.UserID == id }, true)
	writeTestJSON(w, http.StatusOK, domain.GetPostsResponse{Posts: posts})
}

func (b *fakeBackend) getPost(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.find(chi.URLParam(r, "id"))
	if i < 0 {
		writeTestJSON(w, http.StatusNotFound, domain.ErrorResponse{Code: 404, Message: "投稿が見つかりません"})
		return
	}
	writeTestJSON(w, http.StatusOK, b.withCounts(b.posts[i], b.viewer(r)))
}

func (b *fakeBackend) createPost(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePostRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	p := domain.Post{ID: "new-post", UserID: b.viewer(r), ParentID: req.ParentID, Content: req.Content, CreatedAt: time.Now()}
	b.posts = append(b.posts, p)
	writeTestJSON(w, http.StatusCreated, p)
}

func (b *fakeBackend) updatePost(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePostRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.find(chi.URLParam(r, "id"))
	if i < 0 || b.posts[i].UserID != b.viewer(r) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	b.posts[i].Content = req.Content
	writeTestJSON(w, http.StatusOK, b.posts[i])
}

func (b *fakeBackend) deletePost(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.find(chi.URLParam(r, "id"))
	if i < 0 || b.posts[i].UserID != b.viewer(r) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	b.posts = slices.Delete(b.posts, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) like(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.likes[id] == nil {
		b.likes[id] = map[string]bool{}
	}
	b.likes[id][b.viewer(r)] = true
	writeTestJSON(w, http.StatusCreated, domain.Like{PostID: id, UserID: b.viewer(r)})
}

func (b *fakeBackend) unlike(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.likes[chi.URLParam(r, "id")], b.viewer(r))
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) likers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := []domain.LikeUser{}
	for id := range b.likes[chi.URLParam(r, "id")] {
		users = append(users, domain.LikeUser{UserID: id, Username: b.profiles[id].Username})
	}
	writeTestJSON(w, http.StatusOK, domain.GetLikesResponse{Users: users})
}

func (b *fakeBackend) listProfiles(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []domain.Profile{}
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if p, ok := b.profiles[id]; ok {
			out = append(out, p)
		}
	}
	writeTestJSON(w, http.StatusOK, domain.GetProfilesResponse{Profiles: out})
}

func (b *fakeBackend) getProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[chi.URLParam(r, "id")]
	if !ok {
		writeTestJSON(w, http.StatusNotFound, domain.ErrorResponse{Code: 404, Message: "ユーザーが見つかりません"})
		return
	}
	writeTestJSON(w, http.StatusOK, p)
}

func (b *fakeBackend) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.profiles[chi.URLParam(r, "id")]
	p.Username = nil
	if req.Username != nil && strings.TrimSpace(*req.Username) != "" {
		p.Username = ptr(strings.TrimSpace(*req.Username))
	}
	p.AvatarURL = req.AvatarURL
	b.profiles[p.ID] = p
	writeTestJSON(w, http.StatusOK, p)
}

func (b *fakeBackend) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	var req domain.CompleteOnboardingRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.profiles[chi.URLParam(r, "id")]
	if req.Username != nil {
		p.Username = req.Username
	}
	if req.AvatarURL != nil {
		p.AvatarURL = req.AvatarURL
	}
	p.OnboardingCompleted = true
	b.profiles[p.ID] = p
	writeTestJSON(w, http.StatusOK, p)
}

func (b *fakeBackend) listSetlist(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := slices.Clone(b.setlist)
	if !b.users[b.viewer(r)].IsAdmin {
		for i := range items {
			items[i] = items[i].Masked()
		}
	}
	writeTestJSON(w, http.StatusOK, domain.GetSetlistResponse{Items: items})
}

func (b *fakeBackend) updateSetlist(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSetlistRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.users[b.viewer(r)].IsAdmin {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	i := slices.IndexFunc(b.setlist, func(it domain.SetlistItem) bool { return it.ID == chi.URLParam(r, "id") })
	if i < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	b.setlist[i].IsPublic = req.IsPublic
	writeTestJSON(w, http.StatusOK, b.setlist[i])
}

func readCloser(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

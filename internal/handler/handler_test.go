package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OdenEater/wedding-sns/internal/auth"
	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/OdenEater/wedding-sns/internal/repository"
	"github.com/OdenEater/wedding-sns/internal/service"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "handler-test-secret"
	userA      = "0191b3a0-0000-7000-8000-00000000000a"
	userB      = "0191b3a0-0000-7000-8000-00000000000b"
	post1      = "0191b3a0-0000-7000-8000-000000000101"
	setlist1   = "0191b3a0-0000-7000-8000-000000000201"
)

// ============================================
// Stubs
// ============================================

type authStub struct {
	signupFn func(context.Context, string, string) (*domain.AuthResponse, error)
	oauthFn  func(context.Context, string, string) (*domain.AuthResponse, error)
	admin    string
}

func (s *authStub) Signup(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	return s.signupFn(ctx, email, password)
}
func (s *authStub) Login(context.Context, string, string) (*domain.AuthResponse, error) {
	return nil, repository.ErrInvalidCredentials
}
func (s *authStub) SignInOAuth(ctx context.Context, provider, email string) (*domain.AuthResponse, error) {
	return s.oauthFn(ctx, provider, email)
}
func (s *authStub) CurrentUser(_ context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID, Email: userID + "@example.com"}, nil
}
func (s *authStub) IsAdmin(email string) bool {
	return s.admin != "" && email == s.admin
}

type postsStub struct {
	timelineFn func(context.Context, string) ([]domain.PostWithCounts, error)
	byIDFn     func(context.Context, string, string) (*domain.PostWithCounts, error)
	createFn   func(context.Context, string, string, *string) (*domain.Post, error)
	deleteFn   func(context.Context, string, string) error
	likeFn     func(context.Context, string, string) (*domain.Like, error)
}

func (s *postsStub) Timeline(ctx context.Context, viewerID string) ([]domain.PostWithCounts, error) {
	return s.timelineFn(ctx, viewerID)
}
func (s *postsStub) Replies(context.Context, string, string) ([]domain.PostWithCounts, error) {
	return []domain.PostWithCounts{}, nil
}
func (s *postsStub) ByUser(context.Context, string, string) ([]domain.PostWithCounts, error) {
	return []domain.PostWithCounts{}, nil
}
func (s *postsStub) ByID(ctx context.Context, viewerID, postID string) (*domain.PostWithCounts, error) {
	return s.byIDFn(ctx, viewerID, postID)
}
func (s *postsStub) Create(ctx context.Context, userID, content string, parentID *string) (*domain.Post, error) {
	return s.createFn(ctx, userID, content, parentID)
}
func (s *postsStub) Update(_ context.Context, userID, postID, content string) (*domain.Post, error) {
	return &domain.Post{ID: postID, UserID: userID, Content: content}, nil
}
func (s *postsStub) Delete(ctx context.Context, userID, postID string) error {
	return s.deleteFn(ctx, userID, postID)
}
func (s *postsStub) Like(ctx context.Context, userID, postID string) (*domain.Like, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *postsStub) Unlike(context.Context, string, string) error { return nil }
func (s *postsStub) Likers(context.Context, string) ([]domain.LikeUser, error) {
	return []domain.LikeUser{}, nil
}

type profilesStub struct {
	listFn func(context.Context, []string) ([]domain.Profile, error)
}

func (s *profilesStub) Get(_ context.Context, id string) (*domain.Profile, error) {
	return &domain.Profile{ID: id}, nil
}
func (s *profilesStub) List(ctx context.Context, ids []string) ([]domain.Profile, error) {
	return s.listFn(ctx, ids)
}
func (s *profilesStub) Update(_ context.Context, actorID, profileID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	if actorID != profileID {
		return nil, service.ErrForbidden
	}
	return &domain.Profile{ID: profileID, Username: req.Username, AvatarURL: req.AvatarURL}, nil
}
func (s *profilesStub) CompleteOnboarding(_ context.Context, _, profileID string, _ domain.CompleteOnboardingRequest) (*domain.Profile, error) {
	return &domain.Profile{ID: profileID, OnboardingCompleted: true}, nil
}

type setlistStub struct{}

func (setlistStub) List(_ context.Context, isAdmin bool) ([]domain.SetlistItem, error) {
	item := domain.SetlistItem{ID: setlist1, Title: "秘密の曲"}
	if !isAdmin {
		item = item.Masked()
	}
	return []domain.SetlistItem{item}, nil
}
func (setlistStub) SetPublic(_ context.Context, isAdmin bool, id string, isPublic bool) (*domain.SetlistItem, error) {
	if !isAdmin {
		return nil, service.ErrForbidden
	}
	return &domain.SetlistItem{ID: id, IsPublic: isPublic}, nil
}

type oauthStub struct{}

func (oauthStub) Name() string { return "google" }
func (oauthStub) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}
func (oauthStub) Exchange(_ context.Context, code string) (string, error) {
	if code == "good" {
		return "guest@example.com", nil
	}
	return "", auth.ErrEmailNotVerified
}

type testEnv struct {
	handler *Handler
	router  http.Handler
	tokens  *auth.Tokens
	posts   *postsStub
	auth    *authStub
	hub     *realtime.Hub
}

func newTestEnv(t *testing.T, allowAnonymous bool) *testEnv {
	t.Helper()

	tokens := auth.NewTokens(testSecret)
	posts := &postsStub{
		timelineFn: func(context.Context, string) ([]domain.PostWithCounts, error) {
			return []domain.PostWithCounts{{ID: post1, UserID: userA, Content: "おめでとう"}}, nil
		},
		byIDFn: func(context.Context, string, string) (*domain.PostWithCounts, error) {
			return nil, repository.ErrPostNotFound
		},
		createFn: func(_ context.Context, userID, content string, parentID *string) (*domain.Post, error) {
			if !domain.CanSubmit(content) {
				return nil, service.ErrInvalidContent
			}
			return &domain.Post{ID: post1, UserID: userID, ParentID: parentID, Content: content}, nil
		},
		deleteFn: func(context.Context, string, string) error { return nil },
		likeFn: func(_ context.Context, userID, postID string) (*domain.Like, error) {
			return &domain.Like{PostID: postID, UserID: userID}, nil
		},
	}
	authSvc := &authStub{
		signupFn: func(_ context.Context, email, _ string) (*domain.AuthResponse, error) {
			return &domain.AuthResponse{User: &domain.User{ID: userA, Email: email}, Token: "tok"}, nil
		},
		oauthFn: func(_ context.Context, _, email string) (*domain.AuthResponse, error) {
			return &domain.AuthResponse{User: &domain.User{ID: userA, Email: email}, Token: "oauth-tok"}, nil
		},
		admin: "admin@example.com",
	}
	hub := realtime.NewHub()

	profiles := &profilesStub{listFn: func(_ context.Context, ids []string) ([]domain.Profile, error) {
		out := []domain.Profile{}
		for _, id := range ids {
			out = append(out, domain.Profile{ID: id})
		}
		return out, nil
	}}

	h := New(Deps{
		Auth:     authSvc,
		Posts:    posts,
		Profiles: profiles,
		Setlist:  setlistStub{},
		Tokens:   tokens,
		OAuth:    oauthStub{},
		Hub:      hub,
	}, Options{
		AllowAnonymous: allowAnonymous,
		AllowedOrigins: []string{"http://localhost:3000"},
		GroomName:      "太郎",
		BrideName:      "花子",
		AfterLoginURL:  "http://localhost:3000/",
	})

	return &testEnv{handler: h, router: h.Routes(), tokens: tokens, posts: posts, auth: authSvc, hub: hub}
}

func (e *testEnv) token(t *testing.T, userID, email string) string {
	t.Helper()
	tok, err := e.tokens.Generate(userID, email)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var res domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

// ============================================
// Tests
// ============================================

func TestTimeline_AnonymousGate(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec := env.do(t, http.MethodGet, "/api/posts", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var res domain.GetPostsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.Len(t, res.Posts, 1)
		assert.Equal(t, "おめでとう", res.Posts[0].Content)
	})

	t.Run("denied", func(t *testing.T) {
		env := newTestEnv(t, false)
		rec := env.do(t, http.MethodGet, "/api/posts", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "ログインが必要です", decodeError(t, rec).Message)

		rec = env.do(t, http.MethodGet, "/api/posts", "", env.token(t, userA, "a@example.com"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestTimeline_PassesViewer(t *testing.T) {
	env := newTestEnv(t, true)
	var viewer string
	env.posts.timelineFn = func(_ context.Context, viewerID string) ([]domain.PostWithCounts, error) {
		viewer = viewerID
		return []domain.PostWithCounts{}, nil
	}

	rec := env.do(t, http.MethodGet, "/api/posts", "", env.token(t, userB, "b@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userB, viewer)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t, true)
	tok := env.token(t, userA, "a@example.com")

	t.Run("requires session", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/posts", `{"content":"hi"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/posts", `{"content":"hi"}`, tok)
		require.Equal(t, http.StatusCreated, rec.Code)
		var post domain.Post
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
		assert.Equal(t, userA, post.UserID)
	})

	t.Run("empty", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/posts", `{"content":"   "}`, tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "投稿内容を入力してください", decodeError(t, rec).Message)
	})

	t.Run("too long", func(t *testing.T) {
		body := `{"content":"` + strings.Repeat("あ", 141) + `"}`
		rec := env.do(t, http.MethodPost, "/api/posts", body, tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "投稿は140文字以内で入力してください", decodeError(t, rec).Message)
	})

	t.Run("malformed parent", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/posts", `{"content":"hi","parent_id":"nope"}`, tok)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/posts", `{`, tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetPost_NotFound(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/posts/"+post1, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "投稿が見つかりません", decodeError(t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/posts/not-a-uuid", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t, true)
	env.posts.deleteFn = func(_ context.Context, userID, _ string) error {
		if userID != userA {
			return repository.ErrPostNotFound
		}
		return nil
	}

	rec := env.do(t, http.MethodDelete, "/api/posts/"+post1, "", env.token(t, userA, "a@example.com"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/posts/"+post1, "", env.token(t, userB, "b@example.com"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLike_Conflict(t *testing.T) {
	env := newTestEnv(t, true)
	env.posts.likeFn = func(context.Context, string, string) (*domain.Like, error) {
		return nil, repository.ErrAlreadyLiked
	}

	rec := env.do(t, http.MethodPost, "/api/posts/"+post1+"/likes", "", env.token(t, userA, "a@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInternalErrorIsGeneric(t *testing.T) {
	env := newTestEnv(t, true)
	env.posts.timelineFn = func(context.Context, string) ([]domain.PostWithCounts, error) {
		return nil, assert.AnError
	}

	rec := env.do(t, http.MethodGet, "/api/posts", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "サーバーエラーが発生しました", decodeError(t, rec).Message)
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/profiles?ids="+userA+",%20"+userB, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.GetProfilesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Profiles, 2)

	rec = env.do(t, http.MethodGet, "/api/profiles/bogus", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/profiles/"+userA, `{"username":"x"}`, env.token(t, userB, "b@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/profiles/"+userA+"/onboarding", `{}`, env.token(t, userA, "a@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"onboarding_completed":true`)
}

func TestSetlist(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/setlist", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "秘密の曲")

	rec = env.do(t, http.MethodGet, "/api/setlist", "", env.token(t, userA, "admin@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "秘密の曲")

	rec = env.do(t, http.MethodPatch, "/api/setlist/"+setlist1, `{"is_public":true}`, env.token(t, userB, "b@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "管理者のみ操作できます", decodeError(t, rec).Message)

	rec = env.do(t, http.MethodPatch, "/api/setlist/"+setlist1, `{"is_public":true}`, env.token(t, userA, "admin@example.com"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupSetsCookie(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/auth/signup", `{"email":"g@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(t, http.MethodPost, "/auth/login", `{"email":"g@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "メールアドレスまたはパスワードが正しくありません", decodeError(t, rec).Message)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/auth/user", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/user", "", env.token(t, userA, "a@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userA)
}

func TestOAuthFlow(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/auth/oauth/google", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	var state *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == oauthStateCookie {
			state = c
		}
	}
	require.NotNil(t, state)
	assert.Contains(t, rec.Header().Get("Location"), "state="+state.Value)

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=other&code=good", nil)
		req.AddCookie(state)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state.Value+"&code=good", nil)
		req.AddCookie(state)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:3000/", rec.Header().Get("Location"))

		var session string
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookie {
				session = c.Value
			}
		}
		assert.Equal(t, "oauth-tok", session)
	})

	t.Run("exchange failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state.Value+"&code=bad", nil)
		req.AddCookie(state)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:3000/login?error=exchange_failed", rec.Header().Get("Location"))
	})

	t.Run("unknown provider", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/oauth/github", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCatalogs(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/catalog/avatars", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "太郎の動物")
	assert.Contains(t, rec.Body.String(), "花子の動物")

	rec = env.do(t, http.MethodGet, "/api/catalog/messages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"noPosts"`)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRealtimeWebsocket(t *testing.T) {
	env := newTestEnv(t, true)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime?tables=posts"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	env.hub.Dispatch(realtime.NewEvent(realtime.TableLikes, realtime.EventInsert))
	env.hub.Dispatch(realtime.NewEvent(realtime.TablePosts, realtime.EventDelete))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var ev realtime.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, realtime.TablePosts, ev.Table)
	assert.Equal(t, realtime.EventDelete, ev.Type)
}

func TestRealtimeWebsocket_RequiresSessionWhenGated(t *testing.T) {
	env := newTestEnv(t, false)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+env.token(t, userA, "a@example.com"), nil)
	require.NoError(t, err)
	conn.Close()
}

package domain

import "time"

// ============================================
// Domain Models
// ============================================

// MaxPostLength is the character limit for post content.
const MaxPostLength = 140

// TimelineLimit caps the number of top-level posts in the feed.
const TimelineLimit = 50

// OnboardingWindow is how long after sign-up an incomplete profile is sent to onboarding.
const OnboardingWindow = 60 * time.Second

type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type UserAuth struct {
	UserID         string    `json:"-"`
	Email          string    `json:"-"`
	HashedPassword *string   `json:"-"`
	Provider       string    `json:"-"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

type Profile struct {
	ID                  string    `json:"id"`
	Username            *string   `json:"username"`
	AvatarURL           *string   `json:"avatar_url"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NeedsOnboarding reports whether a freshly created profile should go through onboarding.
func (p Profile) NeedsOnboarding(now time.Time) bool {
	if p.OnboardingCompleted {
		return false
	}
	return now.Sub(p.CreatedAt) < OnboardingWindow
}

type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ParentID  *string   `json:"parent_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostWithCounts is a row of the posts_with_counts view, relative to the viewer.
type PostWithCounts struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ParentID     *string   `json:"parent_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	LikesCount   int64     `json:"likes_count"`
	RepliesCount int64     `json:"replies_count"`
	IsLikedByMe  bool      `json:"is_liked_by_me"`
}

type Like struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeUser is one entry of the "who liked this" list.
type LikeUser struct {
	UserID    string    `json:"user_id"`
	Username  *string   `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	LikedAt   time.Time `json:"liked_at"`
}

type SetlistItem struct {
	ID        string    `json:"id"`
	OrderNum  int       `json:"order_num"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Scene     string    `json:"scene"`
	Comment   *string   `json:"comment"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Masked returns a copy with the guest-hidden fields cleared.
func (s SetlistItem) Masked() SetlistItem {
	if s.IsPublic {
		return s
	}
	s.Title = ""
	s.Artist = ""
	s.Scene = ""
	s.Comment = nil
	return s
}

// ============================================
// Request/Response Models
// ============================================

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type CreatePostRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id"`
}

type UpdatePostRequest struct {
	Content string `json:"content"`
}

type GetPostsResponse struct {
	Posts []PostWithCounts `json:"posts"`
}

type GetLikesResponse struct {
	Users []LikeUser `json:"users"`
}

type GetProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}

type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type CompleteOnboardingRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type GetSetlistResponse struct {
	Items []SetlistItem `json:"items"`
}

type UpdateSetlistRequest struct {
	IsPublic bool `json:"is_public"`
}

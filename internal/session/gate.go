package session

import (
	"net/url"
	"strings"
	"time"

	"github.com/OdenEater/wedding-sns/internal/domain"
)

const (
	RouteLogin      = "/login"
	RouteOnboarding = "/onboarding"
	RouteHome       = "/"
	RouteNewPost    = "/post/new"
	routePost       = "/post/"
	routeProfile    = "/profile/"
)

func PostRoute(id string) string {
	return routePost + url.PathEscape(id)
}

func ProfileRoute(id string) string {
	return routeProfile + url.PathEscape(id)
}

// NewPostRoute returns the composer route, replying to replyTo when set.
func NewPostRoute(replyTo string) string {
	if replyTo == "" {
		return RouteNewPost
	}
	return RouteNewPost + "?" + url.Values{"replyTo": {replyTo}}.Encode()
}

// Gate decides, per page, whether the visitor stays or is redirected.
type Gate struct {
	// AllowAnonymous lets visitors without a session read the timeline.
	AllowAnonymous bool
	Now            func() time.Time
}

// Decision is the outcome of Gate.Check. Redirect is empty when the page
// may render.
type Decision struct {
	Redirect  string
	Anonymous bool
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Check applies the auth and onboarding rules for route. profile is the
// signed-in user's profile and may be nil when it could not be loaded.
func (g Gate) Check(route string, sess *Session, profile *domain.Profile) Decision {
	path := route
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	if path == RouteLogin {
		if sess != nil {
			return Decision{Redirect: RouteHome}
		}
		return Decision{}
	}

	if sess == nil {
		if path == RouteHome && g.AllowAnonymous {
			return Decision{Anonymous: true}
		}
		return Decision{Redirect: RouteLogin}
	}

	if path == RouteHome && profile != nil && profile.NeedsOnboarding(g.now()) {
		return Decision{Redirect: RouteOnboarding}
	}
	return Decision{}
}

func (g Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

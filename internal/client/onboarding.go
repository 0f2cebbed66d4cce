package client

import (
	"context"
	"strings"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/avatars"
	"github.com/OdenEater/wedding-sns/internal/session"
)

type OnboardingStep int

const (
	StepName OnboardingStep = iota + 1
	StepAvatar
)

// Onboarding is the two-step first-run wizard: display name, then avatar.
type Onboarding struct {
	c           *Client
	mu          sync.Mutex
	step        OnboardingStep
	defaultName string
	name        string
	selection   *avatars.Selection
	skipAvatar  bool
}

// NewOnboarding starts the wizard with the email local part as the name.
func NewOnboarding(c *Client, catalog *avatars.Catalog) *Onboarding {
	var name string
	if s := c.store.Get(); s != nil {
		name, _, _ = strings.Cut(s.User.Email, "@")
	}
	return &Onboarding{
		c:           c,
		step:        StepName,
		defaultName: name,
		name:        name,
		selection:   avatars.NewSelection(catalog, ""),
	}
}

func (o *Onboarding) Step() OnboardingStep {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

func (o *Onboarding) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name
}

func (o *Onboarding) SetName(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.name = name
}

// SkipName restores the default name and moves to the avatar step.
func (o *Onboarding) SkipName() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.name = o.defaultName
	o.step = StepAvatar
}

func (o *Onboarding) Next() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.step = StepAvatar
}

func (o *Onboarding) Back() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.step = StepName
}

// StageAvatar stages a catalog item for the avatar step.
func (o *Onboarding) StageAvatar(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipAvatar = false
	return o.selection.Stage(id)
}

func (o *Onboarding) StagedAvatar() (avatars.Avatar, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selection.Staged()
}

// SkipAvatar completes without an avatar.
func (o *Onboarding) SkipAvatar() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selection.Discard()
	o.skipAvatar = true
}

// Complete saves the wizard and returns the route to navigate to. On
// failure the wizard keeps its state.
func (o *Onboarding) Complete(ctx context.Context) (string, Notice) {
	s := o.c.store.Get()
	if s == nil {
		return session.RouteLogin, failure("auth.loginRequired", nil)
	}

	o.mu.Lock()
	var username, avatarURL *string
	if name := strings.TrimSpace(o.name); name != "" {
		username = &name
	}
	if !o.skipAvatar {
		if a, ok := o.selection.Staged(); ok {
			u := a.URL()
			avatarURL = &u
		}
	}
	o.mu.Unlock()

	if _, err := o.c.CompleteOnboarding(ctx, s.User.ID, username, avatarURL); err != nil {
		return "", failure("profile.updateError", nil)
	}
	o.mu.Lock()
	o.selection.Discard()
	o.mu.Unlock()
	return session.RouteHome, success("profile.updateSuccess")
}

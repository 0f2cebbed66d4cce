package avatars

// Selection is the staged choice of an open avatar selector. Nothing is
// committed until Confirm.
type Selection struct {
	catalog *Catalog
	staged  *Avatar
}

func NewSelection(c *Catalog, currentURL string) *Selection {
	s := &Selection{catalog: c}
	if a, ok := c.FindByURL(currentURL); ok {
		s.staged = &a
	}
	return s
}

// Stage replaces the staged avatar.
func (s *Selection) Stage(id string) error {
	a, ok := s.catalog.Find(id)
	if !ok {
		return ErrUnknownAvatar
	}
	s.staged = &a
	return nil
}

func (s *Selection) Staged() (Avatar, bool) {
	if s.staged == nil {
		return Avatar{}, false
	}
	return *s.staged, true
}

// Confirm returns the avatar_url to persist and closes the selection.
func (s *Selection) Confirm() (string, bool) {
	a, ok := s.Staged()
	s.staged = nil
	if !ok {
		return "", false
	}
	return a.URL(), true
}

// Discard closes the selection without a choice.
func (s *Selection) Discard() {
	s.staged = nil
}

package client

import (
	"github.com/OdenEater/wedding-sns/internal/messages"
	"github.com/OdenEater/wedding-sns/internal/session"
)

type NoticeLevel int

const (
	NoticeNone NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// Notice is the transient message a page shows after an action.
type Notice struct {
	Level   NoticeLevel
	Message string
}

func (n Notice) IsZero() bool {
	return n.Level == NoticeNone
}

func success(key string) Notice {
	return Notice{Level: NoticeSuccess, Message: messages.Default().Get(key)}
}

func failure(key string, params map[string]any) Notice {
	return Notice{Level: NoticeError, Message: messages.Default().Format(key, params)}
}

// PostPath is the permalink of a post.
func PostPath(id string) string {
	return session.PostRoute(id)
}

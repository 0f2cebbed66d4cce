// Package realtime delivers table change notifications to websocket clients.
// Events carry no row data; subscribers are expected to re-fetch.
package realtime

import (
	"strings"
	"time"
)

const Schema = "public"

type Table string

const (
	TablePosts   Table = "posts"
	TableLikes   Table = "likes"
	TableSetlist Table = "setlist"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

type Event struct {
	Schema string    `json:"schema"`
	Table  Table     `json:"table"`
	Type   EventType `json:"type"`
	At     time.Time `json:"at"`
}

func NewEvent(table Table, typ EventType) Event {
	return Event{Schema: Schema, Table: table, Type: typ, At: time.Now().UTC()}
}

// ParseTables reads a comma separated table list, ignoring unknown names.
// An empty list subscribes to every table.
func ParseTables(s string) map[Table]bool {
	out := map[Table]bool{}
	for _, name := range strings.Split(s, ",") {
		switch t := Table(strings.TrimSpace(name)); t {
		case TablePosts, TableLikes, TableSetlist:
			out[t] = true
		}
	}
	if len(out) == 0 {
		out[TablePosts] = true
		out[TableLikes] = true
		out[TableSetlist] = true
	}
	return out
}

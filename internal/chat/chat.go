// Package chat assembles the Cursor conversation that overlaps a commit's
// time window. Session metadata comes from each workspace database;
// message bodies come from the global database next to it. Everything
// merges into one chronological list.
package chat

import (
	"log/slog"
	"sort"

	"github.com/quillhq/commit-journal/internal/cursordb"
	"github.com/quillhq/commit-journal/internal/journalerr"
	"github.com/quillhq/commit-journal/internal/window"
	"github.com/quillhq/commit-journal/internal/workspace"
)

// Speaker roles. Cursor types other than 1 and 2 exist for system records;
// they read best attributed to the user.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message inside the window.
type Message struct {
	BubbleID    string `json:"bubbleId"`
	ComposerID  string `json:"composerId"`
	SessionName string `json:"sessionName"`
	Role        string `json:"role"`
	Text        string `json:"text"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// Assemble reads every candidate workspace database, collects the messages
// whose timestamps fall inside the window, and returns them sorted by
// timestamp ascending (ties keep insertion order). Failures on one
// database are logged and skipped; the result is whatever survived, so an
// empty slice with no error is a normal outcome.
func Assemble(candidates []workspace.StateDB, win *window.Window) []Message {
	var merged []Message
	for _, cand := range candidates {
		msgs, err := fromWorkspace(cand.Path, win)
		if err != nil {
			kind, _ := journalerr.KindOf(err)
			slog.Warn("skipping workspace database", "db", cand.Path, "kind", kind, "error", err)
			continue
		}
		merged = append(merged, msgs...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TimestampMS < merged[j].TimestampMS
	})
	return merged
}

// fromWorkspace extracts windowed messages for every session recorded in
// one workspace database. One fresh connection per file, released before
// the next file opens.
func fromWorkspace(wsPath string, win *window.Window) ([]Message, error) {
	ws, err := cursordb.Open(wsPath)
	if err != nil {
		return nil, err
	}
	composers, err := ws.Composers()
	ws.Close()
	if err != nil {
		return nil, err
	}
	if len(composers) == 0 {
		return nil, nil
	}

	global, err := cursordb.Open(workspace.GlobalDBPath(wsPath))
	if err != nil {
		return nil, err
	}
	defer global.Close()

	var out []Message
	for _, c := range composers {
		msgs, err := sessionMessages(global, c, win)
		if err != nil {
			kind, _ := journalerr.KindOf(err)
			slog.Warn("skipping session", "composer", c.ComposerID, "kind", kind, "error", err)
			continue
		}
		out = append(out, msgs...)
	}
	return out, nil
}

// sessionMessages walks one session's headers in conversation order and
// keeps the bodies inside the window. Headers without a stored body are
// normal; Cursor trims old bubbles independently of its header list.
func sessionMessages(global *cursordb.DB, c cursordb.Composer, win *window.Window) ([]Message, error) {
	headers, err := global.SessionHeaders(c.ComposerID)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}
	bubbles, err := global.SessionBubbles(c.ComposerID)
	if err != nil {
		return nil, err
	}

	var out []Message
	for _, h := range headers {
		if h.BubbleID == "" {
			continue
		}
		b, ok := bubbles[h.BubbleID]
		if !ok {
			continue
		}
		if !win.Contains(b.Timestamp) {
			continue
		}
		out = append(out, Message{
			BubbleID:    h.BubbleID,
			ComposerID:  c.ComposerID,
			SessionName: c.Name,
			Role:        roleForType(h.Type),
			Text:        b.Text,
			TimestampMS: b.Timestamp,
		})
	}
	return out, nil
}

func roleForType(t int) string {
	if t == 2 {
		return RoleAssistant
	}
	return RoleUser
}

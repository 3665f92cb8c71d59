// Package cursordb reads Cursor's SQLite state databases. Two layouts
// matter: workspace databases (ItemTable, one per workspace hash) hold
// session metadata, and the single global database (cursorDiskKV) holds
// conversation headers and message bodies.
//
// The IDE may be writing to these files while we read, so every open is
// read-only with a short busy timeout, one connection per file, closed as
// soon as the caller is done. No pooling, no caching.
package cursordb

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/quillhq/commit-journal/internal/journalerr"
)

// busyTimeoutMS bounds how long a query waits on the IDE's own writes.
const busyTimeoutMS = 5000

// Composer is one chat session recorded in a workspace database.
type Composer struct {
	ComposerID    string `json:"composerId"`
	Name          string `json:"name"`
	CreatedAt     int64  `json:"createdAt"`
	LastUpdatedAt int64  `json:"lastUpdatedAt"`
}

// BubbleHeader is a conversation entry: the message id and who sent it.
// Type 1 is the user, 2 the assistant.
type BubbleHeader struct {
	BubbleID string `json:"bubbleId"`
	Type     int    `json:"type"`
}

// Bubble is one message body from the global database.
type Bubble struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// DB wraps one state database file.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens a state database read-only. The file must already exist;
// discovery is the caller's job.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			e := journalerr.New(journalerr.NotFound, "cursordb.open", err, "the IDE may have removed this workspace")
			e.Path = path
			return nil, e
		}
		e := journalerr.New(journalerr.Access, "cursordb.open", err, "check file permissions")
		e.Path = path
		return nil, e
	}

	dsn := path + "?mode=ro&_pragma=busy_timeout(" + strconv.Itoa(busyTimeoutMS) + ")"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		e := journalerr.New(journalerr.Access, "cursordb.open", err, "")
		e.Path = path
		return nil, e
	}
	// One connection per file; the IDE holds its own writer lock.
	db.SetMaxOpenConns(1)
	return &DB{db: db, path: path}, nil
}

// Path returns the file this handle reads.
func (d *DB) Path() string { return d.path }

// Close releases the connection. Safe on nil.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Composers reads session metadata from a workspace database. Malformed
// JSON is logged and skipped, never fatal.
func (d *DB) Composers() ([]Composer, error) {
	const q = `SELECT value FROM ItemTable WHERE key = 'composer.composerData'`
	var value string
	err := d.db.QueryRow(q).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil // workspace has no chat sessions
	}
	if err != nil {
		return nil, d.classify("cursordb.composers", q, err)
	}

	var data struct {
		AllComposers []json.RawMessage `json:"allComposers"`
	}
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		slog.Warn("skipping malformed composer metadata", "db", d.path, "error", err)
		return nil, nil
	}

	composers := make([]Composer, 0, len(data.AllComposers))
	for _, raw := range data.AllComposers {
		var c Composer
		if err := json.Unmarshal(raw, &c); err != nil || c.ComposerID == "" {
			slog.Warn("skipping malformed composer record", "db", d.path)
			continue
		}
		composers = append(composers, c)
	}
	return composers, nil
}

// SessionHeaders reads the ordered conversation headers for one session
// from the global database.
func (d *DB) SessionHeaders(composerID string) ([]BubbleHeader, error) {
	const q = `SELECT value FROM cursorDiskKV WHERE key = ?`
	var value string
	err := d.db.QueryRow(q, "composerData:"+composerID).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, d.classify("cursordb.headers", q, err)
	}

	var data struct {
		Headers []BubbleHeader `json:"fullConversationHeadersOnly"`
	}
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		slog.Warn("skipping malformed conversation headers", "db", d.path, "composer", composerID, "error", err)
		return nil, nil
	}
	return data.Headers, nil
}

// SessionBubbles fetches every message body for a session in one query,
// keyed by bubbleId. A key range scan beats per-message lookups and avoids
// LIKE escaping.
func (d *DB) SessionBubbles(composerID string) (map[string]Bubble, error) {
	// ';' is ':'+1, so this range covers exactly "bubbleId:<id>:*".
	lo := "bubbleId:" + composerID + ":"
	hi := "bubbleId:" + composerID + ";"
	const q = `SELECT key, value FROM cursorDiskKV WHERE key >= ? AND key < ?`

	rows, err := d.db.Query(q, lo, hi)
	if err != nil {
		return nil, d.classify("cursordb.bubbles", q, err)
	}
	defer rows.Close()

	bubbles := make(map[string]Bubble)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, d.classify("cursordb.bubbles", q, err)
		}
		id := strings.TrimPrefix(key, lo)
		var b Bubble
		if err := json.Unmarshal([]byte(value), &b); err != nil {
			slog.Warn("skipping malformed message record", "db", d.path, "bubble", id, "error", err)
			continue
		}
		bubbles[id] = b
	}
	if err := rows.Err(); err != nil {
		return nil, d.classify("cursordb.bubbles", q, err)
	}
	return bubbles, nil
}

// classify maps sqlite failures onto error kinds so callers can decide to
// skip this database or give up.
func (d *DB) classify(op, query string, err error) error {
	msg := strings.ToLower(err.Error())
	kind := journalerr.Query
	hint := ""
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		kind = journalerr.Schema
		hint = "the IDE's storage format may have changed"
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "busy"):
		kind = journalerr.Access
		hint = "the IDE is writing; the next commit will retry"
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "access is denied"):
		kind = journalerr.Access
		hint = "check file permissions"
	case strings.Contains(msg, "no such file"):
		kind = journalerr.NotFound
	}
	e := journalerr.New(kind, op, err, hint)
	e.Path = d.path
	if kind == journalerr.Query {
		e.SQL = query
	}
	return e
}

package chatdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	chatDBRelativePath = "Library/Messages/chat.db"
	appleReferenceUnix = int64(978307200) // 2001-01-01T00:00:00Z
)

// ErrHandleNotFound reports that no handle matched the search term.
var ErrHandleNotFound = errors.New("chatdb: no matching handle")

// Message is one raw message row from the local Messages database. Text and
// AttributedBody are competing body representations; AttributedBody is the
// legacy archive blob populated when rich text or attachments are present.
type Message struct {
	RowID          int64
	Text           string
	AttributedBody []byte
	Date           int64 // nanoseconds since the Apple reference date
	SentAt         time.Time
	IsFromMe       bool
	HasAttachments bool
	Service        string
}

// DB is a read-only handle on a Messages chat database.
type DB struct {
	db *sql.DB
}

// DefaultPath returns the standard chat.db location under the user's home
// directory, verifying it exists.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("chatdb: unable to resolve home directory: %w", err)
	}
	path := filepath.Join(home, chatDBRelativePath)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("chatdb: chat database unavailable at %s: %w", path, err)
	}
	return path, nil
}

// Open opens the chat database read-only.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("chatdb: chat database unavailable at %s: %w", path, err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", strings.ReplaceAll(path, " ", "%20"))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("chatdb: opening sqlite database failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("chatdb: connecting to sqlite database failed: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// FindHandle resolves a user-supplied name or number to a canonical handle id
// by probing progressively looser patterns: exact match, substring match,
// then the digits reformatted as +1<digits> and +<digits>.
func (d *DB) FindHandle(term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", errors.New("chatdb: search term is required")
	}

	digits := strings.NewReplacer("-", "", "(", "", ")", "", " ", "", ".", "").Replace(term)
	patterns := []string{
		term,
		"%" + term + "%",
		"+1" + digits,
		"+" + digits,
	}

	for _, pattern := range patterns {
		var id string
		err := d.db.QueryRow("SELECT id FROM handle WHERE id LIKE ? LIMIT 1", pattern).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("chatdb: handle lookup failed: %w", err)
		}
	}
	return "", fmt.Errorf("%w for %q", ErrHandleNotFound, term)
}

// MessagesForHandle returns every message exchanged with the given handle,
// newest first. Rows are returned raw; text recovery happens downstream.
func (d *DB) MessagesForHandle(handle string) ([]Message, error) {
	rows, err := d.db.Query(`
SELECT
	m.ROWID,
	COALESCE(m.text, ''),
	m.attributedBody,
	COALESCE(m.date, 0),
	COALESCE(m.is_from_me, 0),
	COALESCE(m.cache_has_attachments, 0),
	COALESCE(m.service, '')
FROM message m
JOIN handle h ON m.handle_id = h.ROWID
WHERE h.id = ?
ORDER BY m.date DESC;
`, handle)
	if err != nil {
		return nil, fmt.Errorf("chatdb: message query failed: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0, 64)
	for rows.Next() {
		var (
			msg      Message
			body     []byte
			fromMe   int
			attached int
		)
		if err := rows.Scan(&msg.RowID, &msg.Text, &body, &msg.Date, &fromMe, &attached, &msg.Service); err != nil {
			return nil, fmt.Errorf("chatdb: scanning message row failed: %w", err)
		}
		msg.AttributedBody = body
		msg.SentAt = appleNanoToTime(msg.Date)
		msg.IsFromMe = fromMe != 0
		msg.HasAttachments = attached != 0
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chatdb: iterating message rows failed: %w", err)
	}
	return messages, nil
}

func appleNanoToTime(nanos int64) time.Time {
	if nanos <= 0 {
		return time.Time{}
	}
	sec := nanos / int64(time.Second)
	nsec := nanos % int64(time.Second)
	return time.Unix(appleReferenceUnix+sec, nsec)
}

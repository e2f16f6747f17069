package chatdb

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

// newTestDB builds a throwaway database with a miniature chat.db schema.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chat.db")
	raw, err := sql.Open("sqlite3", path)
	be.Err(t, err, nil)
	defer raw.Close()

	_, err = raw.Exec(`
CREATE TABLE handle (
  ROWID INTEGER PRIMARY KEY,
  id    TEXT NOT NULL
);
CREATE TABLE message (
  ROWID                 INTEGER PRIMARY KEY,
  handle_id             INTEGER,
  text                  TEXT,
  attributedBody        BLOB,
  date                  INTEGER,
  is_from_me            INTEGER,
  cache_has_attachments INTEGER,
  service               TEXT
);
INSERT INTO handle (ROWID, id) VALUES
  (1, '+12363381146'),
  (2, 'friend@example.com');
INSERT INTO message (ROWID, handle_id, text, attributedBody, date, is_from_me, cache_has_attachments, service) VALUES
  (1, 1, 'See you soon', NULL, 2000000000000, 1, 0, 'iMessage'),
  (2, 1, NULL, X'4e53537472696e67', 1000000000000, 0, 1, 'SMS'),
  (3, 2, 'hello from email handle', NULL, 3000000000000, 0, 0, 'iMessage');
`)
	be.Err(t, err, nil)

	db, err := Open(path)
	be.Err(t, err, nil)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"))
	be.True(t, err != nil)
}

func TestFindHandle(t *testing.T) {
	db := newTestDB(t)

	// Exact match.
	id, err := db.FindHandle("+12363381146")
	be.Err(t, err, nil)
	be.Equal(t, id, "+12363381146")

	// Substring match.
	id, err = db.FindHandle("friend")
	be.Err(t, err, nil)
	be.Equal(t, id, "friend@example.com")

	// Digits reformatted as +1<digits>.
	id, err = db.FindHandle("(236) 338-1146")
	be.Err(t, err, nil)
	be.Equal(t, id, "+12363381146")

	_, err = db.FindHandle("nobody at all")
	be.True(t, errors.Is(err, ErrHandleNotFound))

	_, err = db.FindHandle("   ")
	be.True(t, err != nil)
}

func TestMessagesForHandle(t *testing.T) {
	db := newTestDB(t)

	msgs, err := db.MessagesForHandle("+12363381146")
	be.Err(t, err, nil)
	be.Equal(t, len(msgs), 2)

	// Newest first.
	be.Equal(t, msgs[0].RowID, int64(1))
	be.Equal(t, msgs[0].Text, "See you soon")
	be.True(t, msgs[0].IsFromMe)
	be.True(t, !msgs[0].HasAttachments)
	be.Equal(t, msgs[0].Service, "iMessage")

	be.Equal(t, msgs[1].RowID, int64(2))
	be.Equal(t, msgs[1].Text, "")
	be.Equal(t, string(msgs[1].AttributedBody), "NSString")
	be.True(t, !msgs[1].IsFromMe)
	be.True(t, msgs[1].HasAttachments)

	// 1000 seconds past the Apple reference date.
	be.True(t, msgs[1].SentAt.Equal(time.Unix(appleReferenceUnix+1000, 0)))

	msgs, err = db.MessagesForHandle("unknown@example.com")
	be.Err(t, err, nil)
	be.Equal(t, len(msgs), 0)
}

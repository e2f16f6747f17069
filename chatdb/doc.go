// Package chatdb reads the local Messages database
// (~/Library/Messages/chat.db) over a read-only SQLite connection.
//
// It exposes two queries: handle lookup by name/number with progressively
// looser patterns, and full message retrieval for a handle (plain text,
// attributedBody blob, timestamps, direction, service, attachment flag).
// Timestamps in chat.db count nanoseconds from the Apple reference date
// (2001-01-01); SentAt carries the converted wall-clock time.
//
// SQLite access uses github.com/mattn/go-sqlite3 (CGO required).
package chatdb

package mailbox

import (
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestBuildOutgoingMessage(t *testing.T) {
	now := time.Date(2025, 7, 31, 13, 49, 49, 0, time.UTC)
	opts := SendOptions{From: "me@example.com", To: "you@example.com"}

	raw := string(buildOutgoingMessage(opts, "conversation_John.txt", "line one\nline two\n", now))

	header, body, found := strings.Cut(raw, "\r\n\r\n")
	be.True(t, found)
	be.True(t, strings.Contains(header, "From: me@example.com"))
	be.True(t, strings.Contains(header, "To: you@example.com"))
	be.True(t, strings.Contains(header, "Subject: Conversation export: conversation_John.txt"))
	be.True(t, strings.Contains(header, "@example.com>"))
	be.Equal(t, body, "line one\r\nline two\r\n")
}

func TestBuildOutgoingMessageSubject(t *testing.T) {
	now := time.Now()
	opts := SendOptions{From: "a@b", To: "c@d", Subject: "with\nnewline"}

	raw := string(buildOutgoingMessage(opts, "f.txt", "body text", now))
	be.True(t, strings.Contains(raw, "Subject: with newline\r\n"))
}

func TestMessageDate(t *testing.T) {
	raw := []byte("From: a@b\r\nDate: Thu, 31 Jul 2025 13:49:49 +0000\r\n\r\nbody\r\n")
	got := messageDate(raw)
	be.True(t, got.Equal(time.Date(2025, 7, 31, 13, 49, 49, 0, time.UTC)))

	// Missing or bad dates fall back to roughly now.
	got = messageDate([]byte("From: a@b\r\n\r\nbody\r\n"))
	be.True(t, time.Since(got) < time.Minute)
}

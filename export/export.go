package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spachava753/msgexport/chatdb"
	"github.com/spachava753/msgexport/extract"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	// StampLayout formats the run timestamp embedded in output filenames.
	StampLayout = "20060102_150405"
)

// Message is one message with recovered, non-empty text. Built once per raw
// row and immutable afterwards; rows without recoverable text never become a
// Message.
type Message struct {
	RowID          int64
	Date           int64
	When           time.Time
	IsFromMe       bool
	Text           string
	Service        string
	HasAttachments bool
}

// BuildTranscript runs text recovery over raw rows and keeps the ones that
// yield text. Rows whose recovery misses are dropped silently; that is an
// accepted information-loss tradeoff, not an error.
func BuildTranscript(raw []chatdb.Message, ex *extract.Extractor) []Message {
	clean := make([]Message, 0, len(raw))
	for _, msg := range raw {
		text := ex.Recover(msg.Text, msg.AttributedBody)
		if text == "" {
			continue
		}
		clean = append(clean, Message{
			RowID:          msg.RowID,
			Date:           msg.Date,
			When:           msg.SentAt,
			IsFromMe:       msg.IsFromMe,
			Text:           text,
			Service:        msg.Service,
			HasAttachments: msg.HasAttachments,
		})
	}
	return clean
}

// SortChronological orders messages oldest first. The sort is stable: equal
// timestamps keep their retrieval order.
func SortChronological(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Date < msgs[j].Date
	})
}

// RenderSimple produces the plain transcript: one numbered line per message.
func RenderSimple(msgs []Message, contactName, contactID string) []string {
	lines := []string{
		"💬 MESSAGE CONVERSATION",
		strings.Repeat("=", 60),
		fmt.Sprintf("📱 Contact: %s (%s)", contactName, contactID),
		fmt.Sprintf("📅 Date Range: %s", dateRange(msgs)),
		fmt.Sprintf("📊 Total Messages: %d", len(msgs)),
		"",
	}
	for i, msg := range msgs {
		lines = append(lines,
			fmt.Sprintf("%3d. [%s] %s: %s", i+1, msg.When.Format(timeLayout), senderLabel(msg, contactName), msg.Text),
			"")
	}
	return lines
}

// RenderDetailed produces the transcript with explicit sender/receiver and
// service annotations per message.
func RenderDetailed(msgs []Message, contactName, contactID string) []string {
	lines := []string{
		"💬 DETAILED MESSAGE CONVERSATION",
		strings.Repeat("=", 60),
		fmt.Sprintf("📱 Contact: %s (%s)", contactName, contactID),
		fmt.Sprintf("📅 Date Range: %s", dateRange(msgs)),
		fmt.Sprintf("📊 Total Messages: %d", len(msgs)),
		"",
		"📋 CONVERSATION:",
		strings.Repeat("-", 60),
		"",
	}
	for i, msg := range msgs {
		sender := senderLabel(msg, contactName)
		receiver := contactName
		if !msg.IsFromMe {
			receiver = "You"
		}
		lines = append(lines,
			fmt.Sprintf("%3d. [%s]", i+1, msg.When.Format(timeLayout)),
			fmt.Sprintf("    FROM: %s", sender),
			fmt.Sprintf("    TO: %s", receiver),
			fmt.Sprintf("    MESSAGE: %s", msg.Text),
		)
		if msg.Service != "" {
			lines = append(lines, fmt.Sprintf("    📱 Service: %s", msg.Service))
		}
		lines = append(lines, "")
	}
	return lines
}

// RenderSummary produces the per-sender tally plus the full message list.
func RenderSummary(msgs []Message, contactName, contactID string) []string {
	fromMe := 0
	for _, msg := range msgs {
		if msg.IsFromMe {
			fromMe++
		}
	}

	lines := []string{
		"📋 CONVERSATION SUMMARY",
		strings.Repeat("=", 60),
		fmt.Sprintf("📱 Contact: %s (%s)", contactName, contactID),
		"",
		"📊 Message Count:",
		fmt.Sprintf("  You: %d messages", fromMe),
		fmt.Sprintf("  %s: %d messages", contactName, len(msgs)-fromMe),
		fmt.Sprintf("  Total: %d messages", len(msgs)),
		"",
		"📝 All Messages:",
		strings.Repeat("-", 30),
	}
	for i, msg := range msgs {
		lines = append(lines, fmt.Sprintf("%2d. [%s] %s: %s", i+1, msg.When.Format(timeLayout), senderLabel(msg, contactName), msg.Text))
	}
	return lines
}

// Files lists the transcript paths written by WriteAll.
type Files struct {
	Simple   string
	Detailed string
	Summary  string
}

// WriteAll renders and writes the three transcript formats into dir. The run
// stamp is an explicit parameter so filenames stay deterministic for a run.
func WriteAll(dir string, msgs []Message, contactName, contactID string, stamp time.Time) (Files, error) {
	safe := SafeName(contactName)
	suffix := stamp.Format(StampLayout)

	files := Files{
		Simple:   filepath.Join(dir, fmt.Sprintf("conversation_%s_%s.txt", safe, suffix)),
		Detailed: filepath.Join(dir, fmt.Sprintf("detailed_conversation_%s_%s.txt", safe, suffix)),
		Summary:  filepath.Join(dir, fmt.Sprintf("summary_%s_%s.txt", safe, suffix)),
	}

	if err := WriteLines(files.Simple, RenderSimple(msgs, contactName, contactID)); err != nil {
		return Files{}, err
	}
	if err := WriteLines(files.Detailed, RenderDetailed(msgs, contactName, contactID)); err != nil {
		return Files{}, err
	}
	if err := WriteLines(files.Summary, RenderSummary(msgs, contactName, contactID)); err != nil {
		return Files{}, err
	}
	return files, nil
}

// WriteLines writes lines joined with newlines to path.
func WriteLines(path string, lines []string) error {
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("export: writing %s failed: %w", path, err)
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SafeName maps a contact label to a filename-safe form.
func SafeName(contact string) string {
	return unsafeNameChars.ReplaceAllString(contact, "_")
}

func senderLabel(msg Message, contactName string) string {
	if msg.IsFromMe {
		return "You"
	}
	return contactName
}

func dateRange(msgs []Message) string {
	if len(msgs) == 0 {
		return "no messages"
	}
	first := msgs[0].When.Format(timeLayout)
	last := msgs[len(msgs)-1].When.Format(timeLayout)
	return first + " to " + last
}

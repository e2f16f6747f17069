package export

import (
	"errors"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/nalgeon/be"

	"github.com/spachava753/msgexport/chatdb"
	"github.com/spachava753/msgexport/extract"
)

var testWhen = time.Date(2025, 7, 31, 13, 49, 49, 0, time.UTC)

func TestBuildTranscript(t *testing.T) {
	ex := extract.New(extract.DefaultRejectRules())
	raw := []chatdb.Message{
		{RowID: 1, Text: "plain body", Date: 100, SentAt: testWhen, IsFromMe: true, Service: "iMessage"},
		{RowID: 2, AttributedBody: []byte("NSString123Hello there, how are you doing today?xyz"), Date: 200, SentAt: testWhen},
		{RowID: 3, AttributedBody: []byte("x1f streamtyped classname null"), Date: 300, SentAt: testWhen},
		{RowID: 4, Date: 400, SentAt: testWhen},
	}

	msgs := BuildTranscript(raw, ex)
	be.Equal(t, len(msgs), 2)
	be.Equal(t, msgs[0].RowID, int64(1))
	be.Equal(t, msgs[0].Text, "plain body")
	be.True(t, msgs[0].IsFromMe)
	be.Equal(t, msgs[1].RowID, int64(2))
	be.Equal(t, msgs[1].Text, "Hello there, how are you doing today?xyz")
}

func TestSortChronologicalStable(t *testing.T) {
	msgs := []Message{
		{RowID: 3, Date: 200},
		{RowID: 1, Date: 100},
		{RowID: 2, Date: 100},
	}
	SortChronological(msgs)
	be.Equal(t, msgs[0].RowID, int64(1))
	be.Equal(t, msgs[1].RowID, int64(2)) // equal dates keep retrieval order
	be.Equal(t, msgs[2].RowID, int64(3))
}

func TestRenderSimple(t *testing.T) {
	msgs := []Message{
		{RowID: 1, When: testWhen, IsFromMe: true, Text: "see you soon"},
		{RowID: 2, When: testWhen.Add(time.Minute), Text: "sounds good"},
	}
	lines := RenderSimple(msgs, "John Doe", "+12363381146")

	be.Equal(t, lines[0], "💬 MESSAGE CONVERSATION")
	be.Equal(t, lines[2], "📱 Contact: John Doe (+12363381146)")
	be.Equal(t, lines[4], "📊 Total Messages: 2")
	be.Equal(t, lines[6], "  1. [2025-07-31 13:49:49] You: see you soon")
	be.Equal(t, lines[8], "  2. [2025-07-31 13:50:49] John Doe: sounds good")
}

func TestRenderDetailed(t *testing.T) {
	msgs := []Message{
		{RowID: 1, When: testWhen, Text: "hi", Service: "SMS"},
	}
	lines := RenderDetailed(msgs, "John", "+1555")

	be.Equal(t, lines[9], "  1. [2025-07-31 13:49:49]")
	be.Equal(t, lines[10], "    FROM: John")
	be.Equal(t, lines[11], "    TO: You")
	be.Equal(t, lines[12], "    MESSAGE: hi")
	be.Equal(t, lines[13], "    📱 Service: SMS")
}

func TestRenderSummary(t *testing.T) {
	msgs := []Message{
		{When: testWhen, IsFromMe: true, Text: "one"},
		{When: testWhen, Text: "two"},
		{When: testWhen, Text: "three"},
	}
	lines := RenderSummary(msgs, "John", "+1555")

	be.Equal(t, lines[5], "  You: 1 messages")
	be.Equal(t, lines[6], "  John: 2 messages")
	be.Equal(t, lines[7], "  Total: 3 messages")
}

func TestSafeName(t *testing.T) {
	be.Equal(t, SafeName("John Doe"), "John_Doe")
	be.Equal(t, SafeName("+1 (236) 338-1146"), "_1__236__338_1146")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	msgs := []Message{{When: testWhen, Text: "hello"}}
	stamp := time.Date(2025, 7, 31, 13, 49, 49, 0, time.UTC)

	files, err := WriteAll(dir, msgs, "John Doe", "+1555", stamp)
	be.Err(t, err, nil)
	be.Equal(t, files.Simple, filepath.Join(dir, "conversation_John_Doe_20250731_134949.txt"))
	be.Equal(t, files.Detailed, filepath.Join(dir, "detailed_conversation_John_Doe_20250731_134949.txt"))
	be.Equal(t, files.Summary, filepath.Join(dir, "summary_John_Doe_20250731_134949.txt"))

	for _, path := range []string{files.Simple, files.Detailed, files.Summary} {
		_, err := os.Stat(path)
		be.Err(t, err, nil)
	}
}

func TestWriteMbox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.mbox")
	msgs := []Message{
		{RowID: 1, Date: 100, When: testWhen, IsFromMe: true, Text: "hello", Service: "iMessage"},
		{RowID: 2, Date: 200, When: testWhen.Add(time.Minute), Text: "hi back"},
	}

	be.Err(t, WriteMbox(path, msgs, "+12363381146", "me@local"), nil)

	f, err := os.Open(path)
	be.Err(t, err, nil)
	defer f.Close()

	r := mbox.NewReader(f)
	count := 0
	for {
		mr, err := r.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		be.Err(t, err, nil)

		msg, err := mail.ReadMessage(mr)
		be.Err(t, err, nil)
		if count == 0 {
			be.Equal(t, msg.Header.Get("From"), "me@local")
			be.Equal(t, msg.Header.Get("To"), "+12363381146")
			be.Equal(t, msg.Header.Get("X-Service"), "iMessage")
			body, err := io.ReadAll(msg.Body)
			be.Err(t, err, nil)
			be.Equal(t, string(body), "hello\n")
		}
		count++
	}
	be.Equal(t, count, 2)
}

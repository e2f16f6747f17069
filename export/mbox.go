package export

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/emersion/go-mbox"
)

// WriteMbox writes the transcript as an mbox file, one RFC 2822-style
// message per record, so the conversation can be archived into a mailbox.
// owner labels the local side of outbound messages.
func WriteMbox(path string, msgs []Message, contactID, owner string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s failed: %w", path, err)
	}
	defer f.Close()

	w := mbox.NewWriter(f)
	for _, msg := range msgs {
		from, to := contactID, owner
		if msg.IsFromMe {
			from, to = owner, contactID
		}

		mw, err := w.CreateMessage(from, msg.When)
		if err != nil {
			return fmt.Errorf("export: starting mbox message failed: %w", err)
		}
		if err := writeMboxMessage(mw, msg, from, to); err != nil {
			return fmt.Errorf("export: writing mbox message failed: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("export: finalizing mbox failed: %w", err)
	}
	return nil
}

func writeMboxMessage(w io.Writer, msg Message, from, to string) error {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Date: " + msg.When.Format(time.RFC1123Z),
		fmt.Sprintf("Message-ID: <%d.%d@msgexport.local>", msg.RowID, msg.Date),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	if msg.Service != "" {
		headers = append(headers, "X-Service: "+msg.Service)
	}
	if msg.HasAttachments {
		headers = append(headers, "X-Has-Attachments: yes")
	}

	for _, header := range headers {
		if _, err := fmt.Fprintf(w, "%s\n", header); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", msg.Text)
	return err
}

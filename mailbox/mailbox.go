package mailbox

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-mbox"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// UploadOptions configure the IMAP target for Upload.
type UploadOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	Folder   string
	UseTLS   bool
}

// Upload appends every message of an exported mbox transcript to the target
// IMAP folder, preserving each message's date. Returns the number of
// messages appended.
func Upload(opts UploadOptions, mboxPath string) (int, error) {
	f, err := os.Open(mboxPath)
	if err != nil {
		return 0, fmt.Errorf("mailbox: opening mbox failed: %w", err)
	}
	defer f.Close()

	c, err := connectIMAP(opts)
	if err != nil {
		return 0, err
	}
	defer c.Logout()

	// Already-existing folders are fine.
	_ = c.Create(opts.Folder)

	reader := mbox.NewReader(f)
	count := 0
	for {
		mr, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("mailbox: reading mbox message %d failed: %w", count, err)
		}

		raw, err := io.ReadAll(mr)
		if err != nil {
			return count, fmt.Errorf("mailbox: reading mbox message %d failed: %w", count, err)
		}

		if err := c.Append(opts.Folder, nil, messageDate(raw), bytes.NewBuffer(raw)); err != nil {
			return count, fmt.Errorf("mailbox: APPEND to %q failed: %w", opts.Folder, err)
		}
		count++
	}
	return count, nil
}

func connectIMAP(opts UploadOptions) (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)

	var (
		c   *client.Client
		err error
	)
	if opts.UseTLS {
		c, err = client.DialTLS(addr, &tls.Config{ServerName: opts.Host})
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("mailbox: IMAP dial %s failed: %w", addr, err)
	}

	if err := c.Authenticate(sasl.NewPlainClient("", opts.Username, opts.Password)); err != nil {
		c.Logout()
		return nil, fmt.Errorf("mailbox: IMAP auth failed: %w", err)
	}
	return c, nil
}

// messageDate pulls the Date header out of a raw message, falling back to
// the current time when absent or unparsable.
func messageDate(raw []byte) time.Time {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return time.Now()
	}
	if date := msg.Header.Get("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			return t
		}
	}
	return time.Now()
}

// SendOptions configure the SMTP delivery for Send.
type SendOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Subject  string
}

// Send mails an exported transcript file as a plain-text message over an
// implicit-TLS SMTP connection.
func Send(opts SendOptions, transcriptPath string) error {
	body, err := os.ReadFile(transcriptPath)
	if err != nil {
		return fmt.Errorf("mailbox: reading transcript failed: %w", err)
	}

	raw := buildOutgoingMessage(opts, filepath.Base(transcriptPath), string(body), time.Now())

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: opts.Host})
	if err != nil {
		return fmt.Errorf("mailbox: SMTP TLS dial %s failed: %w", addr, err)
	}

	smtpClient := smtp.NewClient(conn)
	defer smtpClient.Close()

	if err := smtpClient.Auth(sasl.NewPlainClient("", opts.Username, opts.Password)); err != nil {
		return fmt.Errorf("mailbox: SMTP auth failed: %w", err)
	}
	if err := smtpClient.Mail(opts.From, nil); err != nil {
		return fmt.Errorf("mailbox: MAIL FROM failed: %w", err)
	}
	if err := smtpClient.Rcpt(opts.To, nil); err != nil {
		return fmt.Errorf("mailbox: RCPT TO %q failed: %w", opts.To, err)
	}

	writer, err := smtpClient.Data()
	if err != nil {
		return fmt.Errorf("mailbox: DATA failed: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		return fmt.Errorf("mailbox: writing message failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("mailbox: finalizing message failed: %w", err)
	}
	if err := smtpClient.Quit(); err != nil {
		return fmt.Errorf("mailbox: QUIT failed: %w", err)
	}
	return nil
}

func buildOutgoingMessage(opts SendOptions, filename, body string, now time.Time) []byte {
	subject := sanitizeHeader(opts.Subject)
	if subject == "" {
		subject = "Conversation export: " + sanitizeHeader(filename)
	}

	headers := []string{
		fmt.Sprintf("From: %s", opts.From),
		fmt.Sprintf("To: %s", opts.To),
		fmt.Sprintf("Subject: %s", subject),
		fmt.Sprintf("Date: %s", now.Format(time.RFC1123Z)),
		fmt.Sprintf("Message-ID: %s", generateMessageID(opts.From, now)),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + normalizeBody(body) + "\r\n")
}

func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}

func normalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")
	return strings.TrimSpace(body)
}

func generateMessageID(address string, now time.Time) string {
	domain := "localhost"
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		domain = address[at+1:]
	}
	return fmt.Sprintf("<%d.%s>", now.UnixNano(), domain)
}

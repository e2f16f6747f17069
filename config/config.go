package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Export captures the options of the export command.
type Export struct {
	DBPath    string
	OutputDir string
	Owner     string
	WriteMbox bool
}

// RegisterExportFlags attaches the export command's flags.
func RegisterExportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("db", "", "Path to chat.db (defaults to ~/Library/Messages/chat.db)")
	flags.String("out", ".", "Directory for the generated transcript files")
	flags.String("owner", "me", "Label for the local side in mbox output")
	flags.Bool("mbox", false, "Also write an mbox rendition of the conversation")
}

// LoadExport converts the parsed flags into an Export config.
func LoadExport(cmd *cobra.Command) (Export, error) {
	flags := cmd.Flags()

	dbPath, err := flags.GetString("db")
	if err != nil {
		return Export{}, err
	}
	outputDir, err := flags.GetString("out")
	if err != nil {
		return Export{}, err
	}
	owner, err := flags.GetString("owner")
	if err != nil {
		return Export{}, err
	}
	writeMbox, err := flags.GetBool("mbox")
	if err != nil {
		return Export{}, err
	}

	if info, err := os.Stat(outputDir); err != nil || !info.IsDir() {
		return Export{}, fmt.Errorf("--out %q is not a directory", outputDir)
	}

	return Export{
		DBPath:    dbPath,
		OutputDir: outputDir,
		Owner:     owner,
		WriteMbox: writeMbox,
	}, nil
}

// Chunk captures the options of the chunk command.
type Chunk struct {
	MaxTokens   int
	MaxMessages int
}

// RegisterChunkFlags attaches the chunk command's flags.
func RegisterChunkFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("max-tokens", 30000, "Token budget per chunk")
	flags.Int("max-messages", 0, "Optional cap on messages per chunk (0 = unlimited)")
}

// LoadChunk converts the parsed flags into a Chunk config.
func LoadChunk(cmd *cobra.Command) (Chunk, error) {
	flags := cmd.Flags()

	maxTokens, err := flags.GetInt("max-tokens")
	if err != nil {
		return Chunk{}, err
	}
	maxMessages, err := flags.GetInt("max-messages")
	if err != nil {
		return Chunk{}, err
	}

	if maxTokens <= 0 {
		return Chunk{}, fmt.Errorf("--max-tokens must be positive")
	}
	if maxMessages < 0 {
		return Chunk{}, fmt.Errorf("--max-messages must not be negative")
	}

	return Chunk{MaxTokens: maxTokens, MaxMessages: maxMessages}, nil
}

// Upload captures the options of the upload command.
type Upload struct {
	Host     string
	Port     int
	Username string
	Password string
	Folder   string
	UseTLS   bool
}

// RegisterUploadFlags attaches the upload command's flags.
func RegisterUploadFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	flags.String("imap-host", "", "IMAP server hostname")
	flags.Int("imap-port", 993, "IMAP server port")
	flags.String("imap-user", "", "IMAP username")
	flags.String("imap-pass", "", "IMAP password (falls back to IMAP_PASS env var)")
	flags.String("folder", "Messages", "Target IMAP folder")
	flags.Bool("use-tls", true, "Use TLS for the IMAP connection")

	if err := cmd.MarkFlagRequired("imap-host"); err != nil {
		return err
	}
	return cmd.MarkFlagRequired("imap-user")
}

// LoadUpload converts the parsed flags into an Upload config.
func LoadUpload(cmd *cobra.Command) (Upload, error) {
	flags := cmd.Flags()

	host, err := flags.GetString("imap-host")
	if err != nil {
		return Upload{}, err
	}
	port, err := flags.GetInt("imap-port")
	if err != nil {
		return Upload{}, err
	}
	username, err := flags.GetString("imap-user")
	if err != nil {
		return Upload{}, err
	}
	password, err := flags.GetString("imap-pass")
	if err != nil {
		return Upload{}, err
	}
	folder, err := flags.GetString("folder")
	if err != nil {
		return Upload{}, err
	}
	useTLS, err := flags.GetBool("use-tls")
	if err != nil {
		return Upload{}, err
	}

	if password == "" {
		password = os.Getenv("IMAP_PASS")
	}
	if password == "" {
		return Upload{}, fmt.Errorf("IMAP password must be provided via --imap-pass or IMAP_PASS env var")
	}
	if port <= 0 || port > 65535 {
		return Upload{}, fmt.Errorf("--imap-port must be between 1 and 65535")
	}
	if strings.TrimSpace(folder) == "" {
		return Upload{}, fmt.Errorf("--folder must not be empty")
	}

	return Upload{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		Folder:   folder,
		UseTLS:   useTLS,
	}, nil
}

// Send captures the options of the send command.
type Send struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Subject  string
}

// RegisterSendFlags attaches the send command's flags.
func RegisterSendFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	flags.String("smtp-host", "", "SMTP server hostname")
	flags.Int("smtp-port", 465, "SMTP server port (implicit TLS)")
	flags.String("smtp-user", "", "SMTP username")
	flags.String("smtp-pass", "", "SMTP password (falls back to SMTP_PASS env var)")
	flags.String("from", "", "Sender address (defaults to the SMTP username)")
	flags.String("to", "", "Recipient address")
	flags.String("subject", "", "Subject line (defaults to the transcript filename)")

	if err := cmd.MarkFlagRequired("smtp-host"); err != nil {
		return err
	}
	if err := cmd.MarkFlagRequired("smtp-user"); err != nil {
		return err
	}
	return cmd.MarkFlagRequired("to")
}

// LoadSend converts the parsed flags into a Send config.
func LoadSend(cmd *cobra.Command) (Send, error) {
	flags := cmd.Flags()

	host, err := flags.GetString("smtp-host")
	if err != nil {
		return Send{}, err
	}
	port, err := flags.GetInt("smtp-port")
	if err != nil {
		return Send{}, err
	}
	username, err := flags.GetString("smtp-user")
	if err != nil {
		return Send{}, err
	}
	password, err := flags.GetString("smtp-pass")
	if err != nil {
		return Send{}, err
	}
	from, err := flags.GetString("from")
	if err != nil {
		return Send{}, err
	}
	to, err := flags.GetString("to")
	if err != nil {
		return Send{}, err
	}
	subject, err := flags.GetString("subject")
	if err != nil {
		return Send{}, err
	}

	if password == "" {
		password = os.Getenv("SMTP_PASS")
	}
	if password == "" {
		return Send{}, fmt.Errorf("SMTP password must be provided via --smtp-pass or SMTP_PASS env var")
	}
	if from == "" {
		from = username
	}
	if port <= 0 || port > 65535 {
		return Send{}, fmt.Errorf("--smtp-port must be between 1 and 65535")
	}

	return Send{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		To:       to,
		Subject:  subject,
	}, nil
}

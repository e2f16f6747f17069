// Command msgexport exports conversation history from the local Messages
// database into readable transcripts, splits transcripts into
// context-window-sized chunks, and optionally moves exports into a mailbox.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spachava753/msgexport/chatdb"
	"github.com/spachava753/msgexport/chunk"
	"github.com/spachava753/msgexport/config"
	"github.com/spachava753/msgexport/export"
	"github.com/spachava753/msgexport/extract"
	"github.com/spachava753/msgexport/mailbox"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "msgexport",
		Short:         "Export, chunk, and archive local Messages conversation history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level: debug, info, warn, error")

	rootCmd.AddCommand(newExportCmd(), newChunkCmd(), newUploadCmd(), newSendCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <contact>",
		Short: "Export the complete message history for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadExport(cmd)
			if err != nil {
				return err
			}
			logger, err := setupLogger(cmd)
			if err != nil {
				return err
			}
			return runExport(cfg, args[0], time.Now(), logger)
		},
	}
	config.RegisterExportFlags(cmd)
	return cmd
}

func runExport(cfg config.Export, contact string, stamp time.Time, logger *slog.Logger) error {
	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		if dbPath, err = chatdb.DefaultPath(); err != nil {
			return err
		}
	}

	db, err := chatdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	handle, err := db.FindHandle(contact)
	if err != nil {
		return err
	}
	logger.Info("resolved contact", "query", contact, "handle", handle)

	raw, err := db.MessagesForHandle(handle)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("no messages found for %q", handle)
	}
	logger.Info("fetched messages", "count", len(raw))

	msgs := export.BuildTranscript(raw, extract.New(extract.DefaultRejectRules()))
	if len(msgs) == 0 {
		return fmt.Errorf("no recoverable message text for %q", handle)
	}
	logger.Info("recovered message text", "clean", len(msgs), "dropped", len(raw)-len(msgs))

	export.SortChronological(msgs)

	files, err := export.WriteAll(cfg.OutputDir, msgs, handle, handle, stamp)
	if err != nil {
		return err
	}
	logger.Info("wrote transcripts", "simple", files.Simple, "detailed", files.Detailed, "summary", files.Summary)

	if cfg.WriteMbox {
		path := strings.TrimSuffix(files.Simple, ".txt") + ".mbox"
		if err := export.WriteMbox(path, msgs, handle, cfg.Owner); err != nil {
			return err
		}
		logger.Info("wrote mbox", "path", path)
	}
	return nil
}

func newChunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <transcript>",
		Short: "Split an exported transcript into size-bounded chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadChunk(cmd)
			if err != nil {
				return err
			}
			logger, err := setupLogger(cmd)
			if err != nil {
				return err
			}
			return runChunk(cfg, args[0], time.Now(), logger)
		},
	}
	config.RegisterChunkFlags(cmd)
	return cmd
}

func runChunk(cfg config.Chunk, inputPath string, stamp time.Time, logger *slog.Logger) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s failed: %w", inputPath, err)
	}

	lines := strings.Split(string(data), "\n")
	chunks := chunk.Split(lines, chunk.Options{
		MaxTokens:   cfg.MaxTokens,
		MaxMessages: cfg.MaxMessages,
	})
	if len(chunks) == 0 {
		return fmt.Errorf("no content to chunk in %s", inputPath)
	}

	paths, err := chunk.WriteFiles(inputPath, chunks, stamp)
	if err != nil {
		return err
	}
	for i, path := range paths {
		logger.Info("wrote chunk",
			"path", path,
			"messages", chunks[i].Messages,
			"tokens", chunk.EstimateTokens(strings.Join(chunks[i].Lines, "\n")))
	}

	summaryPath, err := chunk.WriteSummary(inputPath, paths, chunks, stamp)
	if err != nil {
		return err
	}
	logger.Info("wrote batch summary", "path", summaryPath)
	return nil
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <mbox>",
		Short: "Append an exported mbox transcript to an IMAP folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUpload(cmd)
			if err != nil {
				return err
			}
			logger, err := setupLogger(cmd)
			if err != nil {
				return err
			}

			count, err := mailbox.Upload(mailbox.UploadOptions{
				Host:     cfg.Host,
				Port:     cfg.Port,
				Username: cfg.Username,
				Password: cfg.Password,
				Folder:   cfg.Folder,
				UseTLS:   cfg.UseTLS,
			}, args[0])
			if err != nil {
				return err
			}
			logger.Info("uploaded transcript", "mbox", args[0], "folder", cfg.Folder, "messages", count)
			return nil
		},
	}
	if err := config.RegisterUploadFlags(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register upload flags: %v\n", err)
		os.Exit(1)
	}
	return cmd
}

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <transcript>",
		Short: "Mail an exported transcript file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSend(cmd)
			if err != nil {
				return err
			}
			logger, err := setupLogger(cmd)
			if err != nil {
				return err
			}

			if err := mailbox.Send(mailbox.SendOptions{
				Host:     cfg.Host,
				Port:     cfg.Port,
				Username: cfg.Username,
				Password: cfg.Password,
				From:     cfg.From,
				To:       cfg.To,
				Subject:  cfg.Subject,
			}, args[0]); err != nil {
				return err
			}
			logger.Info("sent transcript", "path", args[0], "to", cfg.To)
			return nil
		},
	}
	if err := config.RegisterSendFlags(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register send flags: %v\n", err)
		os.Exit(1)
	}
	return cmd
}

func setupLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	var level slog.Level
	switch strings.ToLower(raw) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid --log-level: %s", raw)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

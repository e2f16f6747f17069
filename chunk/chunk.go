package chunk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spachava753/msgexport/export"
)

// DefaultMaxTokens is the per-chunk token budget when none is given.
const DefaultMaxTokens = 30000

const (
	titlePrefix = "💬 MESSAGE CONVERSATION"
	totalPrefix = "📊 Total Messages:"
)

// Options bound the size of each chunk.
type Options struct {
	// MaxTokens closes a chunk before the estimated token count would exceed
	// it. Zero means DefaultMaxTokens.
	MaxTokens int
	// MaxMessages optionally caps messages per chunk. Zero means unlimited.
	MaxMessages int
}

// Chunk is one size-bounded slice of a transcript.
type Chunk struct {
	Lines    []string
	Messages int
}

// EstimateTokens approximates the token count of text. One token is roughly
// four characters of English.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// IsMessageLine reports whether a transcript line is a numbered message line
// rather than header material: it starts with a digit and carries a
// bracketed timestamp.
func IsMessageLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || line[0] < '0' || line[0] > '9' {
		return false
	}
	return strings.Contains(line, "[") && strings.Contains(line, "]")
}

// Split partitions transcript lines into chunks. Header lines are carried
// into the first chunk whole and into later chunks minus the title line;
// messages are packed greedily until the token budget or message cap would
// be exceeded.
func Split(lines []string, opts Options) []Chunk {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var messageLines, headerLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			// Blank separators are re-inserted on output.
		case IsMessageLine(line):
			messageLines = append(messageLines, line)
		default:
			headerLines = append(headerLines, line)
		}
	}

	var chunks []Chunk
	var current []string
	tokens := 0
	messages := 0

	if len(headerLines) > 0 {
		current = append(current, headerLines...)
		current = append(current, "")
	}

	for _, line := range messageLines {
		lineTokens := EstimateTokens(line)

		overBudget := tokens+lineTokens > maxTokens && len(current) > 0
		overCap := opts.MaxMessages > 0 && messages >= opts.MaxMessages
		if overBudget || overCap {
			chunks = append(chunks, Chunk{Lines: current, Messages: messages})
			current = nil
			tokens = 0
			messages = 0
			if len(headerLines) > 1 {
				// Later chunks repeat the header minus its title.
				current = append(current, headerLines[1:]...)
				current = append(current, "")
			}
		}

		current = append(current, line, "")
		tokens += lineTokens
		messages++
	}

	if len(current) > 0 {
		chunks = append(chunks, Chunk{Lines: current, Messages: messages})
	}
	return chunks
}

// WriteFiles writes each chunk next to the input file as
// <base>_chunk_NN_of_MM_<stamp>.txt, rewriting the header so the title and
// message tally name the chunk's position. Returns the written paths in
// chunk order.
func WriteFiles(inputPath string, chunks []Chunk, stamp time.Time) ([]string, error) {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	suffix := stamp.Format(export.StampLayout)

	paths := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		path := fmt.Sprintf("%s_chunk_%02d_of_%02d_%s.txt", base, i+1, len(chunks), suffix)
		rewritten := rewriteHeader(chunk, i+1, len(chunks))
		if err := os.WriteFile(path, []byte(strings.Join(rewritten, "\n")), 0o644); err != nil {
			return nil, fmt.Errorf("chunk: writing %s failed: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func rewriteHeader(chunk Chunk, index, total int) []string {
	rewritten := make([]string, 0, len(chunk.Lines))
	for _, line := range chunk.Lines {
		switch {
		case strings.HasPrefix(line, totalPrefix):
			rewritten = append(rewritten, fmt.Sprintf("%s %d (Chunk %d of %d)", totalPrefix, chunk.Messages, index, total))
		case strings.HasPrefix(line, titlePrefix):
			rewritten = append(rewritten, fmt.Sprintf("%s (Chunk %d of %d)", titlePrefix, index, total))
		default:
			rewritten = append(rewritten, line)
		}
	}
	return rewritten
}

// SummaryLines builds the batch summary report from the in-memory chunks and
// the paths they were written to.
func SummaryLines(inputPath string, paths []string, chunks []Chunk) []string {
	lines := []string{
		"📋 BATCH SUMMARY",
		strings.Repeat("=", 60),
		fmt.Sprintf("📄 Original File: %s", inputPath),
		fmt.Sprintf("📊 Total Chunks: %d", len(chunks)),
		"",
		"📁 Generated Files:",
		strings.Repeat("-", 30),
	}

	totalMessages := 0
	totalTokens := 0
	for i, chunk := range chunks {
		tokens := EstimateTokens(strings.Join(chunk.Lines, "\n"))
		lines = append(lines,
			fmt.Sprintf("  📄 %s", filepath.Base(paths[i])),
			fmt.Sprintf("     Messages: %d", chunk.Messages),
			fmt.Sprintf("     Tokens: ~%d", tokens),
			"")
		totalMessages += chunk.Messages
		totalTokens += tokens
	}

	lines = append(lines,
		"📊 TOTAL:",
		fmt.Sprintf("  Messages: %d", totalMessages),
		fmt.Sprintf("  Tokens: ~%d", totalTokens),
		"",
		"💡 Usage Tips:",
		"  - Process chunks sequentially for chronological order",
		"  - Use chunk numbers to maintain conversation flow",
	)
	return lines
}

// WriteSummary writes the batch summary next to the input file.
func WriteSummary(inputPath string, paths []string, chunks []Chunk, stamp time.Time) (string, error) {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	path := fmt.Sprintf("%s_batch_summary_%s.txt", base, stamp.Format(export.StampLayout))

	lines := SummaryLines(inputPath, paths, chunks)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("chunk: writing %s failed: %w", path, err)
	}
	return path, nil
}

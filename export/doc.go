// Package export turns raw message rows into rendered conversation
// transcripts.
//
// The pipeline is: BuildTranscript (per-row text recovery, silent drop on
// miss) → SortChronological (stable, oldest first) → RenderSimple /
// RenderDetailed / RenderSummary → WriteAll, plus WriteMbox for a
// mailbox-importable rendition. File naming takes the run timestamp as an
// explicit parameter; nothing in this package reads the clock.
package export

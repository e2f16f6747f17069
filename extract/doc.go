// Package extract recovers human-readable message text from the legacy
// attributedBody archive blobs stored in the local Messages database.
//
// The blob is an opaque serialized object graph with no public decoder, so
// recovery is deliberately heuristic: the blob's textual byte form is scanned
// with an ordered list of patterns (text after the string-type marker, then
// any long printable run, then word-like runs), candidates that look like
// structural metadata are rejected via a configurable denylist, and the
// survivor is cleaned of residual artifacts. Absence of recoverable text is a
// normal outcome, never an error.
//
// Exported API
//
//   - RecoverText(plainText, archive)
//     Entry point for one message: trusts a non-blank plain-text column,
//     falls back to matching the archive blob, cleans either way.
//   - MatchArchiveText(body)
//     Pattern matcher over the blob's textual form.
//   - CleanText(candidate)
//     Artifact cleaner; idempotent.
//   - New(rules) / RejectRules / DefaultRejectRules()
//     Extractor with a custom denylist of structural markers.
//
// All functions are pure: no I/O, no shared state, deterministic for a given
// input.
package extract

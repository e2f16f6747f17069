// Package chunk splits exported conversation transcripts into size-bounded
// pieces that fit a model context window.
//
// Lines are classified as message lines (numbered, bracketed timestamp) or
// header lines; messages are batched greedily against a token budget
// (estimated at four characters per token), each chunk re-carries the header
// with its title and tally rewritten, and a batch summary reports per-chunk
// counts.
package chunk

// Package mailbox moves exported conversation transcripts into email
// infrastructure: Upload appends an mbox transcript to an IMAP folder so the
// history becomes searchable alongside mail, and Send delivers a transcript
// file to a recipient over SMTP.
//
// Both operations authenticate with SASL PLAIN and fail fast; there is no
// retry or partial-progress state.
package mailbox

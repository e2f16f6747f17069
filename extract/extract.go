package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// stringMarker is the serialized string-type marker that usually sits right
// before the message body inside an archived attributedBody blob.
const stringMarker = "NSString"

// printableClass matches one readable character as it appears in the textual
// form of an archive blob.
const printableClass = `[A-Za-z0-9\s.,!?@#$%^&*()_+\-=\[\]{}|;:"'<>?/~` + "`" + `]`

// RejectRules is the denylist applied to matcher candidates. The markers were
// discovered empirically from real archive blobs; extend the lists rather than
// the algorithm when new ones surface.
type RejectRules struct {
	// MinLen discards candidates at or below this length.
	MinLen int
	// Prefixes are structural markers; a candidate starting with any of them
	// is never message text.
	Prefixes []string
	// FoldedSubstrings reject a candidate when contained, compared
	// case-insensitively.
	FoldedSubstrings []string
	// Substrings reject a candidate when contained verbatim.
	Substrings []string
}

// DefaultRejectRules returns the known structural markers of the archive
// format: the framework namespace prefix, the class and variable sigils, the
// null literal, the stream format name, and the mutable-container type
// fragment.
func DefaultRejectRules() RejectRules {
	return RejectRules{
		MinLen:           7,
		Prefixes:         []string{"NS", "class", "$", "null"},
		FoldedSubstrings: []string{"streamtyped"},
		Substrings:       []string{"utableData"},
	}
}

// Extractor recovers readable message text from archive blobs using an
// ordered list of patterns and a reject denylist. The zero value is not
// usable; construct with [New].
type Extractor struct {
	rules    RejectRules
	patterns []*regexp.Regexp
}

// New compiles the candidate patterns and returns an extractor using the
// given reject rules.
func New(rules RejectRules) *Extractor {
	return &Extractor{
		rules: rules,
		patterns: []*regexp.Regexp{
			// Text right after the string-type marker.
			regexp.MustCompile(stringMarker + `.*?(` + printableClass + `{8,})`),
			// Any sufficiently long printable run.
			regexp.MustCompile(`(` + printableClass + `{10,})`),
			// Word-like runs: words separated by whitespace.
			regexp.MustCompile(`([A-Za-z]{4,}\s+[A-Za-z\s]{4,})`),
		},
	}
}

var defaultExtractor = New(DefaultRejectRules())

// RecoverText runs [Extractor.Recover] with the default reject rules.
func RecoverText(plainText string, archive []byte) string {
	return defaultExtractor.Recover(plainText, archive)
}

// MatchArchiveText runs [Extractor.MatchArchiveText] with the default reject
// rules.
func MatchArchiveText(body string) string {
	return defaultExtractor.MatchArchiveText(body)
}

// CleanText runs [Extractor.Clean] with the default reject rules.
func CleanText(candidate string) string {
	return defaultExtractor.Clean(candidate)
}

// Recover decides which source of text to trust for one message: a non-blank
// plain-text column is used as-is, otherwise the archive blob goes through
// the matcher. Either way the candidate is cleaned. An empty result means the
// message has no recoverable text; that is a normal outcome, not an error.
func (e *Extractor) Recover(plainText string, archive []byte) string {
	candidate := ""
	if strings.TrimSpace(plainText) != "" {
		candidate = plainText
	} else if len(archive) > 0 {
		candidate = e.MatchArchiveText(string(archive))
	}
	if candidate == "" {
		return ""
	}
	return e.Clean(candidate)
}

// MatchArchiveText locates an embedded human-readable substring in the
// textual form of an archive blob. Patterns are tried strictly in order,
// loosest last, and each pattern's matches are visited in order of
// appearance; the first candidate passing the reject rules wins. Returns ""
// when nothing acceptable is found.
func (e *Extractor) MatchArchiveText(body string) string {
	if body == "" {
		return ""
	}
	for _, pattern := range e.patterns {
		for _, match := range pattern.FindAllStringSubmatch(body, -1) {
			candidate := match[0]
			if len(match) > 1 {
				candidate = match[1]
			}
			if !e.rejected(candidate) {
				return candidate
			}
		}
	}
	return ""
}

var (
	// Hex byte-offset prefix with a trailing marker, e.g. "x2b40+".
	markedHexPrefix = regexp.MustCompile(`^x?[0-9a-f]+[+#]`)
	// Bare hex-prefix run. Requires a leading x or at least one digit so
	// ordinary words that happen to be hex-alphabetic survive.
	bareHexPrefix = regexp.MustCompile(`^(?:x[0-9a-f]+|[0-9a-f]*[0-9][0-9a-f]*)`)
	// Archive class-description fragments embedded mid-string.
	classNameFragment  = regexp.MustCompile(`'\(\)\*Z\$classnameX\$classes[^']*`)
	classTableFragment = regexp.MustCompile(`'-\./4:>\?[^']*`)
)

// Clean strips residual structural noise from a candidate: leading hex
// offset prefixes, embedded binary-marker substrings, surrounding
// whitespace. Stripping repeats until the string stops changing, so Clean is
// idempotent. Returns "" when the remainder is a truncation artifact (one or
// two bare letters) or shorter than three characters.
func (e *Extractor) Clean(candidate string) string {
	cleaned := candidate
	for {
		next := e.scrub(cleaned)
		if next == cleaned {
			break
		}
		cleaned = next
	}
	if len(cleaned) <= 2 && isAlphabetic(cleaned) {
		return ""
	}
	if len(cleaned) < 3 {
		return ""
	}
	return cleaned
}

func (e *Extractor) scrub(s string) string {
	s = markedHexPrefix.ReplaceAllString(s, "")
	s = bareHexPrefix.ReplaceAllString(s, "")
	s = classNameFragment.ReplaceAllString(s, "")
	s = classTableFragment.ReplaceAllString(s, "")
	for _, marker := range e.rules.FoldedSubstrings {
		s = strings.ReplaceAll(s, marker, "")
	}
	for _, marker := range e.rules.Substrings {
		s = strings.ReplaceAll(s, marker, "")
	}
	return strings.TrimSpace(s)
}

func (e *Extractor) rejected(candidate string) bool {
	if len(candidate) <= e.rules.MinLen {
		return true
	}
	if allControl(candidate) {
		return true
	}
	for _, prefix := range e.rules.Prefixes {
		if strings.HasPrefix(candidate, prefix) {
			return true
		}
	}
	folded := strings.ToLower(candidate)
	for _, marker := range e.rules.FoldedSubstrings {
		if strings.Contains(folded, strings.ToLower(marker)) {
			return true
		}
	}
	for _, marker := range e.rules.Substrings {
		if strings.Contains(candidate, marker) {
			return true
		}
	}
	return false
}

func allControl(s string) bool {
	for _, r := range s {
		if r >= 32 {
			return false
		}
	}
	return len(s) > 0
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}

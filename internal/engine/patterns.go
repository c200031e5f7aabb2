package engine

import (
	"regexp"
	"strings"
)

// canonical transition token between start and stop timestamps
const canonicalTransition = " --> "

// patternSet is the read-only bundle of grammars for one block-oriented
// format: how timestamps look, what a cue metadata line is, which lines
// open a comment block inside a separator, and what may serve as a cue
// identifier. It is built once when a document is bound to a format and
// never mutated afterwards.
type patternSet struct {
	format Format

	// timestamp is the lenient grammar used for navigation and parsing.
	timestamp *regexp.Regexp
	// strict is the fixed-width grammar Validate holds final files to.
	// It is intentionally narrower than timestamp: edits in progress may
	// carry loose clock text that a finished file must not.
	strict *regexp.Regexp
	// transition matches any spelling of the start/stop separator token.
	transition *regexp.Regexp
	// tsLine matches a whole cue metadata line, anchored at its start.
	tsLine *regexp.Regexp
	// comment matches a line opening a metadata/comment block inside a
	// separator; the block runs to the next blank line. Nil if the
	// format has none.
	comment *regexp.Regexp

	// identifier reports whether line may serve as a cue identifier
	// line. Nil for timestamp-identified formats, whose identifier is
	// the start timestamp itself.
	identifier func(line string) bool
	// numericID marks formats whose identifiers are a renumberable
	// index.
	numericID bool

	parse  func(s string) (int, error)
	render func(ms int) string
}

func vttPatterns() *patternSet {
	timestamp := regexp.MustCompile(`(\d+:)?\d+:\d+\.\d+`)
	transition := regexp.MustCompile(`[ \t]*-+>[ \t]*`)
	return &patternSet{
		format:     FormatVTT,
		timestamp:  timestamp,
		strict:     regexp.MustCompile(`\d{2}(:\d{2})?:\d{2}(\.\d{0,3})?`),
		transition: transition,
		tsLine: regexp.MustCompile(
			`^` + timestamp.String() + transition.String() + timestamp.String(),
		),
		comment: regexp.MustCompile(`^(NOTE|STYLE|REGION)\b`),
		// a cue identifier is any single non-blank line that is not
		// itself a timestamp transition
		identifier: func(line string) bool {
			return strings.TrimSpace(line) != "" &&
				!strings.Contains(line, "-->")
		},
		parse:  parseVTTTimestamp,
		render: formatVTTTimestamp,
	}
}

func srtPatterns() *patternSet {
	timestamp := regexp.MustCompile(`(\d+:)?\d+:\d+,\d+`)
	transition := regexp.MustCompile(`[ \t]*-+>[ \t]*`)
	numeric := regexp.MustCompile(`^[0-9]+$`)
	return &patternSet{
		format:     FormatSRT,
		timestamp:  timestamp,
		strict:     regexp.MustCompile(`\d{2}:\d{2}:\d{2},\d{3}`),
		transition: transition,
		tsLine: regexp.MustCompile(
			`^` + timestamp.String() + transition.String() + timestamp.String(),
		),
		identifier: func(line string) bool {
			return numeric.MatchString(strings.TrimSpace(line))
		},
		numericID: true,
		parse:     parseSRTTimestamp,
		render:    formatSRTTimestamp,
	}
}

package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"subcue/internal/document"
)

// represents supported subtitle formats
type Format string

const (
	FormatVTT Format = "vtt"
	FormatSRT Format = "srt"
	FormatASS Format = "ass"
)

// ErrNotFound reports that a navigation search did not locate the
// requested structural element. It is never fatal; callers branch on it.
var ErrNotFound = errors.New("not found")

// ErrNotATimestamp reports that a string does not match the format's
// timestamp grammar.
var ErrNotATimestamp = errors.New("not a timestamp")

// line roles reported by Validate
const (
	RoleStartTime = "start time"
	RoleSeparator = "time separator"
	RoleStopTime  = "stop time"
)

// MalformedError is a structural grammar violation found by Validate. It
// carries the role of the failing token and the offending line verbatim,
// trailing newline stripped.
type MalformedError struct {
	Role string
	Line string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("invalid %s in line %q", e.Role, e.Line)
}

// PreconditionError reports an edit requested against an impossible
// state, such as merging when there is no following cue. It aborts only
// the requested operation.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// Engine is the single operation contract every subtitle format
// implements over a shared document. Positions are byte offsets into the
// document text. Navigation operations move the document point on
// success and leave it where it was on failure; editing operations are
// atomic and roll the document back if they fail partway.
type Engine interface {
	Format() Format
	Doc() *document.Document

	// timestamp codec
	ParseTimestamp(s string) (int, error)
	FormatTimestamp(ms int) string

	// cursor navigation
	LocateCueIdentifier(id string) (int, error)
	NextCueIdentifier() (int, error)
	PreviousCueIdentifier() (int, error)
	LocateStartTime(id string) (int, error)
	LocateStopTime(id string) (int, error)
	LocateTextStart(id string) (int, error)
	LocateTextEnd(id string) (int, error)
	CueAtTime(ms int) (string, error)

	// structural editing
	MakeCueText(start, stop int, text string) string
	PrependCue(beforeID string, start, stop int, text string) (int, error)
	AppendCue(afterID string, start, stop int, text string) (int, error)
	MergeWithNext() error
	SetStartTime(ms int) error
	SetStopTime(ms int) error
	ShiftTime(deltaMS int) error
	ShiftAll(deltaMS int) error
	DeleteCue() error
	CueCount() int

	// whole-document passes
	Sanitize() error
	Validate() error
}

// DefaultStop asks MakeCueText and the insertion operations to derive
// the stop time from the start time and the default cue length.
const DefaultStop = -1

// Options tunes an engine; the zero value selects the defaults.
type Options struct {
	// DefaultCueLengthMS is the stop-minus-start span given to cues
	// inserted without an explicit stop time. Defaults to 1000.
	DefaultCueLengthMS int
}

// New binds an engine for the given format to doc. The document is
// owned by the engine's editing session from here on.
func New(doc *document.Document, format Format) (Engine, error) {
	return NewWithOptions(doc, format, Options{})
}

func NewWithOptions(doc *document.Document, format Format, opts Options) (Engine, error) {
	length := opts.DefaultCueLengthMS
	if length <= 0 {
		length = 1000
	}
	switch format {
	case FormatVTT:
		return newBlockEngine(doc, vttPatterns(), length), nil
	case FormatSRT:
		return newBlockEngine(doc, srtPatterns(), length), nil
	case FormatASS:
		return newASSEngine(doc, length), nil
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", format)
	}
}

// Detect maps a file path to its subtitle format by extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".vtt":
		return FormatVTT, nil
	case ".srt":
		return FormatSRT, nil
	case ".ass", ".ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %q", ext)
	}
}

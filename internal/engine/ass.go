package engine

import (
	"fmt"
	"regexp"
	"strings"

	"subcue/internal/document"
)

// assEngine serves the dialogue-line format: every cue is a single
// `Dialogue:` event line inside the [Events] section, identified by its
// start timestamp. Separators are plain newlines, texts join with \N,
// and the clock carries centiseconds.
type assEngine struct {
	doc              *document.Document
	defaultCueLength int
}

var (
	assTimestamp = regexp.MustCompile(`\d+:\d+:\d+\.\d+`)
	assStrict    = regexp.MustCompile(`\d:\d{2}:\d{2}\.\d{2}`)
)

const dialoguePrefix = "Dialogue:"

func newASSEngine(doc *document.Document, defaultCueLength int) *assEngine {
	return &assEngine{doc: doc, defaultCueLength: defaultCueLength}
}

func (e *assEngine) Format() Format          { return FormatASS }
func (e *assEngine) Doc() *document.Document { return e.doc }

func (e *assEngine) ParseTimestamp(s string) (int, error) {
	return parseASSTimestamp(s)
}

func (e *assEngine) FormatTimestamp(ms int) string {
	return formatASSTimestamp(ms)
}

// line helpers shared with the block engine's shape

func (e *assEngine) nextLineStart(ls int) int {
	return e.doc.LineEnd(ls) + 1
}

func (e *assEngine) prevLineStart(ls int) int {
	if ls <= 0 {
		return -1
	}
	return e.doc.LineStart(ls - 1)
}

func (e *assEngine) dialogueAt(ls int) bool {
	return strings.HasPrefix(strings.TrimLeft(e.doc.Line(ls), " \t"), dialoguePrefix)
}

func (e *assEngine) backwardDialogue(pos int) (int, bool) {
	ls := e.doc.LineStart(pos)
	for {
		if e.dialogueAt(ls) {
			return ls, true
		}
		p := e.prevLineStart(ls)
		if p < 0 {
			return 0, false
		}
		ls = p
	}
}

func (e *assEngine) forwardDialogue(pos int) (int, bool) {
	for ls := e.doc.LineStart(pos); ls < e.doc.Len(); ls = e.nextLineStart(ls) {
		if e.dialogueAt(ls) {
			return ls, true
		}
	}
	return 0, false
}

func (e *assEngine) dialogueAfter(ls int) (int, bool) {
	n := e.nextLineStart(ls)
	if n >= e.doc.Len() {
		return 0, false
	}
	return e.forwardDialogue(n)
}

func (e *assEngine) dialogueBefore(ls int) (int, bool) {
	p := e.prevLineStart(ls)
	if p < 0 {
		return 0, false
	}
	return e.backwardDialogue(p)
}

func (e *assEngine) dialogues() []int {
	var out []int
	ls, ok := e.forwardDialogue(0)
	for ok {
		out = append(out, ls)
		ls, ok = e.dialogueAfter(ls)
	}
	return out
}

func (e *assEngine) idText(ls int) string {
	return assTimestamp.FindString(e.doc.Line(ls))
}

// tsRanges locates the start and stop timestamp spans on the event
// line, separated by a comma rather than a transition token.
func (e *assEngine) tsRanges(ls int) (start, stop [2]int, ok bool) {
	line := e.doc.Line(ls)
	m1 := assTimestamp.FindStringIndex(line)
	if m1 == nil {
		return
	}
	m2 := assTimestamp.FindStringIndex(line[m1[1]:])
	if m2 == nil {
		return
	}
	start = [2]int{ls + m1[0], ls + m1[1]}
	stop = [2]int{ls + m1[1] + m2[0], ls + m1[1] + m2[1]}
	return start, stop, true
}

func (e *assEngine) startMS(ls int) (int, error) {
	r, _, ok := e.tsRanges(ls)
	if !ok {
		return 0, fmt.Errorf("start time: %w", ErrNotFound)
	}
	return parseASSTimestamp(e.doc.Slice(r[0], r[1]))
}

func (e *assEngine) stopMS(ls int) (int, error) {
	_, r, ok := e.tsRanges(ls)
	if !ok {
		return 0, fmt.Errorf("stop time: %w", ErrNotFound)
	}
	return parseASSTimestamp(e.doc.Slice(r[0], r[1]))
}

func (e *assEngine) setStart(ls, ms int) error {
	r, _, ok := e.tsRanges(ls)
	if !ok {
		return fmt.Errorf("start time: %w", ErrNotFound)
	}
	e.doc.Replace(r[0], r[1], formatASSTimestamp(ms))
	return nil
}

func (e *assEngine) setStop(ls, ms int) error {
	_, r, ok := e.tsRanges(ls)
	if !ok {
		return fmt.Errorf("stop time: %w", ErrNotFound)
	}
	e.doc.Replace(r[0], r[1], formatASSTimestamp(ms))
	return nil
}

// textStart is the offset after the ninth comma of the event line; the
// text field is everything from there to the end of the line.
func (e *assEngine) textStart(ls int) int {
	line := e.doc.Line(ls)
	i := strings.Index(line, ":")
	if i < 0 {
		return e.doc.LineEnd(ls)
	}
	commas := 0
	for j := i + 1; j < len(line); j++ {
		if line[j] == ',' {
			commas++
			if commas == 9 {
				return ls + j + 1
			}
		}
	}
	return e.doc.LineEnd(ls)
}

func (e *assEngine) textEnd(ls int) int {
	return e.doc.LineEnd(ls)
}

// navigation contract

func (e *assEngine) LocateCueIdentifier(id string) (int, error) {
	if id == "" {
		ls, ok := e.backwardDialogue(e.doc.Point())
		if !ok {
			return 0, fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.doc.SetPoint(ls), nil
	}
	for _, ls := range e.dialogues() {
		if e.idText(ls) == id {
			return e.doc.SetPoint(ls), nil
		}
	}
	return 0, fmt.Errorf("cue %q: %w", id, ErrNotFound)
}

func (e *assEngine) NextCueIdentifier() (int, error) {
	var next int
	var ok bool
	if ls, have := e.backwardDialogue(e.doc.Point()); have {
		next, ok = e.dialogueAfter(ls)
	} else {
		next, ok = e.forwardDialogue(e.doc.Point())
	}
	if !ok {
		return 0, fmt.Errorf("no next cue: %w", ErrNotFound)
	}
	return e.doc.SetPoint(next), nil
}

func (e *assEngine) PreviousCueIdentifier() (int, error) {
	ls, ok := e.backwardDialogue(e.doc.Point())
	if !ok {
		return 0, fmt.Errorf("no previous cue: %w", ErrNotFound)
	}
	prev, ok := e.dialogueBefore(ls)
	if !ok {
		return 0, fmt.Errorf("no previous cue: %w", ErrNotFound)
	}
	return e.doc.SetPoint(prev), nil
}

func (e *assEngine) resolve(id string) (int, error) {
	if _, err := e.LocateCueIdentifier(id); err != nil {
		return 0, err
	}
	ls, ok := e.backwardDialogue(e.doc.Point())
	if !ok {
		return 0, fmt.Errorf("no enclosing cue: %w", ErrNotFound)
	}
	return ls, nil
}

func (e *assEngine) LocateStartTime(id string) (int, error) {
	origin := e.doc.Point()
	ls, err := e.resolve(id)
	if err != nil {
		return 0, err
	}
	r, _, ok := e.tsRanges(ls)
	if !ok {
		e.doc.SetPoint(origin)
		return 0, fmt.Errorf("start time: %w", ErrNotFound)
	}
	return e.doc.SetPoint(r[0]), nil
}

func (e *assEngine) LocateStopTime(id string) (int, error) {
	origin := e.doc.Point()
	ls, err := e.resolve(id)
	if err != nil {
		return 0, err
	}
	_, r, ok := e.tsRanges(ls)
	if !ok {
		e.doc.SetPoint(origin)
		return 0, fmt.Errorf("stop time: %w", ErrNotFound)
	}
	return e.doc.SetPoint(r[0]), nil
}

func (e *assEngine) LocateTextStart(id string) (int, error) {
	ls, err := e.resolve(id)
	if err != nil {
		return 0, err
	}
	return e.doc.SetPoint(e.textStart(ls)), nil
}

func (e *assEngine) LocateTextEnd(id string) (int, error) {
	ls, err := e.resolve(id)
	if err != nil {
		return 0, err
	}
	return e.doc.SetPoint(e.textEnd(ls)), nil
}

func (e *assEngine) CueAtTime(ms int) (string, error) {
	cand := -1
	for _, ls := range e.dialogues() {
		st, err := e.startMS(ls)
		if err != nil {
			continue
		}
		if st > ms {
			break
		}
		cand = ls
	}
	if cand >= 0 {
		if sp, err := e.stopMS(cand); err == nil && sp >= ms {
			e.doc.SetPoint(cand)
			return e.idText(cand), nil
		}
	}
	return "", fmt.Errorf("no cue at %dms: %w", ms, ErrNotFound)
}

// structural editing contract

func (e *assEngine) MakeCueText(start, stop int, text string) string {
	if start < 0 {
		start = 0
	}
	if stop < 0 {
		stop = start + e.defaultCueLength
	}
	return fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
		formatASSTimestamp(start),
		formatASSTimestamp(stop),
		strings.ReplaceAll(text, "\n", `\N`))
}

func (e *assEngine) insertCueAt(pos, start, stop int, text string) (int, error) {
	s := e.MakeCueText(start, stop, text)
	e.doc.Insert(pos, s)
	escaped := strings.ReplaceAll(text, "\n", `\N`)
	return e.doc.SetPoint(pos + len(s) - len(escaped) - 1), nil
}

func (e *assEngine) PrependCue(beforeID string, start, stop int, text string) (int, error) {
	pos := 0
	err := e.doc.Atomic(func() error {
		ls, err := e.resolve(beforeID)
		if err != nil {
			return err
		}
		pos, err = e.insertCueAt(ls, start, stop, text)
		return err
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

func (e *assEngine) AppendCue(afterID string, start, stop int, text string) (int, error) {
	pos := 0
	err := e.doc.Atomic(func() error {
		ls, err := e.resolve(afterID)
		if err != nil {
			return err
		}
		if next, ok := e.dialogueAfter(ls); ok {
			pos, err = e.insertCueAt(next, start, stop, text)
			return err
		}
		// event lines abut directly; only the line terminator is needed
		if n := trailingNewlines(e.doc.String()); n == 0 && e.doc.Len() > 0 {
			e.doc.Insert(e.doc.Len(), "\n")
		}
		pos, err = e.insertCueAt(e.doc.Len(), start, stop, text)
		return err
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

func (e *assEngine) MergeWithNext() error {
	return e.doc.Atomic(func() error {
		ls, ok := e.backwardDialogue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		next, ok := e.dialogueAfter(ls)
		if !ok {
			return &PreconditionError{Reason: "no subtitle to merge into"}
		}
		stop, err := e.stopMS(next)
		if err != nil {
			return err
		}
		te := e.textEnd(ls)
		nts := e.textStart(next)
		e.doc.Delete(te, nts)
		if te > e.textStart(ls) {
			e.doc.Insert(te, `\N`)
		}
		if err := e.setStop(ls, stop); err != nil {
			return err
		}
		e.doc.SetPoint(ls)
		return nil
	})
}

func (e *assEngine) SetStartTime(ms int) error {
	return e.doc.Atomic(func() error {
		ls, ok := e.backwardDialogue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.setStart(ls, ms)
	})
}

func (e *assEngine) SetStopTime(ms int) error {
	return e.doc.Atomic(func() error {
		ls, ok := e.backwardDialogue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.setStop(ls, ms)
	})
}

func (e *assEngine) shiftDialogue(ls, deltaMS int) error {
	st, err := e.startMS(ls)
	if err != nil {
		return err
	}
	sp, err := e.stopMS(ls)
	if err != nil {
		return err
	}
	if err := e.setStop(ls, clampMS(sp+deltaMS)); err != nil {
		return err
	}
	return e.setStart(ls, clampMS(st+deltaMS))
}

func (e *assEngine) ShiftTime(deltaMS int) error {
	return e.doc.Atomic(func() error {
		ls, ok := e.backwardDialogue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.shiftDialogue(ls, deltaMS)
	})
}

func (e *assEngine) ShiftAll(deltaMS int) error {
	return e.doc.Atomic(func() error {
		ds := e.dialogues()
		for i := len(ds) - 1; i >= 0; i-- {
			if err := e.shiftDialogue(ds[i], deltaMS); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *assEngine) DeleteCue() error {
	return e.doc.Atomic(func() error {
		ls, ok := e.backwardDialogue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		end := e.doc.LineEnd(ls)
		if end < e.doc.Len() {
			end++
		}
		e.doc.Delete(ls, end)
		e.doc.SetPoint(ls)
		return nil
	})
}

func (e *assEngine) CueCount() int {
	return len(e.dialogues())
}

// Sanitize for event lines: whitespace trimmed, no leading blank
// lines, no blank lines between adjacent events, one trailing newline.
func (e *assEngine) Sanitize() error {
	return e.doc.Atomic(func() error {
		point := e.doc.Point()
		lines := strings.Split(e.doc.String(), "\n")
		for i, l := range lines {
			lines[i] = strings.Trim(l, " \t")
		}
		var out []string
		for i, l := range lines {
			if l == "" && betweenDialogues(lines, i) {
				continue
			}
			out = append(out, l)
		}
		text := strings.Join(out, "\n")
		text = strings.TrimLeft(text, "\n")
		if strings.TrimSpace(text) == "" {
			text = ""
		} else {
			text = strings.TrimRight(text, "\n") + "\n"
		}
		if text != e.doc.String() {
			e.doc.SetText(text)
		}
		e.doc.SetPoint(point)
		return nil
	})
}

// betweenDialogues reports whether the blank line at i separates two
// Dialogue events, in which case it is dropped.
func betweenDialogues(lines []string, i int) bool {
	prev, next := "", ""
	for j := i - 1; j >= 0; j-- {
		if lines[j] != "" {
			prev = lines[j]
			break
		}
	}
	for j := i + 1; j < len(lines); j++ {
		if lines[j] != "" {
			next = lines[j]
			break
		}
	}
	return strings.HasPrefix(prev, dialoguePrefix) &&
		strings.HasPrefix(next, dialoguePrefix)
}

// Validate holds every event line's clocks to the strict centisecond
// grammar and the comma that separates them.
func (e *assEngine) Validate() error {
	for ls := 0; ls < e.doc.Len(); ls = e.nextLineStart(ls) {
		if !e.dialogueAt(ls) {
			continue
		}
		line := e.doc.Line(ls)
		if role, ok := checkDialogueLine(line); !ok {
			e.doc.SetPoint(ls)
			return &MalformedError{Role: role, Line: line}
		}
	}
	return nil
}

func checkDialogueLine(line string) (string, bool) {
	m1 := assTimestamp.FindStringIndex(line)
	if m1 == nil {
		return RoleStartTime, false
	}
	s1 := line[m1[0]:m1[1]]
	if assStrict.FindString(s1) != s1 {
		return RoleStartTime, false
	}
	rest := line[m1[1]:]
	if !strings.HasPrefix(rest, ",") {
		return RoleSeparator, false
	}
	m2 := assTimestamp.FindStringIndex(rest)
	if m2 == nil || m2[0] != 1 {
		return RoleStopTime, false
	}
	s2 := rest[m2[0]:m2[1]]
	if assStrict.FindString(s2) != s2 {
		return RoleStopTime, false
	}
	return "", true
}

package engine

import (
	"fmt"
	"strconv"
	"strings"

	"subcue/internal/document"
)

// blockEngine serves the block-oriented formats: cues are multi-line
// blocks separated by blank lines, with either an index line (SRT) or
// the start timestamp itself (VTT) as the cue identifier. All behavior
// that differs between the two lives in the patternSet.
type blockEngine struct {
	doc              *document.Document
	ps               *patternSet
	defaultCueLength int
}

func newBlockEngine(doc *document.Document, ps *patternSet, defaultCueLength int) *blockEngine {
	return &blockEngine{doc: doc, ps: ps, defaultCueLength: defaultCueLength}
}

func (e *blockEngine) Format() Format                { return e.ps.format }
func (e *blockEngine) Doc() *document.Document       { return e.doc }
func (e *blockEngine) FormatTimestamp(ms int) string { return e.ps.render(ms) }

func (e *blockEngine) ParseTimestamp(s string) (int, error) {
	return e.ps.parse(s)
}

// cueSpan is the transient result of locating a cue in the text. It is
// discarded as soon as the operation using it returns; nothing outlives
// the scan that produced it.
type cueSpan struct {
	begin  int // first line of the block, identifier line included
	idpos  int // where LocateCueIdentifier positions
	tsline int // start of the timestamp line
}

// line helpers

func (e *blockEngine) nextLineStart(ls int) int {
	return e.doc.LineEnd(ls) + 1
}

func (e *blockEngine) prevLineStart(ls int) int {
	if ls <= 0 {
		return -1
	}
	return e.doc.LineStart(ls - 1)
}

func (e *blockEngine) blankAt(ls int) bool {
	return strings.TrimSpace(e.doc.Line(ls)) == ""
}

// cueStartAt reports whether a cue block begins on the line at ls.
func (e *blockEngine) cueStartAt(ls int) (cueSpan, bool) {
	line := e.doc.Line(ls)
	if e.ps.numericID {
		if e.ps.identifier(line) {
			n := e.nextLineStart(ls)
			if n < e.doc.Len() && e.ps.tsLine.MatchString(e.doc.Line(n)) {
				return cueSpan{begin: ls, idpos: ls, tsline: n}, true
			}
		}
		return cueSpan{}, false
	}
	if e.ps.tsLine.MatchString(line) {
		return cueSpan{begin: e.cueBegin(ls), idpos: ls, tsline: ls}, true
	}
	if e.ps.identifier != nil && e.ps.identifier(line) {
		n := e.nextLineStart(ls)
		if n < e.doc.Len() && e.ps.tsLine.MatchString(e.doc.Line(n)) {
			return cueSpan{begin: ls, idpos: n, tsline: n}, true
		}
	}
	return cueSpan{}, false
}

// cueBegin extends a timestamp line backward over an optional
// identifier line, so insertions and deletions treat the identifier as
// part of the block.
func (e *blockEngine) cueBegin(tsls int) int {
	p := e.prevLineStart(tsls)
	if p < 0 {
		return tsls
	}
	line := e.doc.Line(p)
	if e.ps.identifier == nil || !e.ps.identifier(line) || e.ps.tsLine.MatchString(line) {
		return tsls
	}
	pp := e.prevLineStart(p)
	if pp < 0 || e.blankAt(pp) {
		return p
	}
	return tsls
}

// forwardCue scans forward from pos for the next cue start. sep records
// whether pos is already known to sit in a separator; cue text lines
// are skipped until a blank line is crossed.
func (e *blockEngine) forwardCue(pos int, sep bool) (cueSpan, bool) {
	ls := e.doc.LineStart(pos)
	if ls == 0 {
		sep = true
	}
	for ls < e.doc.Len() {
		if e.blankAt(ls) {
			sep = true
			ls = e.nextLineStart(ls)
			continue
		}
		if sep {
			if e.ps.comment != nil && e.ps.comment.MatchString(e.doc.Line(ls)) {
				for ls < e.doc.Len() && !e.blankAt(ls) {
					ls = e.nextLineStart(ls)
				}
				continue
			}
			if c, ok := e.cueStartAt(ls); ok {
				return c, true
			}
		}
		sep = false
		ls = e.nextLineStart(ls)
	}
	return cueSpan{}, false
}

// backwardCue finds the innermost cue enclosing pos: skip any blank-line
// run, then take the nearest cue start at or above.
func (e *blockEngine) backwardCue(pos int) (cueSpan, bool) {
	ls := e.doc.LineStart(pos)
	for ls > 0 && e.blankAt(ls) {
		p := e.prevLineStart(ls)
		if p < 0 {
			break
		}
		ls = p
	}
	for {
		if c, ok := e.cueStartAt(ls); ok {
			return c, true
		}
		p := e.prevLineStart(ls)
		if p < 0 {
			return cueSpan{}, false
		}
		ls = p
	}
}

func (e *blockEngine) firstCue() (cueSpan, bool) {
	return e.forwardCue(0, true)
}

func (e *blockEngine) cueAfter(c cueSpan) (cueSpan, bool) {
	n := e.nextLineStart(c.tsline)
	if n >= e.doc.Len() {
		return cueSpan{}, false
	}
	return e.forwardCue(n, false)
}

func (e *blockEngine) cueBefore(c cueSpan) (cueSpan, bool) {
	p := e.prevLineStart(c.begin)
	if p < 0 {
		return cueSpan{}, false
	}
	return e.backwardCue(p)
}

func (e *blockEngine) cues() []cueSpan {
	var out []cueSpan
	for c, ok := e.firstCue(); ok; c, ok = e.cueAfter(c) {
		out = append(out, c)
	}
	return out
}

// idText returns the cue's identifier as written in the text.
func (e *blockEngine) idText(c cueSpan) string {
	if e.ps.numericID {
		return strings.TrimSpace(e.doc.Line(c.idpos))
	}
	return e.ps.timestamp.FindString(e.doc.Line(c.tsline))
}

// tsRanges locates the start and stop timestamp spans on the cue's
// metadata line, as absolute document offsets.
func (e *blockEngine) tsRanges(c cueSpan) (start, stop [2]int, ok bool) {
	line := e.doc.Line(c.tsline)
	m1 := e.ps.timestamp.FindStringIndex(line)
	if m1 == nil {
		return
	}
	tr := e.ps.transition.FindStringIndex(line[m1[1]:])
	if tr == nil {
		return
	}
	m2 := e.ps.timestamp.FindStringIndex(line[m1[1]+tr[1]:])
	if m2 == nil {
		return
	}
	base := c.tsline
	start = [2]int{base + m1[0], base + m1[1]}
	off := base + m1[1] + tr[1]
	stop = [2]int{off + m2[0], off + m2[1]}
	return start, stop, true
}

func (e *blockEngine) startMS(c cueSpan) (int, error) {
	r, _, ok := e.tsRanges(c)
	if !ok {
		return 0, fmt.Errorf("start time: %w", ErrNotFound)
	}
	return e.ps.parse(e.doc.Slice(r[0], r[1]))
}

func (e *blockEngine) stopMS(c cueSpan) (int, error) {
	_, r, ok := e.tsRanges(c)
	if !ok {
		return 0, fmt.Errorf("stop time: %w", ErrNotFound)
	}
	return e.ps.parse(e.doc.Slice(r[0], r[1]))
}

func (e *blockEngine) setStart(c cueSpan, ms int) error {
	r, _, ok := e.tsRanges(c)
	if !ok {
		return fmt.Errorf("start time: %w", ErrNotFound)
	}
	e.doc.Replace(r[0], r[1], e.ps.render(ms))
	return nil
}

func (e *blockEngine) setStop(c cueSpan, ms int) error {
	_, r, ok := e.tsRanges(c)
	if !ok {
		return fmt.Errorf("stop time: %w", ErrNotFound)
	}
	e.doc.Replace(r[0], r[1], e.ps.render(ms))
	return nil
}

// textStart is the offset immediately after the cue's metadata lines.
func (e *blockEngine) textStart(c cueSpan) int {
	le := e.doc.LineEnd(c.tsline)
	if le >= e.doc.Len() {
		return e.doc.Len()
	}
	return le + 1
}

// textEnd is the offset at which the cue's text stops: the end of the
// last non-blank line before the next separator, or textStart itself
// when the cue has no text (the blank line after the metadata belongs
// to the separator, not the cue).
func (e *blockEngine) textEnd(c cueSpan) int {
	pos := e.textStart(c)
	for ls := pos; ls < e.doc.Len(); ls = e.nextLineStart(ls) {
		if e.blankAt(ls) {
			break
		}
		pos = e.doc.LineEnd(ls)
	}
	return pos
}

// navigation contract

func (e *blockEngine) LocateCueIdentifier(id string) (int, error) {
	if id == "" {
		c, ok := e.backwardCue(e.doc.Point())
		if !ok {
			return 0, fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.doc.SetPoint(c.idpos), nil
	}
	for c, ok := e.firstCue(); ok; c, ok = e.cueAfter(c) {
		if e.idText(c) == id {
			return e.doc.SetPoint(c.idpos), nil
		}
		if c.begin != c.tsline && strings.TrimSpace(e.doc.Line(c.begin)) == id {
			return e.doc.SetPoint(c.begin), nil
		}
	}
	return 0, fmt.Errorf("cue %q: %w", id, ErrNotFound)
}

func (e *blockEngine) NextCueIdentifier() (int, error) {
	var next cueSpan
	var ok bool
	if c, have := e.backwardCue(e.doc.Point()); have {
		next, ok = e.cueAfter(c)
	} else {
		next, ok = e.forwardCue(e.doc.Point(), false)
	}
	if !ok {
		return 0, fmt.Errorf("no next cue: %w", ErrNotFound)
	}
	return e.doc.SetPoint(next.idpos), nil
}

func (e *blockEngine) PreviousCueIdentifier() (int, error) {
	c, ok := e.backwardCue(e.doc.Point())
	if !ok {
		return 0, fmt.Errorf("no previous cue: %w", ErrNotFound)
	}
	prev, ok := e.cueBefore(c)
	if !ok {
		return 0, fmt.Errorf("no previous cue: %w", ErrNotFound)
	}
	return e.doc.SetPoint(prev.idpos), nil
}

// resolveCue positions on the requested cue (current when id is empty)
// and returns its span, restoring the point when the cue cannot be
// found.
func (e *blockEngine) resolveCue(id string) (cueSpan, error) {
	if _, err := e.LocateCueIdentifier(id); err != nil {
		return cueSpan{}, err
	}
	c, ok := e.backwardCue(e.doc.Point())
	if !ok {
		return cueSpan{}, fmt.Errorf("no enclosing cue: %w", ErrNotFound)
	}
	return c, nil
}

func (e *blockEngine) LocateStartTime(id string) (int, error) {
	origin := e.doc.Point()
	c, err := e.resolveCue(id)
	if err != nil {
		return 0, err
	}
	r, _, ok := e.tsRanges(c)
	if !ok {
		e.doc.SetPoint(origin)
		return 0, fmt.Errorf("start time: %w", ErrNotFound)
	}
	return e.doc.SetPoint(r[0]), nil
}

func (e *blockEngine) LocateStopTime(id string) (int, error) {
	origin := e.doc.Point()
	c, err := e.resolveCue(id)
	if err != nil {
		return 0, err
	}
	_, r, ok := e.tsRanges(c)
	if !ok {
		e.doc.SetPoint(origin)
		return 0, fmt.Errorf("stop time: %w", ErrNotFound)
	}
	return e.doc.SetPoint(r[0]), nil
}

func (e *blockEngine) LocateTextStart(id string) (int, error) {
	c, err := e.resolveCue(id)
	if err != nil {
		return 0, err
	}
	return e.doc.SetPoint(e.textStart(c)), nil
}

func (e *blockEngine) LocateTextEnd(id string) (int, error) {
	c, err := e.resolveCue(id)
	if err != nil {
		return 0, err
	}
	return e.doc.SetPoint(e.textEnd(c)), nil
}

func (e *blockEngine) CueAtTime(ms int) (string, error) {
	c, ok := e.cueNear(ms)
	var cand cueSpan
	found := false
	for ok {
		st, err := e.startMS(c)
		if err == nil {
			if st > ms {
				break
			}
			cand, found = c, true
		}
		c, ok = e.cueAfter(c)
	}
	if found {
		if sp, err := e.stopMS(cand); err == nil && sp >= ms {
			e.doc.SetPoint(cand.idpos)
			return e.idText(cand), nil
		}
	}
	return "", fmt.Errorf("no cue at %dms: %w", ms, ErrNotFound)
}

// cueNear narrows the scan for CueAtTime. For the timestamp-identified
// format the canonical clock text of ms gives hour and minute prefixes
// to jump to directly; one cue of slack is kept so a span straddling
// the region boundary is still seen. Index-identified cues carry no
// such prefix, so the scan starts at the first cue.
func (e *blockEngine) cueNear(ms int) (cueSpan, bool) {
	if e.ps.numericID {
		return e.firstCue()
	}
	canon := e.ps.render(ms)
	pos := 0
	text := e.doc.String()
	if i := indexLinePrefix(text, canon[:3]); i >= 0 {
		pos = i
		if j := indexLinePrefix(text[i:], canon[:6]); j >= 0 {
			pos = i + j
		}
	}
	if pos == 0 {
		return e.firstCue()
	}
	c, ok := e.backwardCue(pos)
	if !ok {
		return e.forwardCue(pos, false)
	}
	if pc, ok2 := e.cueBefore(c); ok2 {
		return pc, true
	}
	return c, true
}

func indexLinePrefix(s, prefix string) int {
	if strings.HasPrefix(s, prefix) {
		return 0
	}
	if i := strings.Index(s, "\n"+prefix); i >= 0 {
		return i + 1
	}
	return -1
}

// structural editing contract

func (e *blockEngine) MakeCueText(start, stop int, text string) string {
	if start < 0 {
		start = 0
	}
	if stop < 0 {
		stop = start + e.defaultCueLength
	}
	meta := e.ps.render(start) + canonicalTransition + e.ps.render(stop)
	if e.ps.numericID {
		return "0\n" + meta + "\n" + text + "\n"
	}
	return meta + "\n" + text + "\n"
}

// insertCueAt splices a synthesized cue in front of the cue block
// starting at pos and leaves the point at the new cue's text start.
func (e *blockEngine) insertCueAt(pos, start, stop int, text string) (int, error) {
	s := e.MakeCueText(start, stop, text)
	e.doc.Insert(pos, s)
	after := pos + len(s)
	// the new block must not abut the following metadata without a
	// blank line between them
	if after < e.doc.Len() && e.doc.String()[after] != '\n' && !strings.HasSuffix(s, "\n\n") {
		e.doc.Insert(after, "\n")
	}
	if e.ps.numericID {
		n := 1
		for c, ok := e.firstCue(); ok && c.begin < pos; c, ok = e.cueAfter(c) {
			n++
		}
		e.regenerateIdentifiers()
		if _, err := e.LocateCueIdentifier(strconv.Itoa(n)); err != nil {
			return 0, err
		}
		return e.LocateTextStart("")
	}
	ts := pos + len(s) - len(text) - 1
	return e.doc.SetPoint(ts), nil
}

func (e *blockEngine) PrependCue(beforeID string, start, stop int, text string) (int, error) {
	pos := 0
	err := e.doc.Atomic(func() error {
		c, err := e.resolveCue(beforeID)
		if err != nil {
			return err
		}
		pos, err = e.insertCueAt(c.begin, start, stop, text)
		return err
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

func (e *blockEngine) AppendCue(afterID string, start, stop int, text string) (int, error) {
	pos := 0
	err := e.doc.Atomic(func() error {
		c, err := e.resolveCue(afterID)
		if err != nil {
			return err
		}
		if nc, ok := e.cueAfter(c); ok {
			pos, err = e.insertCueAt(nc.begin, start, stop, text)
			return err
		}
		// appending after the last cue: rebuild the trailing gap as
		// exactly one blank line, keeping any metadata blocks in it
		te := e.textEnd(c)
		tail := e.doc.Slice(te, e.doc.Len())
		s := e.MakeCueText(start, stop, text)
		e.doc.Replace(te, e.doc.Len(), e.canonicalGap(te, tail)+s)
		if e.ps.numericID {
			n := e.CueCount()
			e.regenerateIdentifiers()
			if _, err := e.LocateCueIdentifier(strconv.Itoa(n)); err != nil {
				return err
			}
			pos, err = e.LocateTextStart("")
			return err
		}
		pos = e.doc.SetPoint(e.doc.Len() - len(text) - 1)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

func trailingNewlines(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\n'; i-- {
		n++
	}
	return n
}

func (e *blockEngine) MergeWithNext() error {
	return e.doc.Atomic(func() error {
		c, ok := e.backwardCue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		nc, ok := e.cueAfter(c)
		if !ok {
			return &PreconditionError{Reason: "no subtitle to merge into"}
		}
		stop, err := e.stopMS(nc)
		if err != nil {
			return err
		}
		ts := e.textStart(c)
		te := e.textEnd(c)
		nts := e.textStart(nc)
		e.doc.Delete(te, nts)
		if te > ts {
			// join the two texts with a single line break; with no
			// first text the second stands alone
			e.doc.Insert(te, "\n")
		}
		if err := e.setStop(c, stop); err != nil {
			return err
		}
		if e.ps.numericID {
			e.regenerateIdentifiers()
		}
		e.doc.SetPoint(c.idpos)
		return nil
	})
}

func (e *blockEngine) SetStartTime(ms int) error {
	return e.doc.Atomic(func() error {
		c, ok := e.backwardCue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.setStart(c, ms)
	})
}

func (e *blockEngine) SetStopTime(ms int) error {
	return e.doc.Atomic(func() error {
		c, ok := e.backwardCue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.setStop(c, ms)
	})
}

func (e *blockEngine) shiftCue(c cueSpan, deltaMS int) error {
	st, err := e.startMS(c)
	if err != nil {
		return err
	}
	sp, err := e.stopMS(c)
	if err != nil {
		return err
	}
	// the stop span sits after the start span on the same line, so it
	// is rewritten first to keep the start offsets valid
	if err := e.setStop(c, clampMS(sp+deltaMS)); err != nil {
		return err
	}
	return e.setStart(c, clampMS(st+deltaMS))
}

func clampMS(ms int) int {
	if ms < 0 {
		return 0
	}
	return ms
}

func (e *blockEngine) ShiftTime(deltaMS int) error {
	return e.doc.Atomic(func() error {
		c, ok := e.backwardCue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		return e.shiftCue(c, deltaMS)
	})
}

func (e *blockEngine) ShiftAll(deltaMS int) error {
	return e.doc.Atomic(func() error {
		cues := e.cues()
		for i := len(cues) - 1; i >= 0; i-- {
			if err := e.shiftCue(cues[i], deltaMS); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *blockEngine) DeleteCue() error {
	return e.doc.Atomic(func() error {
		c, ok := e.backwardCue(e.doc.Point())
		if !ok {
			return fmt.Errorf("no enclosing cue: %w", ErrNotFound)
		}
		if nc, ok := e.cueAfter(c); ok {
			e.doc.Delete(c.begin, nc.begin)
			e.doc.SetPoint(c.begin)
		} else if pc, ok := e.cueBefore(c); ok {
			te := e.textEnd(pc)
			e.doc.Delete(te, e.doc.Len())
			e.doc.Insert(e.doc.Len(), "\n")
			e.doc.SetPoint(e.doc.Len())
		} else {
			e.doc.Delete(c.begin, e.doc.Len())
			e.doc.SetPoint(c.begin)
		}
		if e.ps.numericID {
			e.regenerateIdentifiers()
		}
		return nil
	})
}

func (e *blockEngine) CueCount() int {
	return len(e.cues())
}

// regenerateIdentifiers renumbers index lines 1..N in document order.
// Rewrites run back to front so earlier offsets stay valid.
func (e *blockEngine) regenerateIdentifiers() {
	cues := e.cues()
	for i := len(cues) - 1; i >= 0; i-- {
		ls := cues[i].idpos
		want := strconv.Itoa(i + 1)
		if e.doc.Line(ls) != want {
			e.doc.Replace(ls, e.doc.LineEnd(ls), want)
		}
	}
}

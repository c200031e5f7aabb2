package engine

import "strings"

// Sanitize normalizes the document to canonical form: per-line
// whitespace trimmed, no leading blank lines, every inter-cue gap
// collapsed to one blank line (metadata blocks inside the gap are kept,
// each followed by a blank line), transition tokens rewritten to
// " --> ", and the trailing newlines fixed. The whole pass is one
// change group; a failure leaves the document untouched. Running it
// twice changes nothing the second time.
func (e *blockEngine) Sanitize() error {
	return e.doc.Atomic(func() error {
		point := e.doc.Point()
		e.trimLines()
		e.trimLeading()
		e.normalizeTransitions()
		e.collapseSeparators()
		e.trimTrailing()
		if e.ps.numericID {
			e.regenerateIdentifiers()
		}
		e.doc.SetPoint(point)
		return nil
	})
}

func (e *blockEngine) trimLines() {
	lines := strings.Split(e.doc.String(), "\n")
	changed := false
	for i, l := range lines {
		t := strings.Trim(l, " \t")
		if t != l {
			lines[i] = t
			changed = true
		}
	}
	if changed {
		e.doc.SetText(strings.Join(lines, "\n"))
	}
}

func (e *blockEngine) trimLeading() {
	text := e.doc.String()
	if t := strings.TrimLeft(text, "\n"); t != text {
		e.doc.SetText(t)
	}
}

func (e *blockEngine) normalizeTransitions() {
	cues := e.cues()
	for i := len(cues) - 1; i >= 0; i-- {
		c := cues[i]
		line := e.doc.Line(c.tsline)
		m1 := e.ps.timestamp.FindStringIndex(line)
		if m1 == nil {
			continue
		}
		tr := e.ps.transition.FindStringIndex(line[m1[1]:])
		if tr == nil {
			continue
		}
		lo := c.tsline + m1[1] + tr[0]
		hi := c.tsline + m1[1] + tr[1]
		if e.doc.Slice(lo, hi) != canonicalTransition {
			e.doc.Replace(lo, hi, canonicalTransition)
		}
	}
}

// splitBlocks returns the runs of non-blank lines inside an inter-cue
// gap: comment/metadata blocks, but also any stray content, which is
// preserved rather than silently dropped.
func splitBlocks(gap string) []string {
	var blocks []string
	var cur []string
	for _, l := range strings.Split(gap, "\n") {
		if strings.TrimSpace(l) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

func (e *blockEngine) collapseSeparators() {
	cues := e.cues()
	for i := len(cues) - 1; i >= 1; i-- {
		te := e.textEnd(cues[i-1])
		gap := e.doc.Slice(te, cues[i].begin)
		want := e.canonicalGap(te, gap)
		if gap != want {
			e.doc.Replace(te, cues[i].begin, want)
		}
	}
}

// canonicalGap rebuilds an inter-cue gap: exactly one blank line, with
// each preserved block followed by its own blank line. When the
// preceding cue has no text, te already sits at a line start and the
// blank line needs only a single newline.
func (e *blockEngine) canonicalGap(te int, gap string) string {
	base := "\n\n"
	if te == 0 || e.doc.String()[te-1] == '\n' {
		base = "\n"
	}
	out := base
	for _, b := range splitBlocks(gap) {
		out += b + "\n\n"
	}
	return out
}

func (e *blockEngine) trimTrailing() {
	text := e.doc.String()
	if strings.TrimSpace(text) == "" {
		if text != "" {
			e.doc.SetText("")
		}
		return
	}
	cues := e.cues()
	if len(cues) == 0 {
		if t := strings.TrimRight(text, "\n") + "\n"; t != text {
			e.doc.SetText(t)
		}
		return
	}
	te := e.textEnd(cues[len(cues)-1])
	tail := e.doc.Slice(te, e.doc.Len())
	blocks := splitBlocks(tail)
	var want string
	if len(blocks) == 0 {
		want = "\n"
	} else {
		want = e.canonicalGap(te, "") + strings.Join(blocks, "\n\n") + "\n"
	}
	if tail != want {
		e.doc.Replace(te, e.doc.Len(), want)
	}
}

// Validate scans top to bottom and reports the first line whose cue
// metadata deviates from the strict grammar. Candidate lines are picked
// with the lenient timestamp pattern, then held to the fixed-width one:
// clock text an edit in progress may carry is not acceptable in a
// finished file. The scan stops at the first violation and leaves the
// point on the offending line; a clean document leaves the point alone.
func (e *blockEngine) Validate() error {
	for ls := 0; ls < e.doc.Len(); ls = e.nextLineStart(ls) {
		line := e.doc.Line(ls)
		loc := e.ps.timestamp.FindStringIndex(line)
		if loc == nil || loc[0] != 0 {
			continue
		}
		if role, ok := e.checkCueLine(line); !ok {
			e.doc.SetPoint(ls)
			return &MalformedError{Role: role, Line: line}
		}
	}
	return nil
}

func (e *blockEngine) checkCueLine(line string) (string, bool) {
	m := e.ps.strict.FindStringIndex(line)
	if m == nil || m[0] != 0 {
		return RoleStartTime, false
	}
	rest := line[m[1]:]
	if !strings.HasPrefix(rest, canonicalTransition) {
		return RoleSeparator, false
	}
	rest = rest[len(canonicalTransition):]
	m = e.ps.strict.FindStringIndex(rest)
	if m == nil || m[0] != 0 {
		return RoleStopTime, false
	}
	return "", true
}

package document

// Document is the text of an open subtitle file together with the point,
// the offset at which the next relative operation acts. The text is the
// only representation of the subtitles; there is no parsed structure kept
// alongside it.
type Document struct {
	text  string
	point int
}

func New(text string) *Document {
	return &Document{text: text}
}

func (d *Document) String() string {
	return d.text
}

func (d *Document) Len() int {
	return len(d.text)
}

func (d *Document) Point() int {
	return d.point
}

// SetPoint moves the point, clamping it into [0, Len()].
func (d *Document) SetPoint(pos int) int {
	d.point = d.clamp(pos)
	return d.point
}

func (d *Document) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(d.text) {
		return len(d.text)
	}
	return pos
}

// Slice returns the text between start and end, clamped to the document.
func (d *Document) Slice(start, end int) string {
	start = d.clamp(start)
	end = d.clamp(end)
	if end < start {
		start, end = end, start
	}
	return d.text[start:end]
}

// Insert splices s into the text at pos. The point is not moved unless it
// falls beyond the end of the document afterwards.
func (d *Document) Insert(pos int, s string) {
	pos = d.clamp(pos)
	d.text = d.text[:pos] + s + d.text[pos:]
}

// Delete removes the text between start and end.
func (d *Document) Delete(start, end int) {
	start = d.clamp(start)
	end = d.clamp(end)
	if end < start {
		start, end = end, start
	}
	d.text = d.text[:start] + d.text[end:]
	d.point = d.clamp(d.point)
}

// Replace substitutes the text between start and end with s.
func (d *Document) Replace(start, end int, s string) {
	d.Delete(start, end)
	d.Insert(d.clamp(start), s)
}

// SetText replaces the whole document text.
func (d *Document) SetText(text string) {
	d.text = text
	d.point = d.clamp(d.point)
}

// LineStart returns the offset of the first character of the line
// containing pos.
func (d *Document) LineStart(pos int) int {
	pos = d.clamp(pos)
	for pos > 0 && d.text[pos-1] != '\n' {
		pos--
	}
	return pos
}

// LineEnd returns the offset of the newline ending the line containing
// pos, or Len() if the last line is unterminated.
func (d *Document) LineEnd(pos int) int {
	pos = d.clamp(pos)
	for pos < len(d.text) && d.text[pos] != '\n' {
		pos++
	}
	return pos
}

// Line returns the content of the line containing pos, without the
// trailing newline.
func (d *Document) Line(pos int) string {
	return d.text[d.LineStart(pos):d.LineEnd(pos)]
}

// Atomic runs fn as a single change group. If fn returns an error or
// panics, the text and point are restored to their state at entry, so a
// failed multi-step edit never leaves the document partially mutated.
// Groups nest; an inner rollback only undoes the inner group.
func (d *Document) Atomic(fn func() error) error {
	text, point := d.text, d.point
	defer func() {
		if r := recover(); r != nil {
			d.text, d.point = text, point
			panic(r)
		}
	}()
	if err := fn(); err != nil {
		d.text, d.point = text, point
		return err
	}
	return nil
}

package engine

import (
	"errors"
	"strings"
	"testing"
)

const assHeader = "[Script Info]\nTitle: Test\n\n[Events]\n" +
	"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n"

const assTwoCues = assHeader +
	"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello\n" +
	"Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,World\n"

func TestASSLocateCueIdentifier(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)
	doc := eng.Doc()

	second := strings.Index(assTwoCues, "Dialogue: 0,0:00:03.00")
	pos, err := eng.LocateCueIdentifier("0:00:03.00")
	if err != nil || pos != second {
		t.Fatalf("pos %d, err %v, want %d", pos, err, second)
	}

	doc.SetPoint(strings.Index(assTwoCues, "Hello"))
	first := strings.Index(assTwoCues, "Dialogue:")
	if pos, err = eng.LocateCueIdentifier(""); err != nil || pos != first {
		t.Fatalf("current cue: pos %d, err %v, want %d", pos, err, first)
	}

	if _, err = eng.LocateCueIdentifier("9:59:59.99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestASSNextPreviousCue(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)

	first := strings.Index(assTwoCues, "Dialogue:")
	second := strings.Index(assTwoCues, "Dialogue: 0,0:00:03.00")

	pos, err := eng.NextCueIdentifier()
	if err != nil || pos != first {
		t.Fatalf("next from header: pos %d, err %v, want %d", pos, err, first)
	}
	pos, err = eng.NextCueIdentifier()
	if err != nil || pos != second {
		t.Fatalf("next: pos %d, err %v, want %d", pos, err, second)
	}
	if _, err = eng.NextCueIdentifier(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound past last cue, got %v", err)
	}
	pos, err = eng.PreviousCueIdentifier()
	if err != nil || pos != first {
		t.Fatalf("previous: pos %d, err %v, want %d", pos, err, first)
	}
}

func TestASSLocateText(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)

	hello := strings.Index(assTwoCues, "Hello")
	pos, err := eng.LocateTextStart("0:00:01.00")
	if err != nil || pos != hello {
		t.Fatalf("text start: pos %d, err %v, want %d", pos, err, hello)
	}
	if pos, err = eng.LocateTextEnd(""); err != nil || pos != hello+len("Hello") {
		t.Fatalf("text end: pos %d, err %v", pos, err)
	}
}

func TestASSCueAtTime(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)

	id, err := eng.CueAtTime(1500)
	if err != nil || id != "0:00:01.00" {
		t.Errorf("CueAtTime(1500) = %q, %v", id, err)
	}
	if _, err = eng.CueAtTime(2500); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestASSMakeCueText(t *testing.T) {
	eng := mustEngine(t, FormatASS, "")

	want := "Dialogue: 0,0:00:02.00,0:00:03.50,Default,,0,0,0,,Hi there\n"
	if got := eng.MakeCueText(2000, 3500, "Hi there"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// multi-line text collapses to a soft break on the event line
	want = "Dialogue: 0,0:00:02.00,0:00:03.00,Default,,0,0,0,,one\\Ntwo\n"
	if got := eng.MakeCueText(2000, DefaultStop, "one\ntwo"); got != want {
		t.Errorf("multi-line: got %q, want %q", got, want)
	}
}

func TestASSPrependAppend(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)

	pos, err := eng.PrependCue("0:00:03.00", 2200, 2800, "Mid")
	if err != nil {
		t.Fatal(err)
	}
	if got := eng.Doc().Slice(pos, pos+3); got != "Mid" {
		t.Errorf("point not at new text: %q", got)
	}
	want := assHeader +
		"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello\n" +
		"Dialogue: 0,0:00:02.20,0:00:02.80,Default,,0,0,0,,Mid\n" +
		"Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,World\n"
	if got := eng.Doc().String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}

	if _, err = eng.AppendCue("0:00:03.00", 5000, 6000, "New"); err != nil {
		t.Fatal(err)
	}
	want += "Dialogue: 0,0:00:05.00,0:00:06.00,Default,,0,0,0,,New\n"
	if got := eng.Doc().String(); got != want {
		t.Errorf("append: got:\n%q\nwant:\n%q", got, want)
	}
}

func TestASSMergeWithNext(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)
	eng.Doc().SetPoint(strings.Index(assTwoCues, "Hello"))

	if err := eng.MergeWithNext(); err != nil {
		t.Fatal(err)
	}
	want := assHeader +
		"Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Hello\\NWorld\n"
	if got := eng.Doc().String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}

	err := eng.MergeWithNext()
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
}

func TestASSDeleteCue(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)
	eng.Doc().SetPoint(strings.Index(assTwoCues, "Hello"))

	if err := eng.DeleteCue(); err != nil {
		t.Fatal(err)
	}
	want := assHeader +
		"Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,World\n"
	if got := eng.Doc().String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
	if got := eng.CueCount(); got != 1 {
		t.Errorf("count %d", got)
	}
}

func TestASSShiftAll(t *testing.T) {
	eng := mustEngine(t, FormatASS, assTwoCues)

	if err := eng.ShiftAll(500); err != nil {
		t.Fatal(err)
	}
	want := assHeader +
		"Dialogue: 0,0:00:01.50,0:00:02.50,Default,,0,0,0,,Hello\n" +
		"Dialogue: 0,0:00:03.50,0:00:04.50,Default,,0,0,0,,World\n"
	if got := eng.Doc().String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestASSSanitize(t *testing.T) {
	text := "[Script Info]\nTitle: Test\n\n[Events]\n" +
		"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n" +
		"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello  \n\n\n" +
		"Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,World\n\n"
	eng := mustEngine(t, FormatASS, text)

	if err := eng.Sanitize(); err != nil {
		t.Fatal(err)
	}
	if got := eng.Doc().String(); got != assTwoCues {
		t.Errorf("got:\n%q\nwant:\n%q", got, assTwoCues)
	}

	// the blank line between header sections survives
	if err := eng.Sanitize(); err != nil {
		t.Fatal(err)
	}
	if got := eng.Doc().String(); got != assTwoCues {
		t.Errorf("not idempotent:\n%q", got)
	}
}

func TestASSValidate(t *testing.T) {
	if err := mustEngine(t, FormatASS, assTwoCues).Validate(); err != nil {
		t.Fatalf("clean document: %v", err)
	}

	eng := mustEngine(t, FormatASS,
		assHeader+"Dialogue: 0,0:00:1.00,0:00:02.00,Default,,0,0,0,,X\n")
	err := eng.Validate()
	var mal *MalformedError
	if !errors.As(err, &mal) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
	if mal.Role != RoleStartTime {
		t.Errorf("role %q", mal.Role)
	}
}

package document

import "testing"

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []DocumentLine
	}{
		{"empty", "", nil},
		{"single no terminator", "abc", []DocumentLine{{"abc", LineEndingNone}}},
		{"single lf", "abc\n", []DocumentLine{{"abc", LineEndingLF}, {"", LineEndingNone}}},
		{"two lines", "a\nb", []DocumentLine{{"a", LineEndingLF}, {"b", LineEndingNone}}},
		{"crlf", "a\r\nb", []DocumentLine{{"a", LineEndingCRLF}, {"b", LineEndingNone}}},
		{"mixed", "a\r\nb\nc", []DocumentLine{{"a", LineEndingCRLF}, {"b", LineEndingLF}, {"c", LineEndingNone}}},
		{"blank middle", "a\n\nb", []DocumentLine{{"a", LineEndingLF}, {"", LineEndingLF}, {"b", LineEndingNone}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitLines(%q) produced %d lines, want %d", tt.in, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDocumentText(t *testing.T) {
	tests := []string{
		"",
		"abc",
		"a\nb",
		"a\r\nb\nc",
		"trailing\n",
		"结\n绳",
	}
	for _, text := range tests {
		d := New("test.txt", text)
		if got := d.Text(); got != text {
			t.Errorf("Text() round-trip = %q, want %q", got, text)
		}
	}
}

func TestDocumentCounts(t *testing.T) {
	d := New("test.txt", "ab\r\ncd\ne")
	if got := d.LineCount(); got != 3 {
		t.Fatalf("LineCount() = %d, want 3", got)
	}
	// "ab" + CRLF = 4, "cd" + LF = 3, "e" = 1
	if got := d.TotalChars(); got != 8 {
		t.Errorf("TotalChars() = %d, want 8", got)
	}
	if got, _ := d.LineCharCount(0); got != 4 {
		t.Errorf("LineCharCount(0) = %d, want 4", got)
	}
	if got, _ := d.CharIndexOfLine(1); got != 4 {
		t.Errorf("CharIndexOfLine(1) = %d, want 4", got)
	}
	if got, _ := d.CharIndexOfLine(2); got != 7 {
		t.Errorf("CharIndexOfLine(2) = %d, want 7", got)
	}
	if _, err := d.LineCharCount(3); err == nil {
		t.Error("LineCharCount(3) should fail")
	}
}

func TestCharIndexToPosition(t *testing.T) {
	d := New("test.txt", "ab\ncd")
	tests := []struct {
		index int
		want  Position
	}{
		{0, Position{0, 0, 0}},
		{1, Position{0, 1, 1}},
		{2, Position{0, 2, 2}}, // terminator boundary belongs to line 0
		{3, Position{1, 0, 3}},
		{5, Position{1, 2, 5}},
	}
	for _, tt := range tests {
		got, err := d.CharIndexToPosition(tt.index)
		if err != nil {
			t.Fatalf("CharIndexToPosition(%d) error: %v", tt.index, err)
		}
		if got != tt.want {
			t.Errorf("CharIndexToPosition(%d) = %+v, want %+v", tt.index, got, tt.want)
		}
	}
	if _, err := d.CharIndexToPosition(6); err == nil {
		t.Error("CharIndexToPosition(6) should fail")
	}
}

func TestPatchSingleLine(t *testing.T) {
	t.Run("replace within line", func(t *testing.T) {
		d := New("t", "hello world")
		delta := d.Patch(Range{Position{0, 6, 0}, Position{0, 11, 0}}, "go")
		if delta != 0 {
			t.Errorf("delta = %d, want 0", delta)
		}
		if got := d.Text(); got != "hello go" {
			t.Errorf("Text() = %q, want %q", got, "hello go")
		}
	})

	t.Run("insert", func(t *testing.T) {
		d := New("t", "ac")
		d.Patch(Range{Position{0, 1, 0}, Position{0, 1, 0}}, "b")
		if got := d.Text(); got != "abc" {
			t.Errorf("Text() = %q, want %q", got, "abc")
		}
	})

	t.Run("delete", func(t *testing.T) {
		d := New("t", "abc")
		d.Remove(Range{Position{0, 1, 0}, Position{0, 2, 0}})
		if got := d.Text(); got != "ac" {
			t.Errorf("Text() = %q, want %q", got, "ac")
		}
	})

	t.Run("multibyte columns splice at char boundaries", func(t *testing.T) {
		d := New("t", "结绳编程")
		d.Patch(Range{Position{0, 1, 0}, Position{0, 3, 0}}, "x")
		if got := d.Text(); got != "结x程" {
			t.Errorf("Text() = %q, want %q", got, "结x程")
		}
	})

	t.Run("newline insertion splits the line", func(t *testing.T) {
		d := New("t", "abcdef\ntail")
		delta := d.Patch(Range{Position{0, 3, 0}, Position{0, 3, 0}}, "X\nY")
		if delta != 1 {
			t.Errorf("delta = %d, want 1", delta)
		}
		if got := d.Text(); got != "abcX\nYdef\ntail" {
			t.Errorf("Text() = %q, want %q", got, "abcX\nYdef\ntail")
		}
	})
}

func TestPatchMultiLine(t *testing.T) {
	t.Run("collapse lines", func(t *testing.T) {
		d := New("t", "one\ntwo\nthree")
		delta := d.Patch(Range{Position{0, 2, 0}, Position{2, 2, 0}}, "")
		if delta != -2 {
			t.Errorf("delta = %d, want -2", delta)
		}
		if got := d.Text(); got != "onree" {
			t.Errorf("Text() = %q, want %q", got, "onree")
		}
	})

	t.Run("replace across lines", func(t *testing.T) {
		d := New("t", "one\ntwo\nthree")
		delta := d.Patch(Range{Position{0, 1, 0}, Position{2, 1, 0}}, "A\nB")
		if delta != -1 {
			t.Errorf("delta = %d, want -1", delta)
		}
		if got := d.Text(); got != "oA\nBhree" {
			t.Errorf("Text() = %q, want %q", got, "oA\nBhree")
		}
	})

	t.Run("preserves crlf on the tail line", func(t *testing.T) {
		d := New("t", "one\r\ntwo\r\nthree")
		d.Patch(Range{Position{0, 3, 0}, Position{1, 3, 0}}, "")
		if got := d.Text(); got != "one\r\nthree" {
			t.Errorf("Text() = %q, want %q", got, "one\r\nthree")
		}
	})
}

func TestPatchAppend(t *testing.T) {
	t.Run("append past last line", func(t *testing.T) {
		d := New("t", "abc")
		delta := d.Patch(Range{Position{5, 0, 0}, Position{5, 0, 0}}, "def\nghi")
		if delta != 1 {
			t.Errorf("delta = %d, want 1", delta)
		}
		if got := d.Text(); got != "abcdef\nghi" {
			t.Errorf("Text() = %q, want %q", got, "abcdef\nghi")
		}
	})

	t.Run("append to empty document", func(t *testing.T) {
		d := New("t", "")
		delta := d.Patch(Range{Position{0, 0, 0}, Position{0, 0, 0}}, "a\nb")
		if delta != 2 {
			t.Errorf("delta = %d, want 2", delta)
		}
		if got := d.Text(); got != "a\nb" {
			t.Errorf("Text() = %q, want %q", got, "a\nb")
		}
	})
}

func TestInsertValidatesPosition(t *testing.T) {
	d := New("t", "ab")
	if err := d.Insert(Position{3, 0, 0}, "x"); err == nil {
		t.Error("Insert past the last line should fail")
	}
	if err := d.Insert(Position{0, 2, 0}, "c"); err != nil {
		t.Errorf("Insert at the terminator boundary should succeed, got %v", err)
	}
	if got := d.Text(); got != "abc" {
		t.Errorf("Text() = %q, want %q", got, "abc")
	}
}

func TestPatchEditScriptRoundTrip(t *testing.T) {
	// Apply a script of edits and check the final text matches applying the
	// same edits to a plain string with standard semantics.
	d := New("t", "func main() {\n\tprintln(1)\n}\n")
	d.Patch(Range{Position{1, 9, 0}, Position{1, 10, 0}}, "42")
	d.Patch(Range{Position{0, 5, 0}, Position{0, 9, 0}}, "run")
	d.Patch(Range{Position{2, 1, 0}, Position{2, 1, 0}}, "\n// done")
	want := "func run() {\n\tprintln(42)\n}\n// done\n"
	if got := d.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

// Package document provides the line-oriented text model consumed by the
// highlight analyzers.
//
// A Document is an ordered sequence of lines, each carrying its own
// terminator, so mixed line endings survive round-trips. Positions are
// (line, column) pairs with columns measured in characters; Patch applies a
// range replacement and reports the change in line count, which is what the
// incremental analyzer needs to resize its bookkeeping.
package document

import (
	"errors"
	"strings"

	"github.com/FinalScave/SweetLine/internal/textutil"
)

// Errors returned by document operations.
var (
	ErrLineOutOfRange  = errors.New("line out of range")
	ErrIndexOutOfRange = errors.New("char index out of range")
	ErrInvalidPosition = errors.New("invalid position")
)

// Document is a line buffer identified by a URI.
type Document struct {
	uri   string
	lines []DocumentLine
}

// New creates a document from its initial text.
func New(uri, text string) *Document {
	d := &Document{uri: uri}
	d.SetText(text)
	return d
}

// URI returns the document's identifier.
func (d *Document) URI() string {
	return d.uri
}

// SetText replaces the whole document content.
func (d *Document) SetText(text string) {
	d.lines = SplitLines(text)
}

// Text reassembles the document, including per-line terminators.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, line := range d.lines {
		sb.WriteString(line.Text)
		sb.WriteString(line.Ending.Sequence())
	}
	return sb.String()
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns line i.
func (d *Document) Line(i int) (DocumentLine, error) {
	if i < 0 || i >= len(d.lines) {
		return DocumentLine{}, ErrLineOutOfRange
	}
	return d.lines[i], nil
}

// LineCharCount returns the character count of line i including its
// terminator width.
func (d *Document) LineCharCount(i int) (int, error) {
	if i < 0 || i >= len(d.lines) {
		return 0, ErrLineOutOfRange
	}
	return textutil.CountChars(d.lines[i].Text) + d.lines[i].Ending.Width(), nil
}

// TotalChars returns the character count of the whole document, terminators
// included.
func (d *Document) TotalChars() int {
	total := 0
	for _, line := range d.lines {
		total += textutil.CountChars(line.Text) + line.Ending.Width()
	}
	return total
}

// CharIndexOfLine returns the absolute character index of the first
// character of line i.
func (d *Document) CharIndexOfLine(i int) (int, error) {
	if i < 0 || i >= len(d.lines) {
		return 0, ErrLineOutOfRange
	}
	index := 0
	for l := 0; l < i; l++ {
		index += textutil.CountChars(d.lines[l].Text) + d.lines[l].Ending.Width()
	}
	return index, nil
}

// CharIndexToPosition converts an absolute character index to a position.
// An index on a line's terminator boundary belongs to that line's end.
func (d *Document) CharIndexToPosition(index int) (Position, error) {
	if index < 0 {
		return Position{}, ErrIndexOutOfRange
	}
	current := 0
	for line := range d.lines {
		chars := textutil.CountChars(d.lines[line].Text)
		if index <= current+chars {
			return Position{Line: line, Column: index - current, Index: index}, nil
		}
		current += chars + d.lines[line].Ending.Width()
	}
	return Position{}, ErrIndexOutOfRange
}

// IsValidPosition reports whether pos addresses a character slot in the
// document; the column one past the line text is valid (the terminator
// boundary).
func (d *Document) IsValidPosition(pos Position) bool {
	if pos.Line < 0 || pos.Line >= len(d.lines) {
		return false
	}
	return pos.Column >= 0 && pos.Column <= textutil.CountChars(d.lines[pos.Line].Text)
}

// Insert inserts text at a position.
func (d *Document) Insert(pos Position, text string) error {
	if !d.IsValidPosition(pos) {
		return ErrInvalidPosition
	}
	d.Patch(Range{Start: pos, End: pos}, text)
	return nil
}

// Remove deletes the text covered by a range.
func (d *Document) Remove(r Range) {
	d.Patch(r, "")
}

// Patch replaces the text covered by r with newText and returns the signed
// change in line count. A start line at or past the end of the document
// appends. Columns are clamped to line bounds.
func (d *Document) Patch(r Range, newText string) int {
	oldCount := len(d.lines)
	if r.Start.Line >= oldCount {
		d.appendText(newText)
		return len(d.lines) - oldCount
	}

	startLine := d.lines[r.Start.Line]
	endLineIdx := r.End.Line
	if endLineIdx >= oldCount {
		endLineIdx = oldCount - 1
	}
	endLine := d.lines[endLineIdx]

	prefix := startLine.Text[:textutil.CharToByte(startLine.Text, r.Start.Column)]
	suffix := endLine.Text[textutil.CharToByte(endLine.Text, r.End.Column):]
	tailEnding := endLine.Ending

	newLines := SplitLines(newText)
	var block []DocumentLine
	switch {
	case len(newLines) == 0:
		block = []DocumentLine{{Text: prefix + suffix, Ending: tailEnding}}
	case len(newLines) == 1:
		block = []DocumentLine{{Text: prefix + newLines[0].Text + suffix, Ending: tailEnding}}
	default:
		block = make([]DocumentLine, 0, len(newLines))
		block = append(block, DocumentLine{Text: prefix + newLines[0].Text, Ending: newLines[0].Ending})
		block = append(block, newLines[1:len(newLines)-1]...)
		last := newLines[len(newLines)-1]
		block = append(block, DocumentLine{Text: last.Text + suffix, Ending: tailEnding})
	}

	rebuilt := make([]DocumentLine, 0, r.Start.Line+len(block)+oldCount-endLineIdx-1)
	rebuilt = append(rebuilt, d.lines[:r.Start.Line]...)
	rebuilt = append(rebuilt, block...)
	rebuilt = append(rebuilt, d.lines[endLineIdx+1:]...)
	d.lines = rebuilt
	return len(d.lines) - oldCount
}

// appendText continues the final line with the first new line and appends
// the rest. The final line of a document never carries a terminator, so the
// merged line takes the incoming terminator.
func (d *Document) appendText(text string) {
	newLines := SplitLines(text)
	if len(newLines) == 0 {
		return
	}
	if len(d.lines) == 0 {
		d.lines = newLines
		return
	}
	last := len(d.lines) - 1
	d.lines[last].Text += newLines[0].Text
	d.lines[last].Ending = newLines[0].Ending
	d.lines = append(d.lines, newLines[1:]...)
}

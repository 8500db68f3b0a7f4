// Package highlight contains the analyzers that turn document text into
// styled token spans: a single-line analyzer driven by a compiled grammar,
// a stateless multi-line text analyzer, an incremental document analyzer,
// and the engine that owns the compiled rules and per-document analyzers.
package highlight

import (
	"encoding/json"

	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/syntax"
)

// TokenSpan is one contiguous sub-range of a line carrying one style.
type TokenSpan struct {
	// Range covers the span; both endpoints are on the span's line.
	Range document.Range `json:"range"`
	// MatchedText is the matched text for whole-match spans; empty for
	// capture-group spans. It is diagnostic and not serialized.
	MatchedText string `json:"-"`
	// StyleID is the span's style in the engine's (or rule's) mapping.
	StyleID int `json:"style_id"`
	// InlineStyle carries the resolved colors in inline-style mode.
	InlineStyle syntax.InlineStyle `json:"inline_style"`
	// State is the grammar state the span was matched in.
	State int `json:"state"`
	// GotoState is the state switch the span's token requested, or -1.
	GotoState int `json:"goto_state"`
}

// Equal reports structural equality. Absolute character indices are
// excluded: they shift with every edit on earlier lines while the span
// itself is unchanged, and the incremental stability check must not be
// fooled by that.
func (s TokenSpan) Equal(other TokenSpan) bool {
	return s.Range.Start.Line == other.Range.Start.Line &&
		s.Range.Start.Column == other.Range.Start.Column &&
		s.Range.End.Line == other.Range.End.Line &&
		s.Range.End.Column == other.Range.End.Column &&
		s.StyleID == other.StyleID &&
		s.State == other.State &&
		s.GotoState == other.GotoState
}

// LineHighlight is one line's ordered span sequence.
type LineHighlight struct {
	Spans []TokenSpan `json:"spans"`
}

// PushOrMergeSpan appends a span, extending the previous span instead when
// the two touch and share a style.
func (l *LineHighlight) PushOrMergeSpan(span TokenSpan) {
	if n := len(l.Spans); n > 0 {
		last := &l.Spans[n-1]
		if last.Range.End.Column == span.Range.Start.Column && last.StyleID == span.StyleID {
			last.Range.End.Column = span.Range.End.Column
			last.Range.End.Index = span.Range.End.Index
			return
		}
	}
	l.Spans = append(l.Spans, span)
}

// Equal reports structural equality of the span sequences.
func (l LineHighlight) Equal(other LineHighlight) bool {
	if len(l.Spans) != len(other.Spans) {
		return false
	}
	for i := range l.Spans {
		if !l.Spans[i].Equal(other.Spans[i]) {
			return false
		}
	}
	return true
}

// ToJSON serializes the line's spans.
func (l LineHighlight) ToJSON() (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DocumentHighlight is a whole document's highlight: one LineHighlight per
// document line.
type DocumentHighlight struct {
	Lines []LineHighlight `json:"lines"`
}

// AddLine appends a line's highlight.
func (d *DocumentHighlight) AddLine(line LineHighlight) {
	d.Lines = append(d.Lines, line)
}

// SpanCount returns the total span count over all lines.
func (d *DocumentHighlight) SpanCount() int {
	count := 0
	for i := range d.Lines {
		count += len(d.Lines[i].Spans)
	}
	return count
}

// Reset drops all lines.
func (d *DocumentHighlight) Reset() {
	d.Lines = d.Lines[:0]
}

// ToJSON serializes the whole highlight.
func (d DocumentHighlight) ToJSON() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Config controls what analyzers put on emitted spans.
type Config struct {
	// ShowIndex keeps absolute character indices on span endpoints
	// maintained across incremental edits.
	ShowIndex bool
	// InlineStyle resolves style ids through the grammar's own style table
	// and attaches the colors to each span.
	InlineStyle bool
}

package highlight

import (
	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/syntax"
)

// DocumentAnalyzer owns one document's highlight state: the document
// itself, the span vectors, and each line's exiting grammar state. After an
// edit it re-analyzes only the prefix of lines needed to reach a state and
// span sequence identical to what was there before.
type DocumentAnalyzer struct {
	doc        *document.Document
	rule       *syntax.SyntaxRule
	line       *LineAnalyzer
	config     Config
	highlight  *DocumentHighlight
	lineStates []int
}

// NewDocumentAnalyzer creates an analyzer bound to a document and a
// compiled rule. The rule is shared; the document is owned.
func NewDocumentAnalyzer(doc *document.Document, rule *syntax.SyntaxRule, config Config) *DocumentAnalyzer {
	return &DocumentAnalyzer{
		doc:       doc,
		rule:      rule,
		line:      NewLineAnalyzer(rule, config),
		config:    config,
		highlight: &DocumentHighlight{},
	}
}

// Document returns the analyzer's document.
func (d *DocumentAnalyzer) Document() *document.Document {
	return d.doc
}

// Highlight returns the current highlight. It is only meaningful after an
// analyze call.
func (d *DocumentAnalyzer) Highlight() *DocumentHighlight {
	return d.highlight
}

// Config returns the analyzer's configuration.
func (d *DocumentAnalyzer) Config() Config {
	return d.config
}

// LineStates returns each line's exiting state. The slice is owned by the
// analyzer.
func (d *DocumentAnalyzer) LineStates() []int {
	return d.lineStates
}

// Analyze runs a full analysis of the document.
func (d *DocumentAnalyzer) Analyze() *DocumentHighlight {
	lineCount := d.doc.LineCount()
	d.lineStates = make([]int, lineCount)
	d.highlight.Reset()

	state := syntax.DefaultStateID
	offset := 0
	for i := 0; i < lineCount; i++ {
		line, _ := d.doc.Line(i)
		result := d.line.AnalyzeLine(line.Text, LineInfo{
			Line:            i,
			StartState:      state,
			StartCharOffset: offset,
		})
		d.lineStates[i] = result.EndState
		d.highlight.AddLine(result.Highlight)
		state = result.EndState
		offset += result.CharCount + line.Ending.Width()
	}
	return d.highlight
}

// AnalyzeIncremental applies an edit to the document and re-analyzes
// forward from the edit's first line until a line's exiting state and span
// sequence both match their pre-edit values.
func (d *DocumentAnalyzer) AnalyzeIncremental(r document.Range, newText string) *DocumentHighlight {
	lineDelta := d.doc.Patch(r, newText)
	d.resizeForDelta(r, lineDelta)

	totalLines := d.doc.LineCount()
	if totalLines == 0 {
		return d.highlight
	}
	// A first edit before any full pass, or an append past the end, can
	// leave the bookkeeping out of step with the document; rebuild.
	if len(d.lineStates) != totalLines || len(d.highlight.Lines) != totalLines {
		return d.Analyze()
	}
	changeStart := r.Start.Line
	// An append past the end continues the old last line, so analysis
	// starts there.
	if oldLast := totalLines - lineDelta - 1; changeStart > oldLast {
		changeStart = oldLast
	}
	if changeStart < 0 {
		changeStart = 0
	}
	changeEnd := r.End.Line + lineDelta

	state := syntax.DefaultStateID
	if changeStart > 0 {
		state = d.lineStates[changeStart-1]
	}
	d.lineStates[changeStart] = state

	offset, _ := d.doc.CharIndexOfLine(changeStart)
	line := changeStart
	for ; line < totalLines; line++ {
		oldState := d.lineStates[line]
		docLine, _ := d.doc.Line(line)
		result := d.line.AnalyzeLine(docLine.Text, LineInfo{
			Line:            line,
			StartState:      state,
			StartCharOffset: offset,
		})
		state = result.EndState
		d.lineStates[line] = result.EndState

		// Past the edited region, an unchanged exiting state plus an
		// unchanged span sequence means every later line would come out
		// identical too.
		stable := line > changeEnd && oldState == result.EndState &&
			d.highlight.Lines[line].Equal(result.Highlight)

		d.highlight.Lines[line] = result.Highlight
		offset += result.CharCount + docLine.Ending.Width()
		if stable {
			line++
			break
		}
	}

	// Columns on the remaining lines are still right; only the absolute
	// indices shifted.
	if d.config.ShowIndex {
		for ; line < totalLines; line++ {
			spans := d.highlight.Lines[line].Spans
			for i := range spans {
				spans[i].Range.Start.Index = offset + spans[i].Range.Start.Column
				spans[i].Range.End.Index = offset + spans[i].Range.End.Column
			}
			charCount, _ := d.doc.LineCharCount(line)
			offset += charCount
		}
	}
	return d.highlight
}

// AnalyzeIncrementalByIndex is the character-index form of
// AnalyzeIncremental. The end index is clamped to the document.
func (d *DocumentAnalyzer) AnalyzeIncrementalByIndex(startIndex, endIndex int, newText string) *DocumentHighlight {
	total := d.doc.TotalChars()
	if endIndex > total {
		endIndex = total
	}
	startPos, err := d.doc.CharIndexToPosition(startIndex)
	if err != nil {
		return d.highlight
	}
	endPos, err := d.doc.CharIndexToPosition(endIndex)
	if err != nil {
		return d.highlight
	}
	return d.AnalyzeIncremental(document.Range{Start: startPos, End: endPos}, newText)
}

// AnalyzeLine re-analyzes a single line using the stored exiting state of
// the previous line. It refreshes the line's recorded exiting state but
// leaves the stored highlight untouched.
func (d *DocumentAnalyzer) AnalyzeLine(line int) (LineResult, error) {
	docLine, err := d.doc.Line(line)
	if err != nil {
		return LineResult{}, err
	}
	state := syntax.DefaultStateID
	if line > 0 && line-1 < len(d.lineStates) {
		state = d.lineStates[line-1]
	}
	offset, _ := d.doc.CharIndexOfLine(line)
	result := d.line.AnalyzeLine(docLine.Text, LineInfo{
		Line:            line,
		StartState:      state,
		StartCharOffset: offset,
	})
	if line < len(d.lineStates) {
		d.lineStates[line] = result.EndState
	}
	return result, nil
}

// resizeForDelta grows or shrinks the per-line bookkeeping to match the
// document's new line count after an edit.
func (d *DocumentAnalyzer) resizeForDelta(r document.Range, lineDelta int) {
	switch {
	case lineDelta < 0:
		from := r.End.Line + lineDelta + 1
		to := r.End.Line + 1
		if from < 0 {
			from = 0
		}
		if to > len(d.lineStates) {
			to = len(d.lineStates)
		}
		if from >= to {
			return
		}
		d.lineStates = append(d.lineStates[:from], d.lineStates[to:]...)
		d.highlight.Lines = append(d.highlight.Lines[:from], d.highlight.Lines[to:]...)
	case lineDelta > 0:
		at := r.End.Line + 1
		if at > len(d.lineStates) {
			at = len(d.lineStates)
		}
		d.lineStates = insertInts(d.lineStates, at, lineDelta)
		d.highlight.Lines = insertLines(d.highlight.Lines, at, lineDelta)
	}
}

func insertInts(s []int, at, n int) []int {
	out := make([]int, 0, len(s)+n)
	out = append(out, s[:at]...)
	out = append(out, make([]int, n)...)
	return append(out, s[at:]...)
}

func insertLines(s []LineHighlight, at, n int) []LineHighlight {
	out := make([]LineHighlight, 0, len(s)+n)
	out = append(out, s[:at]...)
	out = append(out, make([]LineHighlight, n)...)
	return append(out, s[at:]...)
}

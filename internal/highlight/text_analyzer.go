package highlight

import (
	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/syntax"
)

// TextAnalyzer is a stateless multi-line driver: it analyzes a whole piece
// of text in one pass, seeding the first line with the default state. It
// keeps nothing between calls; use a DocumentAnalyzer for incremental work.
type TextAnalyzer struct {
	line *LineAnalyzer
}

// NewTextAnalyzer creates a text analyzer over a compiled rule.
func NewTextAnalyzer(rule *syntax.SyntaxRule, config Config) *TextAnalyzer {
	return &TextAnalyzer{line: NewLineAnalyzer(rule, config)}
}

// AnalyzeText analyzes text line by line, threading the exiting state of
// each line into the next.
func (t *TextAnalyzer) AnalyzeText(text string) *DocumentHighlight {
	highlight := &DocumentHighlight{}
	state := syntax.DefaultStateID
	offset := 0
	for i, line := range document.SplitLines(text) {
		result := t.line.AnalyzeLine(line.Text, LineInfo{
			Line:            i,
			StartState:      state,
			StartCharOffset: offset,
		})
		highlight.AddLine(result.Highlight)
		state = result.EndState
		offset += result.CharCount + line.Ending.Width()
	}
	return highlight
}

// AnalyzeLine analyzes a single line with caller-supplied metadata. The
// caller threads EndState into the next call's StartState.
func (t *TextAnalyzer) AnalyzeLine(text string, info LineInfo) LineResult {
	return t.line.AnalyzeLine(text, info)
}

// Config returns the analyzer's configuration.
func (t *TextAnalyzer) Config() Config {
	return t.line.Config()
}

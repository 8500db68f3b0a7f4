package highlight

import (
	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/regex"
	"github.com/FinalScave/SweetLine/internal/syntax"
)

// LineInfo is the metadata a caller supplies when analyzing one line.
type LineInfo struct {
	// Line is the line number spans are stamped with.
	Line int
	// StartState is the grammar state entering the line.
	StartState int
	// StartCharOffset is the absolute character index of the line's first
	// character, used for span indices.
	StartCharOffset int
}

// LineResult is the outcome of analyzing one line.
type LineResult struct {
	// Highlight is the line's ordered span sequence.
	Highlight LineHighlight
	// EndState is the grammar state exiting the line, after any line-end
	// transition.
	EndState int
	// CharCount is the line's character count, terminator excluded.
	CharCount int
}

// captureGroupMatch is one capture group's contribution to a match, in
// character positions local to the analyzed text.
type captureGroupMatch struct {
	group   int
	styleID int
	start   int
	length  int
}

// matchResult is one merged-regex match mapped back to its token rule.
type matchResult struct {
	start       int
	length      int
	styleID     int
	gotoState   int
	matchedText string
	captures    []captureGroupMatch
}

// LineAnalyzer tokenizes single lines against one compiled grammar. It is
// stateless: the entering state comes in with each call.
type LineAnalyzer struct {
	rule   *syntax.SyntaxRule
	config Config
}

// NewLineAnalyzer creates a line analyzer over a compiled rule.
func NewLineAnalyzer(rule *syntax.SyntaxRule, config Config) *LineAnalyzer {
	return &LineAnalyzer{rule: rule, config: config}
}

// Config returns the analyzer's configuration.
func (a *LineAnalyzer) Config() Config {
	return a.config
}

// AnalyzeLine tokenizes one line of text. The text must not contain a line
// terminator.
func (a *LineAnalyzer) AnalyzeLine(text string, info LineInfo) LineResult {
	runes := []rune(text)
	result := LineResult{CharCount: len(runes)}

	state := info.StartState
	pos := 0
	hadZeroWidth := false
	for pos < len(runes) {
		m := a.matchAt(runes, pos, state)
		if m == nil {
			// Nothing the state recognizes here; step over one character.
			pos++
			hadZeroWidth = false
			continue
		}
		if m.length == 0 {
			// A zero-width match may switch state once; a second in a row
			// at the same position would loop forever.
			if hadZeroWidth {
				pos++
				hadZeroWidth = false
				continue
			}
			hadZeroWidth = true
		} else {
			hadZeroWidth = false
			a.emitMatch(&result.Highlight, info, state, m)
		}
		pos = m.start + m.length
		if m.gotoState >= 0 {
			state = m.gotoState
		}
	}

	if stateRule := a.rule.State(state); stateRule != nil && stateRule.LineEndState >= 0 {
		state = stateRule.LineEndState
	}
	result.EndState = state
	return result
}

// matchAt searches the state's merged regex forward from pos. Positions in
// the result are local to text. Returns nil when the state has no rule or
// nothing matches.
func (a *LineAnalyzer) matchAt(text []rune, pos int, state int) *matchResult {
	stateRule := a.rule.State(state)
	if stateRule == nil || stateRule.Regex == nil {
		return nil
	}
	m := stateRule.Regex.Search(text, pos)
	if m == nil {
		return nil
	}
	result := &matchResult{
		start:       m.Start,
		length:      m.Length,
		gotoState:   syntax.NoState,
		matchedText: string(text[m.Start : m.Start+m.Length]),
	}
	a.bindTokenRule(stateRule, m, text, result)
	return result
}

// bindTokenRule identifies the token rule whose wrapping group produced the
// match and collects its capture groups. The merged form (t0)|(t1)|…
// guarantees exactly one wrapping group participates per match.
func (a *LineAnalyzer) bindTokenRule(stateRule *syntax.StateRule, m *regex.Match, text []rune, result *matchResult) {
	for i := range stateRule.TokenRules {
		token := &stateRule.TokenRules[i]
		wrap := token.GroupOffsetStart
		if wrap >= len(m.Groups) {
			break
		}
		g := m.Groups[wrap]
		if !g.Matched || g.Start != m.Start || g.Length != m.Length {
			continue
		}
		result.styleID = token.GroupStyleID(0)
		result.gotoState = token.GotoState
		a.buildCaptureGroups(token, m, text, result)
		return
	}
}

// buildCaptureGroups fills result.captures. A sub-state on group 0 expands
// the whole match; otherwise each participating capture group contributes a
// styled capture or its own sub-state expansion.
func (a *LineAnalyzer) buildCaptureGroups(token *syntax.TokenRule, m *regex.Match, text []rune, result *matchResult) {
	if sub := token.GroupSubState(0); sub != syntax.NoState {
		a.expandSubState(text[m.Start:m.Start+m.Length], sub, m.Start, &result.captures)
		return
	}
	for group := 1; group <= token.GroupCount; group++ {
		abs := token.GroupOffsetStart + group
		if abs >= len(m.Groups) {
			break
		}
		g := m.Groups[abs]
		if !g.Matched || g.Start < m.Start || g.Start+g.Length > m.Start+m.Length {
			continue
		}
		if sub := token.GroupSubState(group); sub != syntax.NoState {
			a.expandSubState(text[g.Start:g.Start+g.Length], sub, g.Start, &result.captures)
			continue
		}
		result.captures = append(result.captures, captureGroupMatch{
			group:   group,
			styleID: token.GroupStyleID(group),
			start:   g.Start,
			length:  g.Length,
		})
	}
}

// expandSubState re-runs the analysis loop over a matched substring under
// another state and flattens what it finds into the parent's capture list.
// base shifts the substring's local positions into the parent's frame.
// Default-styled output is dropped: a sub-state expansion only contributes
// the regions its grammar actually recognizes.
func (a *LineAnalyzer) expandSubState(sub []rune, state int, base int, captures *[]captureGroupMatch) {
	pos := 0
	hadZeroWidth := false
	for pos < len(sub) {
		m := a.matchAt(sub, pos, state)
		if m == nil {
			pos++
			hadZeroWidth = false
			continue
		}
		if m.length == 0 {
			if hadZeroWidth {
				pos++
				hadZeroWidth = false
				continue
			}
			hadZeroWidth = true
		} else {
			hadZeroWidth = false
			if len(m.captures) == 0 {
				if m.styleID != syntax.DefaultStyleID {
					*captures = append(*captures, captureGroupMatch{
						styleID: m.styleID,
						start:   base + m.start,
						length:  m.length,
					})
				}
			} else {
				for _, c := range m.captures {
					if c.styleID == syntax.DefaultStyleID {
						continue
					}
					c.start += base
					*captures = append(*captures, c)
				}
			}
		}
		pos = m.start + m.length
		if m.gotoState >= 0 {
			state = m.gotoState
		}
	}
}

// emitMatch turns one match into spans on the line. A match without capture
// groups becomes a single span; otherwise each capture group becomes its
// own span.
func (a *LineAnalyzer) emitMatch(highlight *LineHighlight, info LineInfo, state int, m *matchResult) {
	if len(m.captures) == 0 {
		span := a.newSpan(info, state, m.styleID, m.start, m.length, m.gotoState)
		span.MatchedText = m.matchedText
		highlight.PushOrMergeSpan(span)
		return
	}
	for _, c := range m.captures {
		highlight.PushOrMergeSpan(a.newSpan(info, state, c.styleID, c.start, c.length, m.gotoState))
	}
}

func (a *LineAnalyzer) newSpan(info LineInfo, state, styleID, start, length, gotoState int) TokenSpan {
	span := TokenSpan{
		Range: document.Range{
			Start: document.Position{Line: info.Line, Column: start, Index: info.StartCharOffset + start},
			End:   document.Position{Line: info.Line, Column: start + length, Index: info.StartCharOffset + start + length},
		},
		StyleID:   styleID,
		State:     state,
		GotoState: gotoState,
	}
	if a.config.InlineStyle {
		if style, ok := a.rule.InlineStyles[styleID]; ok {
			span.InlineStyle = style
		}
	}
	return span
}

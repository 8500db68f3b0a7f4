package highlight

import (
	"testing"

	"github.com/FinalScave/SweetLine/internal/syntax"
)

const miniGrammar = `{
  "name": "mini",
  "fileExtensions": [".m"],
  "states": {
    "default": [
      {"pattern": "//[^\n]*", "style": "cmt"},
      {"pattern": "/\\*", "state": "block", "style": "cmt"},
      {"pattern": "\"[^\"]*\"", "style": "str"},
      {"pattern": "\\b(if|else|return)\\b", "style": "kw"},
      {"pattern": "\\b[0-9]+\\b", "style": "num"}
    ],
    "block": [
      {"pattern": "\\*/", "state": "default", "style": "cmt"},
      {"pattern": "[^*]+|\\*", "style": "cmt"}
    ]
  }
}`

// Style ids used across the highlight tests.
const (
	styleKw  = 1
	styleNum = 2
	styleStr = 3
	styleCmt = 4
)

func testMapping() *syntax.StyleMapping {
	m := syntax.NewStyleMapping()
	m.Register("kw", styleKw)
	m.Register("num", styleNum)
	m.Register("str", styleStr)
	m.Register("cmt", styleCmt)
	return m
}

func compileGrammar(t *testing.T, jsonText string) *syntax.SyntaxRule {
	t.Helper()
	rule, err := syntax.NewCompiler(testMapping(), false, nil).CompileJSON(jsonText)
	if err != nil {
		t.Fatalf("compile grammar: %v", err)
	}
	return rule
}

// spanAt is the compact shape assertions compare against.
type spanAt struct {
	startCol int
	endCol   int
	styleID  int
}

func checkSpans(t *testing.T, got LineHighlight, want []spanAt) {
	t.Helper()
	if len(got.Spans) != len(want) {
		t.Fatalf("span count = %d, want %d (%+v)", len(got.Spans), len(want), got.Spans)
	}
	for i, w := range want {
		s := got.Spans[i]
		if s.Range.Start.Column != w.startCol || s.Range.End.Column != w.endCol || s.StyleID != w.styleID {
			t.Errorf("span %d = (%d-%d style %d), want (%d-%d style %d)",
				i, s.Range.Start.Column, s.Range.End.Column, s.StyleID, w.startCol, w.endCol, w.styleID)
		}
	}
}

func TestAnalyzeLineKeywordsAndNumbers(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})
	result := a.AnalyzeLine("if 42", LineInfo{})
	checkSpans(t, result.Highlight, []spanAt{
		{0, 2, styleKw},
		{3, 5, styleNum},
	})
	if result.EndState != syntax.DefaultStateID {
		t.Errorf("EndState = %d, want default", result.EndState)
	}
	if result.CharCount != 5 {
		t.Errorf("CharCount = %d, want 5", result.CharCount)
	}
}

func TestAnalyzeLineComment(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})
	result := a.AnalyzeLine("x //y", LineInfo{})
	checkSpans(t, result.Highlight, []spanAt{{2, 5, styleCmt}})
}

func TestAnalyzeLineString(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})
	result := a.AnalyzeLine(`say "hi" twice`, LineInfo{})
	checkSpans(t, result.Highlight, []spanAt{{4, 8, styleStr}})
}

func TestAnalyzeLineStateSwitch(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})

	result := a.AnalyzeLine("a /*b", LineInfo{StartState: syntax.DefaultStateID})
	checkSpans(t, result.Highlight, []spanAt{{2, 5, styleCmt}})
	blockID := 1
	if result.EndState != blockID {
		t.Fatalf("EndState = %d, want block", result.EndState)
	}

	result = a.AnalyzeLine("c*/d", LineInfo{Line: 1, StartState: blockID})
	checkSpans(t, result.Highlight, []spanAt{{0, 3, styleCmt}})
	if result.EndState != syntax.DefaultStateID {
		t.Errorf("EndState = %d, want default", result.EndState)
	}
}

func TestAnalyzeLineAdjacentSameStyleMerge(t *testing.T) {
	rule := compileGrammar(t, `{
	  "name": "merge", "fileExtension": ".mg",
	  "states": {"default": [{"pattern": "[a-z]", "style": "kw"}]}
	}`)
	a := NewLineAnalyzer(rule, Config{})
	result := a.AnalyzeLine("abc", LineInfo{})
	checkSpans(t, result.Highlight, []spanAt{{0, 3, styleKw}})
}

func TestAnalyzeLineZeroWidthGuard(t *testing.T) {
	rule := compileGrammar(t, `{
	  "name": "zw", "fileExtension": ".zw",
	  "states": {"default": [{"pattern": "(?=x)", "style": "kw"}]}
	}`)
	a := NewLineAnalyzer(rule, Config{})
	// Must terminate; zero-width matches never emit spans.
	result := a.AnalyzeLine("xxx", LineInfo{})
	if len(result.Highlight.Spans) != 0 {
		t.Errorf("spans = %+v, want none", result.Highlight.Spans)
	}
	if result.EndState != syntax.DefaultStateID {
		t.Errorf("EndState = %d, want default", result.EndState)
	}
}

func TestAnalyzeLineZeroWidthStateSwitch(t *testing.T) {
	// A lookahead that matches empty may switch state once at a boundary.
	rule := compileGrammar(t, `{
	  "name": "zws", "fileExtension": ".zs",
	  "states": {
	    "default": [{"pattern": "(?=#)", "state": "hash", "style": "kw"}],
	    "hash": [{"pattern": "#\\w*", "style": "cmt"}]
	  }
	}`)
	a := NewLineAnalyzer(rule, Config{})
	result := a.AnalyzeLine("ab#tag", LineInfo{})
	checkSpans(t, result.Highlight, []spanAt{{2, 6, styleCmt}})
	if result.EndState != 1 {
		t.Errorf("EndState = %d, want hash", result.EndState)
	}
}

func TestAnalyzeLineCaptureGroupStyles(t *testing.T) {
	rule := compileGrammar(t, `{
	  "name": "cap", "fileExtension": ".cp",
	  "states": {"default": [
	    {"pattern": "(\\w+)=([0-9]+)", "styles": [1, "kw", 2, "num"]}
	  ]}
	}`)
	a := NewLineAnalyzer(rule, Config{})
	result := a.AnalyzeLine("abc=42", LineInfo{})
	checkSpans(t, result.Highlight, []spanAt{
		{0, 3, styleKw},
		{4, 6, styleNum},
	})
}

func TestAnalyzeLineSubStateExpansion(t *testing.T) {
	t.Run("whole match expansion", func(t *testing.T) {
		rule := compileGrammar(t, `{
		  "name": "sub", "fileExtension": ".sb",
		  "states": {
		    "default": [{"pattern": "\\[[^\\]]*\\]", "subState": "inner"}],
		    "inner": [{"pattern": "[0-9]+", "style": "num"}]
		  }
		}`)
		a := NewLineAnalyzer(rule, Config{})
		result := a.AnalyzeLine("a[12x34]b", LineInfo{})
		checkSpans(t, result.Highlight, []spanAt{
			{2, 4, styleNum},
			{5, 7, styleNum},
		})
	})

	t.Run("per group expansion", func(t *testing.T) {
		rule := compileGrammar(t, `{
		  "name": "sub", "fileExtension": ".sb",
		  "states": {
		    "default": [{"pattern": "(\\w+)=(\\S+)", "styles": [1, "kw"], "subStates": [2, "inner"]}],
		    "inner": [{"pattern": "[0-9]+", "style": "num"}]
		  }
		}`)
		a := NewLineAnalyzer(rule, Config{})
		result := a.AnalyzeLine("n=a1b22", LineInfo{})
		checkSpans(t, result.Highlight, []spanAt{
			{0, 1, styleKw},
			{3, 4, styleNum},
			{5, 7, styleNum},
		})
	})
}

func TestAnalyzeLineLineEndState(t *testing.T) {
	rule := compileGrammar(t, `{
	  "name": "le", "fileExtension": ".le",
	  "states": {
	    "default": [{"pattern": "\\\\$", "state": "cont", "style": "kw"}],
	    "cont": [
	      {"pattern": "x", "style": "num"},
	      {"onLineEndState": "default"}
	    ]
	  }
	}`)
	a := NewLineAnalyzer(rule, Config{})

	// The trailing backslash switches to cont, whose line-end transition
	// falls back to default.
	result := a.AnalyzeLine(`abc\`, LineInfo{})
	if result.EndState != syntax.DefaultStateID {
		t.Errorf("EndState = %d, want default (via line-end transition)", result.EndState)
	}
}

func TestAnalyzeLineEmptyText(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})
	result := a.AnalyzeLine("", LineInfo{StartState: 1})
	if len(result.Highlight.Spans) != 0 {
		t.Errorf("spans = %+v, want none", result.Highlight.Spans)
	}
	if result.EndState != 1 {
		t.Errorf("EndState = %d, want entering state preserved", result.EndState)
	}
	if result.CharCount != 0 {
		t.Errorf("CharCount = %d, want 0", result.CharCount)
	}
}

func TestAnalyzeLineUnrecognizedInputAdvances(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})
	result := a.AnalyzeLine("%%%", LineInfo{})
	if len(result.Highlight.Spans) != 0 {
		t.Errorf("spans = %+v, want none", result.Highlight.Spans)
	}
	if result.CharCount != 3 {
		t.Errorf("CharCount = %d, want 3", result.CharCount)
	}
}

func TestAnalyzeLineIndexOffsets(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})
	result := a.AnalyzeLine("if 42", LineInfo{Line: 3, StartCharOffset: 100})
	span := result.Highlight.Spans[0]
	if span.Range.Start.Line != 3 || span.Range.End.Line != 3 {
		t.Errorf("span lines = %d, %d, want 3", span.Range.Start.Line, span.Range.End.Line)
	}
	if span.Range.Start.Index != 100 || span.Range.End.Index != 102 {
		t.Errorf("span indices = %d, %d, want 100, 102", span.Range.Start.Index, span.Range.End.Index)
	}
}

func TestAnalyzeLineMatchedText(t *testing.T) {
	a := NewLineAnalyzer(compileGrammar(t, miniGrammar), Config{})
	result := a.AnalyzeLine(`"hé"`, LineInfo{})
	if len(result.Highlight.Spans) != 1 {
		t.Fatalf("span count = %d, want 1", len(result.Highlight.Spans))
	}
	if got := result.Highlight.Spans[0].MatchedText; got != `"hé"` {
		t.Errorf("MatchedText = %q, want %q", got, `"hé"`)
	}
	if got := result.Highlight.Spans[0].Range.End.Column; got != 4 {
		t.Errorf("end column = %d, want 4 (characters, not bytes)", got)
	}
}

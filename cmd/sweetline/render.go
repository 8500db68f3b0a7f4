package main

import (
	"fmt"
	"io"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/highlight"
	"github.com/FinalScave/SweetLine/internal/textutil"
)

// renderANSI writes the document with truecolor escape sequences, one
// terminal line per document line.
func renderANSI(w io.Writer, engine *highlight.Engine, theme *Theme, doc *document.Document, result *highlight.DocumentHighlight) {
	for i := 0; i < doc.LineCount(); i++ {
		line, _ := doc.Line(i)
		var spans []highlight.TokenSpan
		if i < len(result.Lines) {
			spans = result.Lines[i].Spans
		}
		renderLineANSI(w, theme, line.Text, spans)
		fmt.Fprintln(w)
	}
}

func renderLineANSI(w io.Writer, theme *Theme, text string, spans []highlight.TokenSpan) {
	col := 0
	for _, span := range spans {
		if span.Range.Start.Column > col {
			fmt.Fprint(w, textutil.Substr(text, col, span.Range.Start.Column-col))
		}
		segment := textutil.Substr(text, span.Range.Start.Column, span.Range.End.Column-span.Range.Start.Column)
		writeColored(w, spanColor(theme, span), segment)
		col = span.Range.End.Column
	}
	if rest := textutil.CountChars(text) - col; rest > 0 {
		fmt.Fprint(w, textutil.Substr(text, col, rest))
	}
}

// spanColor prefers the span's own colors when the grammar defines them
// inline; otherwise the theme decides.
func spanColor(theme *Theme, span highlight.TokenSpan) colorful.Color {
	if argb := span.InlineStyle.Foreground; argb != 0 {
		return colorful.Color{
			R: float64((argb>>16)&0xFF) / 255,
			G: float64((argb>>8)&0xFF) / 255,
			B: float64(argb&0xFF) / 255,
		}
	}
	return theme.ColorForStyle(span.StyleID)
}

func writeColored(w io.Writer, color colorful.Color, text string) {
	r, g, b := color.RGB255()
	fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, text)
}

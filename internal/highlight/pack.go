package highlight

// Span packing serializes analysis results into a flat int32 buffer for
// host-language consumption. The layout is a contract shared with every
// binding:
//
//	buf[0] = span count
//	buf[1] = stride (int32 slots per span)
//	line-level results additionally carry buf[2] = end state and
//	buf[3] = char count before the body
//
// Each span occupies stride slots: startLine, startColumn, startIndex,
// endLine, endColumn, endIndex, then either (foreground, background,
// tagBits) in inline-style mode or (styleId). tagBits: bit 0 = bold,
// bit 1 = italic, bit 2 = strikethrough.

// Font attribute bits in a packed span's tag slot.
const (
	TagBold          = 1 << 0
	TagItalic        = 1 << 1
	TagStrikethrough = 1 << 2
)

// SpanStride returns the number of int32 slots one packed span occupies.
func SpanStride(inlineStyle bool) int {
	if inlineStyle {
		return 6 + 3
	}
	return 6 + 1
}

// PackDocumentHighlight flattens a document highlight.
func PackDocumentHighlight(h *DocumentHighlight, inlineStyle bool) []int32 {
	stride := SpanStride(inlineStyle)
	buf := make([]int32, 0, 2+h.SpanCount()*stride)
	buf = append(buf, int32(h.SpanCount()), int32(stride))
	for i := range h.Lines {
		for j := range h.Lines[i].Spans {
			buf = packSpan(buf, &h.Lines[i].Spans[j], inlineStyle)
		}
	}
	return buf
}

// PackLineResult flattens one line's analysis result, including the exiting
// state and char count a host needs to thread into the next line.
func PackLineResult(r *LineResult, inlineStyle bool) []int32 {
	stride := SpanStride(inlineStyle)
	buf := make([]int32, 0, 4+len(r.Highlight.Spans)*stride)
	buf = append(buf, int32(len(r.Highlight.Spans)), int32(stride), int32(r.EndState), int32(r.CharCount))
	for i := range r.Highlight.Spans {
		buf = packSpan(buf, &r.Highlight.Spans[i], inlineStyle)
	}
	return buf
}

func packSpan(buf []int32, span *TokenSpan, inlineStyle bool) []int32 {
	buf = append(buf,
		int32(span.Range.Start.Line), int32(span.Range.Start.Column), int32(span.Range.Start.Index),
		int32(span.Range.End.Line), int32(span.Range.End.Column), int32(span.Range.End.Index),
	)
	if !inlineStyle {
		return append(buf, int32(span.StyleID))
	}
	tags := int32(0)
	if span.InlineStyle.IsBold {
		tags |= TagBold
	}
	if span.InlineStyle.IsItalic {
		tags |= TagItalic
	}
	if span.InlineStyle.IsStrikethrough {
		tags |= TagStrikethrough
	}
	return append(buf, int32(span.InlineStyle.Foreground), int32(span.InlineStyle.Background), tags)
}

package document

import "strings"

// LineEnding specifies the terminator carried by a document line.
type LineEnding uint8

const (
	LineEndingNone LineEnding = iota // last line without terminator
	LineEndingLF                     // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingLF:
		return "\\n"
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return ""
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return ""
	}
}

// Width returns the ending's contribution to the character stream.
func (le LineEnding) Width() int {
	switch le {
	case LineEndingLF, LineEndingCR:
		return 1
	case LineEndingCRLF:
		return 2
	default:
		return 0
	}
}

// DocumentLine is one line of a document: the text without its terminator
// plus the terminator kind.
type DocumentLine struct {
	Text   string
	Ending LineEnding
}

// SplitLines splits text on \n and \r\n boundaries, preserving each line's
// terminator. A trailing terminator produces a final empty line; the final
// line always carries LineEndingNone. Empty text yields no lines.
func SplitLines(text string) []DocumentLine {
	if text == "" {
		return nil
	}
	var lines []DocumentLine
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, DocumentLine{Text: text, Ending: LineEndingNone})
			break
		}
		line := text[:i]
		ending := LineEndingLF
		if strings.HasSuffix(line, "\r") {
			line = line[:len(line)-1]
			ending = LineEndingCRLF
		}
		lines = append(lines, DocumentLine{Text: line, Ending: ending})
		text = text[i+1:]
		if text == "" {
			lines = append(lines, DocumentLine{Text: "", Ending: LineEndingNone})
			break
		}
	}
	return lines
}

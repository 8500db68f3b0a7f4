// Package regex wraps the regexp2 engine behind the small surface the
// highlighter needs: compile a pattern, search forward from a character
// position, and report per-group character spans.
//
// regexp2 provides PCRE-style syntax (lookarounds, backreferences) that
// grammar patterns rely on and that the standard library regexp cannot
// express. The engine indexes by rune, so all positions reported here are
// character positions, never bytes.
package regex

import (
	"github.com/dlclark/regexp2"
)

// GroupSpan is one capture group's contribution to a match. Start and
// Length are character positions within the searched text. Matched is false
// for groups that did not participate in the match.
type GroupSpan struct {
	Start   int
	Length  int
	Matched bool
}

// Match is the result of a successful search. Start and Length cover the
// whole match; Groups is indexed by capture group number, with Groups[0]
// covering the whole match.
type Match struct {
	Start  int
	Length int
	Groups []GroupSpan
}

// Pattern is a compiled regular expression.
type Pattern struct {
	re         *regexp2.Regexp
	groupCount int
}

// Compile compiles a pattern with default options. The pattern text is
// interpreted as UTF-8.
func Compile(pattern string) (*Pattern, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re, groupCount: len(re.GetGroupNumbers()) - 1}, nil
}

// CountGroups compiles a pattern and returns its capture group count,
// excluding the implicit whole-match group. It doubles as the per-token
// pattern validity check.
func CountGroups(pattern string) (int, error) {
	p, err := Compile(pattern)
	if err != nil {
		return 0, err
	}
	return p.groupCount, nil
}

// GroupCount returns the number of capture groups in the pattern, excluding
// the implicit whole-match group.
func (p *Pattern) GroupCount() int {
	return p.groupCount
}

// Search scans text forward from startChar for the first match. It returns
// nil when nothing matches from there to the end of text.
func (p *Pattern) Search(text []rune, startChar int) *Match {
	m, err := p.re.FindRunesMatchStartingAt(text, startChar)
	if err != nil || m == nil {
		return nil
	}
	groups := m.Groups()
	spans := make([]GroupSpan, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			continue
		}
		spans[i] = GroupSpan{Start: g.Index, Length: g.Length, Matched: true}
	}
	return &Match{Start: m.Index, Length: m.Length, Groups: spans}
}

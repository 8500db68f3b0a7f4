// Package syntax holds the compiled grammar model and the rule compiler
// that builds it from declarative JSON.
//
// A grammar is a finite automaton of states; each state owns an ordered
// list of token rules whose patterns are merged into one alternation so a
// single search per position covers every token. All cross-references
// (goto states, sub-states, line-end transitions) are plain state ids into
// the rule's state table, which keeps the model acyclic in ownership even
// though states reference each other freely.
package syntax

import (
	"sort"

	"github.com/FinalScave/SweetLine/internal/regex"
)

// Reserved state table entries.
const (
	DefaultStateID   = 0
	DefaultStateName = "default"
)

// NoState marks an absent state reference (no goto, no line-end switch).
const NoState = -1

// TokenRule is one token within a state: a regex pattern with per-group
// styles, an optional state switch, and optional per-group sub-state
// recursion.
type TokenRule struct {
	// Pattern is the token's regex after variable substitution.
	Pattern string
	// StyleIDs maps capture group numbers to style ids; group 0 styles the
	// whole match.
	StyleIDs map[int]int
	// SubStates maps capture group numbers to state ids; a group with a
	// sub-state is re-analyzed under that state and its spans replace the
	// group's own contribution.
	SubStates map[int]int
	// GroupCount is the number of captures inside Pattern.
	GroupCount int
	// GroupOffsetStart is the group index of this token's wrapping group
	// within the state's merged regex (1-based).
	GroupOffsetStart int
	// GotoState is the state to switch to after this token matches, or
	// NoState.
	GotoState int

	gotoStateStr string
	subStateStrs map[int]string
}

// GroupStyleID returns the style id bound to a capture group. A group
// without its own style inherits the token's whole-match style.
func (t *TokenRule) GroupStyleID(group int) int {
	if id, ok := t.StyleIDs[group]; ok {
		return id
	}
	if id, ok := t.StyleIDs[0]; ok {
		return id
	}
	return DefaultStyleID
}

// GroupSubState returns the sub-state bound to a capture group, or NoState.
func (t *TokenRule) GroupSubState(group int) int {
	if id, ok := t.SubStates[group]; ok {
		return id
	}
	return NoState
}

// importRequest records an importSyntax directive seen while parsing a
// state; requests are resolved after every state of the rule is known.
type importRequest struct {
	syntaxName string
	ifdefMacro string
}

// StateRule is one grammar state: its token rules and the single merged
// regex that matches any of them.
type StateRule struct {
	// Name is the state's name in the grammar JSON.
	Name string
	// TokenRules are the state's tokens in declaration order.
	TokenRules []TokenRule
	// LineEndState is the state to switch to after line end, or NoState.
	LineEndState int
	// MergedPattern is "(t0)|(t1)|…|(tn-1)" over the token patterns.
	MergedPattern string
	// Regex is the compiled merged pattern.
	Regex *regex.Pattern
	// GroupCount is the total group count of the merged regex.
	GroupCount int

	lineEndStateStr string
	importRequests  []importRequest
}

// BlockRule is one block pair from the grammar's blockPairs section. Block
// rules are stored for downstream block and indent rendering; tokenization
// does not consume them.
type BlockRule struct {
	// Start is the pair's opening text, e.g. "{".
	Start string
	// End is the pair's closing text, e.g. "}".
	End string
	// BranchKeywords are mid-block branch keywords, e.g. "else".
	BranchKeywords map[string]struct{}
	// RuleID identifies the rule; allocated sequentially while parsing.
	RuleID int
}

// SyntaxRule is a compiled grammar. It is immutable once the compiler
// returns it and may be shared by any number of analyzers.
type SyntaxRule struct {
	// Name is the grammar's name, e.g. "java".
	Name string
	// FileExtensions are the dot-prefixed extensions the grammar claims.
	FileExtensions map[string]struct{}
	// Variables is the grammar's variable table after expansion.
	Variables map[string]string
	// InlineStyles maps per-rule style ids to inline styles; populated only
	// when the engine compiles in inline-style mode.
	InlineStyles map[int]InlineStyle
	// Styles is the per-rule style mapping used in inline-style mode; nil
	// otherwise.
	Styles *StyleMapping
	// StateRules maps state ids to their rules.
	StateRules map[int]*StateRule
	// StateIDs maps state names to ids.
	StateIDs map[string]int
	// BlockRules are the grammar's block pairs, in declaration order.
	BlockRules []BlockRule

	stateIDCounter int
}

// NewSyntaxRule creates an empty rule with the default state name bound to
// id 0.
func NewSyntaxRule() *SyntaxRule {
	r := &SyntaxRule{
		FileExtensions: make(map[string]struct{}),
		Variables:      make(map[string]string),
		InlineStyles:   make(map[int]InlineStyle),
		StateRules:     make(map[int]*StateRule),
		StateIDs:       make(map[string]int),
		stateIDCounter: 1,
	}
	r.StateIDs[DefaultStateName] = DefaultStateID
	return r
}

// GetOrCreateStateID returns the id bound to a state name, allocating the
// next id for names seen for the first time.
func (r *SyntaxRule) GetOrCreateStateID(name string) int {
	if id, ok := r.StateIDs[name]; ok {
		return id
	}
	id := r.stateIDCounter
	r.stateIDCounter++
	r.StateIDs[name] = id
	return id
}

// ContainsState reports whether a state id has a rule.
func (r *SyntaxRule) ContainsState(id int) bool {
	_, ok := r.StateRules[id]
	return ok
}

// State returns the rule for a state id, or nil.
func (r *SyntaxRule) State(id int) *StateRule {
	return r.StateRules[id]
}

// HasExtension reports whether the grammar claims a dot-prefixed extension.
func (r *SyntaxRule) HasExtension(ext string) bool {
	_, ok := r.FileExtensions[ext]
	return ok
}

// ContainsInlineStyle reports whether a style id has an inline style.
func (r *SyntaxRule) ContainsInlineStyle(styleID int) bool {
	_, ok := r.InlineStyles[styleID]
	return ok
}

// maxStateID returns the highest allocated state id.
func (r *SyntaxRule) maxStateID() int {
	max := DefaultStateID
	for id := range r.StateRules {
		if id > max {
			max = id
		}
	}
	return max
}

// stateIDsInOrder returns the rule's state ids sorted ascending, which is
// their first-seen allocation order.
func (r *SyntaxRule) stateIDsInOrder() []int {
	ids := make([]int, 0, len(r.StateRules))
	for id := range r.StateRules {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

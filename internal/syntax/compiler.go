package syntax

import (
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/FinalScave/SweetLine/internal/regex"
)

// maxVariablePasses bounds variable expansion; a table still changing after
// this many passes contains a reference cycle.
const maxVariablePasses = 16

// RuleProvider resolves previously compiled rules and macro definitions for
// importSyntax directives. The highlight engine implements it.
type RuleProvider interface {
	// SyntaxRuleByName returns a compiled rule, or nil if unknown.
	SyntaxRuleByName(name string) *SyntaxRule
	// IsMacroDefined reports whether a macro gates as present.
	IsMacroDefined(name string) bool
}

// Compiler translates grammar JSON into a SyntaxRule. A compiler is cheap
// to construct and is not reused across engines: it resolves style names
// against the engine's global mapping (or the rule's own mapping in
// inline-style mode) and imports against the engine's compiled rule set.
type Compiler struct {
	styles      *StyleMapping
	inlineStyle bool
	provider    RuleProvider
}

// NewCompiler creates a compiler. provider may be nil, in which case any
// importSyntax directive fails to resolve.
func NewCompiler(styles *StyleMapping, inlineStyle bool, provider RuleProvider) *Compiler {
	return &Compiler{styles: styles, inlineStyle: inlineStyle, provider: provider}
}

// CompileFile reads and compiles a grammar JSON file.
func (c *Compiler) CompileFile(path string) (*SyntaxRule, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, parseError(ErrFileNotExists, path)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return nil, parseError(ErrFileInvalid, path)
	}
	return c.CompileJSON(string(data))
}

// CompileJSON compiles a grammar from its JSON text. On failure no partial
// rule is retained.
func (c *Compiler) CompileJSON(jsonText string) (*SyntaxRule, error) {
	if !gjson.Valid(jsonText) {
		return nil, parseError(ErrJSONInvalid, "")
	}
	root := gjson.Parse(jsonText)
	if !root.IsObject() {
		return nil, parseError(ErrJSONInvalid, "")
	}

	rule := NewSyntaxRule()
	if err := parseName(rule, root); err != nil {
		return nil, err
	}
	if err := parseFileExtensions(rule, root); err != nil {
		return nil, err
	}
	if c.inlineStyle {
		rule.Styles = NewStyleMapping()
		if err := parseInlineStyles(rule, root); err != nil {
			return nil, err
		}
	}
	if err := parseVariables(rule, root); err != nil {
		return nil, err
	}
	if err := c.parseStates(rule, root); err != nil {
		return nil, err
	}
	if err := resolveStateRefs(rule); err != nil {
		return nil, err
	}
	if err := c.processImports(rule); err != nil {
		return nil, err
	}
	for _, id := range rule.stateIDsInOrder() {
		if err := compileStatePattern(rule.StateRules[id]); err != nil {
			return nil, err
		}
	}
	if err := parseBlockPairs(rule, root); err != nil {
		return nil, err
	}
	return rule, nil
}

func parseName(rule *SyntaxRule, root gjson.Result) error {
	name := root.Get("name")
	if !name.Exists() {
		return parseError(ErrPropertyMissed, "name")
	}
	if name.Type != gjson.String {
		return parseError(ErrPropertyInvalid, "name")
	}
	rule.Name = name.String()
	return nil
}

func parseFileExtensions(rule *SyntaxRule, root gjson.Result) error {
	if exts := root.Get("fileExtensions"); exts.Exists() {
		if !exts.IsArray() {
			return parseError(ErrPropertyInvalid, "fileExtensions")
		}
		var bad bool
		exts.ForEach(func(_, ext gjson.Result) bool {
			if ext.Type != gjson.String {
				bad = true
				return false
			}
			rule.FileExtensions[normalizeExtension(ext.String())] = struct{}{}
			return true
		})
		if bad {
			return parseError(ErrPropertyInvalid, "fileExtensions")
		}
		return nil
	}
	if ext := root.Get("fileExtension"); ext.Exists() {
		if ext.Type != gjson.String {
			return parseError(ErrPropertyInvalid, "fileExtension")
		}
		rule.FileExtensions[normalizeExtension(ext.String())] = struct{}{}
		return nil
	}
	return parseError(ErrPropertyMissed, "fileExtensions or fileExtension")
}

// normalizeExtension ensures a leading dot. Matching stays case-sensitive.
func normalizeExtension(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

func parseInlineStyles(rule *SyntaxRule, root gjson.Result) error {
	styles := root.Get("styles")
	if !styles.Exists() {
		return parseError(ErrPropertyMissed, "styles")
	}
	if !styles.IsArray() {
		return parseError(ErrPropertyInvalid, "styles")
	}
	var err error
	styles.ForEach(func(_, styleJSON gjson.Result) bool {
		if !styleJSON.IsObject() {
			err = parseError(ErrPropertyInvalid, "styles[i]")
			return false
		}
		name := styleJSON.Get("name")
		if !name.Exists() {
			err = parseError(ErrPropertyMissed, "styles[i].name")
			return false
		}
		var style InlineStyle
		if fg := styleJSON.Get("foreground"); fg.Exists() {
			style.Foreground = parseColor(fg.String())
		}
		if bg := styleJSON.Get("background"); bg.Exists() {
			style.Background = parseColor(bg.String())
		}
		if tags := styleJSON.Get("tags"); tags.Exists() {
			if !tags.IsArray() {
				err = parseError(ErrPropertyInvalid, "styles[i].tags")
				return false
			}
			tags.ForEach(func(_, tag gjson.Result) bool {
				if tag.Type != gjson.String {
					err = parseError(ErrPropertyInvalid, "styles[i].tags[i]")
					return false
				}
				switch tag.String() {
				case "bold":
					style.IsBold = true
				case "italic":
					style.IsItalic = true
				case "strikethrough":
					style.IsStrikethrough = true
				}
				return true
			})
			if err != nil {
				return false
			}
		}
		styleID := rule.Styles.GetOrCreateStyleID(name.String())
		rule.InlineStyles[styleID] = style
		return true
	})
	return err
}

// parseColor parses "#RRGGBB" or "#AARRGGBB" into packed ARGB. Six-digit
// colors get an opaque alpha. Anything else parses to zero.
func parseColor(s string) uint32 {
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0
	}
	switch len(s) {
	case 6:
		return uint32(v) | 0xFF000000
	case 8:
		return uint32(v)
	default:
		return 0
	}
}

func parseVariables(rule *SyntaxRule, root gjson.Result) error {
	vars := root.Get("variables")
	if !vars.Exists() {
		return nil
	}
	if !vars.IsObject() {
		return parseError(ErrPropertyInvalid, "variables")
	}
	var err error
	vars.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = parseError(ErrPropertyInvalid, key.String())
			return false
		}
		rule.Variables[key.String()] = value.String()
		return true
	})
	if err != nil {
		return err
	}
	// Variables may reference other variables, so substitute over the whole
	// table until a pass changes nothing. A table still changing at the
	// pass cap holds a reference cycle.
	for pass := 0; ; pass++ {
		if pass >= maxVariablePasses {
			return parseError(ErrPropertyInvalid, "variables: reference cycle")
		}
		changed := false
		for name, value := range rule.Variables {
			expanded := substituteVariables(value, rule.Variables)
			if expanded != value {
				rule.Variables[name] = expanded
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
}

// substituteVariables replaces every ${name} whose name is in the table.
// References to undeclared names stay literal.
func substituteVariables(text string, variables map[string]string) string {
	for name, value := range variables {
		text = strings.ReplaceAll(text, "${"+name+"}", value)
	}
	return text
}

func (c *Compiler) parseStates(rule *SyntaxRule, root gjson.Result) error {
	states := root.Get("states")
	if !states.Exists() {
		return parseError(ErrPropertyMissed, "states")
	}
	if !states.IsObject() {
		return parseError(ErrPropertyInvalid, "states")
	}
	var err error
	// gjson iterates object members in document order, so state ids come
	// out in first-seen order.
	states.ForEach(func(key, stateJSON gjson.Result) bool {
		if !stateJSON.IsArray() {
			err = parseError(ErrPropertyInvalid, key.String())
			return false
		}
		state := &StateRule{Name: key.String(), LineEndState: NoState}
		if err = c.parseState(rule, state, stateJSON); err != nil {
			return false
		}
		id := rule.GetOrCreateStateID(state.Name)
		rule.StateRules[id] = state
		return true
	})
	return err
}

func (c *Compiler) parseState(rule *SyntaxRule, state *StateRule, stateJSON gjson.Result) error {
	var err error
	stateJSON.ForEach(func(_, tokenJSON gjson.Result) bool {
		if !tokenJSON.IsObject() {
			err = parseError(ErrPropertyInvalid, "state element")
			return false
		}
		if lineEnd := tokenJSON.Get("onLineEndState"); lineEnd.Exists() {
			if lineEnd.Type != gjson.String {
				err = parseError(ErrPropertyInvalid, "onLineEndState")
				return false
			}
			state.lineEndStateStr = lineEnd.String()
			return true
		}
		if imp := tokenJSON.Get("importSyntax"); imp.Exists() {
			if imp.Type != gjson.String {
				err = parseError(ErrPropertyInvalid, "importSyntax")
				return false
			}
			// The # is a gjson path operator and needs escaping to address
			// the literal "#ifdef" key.
			state.importRequests = append(state.importRequests, importRequest{
				syntaxName: imp.String(),
				ifdefMacro: tokenJSON.Get(`\#ifdef`).String(),
			})
			return true
		}
		var token TokenRule
		if token, err = c.parseToken(rule, tokenJSON); err != nil {
			return false
		}
		state.TokenRules = append(state.TokenRules, token)
		return true
	})
	return err
}

func (c *Compiler) parseToken(rule *SyntaxRule, tokenJSON gjson.Result) (TokenRule, error) {
	token := TokenRule{GotoState: NoState}
	pattern := tokenJSON.Get("pattern")
	if !pattern.Exists() {
		return token, parseError(ErrPropertyMissed, "pattern")
	}
	if pattern.Type != gjson.String {
		return token, parseError(ErrPropertyInvalid, "pattern")
	}
	token.Pattern = substituteVariables(pattern.String(), rule.Variables)

	if gotoState := tokenJSON.Get("state"); gotoState.Exists() {
		if gotoState.Type != gjson.String {
			return token, parseError(ErrPropertyInvalid, "state")
		}
		token.gotoStateStr = gotoState.String()
	}

	styled, err := c.parseTokenStyles(rule, &token, tokenJSON)
	if err != nil {
		return token, err
	}
	subStated, err := parseTokenSubStates(&token, tokenJSON)
	if err != nil {
		return token, err
	}
	// A token with only sub-states carries structural meaning; a token with
	// neither styles nor sub-states contributes nothing and is a grammar
	// mistake.
	if !styled && !subStated {
		return token, parseError(ErrPropertyInvalid, "style/styles")
	}
	return token, nil
}

func (c *Compiler) parseTokenStyles(rule *SyntaxRule, token *TokenRule, tokenJSON gjson.Result) (bool, error) {
	if style := tokenJSON.Get("style"); style.Exists() {
		if style.Type != gjson.String {
			return false, parseError(ErrPropertyInvalid, "style")
		}
		token.StyleIDs = map[int]int{0: c.resolveStyleID(rule, style.String())}
		return true, nil
	}
	styles := tokenJSON.Get("styles")
	if !styles.Exists() {
		return false, nil
	}
	pairs, err := parseAlternatingPairs(styles, "styles")
	if err != nil {
		return false, err
	}
	token.StyleIDs = make(map[int]int, len(pairs))
	for group, name := range pairs {
		token.StyleIDs[group] = c.resolveStyleID(rule, name)
	}
	return true, nil
}

func parseTokenSubStates(token *TokenRule, tokenJSON gjson.Result) (bool, error) {
	if sub := tokenJSON.Get("subState"); sub.Exists() {
		if sub.Type != gjson.String {
			return false, parseError(ErrPropertyInvalid, "subState")
		}
		token.subStateStrs = map[int]string{0: sub.String()}
		return true, nil
	}
	subs := tokenJSON.Get("subStates")
	if !subs.Exists() {
		return false, nil
	}
	pairs, err := parseAlternatingPairs(subs, "subStates")
	if err != nil {
		return false, err
	}
	token.subStateStrs = pairs
	return true, nil
}

// parseAlternatingPairs reads an array of alternating [group, name, group,
// name, …] entries.
func parseAlternatingPairs(array gjson.Result, field string) (map[int]string, error) {
	if !array.IsArray() {
		return nil, parseError(ErrPropertyInvalid, field)
	}
	elems := array.Array()
	if len(elems)%2 != 0 {
		return nil, parseError(ErrPropertyInvalid, field+" elements count % 2 != 0")
	}
	pairs := make(map[int]string, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		if elems[i].Type != gjson.Number || elems[i+1].Type != gjson.String {
			return nil, parseError(ErrPropertyInvalid, field)
		}
		pairs[int(elems[i].Int())] = elems[i+1].String()
	}
	return pairs, nil
}

// resolveStyleID resolves a style name against the rule's own mapping in
// inline-style mode, or the engine's global mapping otherwise.
func (c *Compiler) resolveStyleID(rule *SyntaxRule, name string) int {
	if c.inlineStyle {
		return rule.Styles.GetOrCreateStyleID(name)
	}
	return c.styles.GetOrCreateStyleID(name)
}

// resolveStateRefs binds every goto, sub-state, and line-end reference to a
// state id. Unknown targets are fatal.
func resolveStateRefs(rule *SyntaxRule) error {
	lookup := func(name string) (int, error) {
		id, ok := rule.StateIDs[name]
		if !ok || !rule.ContainsState(id) {
			return NoState, parseError(ErrStateInvalid, name)
		}
		return id, nil
	}
	for _, state := range rule.StateRules {
		for i := range state.TokenRules {
			token := &state.TokenRules[i]
			if token.gotoStateStr != "" {
				id, err := lookup(token.gotoStateStr)
				if err != nil {
					return err
				}
				token.GotoState = id
			}
			if len(token.subStateStrs) > 0 {
				token.SubStates = make(map[int]int, len(token.subStateStrs))
				for group, name := range token.subStateStrs {
					id, err := lookup(name)
					if err != nil {
						return err
					}
					token.SubStates[group] = id
				}
			}
		}
		if state.lineEndStateStr != "" {
			id, err := lookup(state.lineEndStateStr)
			if err != nil {
				return err
			}
			state.LineEndState = id
		}
	}
	return nil
}

// processImports splices other compiled grammars into states that requested
// them. The source rule's default state merges into the requesting state;
// its other states are copied in with offset ids.
func (c *Compiler) processImports(rule *SyntaxRule) error {
	for _, stateID := range rule.stateIDsInOrder() {
		state := rule.StateRules[stateID]
		for _, req := range state.importRequests {
			if req.ifdefMacro != "" && (c.provider == nil || !c.provider.IsMacroDefined(req.ifdefMacro)) {
				continue
			}
			var source *SyntaxRule
			if c.provider != nil {
				source = c.provider.SyntaxRuleByName(req.syntaxName)
			}
			if source == nil {
				return parseError(ErrStateInvalid, "importSyntax: "+req.syntaxName)
			}
			importSyntaxRule(rule, stateID, source)
		}
		state.importRequests = nil
	}
	return nil
}

// importSyntaxRule merges source's default state tokens into the target
// state and copies source's remaining states with ids offset past the
// target rule's existing ids. References into the source's default state
// rebind to the target state.
func importSyntaxRule(target *SyntaxRule, targetStateID int, source *SyntaxRule) {
	offset := target.maxStateID() + 1
	remap := func(id int) int {
		switch {
		case id == DefaultStateID:
			return targetStateID
		case id > DefaultStateID:
			return id + offset
		default:
			return id
		}
	}

	targetState := target.StateRules[targetStateID]
	if sourceDefault := source.State(DefaultStateID); sourceDefault != nil {
		for i := range sourceDefault.TokenRules {
			token := copyTokenRule(&sourceDefault.TokenRules[i], remap)
			targetState.TokenRules = append(targetState.TokenRules, token)
		}
	}

	for _, sourceID := range source.stateIDsInOrder() {
		if sourceID == DefaultStateID {
			continue
		}
		sourceState := source.StateRules[sourceID]
		copied := &StateRule{
			Name:         "__imported_" + source.Name + "_" + sourceState.Name,
			LineEndState: remap(sourceState.LineEndState),
		}
		copied.TokenRules = make([]TokenRule, 0, len(sourceState.TokenRules))
		for i := range sourceState.TokenRules {
			copied.TokenRules = append(copied.TokenRules, copyTokenRule(&sourceState.TokenRules[i], remap))
		}
		newID := sourceID + offset
		target.StateRules[newID] = copied
		target.StateIDs[copied.Name] = newID
		if newID >= target.stateIDCounter {
			target.stateIDCounter = newID + 1
		}
	}
}

// copyTokenRule deep-copies a token, remapping its state references.
func copyTokenRule(token *TokenRule, remap func(int) int) TokenRule {
	copied := TokenRule{
		Pattern:    token.Pattern,
		GroupCount: token.GroupCount,
		GotoState:  remap(token.GotoState),
	}
	if len(token.StyleIDs) > 0 {
		copied.StyleIDs = make(map[int]int, len(token.StyleIDs))
		for group, id := range token.StyleIDs {
			copied.StyleIDs[group] = id
		}
	}
	if len(token.SubStates) > 0 {
		copied.SubStates = make(map[int]int, len(token.SubStates))
		for group, id := range token.SubStates {
			copied.SubStates[group] = remap(id)
		}
	}
	return copied
}

// compileStatePattern counts each token's capture groups, assigns group
// offsets, and compiles the state's merged alternation.
func compileStatePattern(state *StateRule) error {
	var merged strings.Builder
	totalGroups := 0
	for i := range state.TokenRules {
		token := &state.TokenRules[i]
		groupCount, err := regex.CountGroups(token.Pattern)
		if err != nil {
			return parseError(ErrPatternInvalid, err.Error()+": "+token.Pattern)
		}
		token.GroupCount = groupCount
		token.GroupOffsetStart = 1 + totalGroups
		totalGroups += 1 + groupCount
		if i > 0 {
			merged.WriteByte('|')
		}
		merged.WriteByte('(')
		merged.WriteString(token.Pattern)
		merged.WriteByte(')')
	}
	state.GroupCount = totalGroups
	state.MergedPattern = merged.String()
	compiled, err := regex.Compile(state.MergedPattern)
	if err != nil {
		return parseError(ErrPatternInvalid, state.MergedPattern)
	}
	state.Regex = compiled
	return nil
}

func parseBlockPairs(rule *SyntaxRule, root gjson.Result) error {
	pairs := root.Get("blockPairs")
	if !pairs.Exists() {
		return nil
	}
	if !pairs.IsArray() {
		return parseError(ErrPropertyInvalid, "blockPairs")
	}
	var err error
	pairs.ForEach(func(_, pairJSON gjson.Result) bool {
		if !pairJSON.IsObject() {
			err = parseError(ErrPropertyInvalid, "blockPairs[i]")
			return false
		}
		start := pairJSON.Get("start")
		end := pairJSON.Get("end")
		if !start.Exists() || !end.Exists() {
			err = parseError(ErrPropertyMissed, "blockPairs[i].start/end")
			return false
		}
		if start.Type != gjson.String || end.Type != gjson.String {
			err = parseError(ErrPropertyInvalid, "blockPairs[i].start/end")
			return false
		}
		block := BlockRule{
			Start:  start.String(),
			End:    end.String(),
			RuleID: len(rule.BlockRules) + 1,
		}
		if branches := pairJSON.Get("branches"); branches.Exists() {
			if !branches.IsArray() {
				err = parseError(ErrPropertyInvalid, "blockPairs[i].branches")
				return false
			}
			block.BranchKeywords = make(map[string]struct{})
			branches.ForEach(func(_, branch gjson.Result) bool {
				if branch.Type != gjson.String {
					err = parseError(ErrPropertyInvalid, "blockPairs[i].branches[i]")
					return false
				}
				block.BranchKeywords[branch.String()] = struct{}{}
				return true
			})
			if err != nil {
				return false
			}
		}
		rule.BlockRules = append(rule.BlockRules, block)
		return true
	})
	return err
}

package highlight

import (
	"path"
	"strings"
	"sync"

	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/syntax"
)

// Engine is the root object hosts hold: it owns the global style mapping,
// the macro set consulted by importSyntax guards, the compiled rules, and
// one cached DocumentAnalyzer per open document URI.
//
// Style ids are stable across compilations within one engine. Macro changes
// only affect compilations performed after the change.
type Engine struct {
	mu        sync.RWMutex
	config    Config
	styles    *syntax.StyleMapping
	macros    map[string]struct{}
	rules     []*syntax.SyntaxRule
	analyzers map[string]*DocumentAnalyzer
}

// NewEngine creates an engine with an empty rule set.
func NewEngine(config Config) *Engine {
	return &Engine{
		config:    config,
		styles:    syntax.NewStyleMapping(),
		macros:    make(map[string]struct{}),
		analyzers: make(map[string]*DocumentAnalyzer),
	}
}

// Config returns the engine's analyzer configuration.
func (e *Engine) Config() Config {
	return e.config
}

// RegisterStyleName binds a style name to an id in the global mapping.
func (e *Engine) RegisterStyleName(name string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.styles.Register(name, id)
}

// StyleName returns the name registered for a style id.
func (e *Engine) StyleName(id int) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.styles.StyleName(id)
}

// DefineMacro adds a macro to the set consulted by #ifdef import guards.
func (e *Engine) DefineMacro(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros[name] = struct{}{}
}

// UndefineMacro removes a macro.
func (e *Engine) UndefineMacro(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.macros, name)
}

// IsMacroDefined reports whether a macro is defined.
func (e *Engine) IsMacroDefined(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.macros[name]
	return ok
}

// CompileSyntaxFromJSON compiles a grammar and adds it to the engine's rule
// set.
func (e *Engine) CompileSyntaxFromJSON(jsonText string) (*syntax.SyntaxRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	compiler := syntax.NewCompiler(e.styles, e.config.InlineStyle, engineProvider{e})
	rule, err := compiler.CompileJSON(jsonText)
	if err != nil {
		return nil, err
	}
	e.rules = append(e.rules, rule)
	return rule, nil
}

// CompileSyntaxFromFile compiles a grammar JSON file and adds it to the
// engine's rule set.
func (e *Engine) CompileSyntaxFromFile(file string) (*syntax.SyntaxRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	compiler := syntax.NewCompiler(e.styles, e.config.InlineStyle, engineProvider{e})
	rule, err := compiler.CompileFile(file)
	if err != nil {
		return nil, err
	}
	e.rules = append(e.rules, rule)
	return rule, nil
}

// SyntaxRuleByName returns the first compiled rule with the given name, or
// nil.
func (e *Engine) SyntaxRuleByName(name string) *syntax.SyntaxRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ruleByNameLocked(name)
}

// SyntaxRuleByExtension returns the first compiled rule claiming the given
// file extension, with or without its leading dot. Nil if none match.
func (e *Engine) SyntaxRuleByExtension(ext string) *syntax.SyntaxRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ruleByExtensionLocked(ext)
}

// CreateAnalyzerByName returns a fresh stateless text analyzer bound to the
// named rule, or nil if the rule is unknown.
func (e *Engine) CreateAnalyzerByName(name string) *TextAnalyzer {
	rule := e.SyntaxRuleByName(name)
	if rule == nil {
		return nil
	}
	return NewTextAnalyzer(rule, e.config)
}

// CreateAnalyzerByExtension returns a fresh stateless text analyzer bound
// to the rule claiming the extension, or nil if none match.
func (e *Engine) CreateAnalyzerByExtension(ext string) *TextAnalyzer {
	rule := e.SyntaxRuleByExtension(ext)
	if rule == nil {
		return nil
	}
	return NewTextAnalyzer(rule, e.config)
}

// LoadDocument returns the analyzer cached for the document's URI, creating
// one by resolving a rule from the URI's extension. Nil if no rule matches.
func (e *Engine) LoadDocument(doc *document.Document) *DocumentAnalyzer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if analyzer, ok := e.analyzers[doc.URI()]; ok {
		return analyzer
	}
	rule := e.ruleByExtensionLocked(path.Ext(doc.URI()))
	if rule == nil {
		return nil
	}
	analyzer := NewDocumentAnalyzer(doc, rule, e.config)
	e.analyzers[doc.URI()] = analyzer
	return analyzer
}

// RemoveDocument evicts the cached analyzer for a URI.
func (e *Engine) RemoveDocument(uri string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.analyzers, uri)
}

func (e *Engine) ruleByNameLocked(name string) *syntax.SyntaxRule {
	for _, rule := range e.rules {
		if rule.Name == name {
			return rule
		}
	}
	return nil
}

func (e *Engine) ruleByExtensionLocked(ext string) *syntax.SyntaxRule {
	if ext == "" {
		return nil
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, rule := range e.rules {
		if rule.HasExtension(ext) {
			return rule
		}
	}
	return nil
}

// engineProvider adapts the engine to the compiler's RuleProvider without
// re-taking the engine lock: compilation runs with the lock already held.
type engineProvider struct {
	e *Engine
}

// SyntaxRuleByName implements syntax.RuleProvider.
func (p engineProvider) SyntaxRuleByName(name string) *syntax.SyntaxRule {
	return p.e.ruleByNameLocked(name)
}

// IsMacroDefined implements syntax.RuleProvider.
func (p engineProvider) IsMacroDefined(name string) bool {
	_, ok := p.e.macros[name]
	return ok
}

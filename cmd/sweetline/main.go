// Package main is the SweetLine command line front end: it compiles syntax
// grammars, highlights files, and previews the result in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/highlight"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	syntaxes  []string
	themePath string
	dump        bool
	json        bool
	view        bool
	watch       bool
	showIndex   bool
	inlineStyle bool
	version     bool
	file        string
}

func parseFlags() options {
	var opts options
	var syntaxList string
	flag.StringVar(&syntaxList, "syntax", "", "comma-separated grammar JSON files to compile")
	flag.StringVar(&opts.themePath, "theme", "", "TOML theme file mapping style names to colors")
	flag.BoolVar(&opts.dump, "dump", false, "print the packed int32 span buffer")
	flag.BoolVar(&opts.json, "json", false, "print the highlight as JSON")
	flag.BoolVar(&opts.view, "view", false, "open the interactive viewer")
	flag.BoolVar(&opts.watch, "watch", false, "with -view, reload when the file or a grammar changes")
	flag.BoolVar(&opts.showIndex, "index", false, "maintain absolute character indices on spans")
	flag.BoolVar(&opts.inlineStyle, "inline", false, "use the grammars' own style definitions instead of the theme")
	flag.BoolVar(&opts.version, "version", false, "print version and exit")
	flag.Parse()
	if syntaxList != "" {
		opts.syntaxes = strings.Split(syntaxList, ",")
	}
	opts.file = flag.Arg(0)
	return opts
}

func run() int {
	opts := parseFlags()
	if opts.version {
		fmt.Printf("sweetline %s (%s)\n", version, commit)
		return 0
	}
	if opts.file == "" || len(opts.syntaxes) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sweetline -syntax <grammar.json>[,...] [flags] <file>")
		flag.PrintDefaults()
		return 2
	}

	theme, err := loadTheme(opts.themePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load theme: %v\n", err)
		return 1
	}

	engine, err := buildEngine(opts, theme)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", opts.file, err)
		return 1
	}

	doc := document.New(opts.file, string(data))
	analyzer := engine.LoadDocument(doc)
	if analyzer == nil {
		fmt.Fprintf(os.Stderr, "Error: no compiled grammar claims %s\n", opts.file)
		return 1
	}
	result := analyzer.Analyze()

	switch {
	case opts.dump:
		buf := highlight.PackDocumentHighlight(result, engine.Config().InlineStyle)
		for i, v := range buf {
			if i > 0 {
				fmt.Print(" ")
			}
			fmt.Print(v)
		}
		fmt.Println()
	case opts.json:
		text, err := result.ToJSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println(text)
	case opts.view:
		if err := runViewer(opts, theme, engine, analyzer); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	default:
		renderANSI(os.Stdout, engine, theme, doc, result)
	}
	return 0
}

// buildEngine registers the theme's style names and compiles every grammar.
func buildEngine(opts options, theme *Theme) (*highlight.Engine, error) {
	engine := highlight.NewEngine(highlight.Config{ShowIndex: opts.showIndex, InlineStyle: opts.inlineStyle})
	for name, id := range theme.styleIDs {
		engine.RegisterStyleName(name, id)
	}
	for _, path := range opts.syntaxes {
		if _, err := engine.CompileSyntaxFromFile(strings.TrimSpace(path)); err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
	}
	return engine, nil
}

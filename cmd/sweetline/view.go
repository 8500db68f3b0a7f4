package main

import (
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/FinalScave/SweetLine/internal/document"
	"github.com/FinalScave/SweetLine/internal/highlight"
)

// viewer is the interactive preview: a scrollable render of the highlighted
// document that can reload itself when the file or a grammar changes.
type viewer struct {
	opts     options
	theme    *Theme
	engine   *highlight.Engine
	analyzer *highlight.DocumentAnalyzer
	screen   tcell.Screen
	topLine  int
}

func runViewer(opts options, theme *Theme, engine *highlight.Engine, analyzer *highlight.DocumentAnalyzer) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := &viewer{
		opts:     opts,
		theme:    theme,
		engine:   engine,
		analyzer: analyzer,
		screen:   screen,
	}

	if opts.watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watcher.Add(opts.file); err != nil {
			return err
		}
		for _, grammar := range opts.syntaxes {
			if err := watcher.Add(strings.TrimSpace(grammar)); err != nil {
				return err
			}
		}
		go v.watchLoop(watcher)
	}

	v.draw()
	return v.eventLoop()
}

// watchLoop reloads on every write and wakes the event loop up.
func (v *viewer) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			v.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// reload recompiles the grammars and re-analyzes the file from scratch. A
// grammar that no longer compiles keeps the previous render.
func (v *viewer) reload() {
	engine, err := buildEngine(v.opts, v.theme)
	if err != nil {
		return
	}
	data, err := os.ReadFile(v.opts.file)
	if err != nil {
		return
	}
	analyzer := engine.LoadDocument(document.New(v.opts.file, string(data)))
	if analyzer == nil {
		return
	}
	analyzer.Analyze()
	v.engine = engine
	v.analyzer = analyzer
}

func (v *viewer) eventLoop() error {
	for {
		switch event := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.screen.Sync()
			v.draw()
		case *tcell.EventInterrupt:
			v.reload()
			v.draw()
		case *tcell.EventKey:
			if v.handleKey(event) {
				return nil
			}
			v.draw()
		}
	}
}

// handleKey returns true when the viewer should quit.
func (v *viewer) handleKey(event *tcell.EventKey) bool {
	_, height := v.screen.Size()
	lineCount := v.analyzer.Document().LineCount()
	switch {
	case event.Key() == tcell.KeyEscape || event.Rune() == 'q':
		return true
	case event.Key() == tcell.KeyUp || event.Rune() == 'k':
		v.topLine--
	case event.Key() == tcell.KeyDown || event.Rune() == 'j':
		v.topLine++
	case event.Key() == tcell.KeyPgUp:
		v.topLine -= height
	case event.Key() == tcell.KeyPgDn:
		v.topLine += height
	case event.Key() == tcell.KeyHome || event.Rune() == 'g':
		v.topLine = 0
	case event.Key() == tcell.KeyEnd || event.Rune() == 'G':
		v.topLine = lineCount - height
	}
	if v.topLine > lineCount-height {
		v.topLine = lineCount - height
	}
	if v.topLine < 0 {
		v.topLine = 0
	}
	return false
}

func (v *viewer) draw() {
	width, height := v.screen.Size()
	v.screen.Clear()
	doc := v.analyzer.Document()
	result := v.analyzer.Highlight()
	for row := 0; row < height; row++ {
		line := v.topLine + row
		if line >= doc.LineCount() {
			break
		}
		docLine, _ := doc.Line(line)
		var spans []highlight.TokenSpan
		if line < len(result.Lines) {
			spans = result.Lines[line].Spans
		}
		v.drawLine(row, width, docLine.Text, spans)
	}
	v.screen.Show()
}

// drawLine paints one document line, advancing by display width so wide
// runes keep the columns aligned.
func (v *viewer) drawLine(row, width int, text string, spans []highlight.TokenSpan) {
	base := tcell.StyleDefault.
		Foreground(toTcellColor(v.theme.foreground)).
		Background(toTcellColor(v.theme.background))

	x := 0
	for col, r := range []rune(text) {
		if x >= width {
			return
		}
		style := base
		if span, ok := spanAtColumn(spans, col); ok {
			style = base.Foreground(toTcellColor(spanColor(v.theme, span)))
		}
		v.screen.SetContent(x, row, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

// spanAtColumn finds the span covering a column; spans are sorted and
// non-overlapping within a line.
func spanAtColumn(spans []highlight.TokenSpan, col int) (highlight.TokenSpan, bool) {
	for _, span := range spans {
		if col < span.Range.Start.Column {
			break
		}
		if col < span.Range.End.Column {
			return span, true
		}
	}
	return highlight.TokenSpan{}, false
}

func toTcellColor(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

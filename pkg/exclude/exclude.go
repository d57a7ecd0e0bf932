// Package exclude finds the regions of a markdown document that are left
// out of cleaned text: HTML blocks such as metadata comments, and fenced
// code blocks in configured languages.
//
// Regions are found with goldmark and reported both as byte ranges and
// as UTF-16 ranges in raw space, ready for spaces.Derive.
package exclude

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/yaklabco/annotext/pkg/config"
	"github.com/yaklabco/annotext/pkg/langdetect"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// Kind identifies what an excluded block is.
type Kind string

const (
	KindHTML  Kind = "html"
	KindFence Kind = "fence"
)

// Block is one excluded region.
type Block struct {
	Kind Kind

	// Language is the fence language, from the info string or detected.
	Language string

	// Detected is true when Language came from content detection.
	Detected bool

	// StartByte and EndByte delimit the block in the source bytes,
	// including fence lines and the trailing newline.
	StartByte int
	EndByte   int

	// Range is the block in raw UTF-16 space.
	Range textpos.Range
}

// Detector finds excluded blocks according to an ExcludeConfig.
type Detector struct {
	md     goldmark.Markdown
	html   config.HTMLMode
	fences map[string]bool
	detect bool
	logger *log.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger for skipped blocks.
func WithLogger(logger *log.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Detector for the given flavor and exclusion settings.
func New(flavor config.Flavor, cfg config.ExcludeConfig, opts ...Option) *Detector {
	fences := make(map[string]bool, len(cfg.Fences))
	for _, lang := range cfg.Fences {
		if norm := langdetect.Normalize(lang); norm != "" {
			fences[norm] = true
		}
	}

	d := &Detector{
		md:     newGoldmarkInstance(flavor),
		html:   cfg.HTML,
		fences: fences,
		detect: cfg.DetectLanguage,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Blocks returns the excluded blocks of src in document order.
func (d *Detector) Blocks(ctx context.Context, src []byte) ([]Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("exclude cancelled: %w", err)
	}

	doc := d.md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext()))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("exclude cancelled: %w", err)
	}

	idx := textpos.NewByteIndex(src)
	var blocks []Block

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var (
			block Block
			ok    bool
		)
		switch node := n.(type) {
		case *ast.HTMLBlock:
			block, ok = d.htmlBlock(node, src)
		case *ast.FencedCodeBlock:
			block, ok = d.fencedBlock(node, src)
		default:
			return ast.WalkContinue, nil
		}

		if ok {
			block.Range = idx.Range(block.StartByte, block.EndByte)
			blocks = append(blocks, block)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk document: %w", err)
	}

	return blocks, nil
}

// Ranges returns the raw UTF-16 ranges of the excluded blocks of src.
func (d *Detector) Ranges(ctx context.Context, src []byte) ([]textpos.Range, error) {
	blocks, err := d.Blocks(ctx, src)
	if err != nil {
		return nil, err
	}

	ranges := make([]textpos.Range, 0, len(blocks))
	for _, b := range blocks {
		ranges = append(ranges, b.Range)
	}
	return ranges, nil
}

func (d *Detector) htmlBlock(node *ast.HTMLBlock, src []byte) (Block, bool) {
	switch d.html {
	case config.HTMLAll:
	case config.HTMLComments:
		if node.HTMLBlockType != ast.HTMLBlockType2 {
			return Block{}, false
		}
	default:
		return Block{}, false
	}

	lines := node.Lines()
	if lines.Len() == 0 {
		return Block{}, false
	}

	start := lineStart(src, lines.At(0).Start)
	end := lines.At(lines.Len() - 1).Stop
	if node.HasClosure() {
		end = max(end, node.ClosureLine.Stop)
	}

	return Block{Kind: KindHTML, StartByte: start, EndByte: end}, true
}

func (d *Detector) fencedBlock(node *ast.FencedCodeBlock, src []byte) (Block, bool) {
	if len(d.fences) == 0 {
		return Block{}, false
	}

	lang := langdetect.Normalize(string(node.Language(src)))
	detected := false
	if lang == "" && d.detect {
		lang = langdetect.Detect(fenceContent(node, src))
		detected = true
	}
	if !d.fences[lang] {
		return Block{}, false
	}

	lines := node.Lines()

	var openStart, contentEnd int
	switch {
	case node.Info != nil:
		openStart = lineStart(src, node.Info.Segment.Start)
		contentEnd = lineEnd(src, openStart)
	case lines.Len() > 0:
		openStart = lineStart(src, lineStart(src, lines.At(0).Start)-1)
		contentEnd = lineEnd(src, openStart)
	default:
		d.logger.Debug("skipping empty unlabelled fence", "language", lang)
		return Block{}, false
	}
	if lines.Len() > 0 {
		contentEnd = max(contentEnd, lines.At(lines.Len()-1).Stop)
	}

	end := contentEnd
	if closing := lineEnd(src, contentEnd); isFenceLine(src[contentEnd:closing]) {
		end = closing
	}

	return Block{
		Kind:      KindFence,
		Language:  lang,
		Detected:  detected,
		StartByte: openStart,
		EndByte:   end,
	}, true
}

// fenceContent joins the content lines of a fenced block.
func fenceContent(node *ast.FencedCodeBlock, src []byte) []byte {
	var buf bytes.Buffer
	lines := node.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}

// lineStart returns the offset of the first byte of the line holding pos.
func lineStart(src []byte, pos int) int {
	if pos <= 0 {
		return 0
	}
	pos = min(pos, len(src))
	return bytes.LastIndexByte(src[:pos], '\n') + 1
}

// lineEnd returns the offset just past the newline ending the line that
// starts at or contains pos, or len(src) on the last line.
func lineEnd(src []byte, pos int) int {
	pos = min(max(pos, 0), len(src))
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// isFenceLine reports whether line is a closing code fence.
func isFenceLine(line []byte) bool {
	trimmed := bytes.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	return bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~"))
}

// newGoldmarkInstance creates a goldmark.Markdown for the flavor.
//
//nolint:ireturn // goldmark.Markdown is an external interface type
func newGoldmarkInstance(flavor config.Flavor) goldmark.Markdown {
	var opts []goldmark.Option
	if flavor == config.FlavorGFM {
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	}
	return goldmark.New(opts...)
}

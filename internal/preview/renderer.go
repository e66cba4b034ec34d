// Package preview renders repository files as HTML for read-only display.
package preview

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/MyTechPlan/oc-client/internal/config"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Kind says how a preview was produced.
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindCode     Kind = "code"
	KindTooLarge Kind = "too_large"
)

// DefaultMaxBytes bounds the size of files that are rendered.
const DefaultMaxBytes = 1 << 20

// Preview is a rendered file.
type Preview struct {
	Kind     Kind   `json:"kind"`
	Language string `json:"language,omitempty"`
	HTML     string `json:"html"`
}

// Renderer turns file content into safe HTML. It is safe for concurrent use.
type Renderer struct {
	markdown  goldmark.Markdown
	policy    *bluemonday.Policy
	style     *chroma.Style
	formatter *chromahtml.Formatter
	maxBytes  int
}

// NewRenderer creates a Renderer. An unknown style falls back to chroma's
// default.
func NewRenderer(cfg config.PreviewConfig) *Renderer {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy:    bluemonday.UGCPolicy(),
		style:     styles.Get(cfg.Style),
		formatter: chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4)),
		maxBytes:  maxBytes,
	}
}

// Render picks markdown or code rendering from the file extension.
func (r *Renderer) Render(filePath string, content []byte) (Preview, error) {
	if len(content) > r.maxBytes {
		return Preview{Kind: KindTooLarge}, nil
	}

	switch strings.ToLower(path.Ext(filePath)) {
	case ".md", ".markdown":
		return r.renderMarkdown(content)
	default:
		return r.renderCode(filePath, content)
	}
}

func (r *Renderer) renderMarkdown(content []byte) (Preview, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert(content, &buf); err != nil {
		return Preview{}, fmt.Errorf("rendering markdown: %w", err)
	}
	return Preview{
		Kind:     KindMarkdown,
		Language: "markdown",
		HTML:     string(r.policy.SanitizeBytes(buf.Bytes())),
	}, nil
}

func (r *Renderer) renderCode(filePath string, content []byte) (Preview, error) {
	source := string(content)

	lexer := lexers.Match(path.Base(filePath))
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return Preview{}, fmt.Errorf("tokenising %s: %w", filePath, err)
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return Preview{}, fmt.Errorf("highlighting %s: %w", filePath, err)
	}

	return Preview{
		Kind:     KindCode,
		Language: strings.ToLower(lexer.Config().Name),
		HTML:     buf.String(),
	}, nil
}

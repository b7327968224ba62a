package mention

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rendis/flowcanvas/internal/logging"
)

// Parser turns text properties into rich-text documents. It holds no
// per-call state and is safe for concurrent use.
type Parser struct {
	fallbackLabel string
	logger        *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithFallbackLabel overrides the label used for unknown step ids.
func WithFallbackLabel(label string) Option {
	return func(p *Parser) {
		if label != "" {
			p.fallbackLabel = label
		}
	}
}

// WithLogger sets the logger used for degraded tokens.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{fallbackLabel: FallbackLabel, logger: logging.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the document for text. It never fails: tokens whose path
// cannot be segmented stay literal text, unknown steps get the fallback
// label, and Flatten of the result always returns text unchanged.
func (p *Parser) Parse(ctx context.Context, text string, steps []StepMetadata) Document {
	idx := newStepIndex(steps)
	lines := strings.Split(text, "\n")

	doc := Document{Type: NodeTypeDoc, Content: make([]Paragraph, 0, len(lines))}
	for _, line := range lines {
		para := Paragraph{Type: NodeTypeParagraph}
		for _, r := range tokenize(line) {
			para.append(p.inline(ctx, r, idx))
		}
		doc.Content = append(doc.Content, para)
	}
	return doc
}

func (p *Parser) inline(ctx context.Context, r run, idx stepIndex) Inline {
	if !r.token {
		return textNode(r.text)
	}
	path, err := SegmentPath(r.text)
	if err != nil {
		logging.LogWith(ctx, p.logger).Debug("mention token kept as text",
			slog.String("token", r.text), slog.String("error", err.Error()))
		return textNode(r.text)
	}
	return mentionNode(r.text, path, idx.resolve(path, p.fallbackLabel))
}

var defaultParser = NewParser()

// ParseDocument parses text with the default parser.
func ParseDocument(text string, steps []StepMetadata) Document {
	return defaultParser.Parse(context.Background(), text, steps)
}

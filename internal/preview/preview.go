// Package preview evaluates a flow against sample step outputs: it shows
// the value behind each mention and which lane each branch would take.
package preview

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/rendis/flowcanvas/internal/expressions"
	"github.com/rendis/flowcanvas/internal/logging"
	"github.com/rendis/flowcanvas/internal/mention"
	"github.com/rendis/flowcanvas/pkg/schema"
)

// Previewer evaluates mentions with jq and branch conditions with the
// configured dialect. Safe for concurrent use.
type Previewer struct {
	jq         *expressions.GoJQEngine
	conditions expressions.Engine
	logger     *slog.Logger
}

// New creates a Previewer whose branch conditions use dialect ("cel" or "expr").
func New(dialect string, logger *slog.Logger) (*Previewer, error) {
	if dialect == expressions.DialectJQ {
		return nil, schema.NewError(schema.ErrCodeValidation, "jq cannot evaluate branch conditions")
	}
	cond, err := expressions.New(dialect)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Previewer{
		jq:         expressions.NewGoJQEngine(),
		conditions: cond,
		logger:     logger,
	}, nil
}

// Dialect returns the branch-condition dialect.
func (p *Previewer) Dialect() string {
	return p.conditions.Name()
}

// MentionValue is the sample value behind one mention.
type MentionValue struct {
	Token string `json:"token"`
	Label string `json:"label"`
	Query string `json:"query"`
	Value any    `json:"value"`
	Found bool   `json:"found"`
	Error string `json:"error,omitempty"`
}

// Mention looks up the sample value of a single mention.
func (p *Previewer) Mention(ctx context.Context, m mention.MentionAttrs, scope *expressions.Scope) MentionValue {
	out := MentionValue{
		Token: m.ServerValue,
		Label: m.Label,
		Query: expressions.PathQuery(".steps", m.Path),
	}
	v, err := p.jq.Evaluate(ctx, out.Query, scope.Data())
	if err != nil {
		logging.LogWith(ctx, p.logger).Debug("mention preview failed",
			slog.String("token", m.ServerValue), slog.String("error", err.Error()))
		out.Error = err.Error()
		return out
	}
	out.Value = v
	out.Found = v != nil
	return out
}

// Mentions previews every mention of doc in document order.
func (p *Previewer) Mentions(ctx context.Context, doc mention.Document, scope *expressions.Scope) []MentionValue {
	mentions := doc.Mentions()
	out := make([]MentionValue, 0, len(mentions))
	for _, m := range mentions {
		out = append(out, p.Mention(ctx, m, scope))
	}
	return out
}

// Render returns the document's text with each mention replaced by its
// sample value. Strings are inserted as is, other values as JSON. Mentions
// without a value keep their token.
func (p *Previewer) Render(ctx context.Context, doc mention.Document, scope *expressions.Scope) string {
	lines := make([]string, len(doc.Content))
	for i, para := range doc.Content {
		var b strings.Builder
		for _, n := range para.Content {
			if n.Type != mention.NodeTypeMention || n.Attrs == nil {
				b.WriteString(n.Text)
				continue
			}
			mv := p.Mention(ctx, *n.Attrs, scope)
			if !mv.Found {
				b.WriteString(n.Attrs.ServerValue)
				continue
			}
			b.WriteString(stringify(mv.Value))
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

package mention

import "strings"

// NodeType names a rich-text node in the editor's document schema.
type NodeType string

const (
	NodeTypeDoc       NodeType = "doc"
	NodeTypeParagraph NodeType = "paragraph"
	NodeTypeText      NodeType = "text"
	NodeTypeMention   NodeType = "mention"
)

// Document is the rich-text form of a text property: one paragraph per
// source line.
type Document struct {
	Type    NodeType    `json:"type"`
	Content []Paragraph `json:"content"`
}

// Paragraph is an ordered run of inline nodes.
type Paragraph struct {
	Type    NodeType `json:"type"`
	Content []Inline `json:"content,omitempty"`
}

// Inline is either a literal text run or a mention.
type Inline struct {
	Type  NodeType      `json:"type"`
	Text  string        `json:"text,omitempty"`
	Attrs *MentionAttrs `json:"attrs,omitempty"`
}

// MentionAttrs holds the stored token and its derived display fields.
// ServerValue is the untouched source token and is what gets serialized.
type MentionAttrs struct {
	ServerValue string         `json:"serverValue"`
	Label       string         `json:"label"`
	LogoURL     string         `json:"logoUrl,omitempty"`
	Resolution  ResolutionKind `json:"resolution"`
	Path        Path           `json:"path"`
}

// append adds n, merging it into a preceding text node when both are text.
func (p *Paragraph) append(n Inline) {
	if last := len(p.Content) - 1; last >= 0 && n.Type == NodeTypeText && p.Content[last].Type == NodeTypeText {
		p.Content[last].Text += n.Text
		return
	}
	p.Content = append(p.Content, n)
}

func textNode(s string) Inline {
	return Inline{Type: NodeTypeText, Text: s}
}

func mentionNode(token string, path Path, res Resolution) Inline {
	return Inline{
		Type: NodeTypeMention,
		Attrs: &MentionAttrs{
			ServerValue: token,
			Label:       res.Label,
			LogoURL:     res.LogoURL,
			Resolution:  res.Kind,
			Path:        path,
		},
	}
}

// Flatten serializes the document back to source text: literal runs and
// each mention's stored token, paragraphs joined by newlines.
func (d Document) Flatten() string {
	lines := make([]string, len(d.Content))
	for i, p := range d.Content {
		var b strings.Builder
		for _, n := range p.Content {
			switch n.Type {
			case NodeTypeMention:
				if n.Attrs != nil {
					b.WriteString(n.Attrs.ServerValue)
				}
			default:
				b.WriteString(n.Text)
			}
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// Mentions returns the attributes of every mention in document order.
func (d Document) Mentions() []MentionAttrs {
	var out []MentionAttrs
	for _, p := range d.Content {
		for _, n := range p.Content {
			if n.Type == NodeTypeMention && n.Attrs != nil {
				out = append(out, *n.Attrs)
			}
		}
	}
	return out
}

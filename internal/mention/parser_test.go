package mention

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/rendis/flowcanvas/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderSteps() []StepMetadata {
	return []StepMetadata{
		{ID: "step1", DisplayName: "Get User", DFSIndex: 1, LogoURL: "https://cdn.example.com/users.svg"},
		{ID: "step2", DisplayName: "Fetch Order", DFSIndex: 2},
	}
}

func TestParseDocument_OrderScenario(t *testing.T) {
	text := `Hello {{step1.name}}, your order {{step2.items[0]["sku"]}} shipped`
	doc := ParseDocument(text, orderSteps())

	assert.Equal(t, NodeTypeDoc, doc.Type)
	require.Len(t, doc.Content, 1)
	nodes := doc.Content[0].Content
	require.Len(t, nodes, 5)

	assert.Equal(t, textNode("Hello "), nodes[0])
	assert.Equal(t, textNode(", your order "), nodes[2])
	assert.Equal(t, textNode(" shipped"), nodes[4])

	require.Equal(t, NodeTypeMention, nodes[1].Type)
	assert.Equal(t, "1. Get User name", nodes[1].Attrs.Label)
	assert.Equal(t, "{{step1.name}}", nodes[1].Attrs.ServerValue)
	assert.Equal(t, "https://cdn.example.com/users.svg", nodes[1].Attrs.LogoURL)
	assert.Equal(t, ResolutionResolved, nodes[1].Attrs.Resolution)

	require.Equal(t, NodeTypeMention, nodes[3].Type)
	assert.Equal(t, "2. Fetch Order items sku", nodes[3].Attrs.Label)
	assert.Equal(t, `{{step2.items[0]["sku"]}}`, nodes[3].Attrs.ServerValue)
	assert.Equal(t, Path{"step2", "items", "0", "sku"}, nodes[3].Attrs.Path)

	assert.Equal(t, text, doc.Flatten())
}

func TestParseDocument_UnknownStepFallsBack(t *testing.T) {
	doc := ParseDocument("value: {{unknownStep.field}}", orderSteps())

	mentions := doc.Mentions()
	require.Len(t, mentions, 1)
	assert.Equal(t, FallbackLabel, mentions[0].Label)
	assert.Empty(t, mentions[0].LogoURL)
	assert.Equal(t, ResolutionFallback, mentions[0].Resolution)
	assert.Equal(t, "{{unknownStep.field}}", mentions[0].ServerValue)
}

func TestParseDocument_MalformedTokensStayText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty token", "a {{}} b"},
		{"unterminated bracket", `x {{step1.items[0}} y`},
		{"unclosed token", "price {{step1.amount"},
		{"single braces", "{step1.name}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := ParseDocument(tc.text, orderSteps())
			assert.Empty(t, doc.Mentions())
			assert.Equal(t, tc.text, doc.Flatten())
		})
	}
}

func TestParseDocument_MalformedTokenDoesNotAffectOthers(t *testing.T) {
	doc := ParseDocument(`{{step1[}} and {{step2.id}}`, orderSteps())
	nodes := doc.Content[0].Content
	require.Len(t, nodes, 2, "a degraded token merges with the text after it")
	assert.Equal(t, textNode("{{step1[}} and "), nodes[0])
	assert.Equal(t, "2. Fetch Order id", nodes[1].Attrs.Label)
}

func TestParseDocument_MultiLine(t *testing.T) {
	text := "Dear {{step1.name}},\n\nTotal: {{step2.total}}\n"
	doc := ParseDocument(text, orderSteps())

	require.Len(t, doc.Content, 4)
	assert.Len(t, doc.Content[0].Content, 3)
	assert.Empty(t, doc.Content[1].Content)
	assert.Len(t, doc.Content[2].Content, 2)
	assert.Empty(t, doc.Content[3].Content)
	assert.Equal(t, text, doc.Flatten())
}

func TestParseDocument_EmptyText(t *testing.T) {
	doc := ParseDocument("", nil)
	require.Len(t, doc.Content, 1)
	assert.Empty(t, doc.Content[0].Content)
	assert.Equal(t, "", doc.Flatten())
}

func TestParseDocument_AdjacentTokens(t *testing.T) {
	doc := ParseDocument("{{step1}}{{step2}}", orderSteps())
	nodes := doc.Content[0].Content
	require.Len(t, nodes, 2)
	assert.Equal(t, "1. Get User", nodes[0].Attrs.Label)
	assert.Equal(t, "2. Fetch Order", nodes[1].Attrs.Label)
}

func TestParseDocument_RoundTripRandomText(t *testing.T) {
	alphabet := []string{"{", "}", "{{", "}}", "[", "]", ".", "\"", "'", " ", "\n", "a", "step1", "step2", "é", "0"}
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		var b bytes.Buffer
		for j := r.Intn(30); j > 0; j-- {
			b.WriteString(alphabet[r.Intn(len(alphabet))])
		}
		text := b.String()
		assert.Equal(t, text, ParseDocument(text, orderSteps()).Flatten(), "text %q", text)
	}
}

func TestParser_CustomFallbackAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewParser(WithFallbackLabel("Unknown reference"), WithLogger(logger))

	ctx := logging.WithStepName(context.Background(), "send_email")
	doc := p.Parse(ctx, "{{nope.x}} {{bad[}}", nil)

	mentions := doc.Mentions()
	require.Len(t, mentions, 1)
	assert.Equal(t, "Unknown reference", mentions[0].Label)

	out := buf.String()
	assert.Contains(t, out, "mention token kept as text")
	assert.Contains(t, out, "step_name=send_email")
}

func TestNewParser_IgnoresEmptyOptions(t *testing.T) {
	p := NewParser(WithFallbackLabel(""), WithLogger(nil))
	assert.Equal(t, FallbackLabel, p.fallbackLabel)
	assert.NotNil(t, p.logger)
}

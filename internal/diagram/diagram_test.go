package diagram

import (
	"context"
	"strings"
	"testing"

	"github.com/rendis/flowcanvas/internal/layout"
	"github.com/rendis/flowcanvas/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// branchTree: trigger -> check(BRANCH: send | <empty>) -> done
func branchTree() *schema.Step {
	return &schema.Step{
		Name:        "trigger",
		DisplayName: "New Order",
		Next: &schema.Step{
			Name:        "check",
			DisplayName: "Is \"paid\"?",
			Type:        schema.StepTypeBranch,
			OnSuccess:   &schema.Step{Name: "send", DisplayName: "Send receipt"},
			Next:        &schema.Step{Name: "done"},
		},
	}
}

func loopTree() *schema.Step {
	return &schema.Step{
		Name: "trigger",
		Next: &schema.Step{
			Name: "each",
			Type: schema.StepTypeLoop,
			Body: &schema.Step{Name: "body"},
		},
	}
}

func buildModel(t *testing.T, root *schema.Step, opts layout.Options) *DiagramModel {
	t.Helper()
	g := layout.NewBuilder(opts, nil).Build(root)
	m := Build("Orders", g)
	require.Len(t, m.Nodes, len(g.Nodes))
	require.Len(t, m.Edges, len(g.Edges))
	return m
}

func edgeLabels(m *DiagramModel, from string) []string {
	var out []string
	for _, e := range m.Edges {
		if e.From == from {
			out = append(out, e.Label)
		}
	}
	return out
}

func TestBuild_KindsAndLabels(t *testing.T) {
	m := buildModel(t, branchTree(), layout.DefaultOptions())

	assert.Equal(t, "Orders", m.Title)
	assert.Equal(t, NodeKindTrigger, m.node("trigger").Kind)
	assert.Equal(t, "New Order", m.node("trigger").Label)
	assert.Equal(t, NodeKindBranch, m.node("check").Kind)
	assert.Equal(t, NodeKindAction, m.node("send").Kind)
	assert.Equal(t, "done", m.node("done").Label)

	var placeholders int
	for _, n := range m.Nodes {
		if n.Kind == NodeKindPlaceholder {
			placeholders++
			assert.Equal(t, placeholderLabel, n.Label)
		}
	}
	assert.Equal(t, 1, placeholders)

	assert.Equal(t, []string{"success", "failure"}, edgeLabels(m, "check"))
	assert.Equal(t, []string{""}, edgeLabels(m, "trigger"))
	assert.Equal(t, 160.0, m.node("check").Y)
}

func TestBuild_LoopEdgeLabels(t *testing.T) {
	m := buildModel(t, loopTree(), layout.DefaultOptions())
	assert.Equal(t, []string{"body"}, edgeLabels(m, "each"))

	legacy := layout.DefaultOptions()
	legacy.LoopLanes = layout.LoopLanesLegacy
	m = buildModel(t, loopTree(), legacy)
	assert.Equal(t, []string{"skip", "body"}, edgeLabels(m, "each"))
}

func TestApplyRoute(t *testing.T) {
	m := buildModel(t, branchTree(), layout.DefaultOptions())
	m.ApplyRoute([]string{"trigger", "check", "done"})

	assert.Equal(t, StatusVisited, m.node("trigger").Status.Status)
	assert.Equal(t, StatusSkipped, m.node("send").Status.Status)
	for _, n := range m.Nodes {
		if n.Kind == NodeKindPlaceholder {
			assert.Nil(t, n.Status)
		}
	}
}

func TestRenderMermaid(t *testing.T) {
	m := buildModel(t, branchTree(), layout.DefaultOptions())
	m.ApplyRoute([]string{"trigger", "check", "send", "done"})
	out := RenderMermaid(m)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "%% Orders")
	assert.Contains(t, out, `trigger(["New Order"])`)
	assert.Contains(t, out, `check{"Is 'paid'?"}`)
	assert.Contains(t, out, `send["Send receipt"]`)
	assert.Contains(t, out, "check -->|success| send")
	assert.Contains(t, out, "class send visited")
	assert.Contains(t, out, "placeholder")
	assert.NotContains(t, out, "placeholder-", "ids are made mermaid-safe")
}

func TestRenderASCII(t *testing.T) {
	m := buildModel(t, branchTree(), layout.DefaultOptions())
	out := RenderASCII(m, layout.DefaultOptions().NodeWidth)

	assert.True(t, strings.HasPrefix(out, "=== Orders ===\n\n"))
	assert.Contains(t, out, "│ New Order    │")
	assert.Contains(t, out, "│ Send receipt │")
	assert.Contains(t, out, `Is "paid"? ─→ Send receipt [success]`)
	assert.Contains(t, out, "Send receipt ─→ done")

	lines := strings.Split(out, "\n")
	var sendLine, placeholderLine int
	for i, l := range lines {
		if strings.Contains(l, "Send receipt │") {
			sendLine = i
		}
		if strings.Contains(l, "│ +") {
			placeholderLine = i
		}
	}
	assert.Equal(t, sendLine, placeholderLine, "both lanes sit on one row")
	send := strings.Index(lines[sendLine], "Send receipt")
	plus := strings.Index(lines[placeholderLine], "│ +")
	assert.Less(t, send, plus, "success lane is drawn left of failure lane")
}

func TestRenderASCII_TruncatesAndTags(t *testing.T) {
	m := &DiagramModel{Nodes: []*Node{{
		ID:     "a",
		Label:  "A very long step label indeed",
		Kind:   NodeKindAction,
		Status: &StatusOverlay{Status: StatusVisited},
	}}}
	out := RenderASCII(m, 260)
	assert.Contains(t, out, "│ * A very lo… │")
	assert.Empty(t, RenderASCII(&DiagramModel{}, 260))
}

func TestRenderMermaidForCLI(t *testing.T) {
	m := buildModel(t, branchTree(), layout.DefaultOptions())
	m.ApplyRoute([]string{"trigger"})
	out := RenderMermaidForCLI(m)

	assert.Contains(t, out, "New-Order-RUN --> Is-\"paid\"?-SKIP")
	assert.Contains(t, out, "-->|failure| placeholder_")
}

func TestRenderMermaidForCLI_RepeatedLabelsStayDistinct(t *testing.T) {
	root := &schema.Step{
		Name: "trigger", DisplayName: "Webhook",
		Next: &schema.Step{
			Name: "a", DisplayName: "Send Email",
			Next: &schema.Step{
				Name: "b", DisplayName: "Log",
				Next: &schema.Step{Name: "c", DisplayName: "Send Email"},
			},
		},
	}
	m := buildModel(t, root, layout.DefaultOptions())
	out := RenderMermaidForCLI(m)

	assert.Equal(t, "graph TD\n"+
		"    Webhook --> Send-Email\n"+
		"    Send-Email --> Log\n"+
		"    Log --> Send-Email-c\n", out)
}

func TestRenderMermaidForCLI_SuffixCollision(t *testing.T) {
	m := &DiagramModel{
		Nodes: []*Node{
			{ID: "a", Label: "X"},
			{ID: "b", Label: "X-c"},
			{ID: "c", Label: "X"},
		},
		Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}},
	}
	out := RenderMermaidForCLI(m)

	assert.Contains(t, out, "X --> X-c\n")
	assert.Contains(t, out, "X-c --> X-c-2\n")
}

func TestRenderASCIIAuto_FallsBack(t *testing.T) {
	m := buildModel(t, branchTree(), layout.DefaultOptions())
	assert.Equal(t, RenderASCII(m, 260), RenderASCIIAuto(m, 260, t.TempDir()))
}

func TestRenderImage(t *testing.T) {
	m := buildModel(t, branchTree(), layout.DefaultOptions())
	ctx := context.Background()

	png, err := RenderImage(ctx, m, FormatPNG)
	require.NoError(t, err)
	require.True(t, len(png) > 8, "PNG should be larger than header")
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	svg, err := RenderImage(ctx, m, FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	_, err = RenderImage(ctx, m, "gif")
	assert.Error(t, err)
}

func TestRenderImage_UnknownEdgeEndpoint(t *testing.T) {
	m := &DiagramModel{
		Nodes: []*Node{{ID: "a", Label: "a", Kind: NodeKindTrigger}},
		Edges: []Edge{{From: "a", To: "ghost"}},
	}
	_, err := RenderImage(context.Background(), m, FormatPNG)
	assert.ErrorContains(t, err, "unknown node")
}

package diagram

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RenderASCIIAuto tries to render using the mermaid-ascii CLI binary if available,
// falling back to the hand-rolled RenderASCII renderer.
func RenderASCIIAuto(model *DiagramModel, nodeWidth float64, binDir string) string {
	if binDir != "" {
		binPath := filepath.Join(binDir, "mermaid-ascii")
		if _, err := os.Stat(binPath); err == nil {
			result, err := RenderASCIIViaCLI(model, binPath)
			if err == nil {
				return result
			}
		}
	}
	return RenderASCII(model, nodeWidth)
}

// RenderASCIIViaCLI pipes simplified Mermaid syntax through the mermaid-ascii binary.
func RenderASCIIViaCLI(model *DiagramModel, binPath string) (string, error) {
	mermaid := RenderMermaidForCLI(model)

	cmd := exec.Command(binPath)
	cmd.Stdin = strings.NewReader(mermaid)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("mermaid-ascii: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// RenderMermaidForCLI generates simplified Mermaid syntax compatible with the
// mermaid-ascii CLI tool. Unlike RenderMermaid, this avoids node declarations
// with ["label"] syntax (which mermaid-ascii cannot parse) and instead uses
// labels with status tags as node IDs. Placeholders keep their ids so that
// distinct empty lanes stay distinct nodes, and a label repeated by another
// step is suffixed with the step name so the two never collapse into one node.
func RenderMermaidForCLI(model *DiagramModel) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	displayID := make(map[string]string, len(model.Nodes))
	used := make(map[string]bool, len(model.Nodes))
	for _, node := range model.Nodes {
		id := cliNodeID(node)
		if used[id] {
			id += "-" + mermaidSafeID(node.ID)
		}
		base := id
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		used[id] = true
		displayID[node.ID] = id
	}

	resolve := func(id string) string {
		if d, ok := displayID[id]; ok {
			return d
		}
		return mermaidSafeID(id)
	}

	for _, edge := range model.Edges {
		label := ""
		if edge.Label != "" {
			label = fmt.Sprintf("|%s|", edge.Label)
		}
		b.WriteString(fmt.Sprintf("    %s -->%s %s\n", resolve(edge.From), label, resolve(edge.To)))
	}

	return b.String()
}

// cliNodeID builds a display ID for the mermaid-ascii CLI.
// Embeds the status tag into the ID for visibility.
func cliNodeID(node *Node) string {
	if node.Kind == NodeKindPlaceholder {
		return mermaidSafeID(node.ID)
	}
	id := node.Label
	if id == "" {
		id = node.ID
	}
	id = firstLine(id)

	if node.Status != nil {
		if tag := cliStatusTag(node.Status.Status); tag != "" {
			id += "-" + tag
		}
	}

	// Replace spaces with dashes for valid Mermaid IDs.
	id = strings.ReplaceAll(id, " ", "-")
	return id
}

// cliStatusTag returns a compact status indicator for node IDs.
func cliStatusTag(status string) string {
	switch status {
	case StatusVisited:
		return "RUN"
	case StatusSkipped:
		return "SKIP"
	default:
		return ""
	}
}

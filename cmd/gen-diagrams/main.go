// gen-diagrams generates sample diagram outputs for README documentation.
// Run: go run ./cmd/gen-diagrams
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rendis/flowcanvas/internal/diagram"
	"github.com/rendis/flowcanvas/internal/layout"
	"github.com/rendis/flowcanvas/pkg/schema"
)

func main() {
	// Order flow: webhook → fetch → branch(in_stock?) → two lanes → loop over items → ship
	flow := &schema.Flow{
		DisplayName: "Order fulfilment",
		Trigger: &schema.Step{
			Name: "trigger", DisplayName: "New Order", Piece: "webhook",
			Next: &schema.Step{
				Name: "fetch_order", DisplayName: "Fetch order", Piece: "http", Action: "send_request",
				Settings: mustJSON(map[string]any{"url": "https://shop.example.com/orders/{{trigger.body.id}}"}),
				Next: &schema.Step{
					Name: "check_stock", DisplayName: "In stock?", Type: schema.StepTypeBranch,
					Condition: "fetch_order.body.quantity > 0",
					OnSuccess: &schema.Step{Name: "charge", DisplayName: "Charge card", Piece: "stripe"},
					OnFailure: &schema.Step{Name: "notify_restock", DisplayName: "Notify restock", Piece: "slack"},
					Next: &schema.Step{
						Name: "each_item", DisplayName: "For each item", Type: schema.StepTypeLoop,
						Body: &schema.Step{Name: "reserve", DisplayName: "Reserve item", Piece: "inventory"},
						Next: &schema.Step{Name: "ship", DisplayName: "Ship", Piece: "shipping"},
					},
				},
			},
		},
	}

	opts := layout.DefaultOptions()
	g := layout.NewBuilder(opts, nil).Build(flow.Trigger)
	model := diagram.Build(flow.DisplayName, g)
	model.ApplyRoute([]string{"trigger", "fetch_order", "check_stock", "charge", "each_item", "reserve", "ship"})

	outDir := filepath.Join("docs", "assets")
	os.MkdirAll(outDir, 0o755)

	// ASCII (mermaid-ascii with hand-rolled fallback)
	home, _ := os.UserHomeDir()
	binDir := filepath.Join(home, ".flowcanvas", "bin")
	ascii := diagram.RenderASCIIAuto(model, opts.NodeWidth, binDir)
	os.WriteFile(filepath.Join(outDir, "diagram-ascii.txt"), []byte(ascii), 0o644)
	fmt.Println("=== ASCII (mermaid-ascii) ===")
	fmt.Println(ascii)

	// Mermaid
	mermaid := diagram.RenderMermaid(model)
	os.WriteFile(filepath.Join(outDir, "diagram-mermaid.md"), []byte("```mermaid\n"+mermaid+"\n```\n"), 0o644)
	fmt.Println("=== Mermaid ===")
	fmt.Println(mermaid)

	// Image (PNG)
	png, imgErr := diagram.RenderImage(context.Background(), model, diagram.FormatPNG)
	if imgErr != nil {
		fmt.Fprintf(os.Stderr, "image error: %v\n", imgErr)
	} else {
		pngPath := filepath.Join(outDir, "diagram-sample.png")
		os.WriteFile(pngPath, png, 0o644)
		fmt.Printf("=== Image (PNG) ===\nWritten: %s (%d bytes)\n", pngPath, len(png))
	}
}

func mustJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	steps := []StepMetadata{
		{ID: "trigger", DisplayName: "New Row", DFSIndex: 1, LogoURL: "sheets.svg"},
		{ID: "step_1", DFSIndex: 2},
		{ID: "step_1", DisplayName: "Shadowed", DFSIndex: 9},
		{ID: "unnumbered", DisplayName: "Loose"},
	}

	tests := []struct {
		name string
		path Path
		want Resolution
	}{
		{"step only", Path{"trigger"}, Resolution{ResolutionResolved, "1. New Row", "sheets.svg"}},
		{"with properties", Path{"trigger", "row", "0", "cell"}, Resolution{ResolutionResolved, "1. New Row row cell", "sheets.svg"}},
		{"alphanumeric key kept", Path{"trigger", "v2"}, Resolution{ResolutionResolved, "1. New Row v2", "sheets.svg"}},
		{"id as display name, first entry wins", Path{"step_1", "body"}, Resolution{ResolutionResolved, "2. step_1 body", ""}},
		{"no index", Path{"unnumbered"}, Resolution{ResolutionResolved, "Loose", ""}},
		{"unknown", Path{"ghost", "x"}, Resolution{ResolutionFallback, FallbackLabel, ""}},
		{"empty path", Path{}, Resolution{ResolutionFallback, FallbackLabel, ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.path, steps))
		})
	}
}

package mention

import (
	"strings"
	"testing"

	"github.com/rendis/flowcanvas/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentPath(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Path
	}{
		{"single segment", "{{trigger}}", Path{"trigger"}},
		{"dotted", "{{step_1.output.name}}", Path{"step_1", "output", "name"}},
		{"quoted key and index", `{{a["x y"].0}}`, Path{"a", "x y", "0"}},
		{"numeric bracket", "{{step_2.items[0]}}", Path{"step_2", "items", "0"}},
		{"chained brackets", `{{step2.items[0]["sku"]}}`, Path{"step2", "items", "0", "sku"}},
		{"single quotes", `{{s['first name']}}`, Path{"s", "first name"}},
		{"dot inside brackets", `{{s["a.b"].c}}`, Path{"s", "a.b", "c"}},
		{"bracket inside quotes", `{{s["a]b"]}}`, Path{"s", "a]b"}},
		{"consecutive dots collapse", "{{a..b}}", Path{"a", "b"}},
		{"dot after bracket", "{{a[1].b}}", Path{"a", "1", "b"}},
		{"surrounding spaces", "{{ step_1.body }}", Path{"step_1", "body"}},
		{"no delimiters", "step_1.body", Path{"step_1", "body"}},
		{"bare quoted segment", `{{"step_1".x}}`, Path{"step_1", "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SegmentPath(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSegmentPath_MatchesSplitForDottedPaths(t *testing.T) {
	paths := []string{
		"trigger",
		"step_1.output",
		"step_12.body.data.items.0.id",
		"a.b.c.d.e.f",
		"step-3.héllo.wörld",
	}
	for _, p := range paths {
		got, err := SegmentPath("{{" + p + "}}")
		require.NoError(t, err)
		assert.Equal(t, strings.Split(p, "."), []string(got), "path %q", p)
	}
}

func TestSegmentPath_Errors(t *testing.T) {
	for _, raw := range []string{"{{}}", "{{   }}", "", `{{a["b}}`, "{{a[0}}"} {
		_, err := SegmentPath(raw)
		require.Error(t, err, "raw %q", raw)

		var flowErr *schema.FlowError
		require.ErrorAs(t, err, &flowErr)
		assert.Equal(t, schema.ErrCodeParse, flowErr.Code)
	}
}

func TestPath_Accessors(t *testing.T) {
	p := Path{"step_1", "output", "name"}
	assert.Equal(t, "step_1", p.StepID())
	assert.Equal(t, []string{"output", "name"}, p.Properties())

	assert.Equal(t, "", Path{}.StepID())
	assert.Nil(t, Path{"only"}.Properties())
}

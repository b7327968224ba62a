package expressions

import (
	"context"
	"testing"

	"github.com/rendis/flowcanvas/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGoJQEngine(t *testing.T) {
	e := NewGoJQEngine()
	assert.Equal(t, "jq", e.Name())
}

func orderSample() map[string]any {
	return map[string]any{
		"steps": map[string]any{
			"step2": map[string]any{
				"items": []any{
					map[string]any{"sku": "A-1", "first name": "x"},
					map[string]any{"sku": "B-7"},
				},
				"count": 2,
			},
		},
	}
}

func TestGoJQ_Evaluate(t *testing.T) {
	e := NewGoJQEngine()
	ctx := context.Background()

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"field", `.steps.step2.items[0].sku`, "A-1"},
		{"ints normalized", `.steps.step2.count`, float64(2)},
		{"multiple outputs", `.steps.step2.items[].sku`, []any{"A-1", "B-7"}},
		{"no output", `empty`, nil},
		{"missing key", `.steps.nope`, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := e.Evaluate(ctx, tc.expr, orderSample())
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestGoJQ_EnvIsSandboxed(t *testing.T) {
	t.Setenv("FLOWCANVAS_SECRET", "hunter2")
	out, err := NewGoJQEngine().Evaluate(context.Background(), `$ENV.FLOWCANVAS_SECRET`, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGoJQ_Errors(t *testing.T) {
	e := NewGoJQEngine()
	var flowErr *schema.FlowError

	_, err := e.Evaluate(context.Background(), ".steps[", nil)
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, schema.ErrCodeExpression, flowErr.Code)

	_, err = e.Evaluate(context.Background(), `error("boom")`, nil)
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, schema.ErrCodeExecution, flowErr.Code)

	assert.Error(t, e.Check(""))
	assert.NoError(t, e.Check(".a | length"))
}

func TestPathQuery(t *testing.T) {
	tests := []struct {
		root     string
		segments []string
		want     string
	}{
		{"", nil, "."},
		{".steps", []string{"step2"}, `.steps["step2"]`},
		{".steps", []string{"step2", "items", "0", "sku"},
			`.steps["step2"]["items"] | if type == "object" then .["0"] else .[0]? end | .["sku"]`},
		{".", []string{"1", "2"},
			`. | if type == "object" then .["1"] else .[1]? end | if type == "object" then .["2"] else .[2]? end`},
		{".", []string{"first name", `quo"te`}, `.["first name"]["quo\"te"]`},
		{".", []string{"007"}, `.["007"]`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PathQuery(tc.root, tc.segments))
	}
}

func TestPathQuery_Evaluates(t *testing.T) {
	e := NewGoJQEngine()
	ctx := context.Background()

	out, err := e.Evaluate(ctx, PathQuery(".steps", []string{"step2", "items", "0", "first name"}), orderSample())
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	out, err = e.Evaluate(ctx, PathQuery(".steps", []string{"step2", "count", "3"}), orderSample())
	require.NoError(t, err)
	assert.Nil(t, out, "indexing a number is suppressed")
}

func TestPathQuery_DigitKeyOnObject(t *testing.T) {
	e := NewGoJQEngine()
	ctx := context.Background()
	data := map[string]any{
		"steps": map[string]any{
			"step1": map[string]any{
				"data": map[string]any{"0": "zero", "1": map[string]any{"id": "r-1"}},
				"rows": []any{"first", "second"},
			},
		},
	}

	out, err := e.Evaluate(ctx, PathQuery(".steps", []string{"step1", "data", "0"}), data)
	require.NoError(t, err)
	assert.Equal(t, "zero", out)

	out, err = e.Evaluate(ctx, PathQuery(".steps", []string{"step1", "data", "1", "id"}), data)
	require.NoError(t, err)
	assert.Equal(t, "r-1", out)

	out, err = e.Evaluate(ctx, PathQuery(".steps", []string{"step1", "rows", "1"}), data)
	require.NoError(t, err)
	assert.Equal(t, "second", out)

	out, err = e.Evaluate(ctx, PathQuery(".steps", []string{"step1", "data", "7"}), data)
	require.NoError(t, err)
	assert.Nil(t, out)
}

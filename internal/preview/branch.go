package preview

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rendis/flowcanvas/internal/expressions"
	"github.com/rendis/flowcanvas/internal/logging"
	"github.com/rendis/flowcanvas/internal/mention"
	"github.com/rendis/flowcanvas/pkg/schema"
)

// Lane names a branch outcome.
type Lane string

const (
	LaneSuccess Lane = "success"
	LaneFailure Lane = "failure"
)

// BranchDecision reports the lane a branch takes for the sample data.
type BranchDecision struct {
	Step      string `json:"step"`
	Condition string `json:"condition"`
	Result    bool   `json:"result"`
	Lane      Lane   `json:"lane"`
	// Next is the first step of the chosen lane, "" when the lane is empty.
	Next string `json:"next,omitempty"`
}

// Branch evaluates a BRANCH step's condition against scope.
func (p *Previewer) Branch(ctx context.Context, step *schema.Step, scope *expressions.Scope) (BranchDecision, error) {
	if step == nil || step.Shape() != schema.StepTypeBranch {
		return BranchDecision{}, schema.NewError(schema.ErrCodeValidation, "step is not a branch")
	}
	if step.Condition == "" {
		return BranchDecision{}, schema.NewError(schema.ErrCodeValidation, "branch has no condition").
			WithStep(step.Name)
	}

	ctx = logging.WithStepName(ctx, step.Name)
	ok, err := expressions.EvaluateBool(ctx, p.conditions, step.Condition, scope.Data())
	if err != nil {
		var fe *schema.FlowError
		if errors.As(err, &fe) {
			return BranchDecision{}, fe.WithStep(step.Name)
		}
		return BranchDecision{}, err
	}

	d := BranchDecision{Step: step.Name, Condition: step.Condition, Result: ok, Lane: LaneFailure}
	lane := step.OnFailure
	if ok {
		d.Lane, lane = LaneSuccess, step.OnSuccess
	}
	if lane != nil {
		d.Next = lane.Name
	}
	logging.LogWith(ctx, p.logger).Debug("branch evaluated",
		slog.String("dialect", p.conditions.Name()), slog.String("lane", string(d.Lane)))
	return d, nil
}

// Route walks the flow the way a run with the sample data would: branches
// follow the lane their condition selects, loop bodies are entered once.
// It returns the visited step names and every branch decision in order.
// Each condition only sees the samples of steps upstream of its branch.
func (p *Previewer) Route(ctx context.Context, root *schema.Step, scope *expressions.Scope) ([]string, []BranchDecision, error) {
	var (
		visited   []string
		decisions []BranchDecision
	)
	var walk func(head *schema.Step) error
	walk = func(head *schema.Step) error {
		for cur := head; cur != nil; cur = cur.Next {
			visited = append(visited, cur.Name)
			switch cur.Shape() {
			case schema.StepTypeBranch:
				visible, err := mention.UpstreamSteps(root, cur.Name)
				if err != nil {
					return err
				}
				d, err := p.Branch(ctx, cur, scope.Restrict(stepIDs(visible)))
				if err != nil {
					return err
				}
				decisions = append(decisions, d)
				lane := cur.OnFailure
				if d.Lane == LaneSuccess {
					lane = cur.OnSuccess
				}
				if err := walk(lane); err != nil {
					return err
				}
			case schema.StepTypeLoop:
				if err := walk(cur.Body); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return visited, decisions, err
	}
	return visited, decisions, nil
}

func stepIDs(steps []mention.StepMetadata) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

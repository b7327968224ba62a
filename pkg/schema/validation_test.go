package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_EmptyIsValid(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.Valid())
	assert.Empty(t, r.Issues())
}

func TestValidationResult_AddStepError(t *testing.T) {
	r := &ValidationResult{}
	r.AddStepError("trigger.nextAction", "step_1", ErrCodeValidation, "duplicate step name")

	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "trigger.nextAction", r.Errors[0].Path)
	assert.Equal(t, "step_1", r.Errors[0].StepName)
	assert.Equal(t, SeverityError, r.Errors[0].Severity)
}

func TestValidationResult_WarningsKeepResultValid(t *testing.T) {
	r := &ValidationResult{}
	r.AddStepWarning("trigger", "trigger", ErrCodeValidation, "branch without condition")

	assert.True(t, r.Valid())
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, SeverityWarning, r.Warnings[0].Severity)
	assert.Nil(t, r.ToError())
}

func TestValidationResult_MergeAndIssuesOrder(t *testing.T) {
	r1 := &ValidationResult{}
	r1.AddWarning("/", ErrCodeValidation, "warn1")

	r2 := &ValidationResult{}
	r2.AddError("trigger", ErrCodeCycleDetected, "err1")

	r1.Merge(r2)
	r1.Merge(nil)

	issues := r1.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, SeverityWarning, issues[1].Severity)
}

func TestValidationResult_ToError(t *testing.T) {
	r := &ValidationResult{}
	r.AddStepError("trigger", "trigger", ErrCodeValidation, "bad cron")

	err := r.ToError()
	require.Error(t, err)

	var flowErr *FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, "bad cron", flowErr.Message)
	assert.Equal(t, "trigger", flowErr.StepName)
	assert.Equal(t, 1, flowErr.Details["error_count"])

	r.AddError("/", ErrCodeValidation, "second")
	require.True(t, errors.As(r.ToError(), &flowErr))
	assert.Contains(t, flowErr.Message, "2 errors")
}

func TestFlowError_Format(t *testing.T) {
	cause := errors.New("boom")
	err := NewErrorf(ErrCodeParse, "token %d", 3).WithStep("step_2").WithCause(cause)

	assert.Equal(t, "[PARSE_ERROR] step step_2: token 3", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[NOT_FOUND] missing", NewError(ErrCodeNotFound, "missing").Error())
}

package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"megacoop-kyc/kyc"
	"megacoop-kyc/shared"
)

// SubmitStepWorkflow is a child workflow that sends one wizard step to the
// backend. A rejected or invalid submission is a business outcome: it comes
// back as Accepted=false with the message to show, never as a workflow error.
func SubmitStepWorkflow(ctx workflow.Context, sub shared.StepSubmission) (shared.StepOutcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Step submission workflow started", "step", sub.Step)

	step, ok := kyc.StepByNumber(sub.Step)
	if !ok {
		return shared.StepOutcome{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("unknown step %d", sub.Step), shared.ErrTypeValidationFailed, nil)
	}

	// Backend calls get a few retries for transient failures. Validation and
	// rejection errors are non-retryable by type.
	opts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
			NonRetryableErrorTypes: []string{
				shared.ErrTypeValidationFailed,
				shared.ErrTypeSubmissionRejected,
			},
		},
	}
	actCtx := workflow.WithActivityOptions(ctx, opts)

	var err error
	switch sub.Step {
	case 1:
		err = workflow.ExecuteActivity(actCtx, a.VerifyNIN, sub.NIN).Get(ctx, nil)
	case 2:
		err = workflow.ExecuteActivity(actCtx, a.VerifyBVN, sub.BVN).Get(ctx, nil)
	case 3:
		err = workflow.ExecuteActivity(actCtx, a.UploadIDCard, sub).Get(ctx, nil)
	case 4:
		err = workflow.ExecuteActivity(actCtx, a.UploadProofOfAddress, sub).Get(ctx, nil)
	case 5:
		err = workflow.ExecuteActivity(actCtx, a.SendFaceCapture, sub.Image).Get(ctx, nil)
	}

	if err != nil {
		msg := outcomeMessage(err, step.FallbackMessage)
		logger.Info("Step submission not accepted", "step", sub.Step, "message", msg, "error", err)
		return shared.StepOutcome{Step: sub.Step, Accepted: false, Message: msg}, nil
	}

	logger.Info("Step submission accepted", "step", sub.Step)
	return shared.StepOutcome{Step: sub.Step, Accepted: true, Message: fmt.Sprintf("%s submitted", step.Label)}, nil
}

// outcomeMessage surfaces the message carried by validation and rejection
// errors; anything else gets the step's fallback text.
func outcomeMessage(err error, fallback string) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case shared.ErrTypeValidationFailed, shared.ErrTypeSubmissionRejected:
			if appErr.Message() != "" {
				return appErr.Message()
			}
		}
	}
	return fallback
}

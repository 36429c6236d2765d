package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"megacoop-kyc/kyc"
	"megacoop-kyc/shared"
)

// sessionWorkflow holds the wizard state of one user's KYC session and
// provides a method per user action.
type sessionWorkflow struct {
	// Wizard state
	store     *kyc.Store
	face      *kyc.FaceCapture
	hidden    bool
	success   bool
	lastError string
	ended     bool
	stepRuns  int

	// Timing
	idleTimeout  time.Duration
	pollInterval time.Duration
	lastActivity time.Time

	// Workflow context
	req      shared.SessionRequest
	logger   log.Logger
	fetchCtx workflow.Context
	actCtx   workflow.Context

	refreshCh workflow.ReceiveChannel
	submitCh  workflow.ReceiveChannel
	faceCh    workflow.ReceiveChannel
	modalCh   workflow.ReceiveChannel
	endCh     workflow.ReceiveChannel
}

// newSessionWorkflow initializes the workflow struct, registers the query
// handler, and sets up the signal channels and activity options.
func newSessionWorkflow(ctx workflow.Context, req shared.SessionRequest) (*sessionWorkflow, error) {
	w := &sessionWorkflow{
		store:        kyc.NewStore(),
		face:         kyc.NewFaceCapture(),
		idleTimeout:  secondsOr(req.IdleTimeoutSeconds, shared.DefaultIdleTimeout),
		pollInterval: secondsOr(req.ApprovalPollSeconds, shared.DefaultApprovalPollInterval),
		lastActivity: workflow.Now(ctx),
		req:          req,
		logger:       workflow.GetLogger(ctx),
		refreshCh:    workflow.GetSignalChannel(ctx, shared.SignalRefresh),
		submitCh:     workflow.GetSignalChannel(ctx, shared.SignalSubmitStep),
		faceCh:       workflow.GetSignalChannel(ctx, shared.SignalFaceCapture),
		modalCh:      workflow.GetSignalChannel(ctx, shared.SignalModalAction),
		endCh:        workflow.GetSignalChannel(ctx, shared.SignalEndSession),
	}

	err := workflow.SetQueryHandler(ctx, shared.QueryNavigationState, func() (shared.NavigationState, error) {
		return w.state(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set query handler: %w", err)
	}

	// A failed status fetch falls back to the unstarted state; it is never
	// retried automatically.
	w.fetchCtx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 15 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	w.actCtx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 15 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{shared.ErrTypeSubmissionRejected},
		},
	})

	return w, nil
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// state is the navigation state with the visible modal and the face flow.
func (w *sessionWorkflow) state() shared.NavigationState {
	st := w.store.State()
	st.Modal = kyc.VisibleModal(w.store, w.hidden, w.success)
	st.FacePhase = w.face.Phase()
	st.LastError = w.lastError
	return st
}

// refresh fetches the status and applies it to the store. Dismissed and
// success modals are cleared so the fresh decision is shown.
func (w *sessionWorkflow) refresh(ctx workflow.Context) {
	seq := w.store.Begin()

	var res shared.StatusResult
	err := workflow.ExecuteActivity(w.fetchCtx, a.FetchStatus).Get(ctx, &res)
	switch {
	case err != nil:
		w.logger.Warn("Status fetch failed, treating KYC as not started", "userId", w.req.UserID, "error", err)
	case !res.Started:
		w.logger.Info("KYC not started", "userId", w.req.UserID, "message", res.Message)
		err = errors.New(res.Message)
	}
	w.store.Resolve(seq, res.Status, err)

	w.hidden = false
	w.success = false
	w.logger.Info("Navigation state refreshed",
		"userId", w.req.UserID,
		"currentStep", w.store.CurrentStep(),
		"modal", w.store.ModalType(),
	)
}

// runStep submits one step through the SubmitStepWorkflow child. On success
// the status is refreshed and the wizard moves past the submitted step.
func (w *sessionWorkflow) runStep(ctx workflow.Context, sub shared.StepSubmission) bool {
	w.stepRuns++
	childOpts := workflow.ChildWorkflowOptions{
		WorkflowID: fmt.Sprintf("%s-step-%d-%d", workflow.GetInfo(ctx).WorkflowExecution.ID, sub.Step, w.stepRuns),
		TaskQueue:  shared.SessionWorkflowTaskQueue,
	}
	childCtx := workflow.WithChildOptions(ctx, childOpts)

	var outcome shared.StepOutcome
	err := workflow.ExecuteChildWorkflow(childCtx, SubmitStepWorkflow, sub).Get(ctx, &outcome)
	if err != nil {
		w.logger.Error("Step submission workflow failed", "step", sub.Step, "error", err)
		step, _ := kyc.StepByNumber(sub.Step)
		w.lastError = outcomeMessage(err, step.FallbackMessage)
		return false
	}
	if !outcome.Accepted {
		w.lastError = outcome.Message
		return false
	}

	w.lastError = ""
	w.refresh(ctx)
	w.store.SetStep(sub.Step + 1)
	return true
}

func (w *sessionWorkflow) onSubmit(ctx workflow.Context, sub shared.StepSubmission) {
	w.lastError = ""
	if sub.Step < 1 || sub.Step > 4 {
		w.lastError = fmt.Sprintf("step %d cannot be submitted directly", sub.Step)
		return
	}
	w.runStep(ctx, sub)
}

func (w *sessionWorkflow) onFace(ctx workflow.Context, act shared.FaceAction) {
	w.lastError = ""
	var err error
	switch act.Action {
	case "begin":
		if w.face.Phase() != shared.FaceInstructions {
			err = kyc.ErrFacePhase
			break
		}
		if startErr := workflow.ExecuteActivity(w.actCtx, a.StartFaceCapture).Get(ctx, nil); startErr != nil {
			step, _ := kyc.StepByNumber(5)
			w.lastError = outcomeMessage(startErr, step.FallbackMessage)
			return
		}
		err = w.face.Open()
	case "capture":
		err = w.face.Capture(act.Image)
	case "retake":
		err = w.face.Retake()
	case "reset":
		w.face.Reset()
	case "submit":
		sub, subErr := w.face.Submission()
		if subErr != nil {
			err = subErr
			break
		}
		if w.runStep(ctx, shared.StepSubmission{Step: sub.StepNumber(), Image: sub.Image}) {
			err = w.face.Complete()
			w.success = true
		}
	default:
		err = fmt.Errorf("unknown face action %q", act.Action)
	}
	if err != nil {
		w.logger.Info("Face capture action rejected", "action", act.Action, "phase", w.face.Phase(), "error", err)
		w.lastError = err.Error()
	}
}

func (w *sessionWorkflow) onModal(act shared.ModalAction) {
	switch act.Action {
	case "close":
		w.hidden = true
		w.success = false
	case "continue":
		w.hidden = true
		w.success = false
		w.store.SetStep(w.store.NextIncompleteStep())
	default:
		w.logger.Warn("Unknown modal action", "action", act.Action)
	}
}

// waitForAction blocks until a signal arrives or the timer fires. While the
// admin approval is pending the timer doubles as the approval poll.
func (w *sessionWorkflow) waitForAction(ctx workflow.Context) (idle bool) {
	idleLeft := w.idleTimeout - workflow.Now(ctx).Sub(w.lastActivity)
	if idleLeft <= 0 {
		return true
	}
	polling := w.store.IsPendingApproval()
	wait := idleLeft
	if polling && w.pollInterval < wait {
		wait = w.pollInterval
	}

	timerCtx, timerCancel := workflow.WithCancel(ctx)
	defer timerCancel()
	timerFired := false

	selector := workflow.NewSelector(ctx)
	selector.AddFuture(workflow.NewTimer(timerCtx, wait), func(f workflow.Future) {
		timerFired = f.Get(ctx, nil) == nil
	})
	selector.AddReceive(w.refreshCh, func(ch workflow.ReceiveChannel, more bool) {
		ch.Receive(ctx, nil)
		w.refresh(ctx)
	})
	selector.AddReceive(w.submitCh, func(ch workflow.ReceiveChannel, more bool) {
		var sub shared.StepSubmission
		ch.Receive(ctx, &sub)
		w.logger.Info("Step submission signal received", "userId", w.req.UserID, "step", sub.Step)
		w.onSubmit(ctx, sub)
	})
	selector.AddReceive(w.faceCh, func(ch workflow.ReceiveChannel, more bool) {
		var act shared.FaceAction
		ch.Receive(ctx, &act)
		w.onFace(ctx, act)
	})
	selector.AddReceive(w.modalCh, func(ch workflow.ReceiveChannel, more bool) {
		var act shared.ModalAction
		ch.Receive(ctx, &act)
		w.onModal(act)
	})
	selector.AddReceive(w.endCh, func(ch workflow.ReceiveChannel, more bool) {
		ch.Receive(ctx, nil)
		w.ended = true
	})

	selector.Select(ctx)

	if !timerFired {
		w.lastActivity = workflow.Now(ctx)
		return false
	}
	if polling && wait < idleLeft {
		w.logger.Info("Polling admin approval", "userId", w.req.UserID)
		w.refresh(ctx)
		return false
	}
	return true
}

func (w *sessionWorkflow) result(outcome string) shared.SessionResult {
	return shared.SessionResult{
		Outcome: fmt.Sprintf("KYC-%s-%s", w.req.UserID, outcome),
		State:   w.state(),
	}
}

// KYCSessionWorkflow runs one user's pass through the KYC wizard.
//
// The workflow plays the role of the client: signals are user actions and
// window refocus events, activities are backend calls, and the query exposes
// what the wizard should render.
//
//	Start           → fetch status (mount), pick step and modal
//	signal-refresh  → refetch (window regained focus)
//	signal-submit   → child SubmitStepWorkflow for steps 1-4
//	signal-face     → live capture flow, submitted as step 5
//	signal-modal    → close or continue, local only
//	pending review  → refetch every ApprovalPollSeconds
//
// It ends when every check is verified, on signal-end-session, or after
// IdleTimeoutSeconds without a signal.
func KYCSessionWorkflow(ctx workflow.Context, req shared.SessionRequest) (shared.SessionResult, error) {
	w, err := newSessionWorkflow(ctx, req)
	if err != nil {
		return shared.SessionResult{}, err
	}

	w.logger.Info("KYC session workflow started", "userId", req.UserID)

	w.refresh(ctx)

	for !w.store.IsComplete() {
		if w.waitForAction(ctx) {
			w.logger.Info("KYC session idle, ending", "userId", req.UserID)
			return w.result("IDLE"), nil
		}
		if w.ended {
			w.logger.Info("KYC session ended by user", "userId", req.UserID)
			return w.result("ENDED"), nil
		}
	}

	w.logger.Info("KYC verification complete", "userId", req.UserID)
	return w.result("COMPLETE"), nil
}

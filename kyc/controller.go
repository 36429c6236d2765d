package kyc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"megacoop-kyc/shared"
)

// Backend is everything the wizard needs from the remote API.
type Backend interface {
	StatusFetcher
	FaceStarter
	Submit(ctx context.Context, s Submission) error
}

// Persister stores the allow-listed snapshot across restarts. Load returns
// nil data when nothing has been persisted yet.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// SubmissionError is a step submission rejected by the backend or lost in
// transport. Message is what the user sees.
type SubmissionError struct {
	Step    int
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }

// userMessenger is implemented by backend errors that carry a message meant
// for the user.
type userMessenger interface {
	UserMessage() string
}

// Controller decides which modal is visible and which step the wizard
// renders. It owns no durable state of its own: the store holds the status,
// and dismissing a modal only hides it until the next refresh.
type Controller struct {
	store     *Store
	backend   Backend
	persister Persister
	validator *Validator
	logger    *slog.Logger

	refreshes singleflight.Group

	mu      sync.Mutex
	hidden  bool
	success bool
}

// NewController wires a controller. persister may be nil for sessions that
// do not survive a restart.
func NewController(store *Store, backend Backend, persister Persister, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:     store,
		backend:   backend,
		persister: persister,
		validator: NewValidator(),
		logger:    logger.With("component", "kyc"),
	}
}

// Store returns the underlying state container.
func (c *Controller) Store() *Store { return c.store }

// Mount restores the persisted subset of the store and re-verifies it
// against the backend.
func (c *Controller) Mount(ctx context.Context) shared.NavigationState {
	if c.persister != nil {
		data, err := c.persister.Load(ctx)
		switch {
		case err != nil:
			c.logger.Warn("loading persisted kyc state failed", "error", err)
		case data != nil:
			if err := c.store.Restore(data); err != nil {
				c.logger.Warn("discarding persisted kyc state", "error", err)
			}
		}
	}
	return c.Refresh(ctx)
}

// refreshTimeout bounds a shared status fetch once it is detached from the
// caller that started it.
const refreshTimeout = 30 * time.Second

// Refresh fetches the status. Concurrent callers share one request, which
// runs detached from any single caller's cancellation; a caller whose ctx
// ends early gets the current state and leaves the fetch to the others.
func (c *Controller) Refresh(ctx context.Context) shared.NavigationState {
	done := c.refreshes.DoChan("status", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		applied, err := c.store.FetchStatus(fetchCtx, c.backend)
		if err != nil {
			c.logger.Info("kyc status unavailable, treating as not started", "error", err)
		}
		if !applied {
			c.logger.Debug("stale kyc status response dropped")
		}
		return nil, nil
	})

	select {
	case <-done:
	case <-ctx.Done():
		return c.State()
	}

	c.mu.Lock()
	c.hidden = false
	c.success = false
	c.mu.Unlock()

	c.persist(ctx)
	return c.State()
}

// Focus is the window refocus trigger. It runs the same refresh as Mount so
// an admin approval completed elsewhere is picked up.
func (c *Controller) Focus(ctx context.Context) shared.NavigationState {
	return c.Refresh(ctx)
}

// Modal is the modal the user should currently see.
func (c *Controller) Modal() shared.ModalType {
	c.mu.Lock()
	hidden, success := c.hidden, c.success
	c.mu.Unlock()

	return VisibleModal(c.store, hidden, success)
}

// VisibleModal applies the display rules on top of the store's modal type:
// the local success modal wins, and nothing shows before the first check,
// after completion or while the user has dismissed it.
func VisibleModal(s *Store, hidden, success bool) shared.ModalType {
	switch {
	case success:
		return shared.ModalSuccess
	case hidden, !s.HasChecked(), s.IsComplete():
		return shared.ModalNone
	default:
		return s.ModalType()
	}
}

// State is the store's navigation state with the visible modal.
func (c *Controller) State() shared.NavigationState {
	st := c.store.State()
	st.Modal = c.Modal()
	return st
}

// Close hides the modal until the next refresh.
func (c *Controller) Close() {
	c.mu.Lock()
	c.hidden = true
	c.success = false
	c.mu.Unlock()
}

// Continue hides the modal and moves the wizard to the next incomplete step.
func (c *Controller) Continue(ctx context.Context) {
	c.Close()
	c.store.SetStep(c.store.NextIncompleteStep())
	c.persist(ctx)
}

// ShowSuccess displays the local success modal.
func (c *Controller) ShowSuccess() {
	c.mu.Lock()
	c.success = true
	c.hidden = false
	c.mu.Unlock()
}

// Submit validates s, sends it and, on success, refreshes the store before
// calling next. With a nil next the wizard advances one step past s. Face
// images only go through SubmitFace.
func (c *Controller) Submit(ctx context.Context, s Submission, next func()) error {
	switch s.(type) {
	case FaceSubmission, *FaceSubmission:
		return fmt.Errorf("face image outside a capture session: %w", ErrFacePhase)
	}
	return c.submit(ctx, s, next)
}

func (c *Controller) submit(ctx context.Context, s Submission, next func()) error {
	if err := c.validator.Validate(s); err != nil {
		return err
	}

	step, _ := StepByNumber(s.StepNumber())
	if err := c.backend.Submit(ctx, s); err != nil {
		c.logger.Warn("kyc step submission failed", "step", step.Number, "error", err)
		return &SubmissionError{Step: step.Number, Message: UserMessage(err, step.FallbackMessage), Err: err}
	}
	c.logger.Info("kyc step submitted", "step", step.Number, "label", step.Label)

	c.Refresh(ctx)
	if next != nil {
		next()
	} else {
		c.store.SetStep(step.Number + 1)
	}
	c.persist(ctx)
	return nil
}

// BeginFace opens the face capture session.
func (c *Controller) BeginFace(ctx context.Context, fc *FaceCapture) error {
	err := fc.Begin(ctx, c.backend)
	if err == nil || errors.Is(err, ErrFacePhase) {
		return err
	}
	step, _ := StepByNumber(FaceSubmission{}.StepNumber())
	c.logger.Warn("face capture start failed", "error", err)
	return &SubmissionError{Step: step.Number, Message: UserMessage(err, step.FallbackMessage), Err: err}
}

// SubmitFace sends the captured frame. The flow completes only when the
// backend accepts it.
func (c *Controller) SubmitFace(ctx context.Context, fc *FaceCapture, next func()) error {
	sub, err := fc.Submission()
	if err != nil {
		return err
	}
	if err := c.submit(ctx, sub, next); err != nil {
		return err
	}
	if err := fc.Complete(); err != nil {
		return fmt.Errorf("finish face capture: %w", err)
	}
	return nil
}

// UserMessage extracts the backend-supplied message from err, or returns
// fallback.
func UserMessage(err error, fallback string) string {
	var um userMessenger
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

func (c *Controller) persist(ctx context.Context) {
	if c.persister == nil {
		return
	}
	data, err := c.store.Snapshot()
	if err != nil {
		c.logger.Warn("encoding kyc state failed", "error", err)
		return
	}
	if err := c.persister.Save(ctx, data); err != nil {
		c.logger.Warn("persisting kyc state failed", "error", err)
	}
}

package activities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"megacoop-kyc/api"
	"megacoop-kyc/kyc"
	"megacoop-kyc/shared"
)

// VerifyNIN submits the user's National Identification Number.
func (a *Activities) VerifyNIN(ctx context.Context, nin string) error {
	return a.submit(ctx, kyc.NINSubmission{NIN: nin})
}

// VerifyBVN submits the user's Bank Verification Number.
func (a *Activities) VerifyBVN(ctx context.Context, bvn string) error {
	return a.submit(ctx, kyc.BVNSubmission{BVN: bvn})
}

// UploadIDCard reads the identity document from the worker's filesystem and
// uploads it. The size and type checks run before anything is sent.
func (a *Activities) UploadIDCard(ctx context.Context, req shared.StepSubmission) error {
	doc, err := readDocument(req.DocumentPath)
	if err != nil {
		return err
	}
	return a.submit(ctx, kyc.IDCardSubmission{IDType: kyc.IDType(req.IDType), Document: doc})
}

// UploadProofOfAddress reads the proof of address from the worker's
// filesystem and uploads it with the address text.
func (a *Activities) UploadProofOfAddress(ctx context.Context, req shared.StepSubmission) error {
	doc, err := readDocument(req.DocumentPath)
	if err != nil {
		return err
	}
	return a.submit(ctx, kyc.AddressSubmission{Address: req.Address, Document: doc})
}

// StartFaceCapture opens a face capture session on the backend.
func (a *Activities) StartFaceCapture(ctx context.Context) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting face capture session")

	if err := a.Backend.StartFaceCapture(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// SendFaceCapture submits the captured frame.
func (a *Activities) SendFaceCapture(ctx context.Context, image string) error {
	return a.submit(ctx, kyc.FaceSubmission{Image: image})
}

// submit validates s and sends it. Validation failures and 4xx rejections
// are non-retryable; transport and 5xx failures are left to the retry policy.
func (a *Activities) submit(ctx context.Context, s kyc.Submission) error {
	logger := activity.GetLogger(ctx)
	step := strconv.Itoa(s.StepNumber())

	if err := a.validator().Validate(s); err != nil {
		logger.Info("Submission failed validation", "step", step, "error", err)
		a.Metrics.ObserveStep(step, "invalid")
		return temporal.NewNonRetryableApplicationError(err.Error(), shared.ErrTypeValidationFailed, err)
	}

	logger.Info("Submitting verification step", "step", step)
	if err := a.Backend.Submit(ctx, s); err != nil {
		a.Metrics.ObserveStep(step, "rejected")
		logger.Warn("Verification step rejected", "step", step, "error", err)
		return classify(err)
	}

	a.Metrics.ObserveStep(step, "accepted")
	logger.Info("Verification step accepted", "step", step)
	return nil
}

// classify turns backend client errors into application errors the
// workflows can reason about.
func classify(err error) error {
	var apiErr *api.Error
	// Below 400 means a 2xx body with success=false.
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		return temporal.NewNonRetryableApplicationError(apiErr.Message, shared.ErrTypeSubmissionRejected, err)
	}
	return err
}

func readDocument(path string) (kyc.Document, error) {
	if path == "" {
		return kyc.Document{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return kyc.Document{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("document %s cannot be opened", filepath.Base(path)),
			shared.ErrTypeValidationFailed,
			err,
		)
	}
	defer f.Close()

	// One byte past the limit is enough for the size rule to reject it.
	data, err := io.ReadAll(io.LimitReader(f, shared.MaxDocumentSize+1))
	if err != nil {
		return kyc.Document{}, fmt.Errorf("read document %s: %w", path, err)
	}
	return kyc.Document{Name: filepath.Base(path), Data: data}, nil
}

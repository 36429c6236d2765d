package kyc

import (
	"context"
	"errors"
	"fmt"

	"megacoop-kyc/shared"
)

// ErrFacePhase is returned when a face capture action is not allowed in the
// current phase.
var ErrFacePhase = errors.New("face capture: action not allowed in current phase")

// ErrFaceImageTooLarge is returned by Capture for frames over
// shared.MaxFaceImageSize.
var ErrFaceImageTooLarge = errors.New("face capture: image exceeds 1MB")

// FaceStarter opens a face capture session on the backend.
type FaceStarter interface {
	StartFaceCapture(ctx context.Context) error
}

// FaceCapture is the transient instructions → camera → captured → complete
// flow of the live face check. It is never persisted.
type FaceCapture struct {
	phase shared.FacePhase
	image string
}

// NewFaceCapture returns a flow on the instructions screen.
func NewFaceCapture() *FaceCapture {
	return &FaceCapture{phase: shared.FaceInstructions}
}

// Phase is the current screen of the flow.
func (f *FaceCapture) Phase() shared.FacePhase { return f.phase }

// Image is the captured data URI, empty outside the captured phase.
func (f *FaceCapture) Image() string { return f.image }

// CanSubmit reports whether a submission may be built.
func (f *FaceCapture) CanSubmit() bool { return f.phase == shared.FaceCaptured }

// Begin starts the backend session and opens the camera.
func (f *FaceCapture) Begin(ctx context.Context, starter FaceStarter) error {
	if f.phase != shared.FaceInstructions {
		return fmt.Errorf("begin from %s: %w", f.phase, ErrFacePhase)
	}
	if err := starter.StartFaceCapture(ctx); err != nil {
		return err
	}
	return f.Open()
}

// Open moves from instructions to camera once the backend session exists.
func (f *FaceCapture) Open() error {
	if f.phase != shared.FaceInstructions {
		return fmt.Errorf("open from %s: %w", f.phase, ErrFacePhase)
	}
	f.phase = shared.FaceCamera
	return nil
}

// Capture stores a frame taken from the camera.
func (f *FaceCapture) Capture(dataURI string) error {
	if f.phase != shared.FaceCamera {
		return fmt.Errorf("capture from %s: %w", f.phase, ErrFacePhase)
	}
	if dataURI == "" {
		return fmt.Errorf("capture: empty image")
	}
	if len(dataURI) > shared.MaxFaceImageSize {
		return ErrFaceImageTooLarge
	}
	f.image = dataURI
	f.phase = shared.FaceCaptured
	return nil
}

// Retake drops the captured frame and reopens the camera.
func (f *FaceCapture) Retake() error {
	if f.phase != shared.FaceCaptured {
		return fmt.Errorf("retake from %s: %w", f.phase, ErrFacePhase)
	}
	f.image = ""
	f.phase = shared.FaceCamera
	return nil
}

// Submission builds the payload. Only possible from the captured phase.
func (f *FaceCapture) Submission() (FaceSubmission, error) {
	if !f.CanSubmit() {
		return FaceSubmission{}, fmt.Errorf("submit from %s: %w", f.phase, ErrFacePhase)
	}
	return FaceSubmission{Image: f.image}, nil
}

// Complete marks the flow done after a successful submission and discards
// the image.
func (f *FaceCapture) Complete() error {
	if f.phase != shared.FaceCaptured {
		return fmt.Errorf("complete from %s: %w", f.phase, ErrFacePhase)
	}
	f.image = ""
	f.phase = shared.FaceComplete
	return nil
}

// Reset tears the flow down.
func (f *FaceCapture) Reset() {
	f.image = ""
	f.phase = shared.FaceInstructions
}

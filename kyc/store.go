package kyc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"megacoop-kyc/shared"
)

// StatusFetcher reads the current verification status from the backend. A
// user who has not started KYC is reported as an error, like any failure.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (shared.StatusRecord, error)
}

// Store is the single source of truth for verification progress. The status
// record is only ever replaced by a fetch; everything else is derived from it.
type Store struct {
	mu          sync.RWMutex
	status      shared.StatusRecord
	currentStep int
	modalType   shared.ModalType
	hasChecked  bool

	issued  uint64
	applied uint64
}

// NewStore returns a store in the initial unstarted state.
func NewStore() *Store {
	return &Store{
		status:      shared.InitialStatus(),
		currentStep: 1,
		modalType:   shared.ModalNone,
	}
}

// FetchStatus refreshes the store from f. Any failure resets the store to
// the unstarted state with the required modal. It reports whether the
// response was applied.
func (s *Store) FetchStatus(ctx context.Context, f StatusFetcher) (bool, error) {
	seq := s.Begin()
	rec, err := f.FetchStatus(ctx)
	return s.Resolve(seq, rec, err), err
}

// Begin allocates the sequence number of a new status request.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Resolve applies the outcome of request seq. Responses to requests older
// than the last applied one are dropped, so the most recently issued request
// wins regardless of arrival order.
func (s *Store) Resolve(seq uint64, rec shared.StatusRecord, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.hasChecked = true

	if err != nil {
		s.status = shared.InitialStatus()
		s.currentStep = 1
		s.modalType = shared.ModalRequired
		return true
	}

	s.status = rec
	s.currentStep = NextIncompleteStep(rec)
	s.modalType = ModalDecision(rec)
	return true
}

// Status returns the last fetched record.
func (s *Store) Status() shared.StatusRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// NextIncompleteStep is the first unverified step, or 6 when none remain.
func (s *Store) NextIncompleteStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NextIncompleteStep(s.status)
}

// IsComplete reports whether all checks and the admin approval passed.
func (s *Store) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IsComplete(s.status)
}

// IsPendingApproval reports whether only the admin review is outstanding.
func (s *Store) IsPendingApproval() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IsPendingApproval(s.status)
}

// ModalDecision derives the modal from the last fetched record.
func (s *Store) ModalDecision() shared.ModalType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ModalDecision(s.status)
}

// CurrentStep is the step the wizard renders, 1..6.
func (s *Store) CurrentStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStep
}

// ModalType is the modal set by the last fetch or by SetModalType.
func (s *Store) ModalType() shared.ModalType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modalType
}

// HasChecked reports whether a status fetch has completed since the store
// was created or restored.
func (s *Store) HasChecked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasChecked
}

// SetStep moves the wizard. n is clamped to 1..6.
func (s *Store) SetStep(n int) {
	if n < 1 {
		n = 1
	}
	if n > shared.CompletedStep {
		n = shared.CompletedStep
	}
	s.mu.Lock()
	s.currentStep = n
	s.mu.Unlock()
}

// SetModalType overrides the modal type.
func (s *Store) SetModalType(t shared.ModalType) {
	s.mu.Lock()
	s.modalType = t
	s.mu.Unlock()
}

// State returns the derived navigation state.
func (s *Store) State() shared.NavigationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return shared.NavigationState{
		CurrentStep:        s.currentStep,
		NextIncompleteStep: NextIncompleteStep(s.status),
		Complete:           IsComplete(s.status),
		PendingApproval:    IsPendingApproval(s.status),
		Modal:              s.modalType,
		HasChecked:         s.hasChecked,
		Status:             s.status,
	}
}

// snapshotVersion is bumped whenever the persisted layout changes.
const snapshotVersion = 1

// persistedState is the allow-list of fields that survive a reload.
type persistedState struct {
	CurrentStep int                 `json:"currentStep"`
	Status      shared.StatusRecord `json:"status"`
}

type snapshot struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

// Snapshot encodes the persisted subset of the store: the current step and
// the last fetched status. The modal type and the has-checked flag are left
// out so every load re-verifies against the backend.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	snap := snapshot{
		State: persistedState{
			CurrentStep: s.currentStep,
			Status:      s.status,
		},
		Version: snapshotVersion,
	}
	s.mu.RUnlock()
	return json.Marshal(snap)
}

// Restore loads a snapshot produced by Snapshot. The excluded fields go back
// to their initial values.
func (s *Store) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	step := snap.State.CurrentStep
	if step < 1 || step > shared.CompletedStep {
		step = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = snap.State.Status
	s.currentStep = step
	s.modalType = shared.ModalNone
	s.hasChecked = false
	return nil
}

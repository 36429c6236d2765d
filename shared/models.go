package shared

// VerificationStatus is the three-valued state of a single check.
type VerificationStatus string

const (
	StatusNotVerified VerificationStatus = "not_verified"
	StatusPending     VerificationStatus = "pending"
	StatusVerified    VerificationStatus = "verified"
)

// Verified reports whether the check has passed.
func (s VerificationStatus) Verified() bool { return s == StatusVerified }

// StatusRecord is the per-user verification status returned by the backend.
// It is replaced as a whole on every fetch.
type StatusRecord struct {
	NIN             VerificationStatus `json:"nin"`
	BVN             VerificationStatus `json:"bvn"`
	IDCard          VerificationStatus `json:"id_card"`
	ProofOfAddress  VerificationStatus `json:"proof_of_address"`
	FaceRecognition VerificationStatus `json:"face_recognition"`
	AdminApproval   VerificationStatus `json:"admin_approval"`
}

// InitialStatus is the record of a user who has not started KYC.
func InitialStatus() StatusRecord {
	return StatusRecord{
		NIN:             StatusNotVerified,
		BVN:             StatusNotVerified,
		IDCard:          StatusNotVerified,
		ProofOfAddress:  StatusNotVerified,
		FaceRecognition: StatusNotVerified,
		AdminApproval:   StatusNotVerified,
	}
}

// ModalType classifies which interstitial the wizard should show.
type ModalType string

const (
	ModalNone     ModalType = "none"
	ModalRequired ModalType = "required"
	ModalContinue ModalType = "continue"
	ModalPending  ModalType = "pending"
	ModalSuccess  ModalType = "success"
)

// CompletedStep is the step number reported once all five checks are verified.
const CompletedStep = 6

// NavigationState is the derived view of the KYC store.
type NavigationState struct {
	CurrentStep        int          `json:"currentStep"`
	NextIncompleteStep int          `json:"nextIncompleteStep"`
	Complete           bool         `json:"complete"`
	PendingApproval    bool         `json:"pendingApproval"`
	Modal              ModalType    `json:"modal"`
	HasChecked         bool         `json:"hasChecked"`
	Status             StatusRecord `json:"status"`
	FacePhase          FacePhase    `json:"facePhase,omitempty"`
	LastError          string       `json:"lastError,omitempty"`
}

// FacePhase is the transient state of the live face capture flow.
type FacePhase string

const (
	FaceInstructions FacePhase = "instructions"
	FaceCamera       FacePhase = "camera"
	FaceCaptured     FacePhase = "captured"
	FaceComplete     FacePhase = "complete"
)

// SessionRequest is the input to the KYCSessionWorkflow.
type SessionRequest struct {
	UserID              string `json:"userId"`
	IdleTimeoutSeconds  int    `json:"idleTimeoutSeconds"`
	ApprovalPollSeconds int    `json:"approvalPollSeconds"`
}

// SessionResult is the KYCSessionWorkflow's output.
type SessionResult struct {
	Outcome string          `json:"outcome"`
	State   NavigationState `json:"state"`
}

// StepSubmission is the payload of SignalSubmitStep and the input of the
// SubmitStepWorkflow. Documents travel as local paths so file bytes never
// enter workflow history.
type StepSubmission struct {
	Step         int    `json:"step"`
	NIN          string `json:"nin,omitempty"`
	BVN          string `json:"bvn,omitempty"`
	IDType       string `json:"idType,omitempty"`
	Address      string `json:"address,omitempty"`
	DocumentPath string `json:"documentPath,omitempty"`
	Image        string `json:"image,omitempty"` // base64 data URI, face step only
}

// StepOutcome is returned by the SubmitStepWorkflow.
type StepOutcome struct {
	Step     int    `json:"step"`
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// StatusResult is the output of the FetchStatus activity.
type StatusResult struct {
	Started bool         `json:"started"`
	Status  StatusRecord `json:"status"`
	Message string       `json:"message"`
}

// FaceAction is the payload of SignalFaceCapture.
type FaceAction struct {
	Action string `json:"action"` // "begin", "capture", "retake", "submit", "reset"
	Image  string `json:"image,omitempty"`
}

// ModalAction is the payload of SignalModalAction.
type ModalAction struct {
	Action string `json:"action"` // "close", "continue"
}

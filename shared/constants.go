package shared

import "time"

// Task queue names.
const (
	SessionWorkflowTaskQueue = "kyc-session-tq"
	ActivityTaskQueue        = "kyc-activity-tq"
)

// Signal and query names.
const (
	SignalRefresh        = "signal-refresh"
	SignalSubmitStep     = "signal-submit-step"
	SignalFaceCapture    = "signal-face-capture"
	SignalModalAction    = "signal-modal-action"
	SignalEndSession     = "signal-end-session"
	QueryNavigationState = "query-navigation-state"
)

// Session timing defaults, used when a SessionRequest leaves them unset.
const (
	DefaultIdleTimeout          = 30 * time.Minute
	DefaultApprovalPollInterval = 5 * time.Minute
)

// Error types for non-retryable failures.
const (
	ErrTypeValidationFailed   = "ValidationFailed"
	ErrTypeSubmissionRejected = "SubmissionRejected"
)

// StorageKey is the namespace key the persisted wizard state lives under.
const StorageKey = "kyc-storage"

// Client-side document limits. A face image is a base64 data URI that
// travels through workflow history, so it stays well under the 2MB payload
// limit.
const (
	MaxDocumentSize  = 3 * 1024 * 1024
	MaxFaceImageSize = 1024 * 1024
	IdentifierLen    = 11
)

// Backend endpoint paths, relative to the configured API base URL.
const (
	PathStatus         = "/kyc/status"
	PathNIN            = "/kyc/nin"
	PathBVN            = "/kyc/bvn"
	PathIDCard         = "/kyc/id-card"
	PathProofOfAddress = "/kyc/proof-of-address"
	PathFaceStart      = "/kyc/face/start"
	PathFaceSend       = "/kyc/face/send"
)

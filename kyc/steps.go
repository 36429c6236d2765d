// Package kyc holds the client-side KYC wizard: the verification status
// store, the ordered step table, the navigation/modal controller, the face
// capture flow and the validation rules applied before anything is sent to
// the backend.
package kyc

import "megacoop-kyc/shared"

// VerificationKind tells whether a check is decided immediately by the
// backend or waits for a manual review.
type VerificationKind string

const (
	KindImmediate     VerificationKind = "immediate"
	KindAdminApproval VerificationKind = "admin-approval"
)

// Step is one entry of the wizard's static step table.
type Step struct {
	Number          int
	Field           string
	Label           string
	Kind            VerificationKind
	FallbackMessage string
}

// Steps is the ordered wizard. The lowest-numbered incomplete entry is
// always the one presented; there is no skipping.
var Steps = []Step{
	{Number: 1, Field: "nin", Label: "NIN Verification", Kind: KindImmediate, FallbackMessage: "NIN verification failed. Please try again."},
	{Number: 2, Field: "bvn", Label: "BVN Verification", Kind: KindImmediate, FallbackMessage: "BVN verification failed. Please try again."},
	{Number: 3, Field: "id_card", Label: "ID Card Upload", Kind: KindAdminApproval, FallbackMessage: "ID card upload failed. Please try again."},
	{Number: 4, Field: "proof_of_address", Label: "Proof of Address", Kind: KindAdminApproval, FallbackMessage: "Proof of address upload failed. Please try again."},
	{Number: 5, Field: "face_recognition", Label: "Face Verification", Kind: KindImmediate, FallbackMessage: "Face verification failed. Please try again."},
}

// StepByNumber returns the table entry for n.
func StepByNumber(n int) (Step, bool) {
	if n < 1 || n > len(Steps) {
		return Step{}, false
	}
	return Steps[n-1], true
}

// FieldStatus reads the record field a step is keyed on. Unknown fields read
// as not verified.
func FieldStatus(rec shared.StatusRecord, field string) shared.VerificationStatus {
	switch field {
	case "nin":
		return rec.NIN
	case "bvn":
		return rec.BVN
	case "id_card":
		return rec.IDCard
	case "proof_of_address":
		return rec.ProofOfAddress
	case "face_recognition":
		return rec.FaceRecognition
	default:
		return shared.StatusNotVerified
	}
}

// NextIncompleteStep scans the table in order and returns the first step
// whose field is not verified, or shared.CompletedStep when none remain.
func NextIncompleteStep(rec shared.StatusRecord) int {
	for _, s := range Steps {
		if !FieldStatus(rec, s.Field).Verified() {
			return s.Number
		}
	}
	return shared.CompletedStep
}

func allChecksVerified(rec shared.StatusRecord) bool {
	return NextIncompleteStep(rec) == shared.CompletedStep
}

// IsComplete reports whether every check and the admin approval passed.
func IsComplete(rec shared.StatusRecord) bool {
	return allChecksVerified(rec) && rec.AdminApproval.Verified()
}

// IsPendingApproval reports whether every check passed and the admin review
// is still outstanding.
func IsPendingApproval(rec shared.StatusRecord) bool {
	return allChecksVerified(rec) && rec.AdminApproval == shared.StatusPending
}

// ModalDecision derives the modal type for a record.
func ModalDecision(rec shared.StatusRecord) shared.ModalType {
	switch {
	case IsPendingApproval(rec):
		return shared.ModalPending
	case IsComplete(rec):
		return shared.ModalNone
	case NextIncompleteStep(rec) == 1:
		return shared.ModalRequired
	default:
		return shared.ModalContinue
	}
}

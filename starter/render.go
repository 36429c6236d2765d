package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"megacoop-kyc/kyc"
	"megacoop-kyc/shared"
)

func printState(st shared.NavigationState) {
	fmt.Println()
	fmt.Println("📋 KYC progress")
	for _, step := range kyc.Steps {
		marker := "  "
		if step.Number == st.CurrentStep {
			marker = "▶ "
		}
		fmt.Printf("   %s%d. %-20s %s\n", marker, step.Number, step.Label, kyc.FieldStatus(st.Status, step.Field))
	}
	fmt.Printf("      %-23s %s\n", "Admin approval", st.Status.AdminApproval)
	fmt.Println()
	if st.Complete {
		fmt.Println("   ✅ Verification complete")
	} else {
		fmt.Printf("   Current step: %d   Next incomplete: %d\n", st.CurrentStep, st.NextIncompleteStep)
	}
	if st.Modal != shared.ModalNone {
		fmt.Printf("   Modal: %s\n", modalText(st.Modal))
	}
	if st.FacePhase != "" && st.FacePhase != shared.FaceInstructions {
		fmt.Printf("   Face capture: %s\n", st.FacePhase)
	}
	if st.LastError != "" {
		fmt.Printf("   ❌ %s\n", st.LastError)
	}
}

func modalText(m shared.ModalType) string {
	switch m {
	case shared.ModalRequired:
		return "KYC verification is required before you can continue"
	case shared.ModalContinue:
		return "Continue your KYC verification where you left off"
	case shared.ModalPending:
		return "Your documents are awaiting admin approval"
	case shared.ModalSuccess:
		return "Submission received. Thank you!"
	default:
		return string(m)
	}
}

// readDataURI encodes an image file the way the camera hands it over.
func readDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mt := mimetype.Detect(data)
	uri := fmt.Sprintf("data:%s;base64,%s", mt.String(), base64.StdEncoding.EncodeToString(data))
	if len(uri) > shared.MaxFaceImageSize {
		return "", kyc.ErrFaceImageTooLarge
	}
	return uri, nil
}

func readDocument(path string) (kyc.Document, error) {
	if path == "" {
		return kyc.Document{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return kyc.Document{}, fmt.Errorf("read document: %w", err)
	}
	return kyc.Document{Name: filepath.Base(path), Data: data}, nil
}

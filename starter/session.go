package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"megacoop-kyc/logging"
	"megacoop-kyc/shared"
	"megacoop-kyc/workflows"
)

// sessionCmd starts or attaches to a KYC session workflow
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start or attach to a KYC session workflow",
	Long: `Start a KYC session workflow for --user, or attach to the one already
running, and drive it from an interactive menu.

Every menu action is a signal to the workflow; the state is read back with a
query. Exiting the menu leaves the session running.`,
	RunE: runSession,
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logging.Temporal(logger),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	user := userID
	if user == "" {
		user = uuid.NewString()
	}
	// The user-scoped workflow ID makes this an attach when a session is
	// already running for the same user.
	workflowID := fmt.Sprintf("kyc-session-%s", user)
	ctx := cmd.Context()

	fmt.Println()
	fmt.Println("🚀 Starting KYC session for user", user)

	we, err := c.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: shared.SessionWorkflowTaskQueue,
		},
		workflows.KYCSessionWorkflow,
		shared.SessionRequest{
			UserID:              user,
			IdleTimeoutSeconds:  int(cfg.Session.IdleTimeout.Seconds()),
			ApprovalPollSeconds: int(cfg.Session.ApprovalPollInterval.Seconds()),
		},
	)
	if err != nil {
		return fmt.Errorf("unable to start workflow: %w", err)
	}
	fmt.Printf("   WorkflowID: %s\n", we.GetID())
	fmt.Printf("   RunID:      %s\n", we.GetRunID())

	s := &sessionMenu{c: c, workflowID: workflowID, run: we, reader: bufio.NewReader(os.Stdin)}
	return s.loop(ctx)
}

type sessionMenu struct {
	c          client.Client
	workflowID string
	run        client.WorkflowRun
	reader     *bufio.Reader
}

func (s *sessionMenu) loop(ctx context.Context) error {
	for {
		fmt.Println()
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println("  Megacoop KYC Session")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()
		fmt.Println("  [1] Show progress")
		fmt.Println("  [2] Refresh status (window refocus)")
		fmt.Println("  [3] Submit NIN")
		fmt.Println("  [4] Submit BVN")
		fmt.Println("  [5] Upload ID card")
		fmt.Println("  [6] Upload proof of address")
		fmt.Println("  [7] Face verification")
		fmt.Println("  [8] Close modal")
		fmt.Println("  [9] Continue verification")
		fmt.Println("  [0] End session and wait for result")
		fmt.Println("  [q] Exit (session keeps running)")
		fmt.Println()
		fmt.Print("Choose: ")

		switch s.prompt("") {
		case "1":
			s.show(ctx)
		case "2":
			s.signal(ctx, shared.SignalRefresh, nil)
		case "3":
			s.submit(ctx, shared.StepSubmission{Step: 1, NIN: s.prompt("Enter your 11-digit NIN: ")})
		case "4":
			s.submit(ctx, shared.StepSubmission{Step: 2, BVN: s.prompt("Enter your 11-digit BVN: ")})
		case "5":
			idType := s.prompt("ID type (national_id, drivers_license, international_passport, voters_card): ")
			path := s.prompt("Path to the ID image (PNG or JPEG, max 3MB): ")
			s.submit(ctx, shared.StepSubmission{Step: 3, IDType: idType, DocumentPath: path})
		case "6":
			address := s.prompt("Residential address: ")
			path := s.prompt("Path to the utility bill image (PNG or JPEG, max 3MB): ")
			s.submit(ctx, shared.StepSubmission{Step: 4, Address: address, DocumentPath: path})
		case "7":
			s.face(ctx)
		case "8":
			s.signal(ctx, shared.SignalModalAction, shared.ModalAction{Action: "close"})
		case "9":
			s.signal(ctx, shared.SignalModalAction, shared.ModalAction{Action: "continue"})
		case "0":
			s.signal(ctx, shared.SignalEndSession, nil)
			return s.wait(ctx)
		case "q":
			fmt.Println()
			fmt.Println("👋 Exiting CLI. The session continues running in Temporal.")
			fmt.Println("   Re-run with the same --user to reconnect, or view at http://localhost:8233")
			return nil
		default:
			fmt.Println("❌ Invalid choice.")
		}
	}
}

func (s *sessionMenu) prompt(label string) string {
	if label != "" {
		fmt.Print(label)
	}
	line, _ := s.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func (s *sessionMenu) face(ctx context.Context) {
	fmt.Println()
	fmt.Println("  [b] Begin (start capture session)")
	fmt.Println("  [c] Capture from image file")
	fmt.Println("  [r] Retake")
	fmt.Println("  [s] Submit capture")
	fmt.Println("  [x] Reset")
	fmt.Print("Choose: ")

	switch s.prompt("") {
	case "b":
		s.signal(ctx, shared.SignalFaceCapture, shared.FaceAction{Action: "begin"})
	case "c":
		uri, err := readDataURI(s.prompt("Path to the selfie image: "))
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		s.signal(ctx, shared.SignalFaceCapture, shared.FaceAction{Action: "capture", Image: uri})
	case "r":
		s.signal(ctx, shared.SignalFaceCapture, shared.FaceAction{Action: "retake"})
	case "s":
		s.signal(ctx, shared.SignalFaceCapture, shared.FaceAction{Action: "submit"})
	case "x":
		s.signal(ctx, shared.SignalFaceCapture, shared.FaceAction{Action: "reset"})
	default:
		fmt.Println("❌ Invalid choice.")
	}
}

func (s *sessionMenu) submit(ctx context.Context, sub shared.StepSubmission) {
	fmt.Printf("\n📤 Submitting step %d...\n", sub.Step)
	s.signal(ctx, shared.SignalSubmitStep, sub)
}

func (s *sessionMenu) signal(ctx context.Context, name string, arg any) {
	if err := s.c.SignalWorkflow(ctx, s.workflowID, "", name, arg); err != nil {
		fmt.Printf("❌ Unable to signal workflow: %v\n", err)
		return
	}
	fmt.Println("✅ Signal sent. Choose [1] to see the updated progress.")
}

func (s *sessionMenu) show(ctx context.Context) {
	resp, err := s.c.QueryWorkflow(ctx, s.workflowID, "", shared.QueryNavigationState)
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	var st shared.NavigationState
	if err := resp.Get(&st); err != nil {
		fmt.Printf("❌ Failed to decode state: %v\n", err)
		return
	}
	printState(st)
}

func (s *sessionMenu) wait(ctx context.Context) error {
	var result shared.SessionResult
	if err := s.run.Get(ctx, &result); err != nil {
		return fmt.Errorf("workflow failed: %w", err)
	}
	fmt.Printf("\n🏁 Result: %s\n", result.Outcome)
	printState(result.State)
	return nil
}

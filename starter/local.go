package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"megacoop-kyc/api"
	"megacoop-kyc/kyc"
	"megacoop-kyc/storage"
)

var (
	idType      string
	documentArg string
	addressArg  string
	imageArg    string
)

// localCmd groups the wizard actions that run without Temporal
var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Run wizard actions directly against the backend",
	Long: `Run single wizard actions directly against the backend. The current step
and last status are kept in the Badger database at storage.path between runs.

Available subcommands:
  status   - Fetch the status and show progress
  nin      - Submit the National Identification Number
  bvn      - Submit the Bank Verification Number
  id-card  - Upload an identity document
  address  - Upload a proof of address
  face     - Run the face capture flow with an image file
  close    - Dismiss the modal
  continue - Jump to the next incomplete step`,
}

var localStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the status and show progress",
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		return nil
	}),
}

var localNINCmd = &cobra.Command{
	Use:   "nin <number>",
	Short: "Submit the National Identification Number",
	Args:  cobra.ExactArgs(1),
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		return c.Submit(ctx, kyc.NINSubmission{NIN: args[0]}, nil)
	}),
}

var localBVNCmd = &cobra.Command{
	Use:   "bvn <number>",
	Short: "Submit the Bank Verification Number",
	Args:  cobra.ExactArgs(1),
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		return c.Submit(ctx, kyc.BVNSubmission{BVN: args[0]}, nil)
	}),
}

var localIDCardCmd = &cobra.Command{
	Use:   "id-card",
	Short: "Upload an identity document",
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		doc, err := readDocument(documentArg)
		if err != nil {
			return err
		}
		return c.Submit(ctx, kyc.IDCardSubmission{IDType: kyc.IDType(idType), Document: doc}, nil)
	}),
}

var localAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Upload a proof of address",
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		doc, err := readDocument(documentArg)
		if err != nil {
			return err
		}
		return c.Submit(ctx, kyc.AddressSubmission{Address: addressArg, Document: doc}, nil)
	}),
}

var localFaceCmd = &cobra.Command{
	Use:   "face",
	Short: "Run the face capture flow with an image file",
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		uri, err := readDataURI(imageArg)
		if err != nil {
			return err
		}
		fc := kyc.NewFaceCapture()
		if err := c.BeginFace(ctx, fc); err != nil {
			return err
		}
		if err := fc.Capture(uri); err != nil {
			return err
		}
		if err := c.SubmitFace(ctx, fc, nil); err != nil {
			return err
		}
		c.ShowSuccess()
		return nil
	}),
}

var localCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Dismiss the modal",
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		c.Close()
		return nil
	}),
}

var localContinueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Jump to the next incomplete step",
	RunE: withController(func(ctx context.Context, c *kyc.Controller, args []string) error {
		c.Continue(ctx)
		return nil
	}),
}

func init() {
	localIDCardCmd.Flags().StringVar(&idType, "type", string(kyc.IDNationalID), "ID type")
	localIDCardCmd.Flags().StringVar(&documentArg, "file", "", "path to the document image")
	localAddressCmd.Flags().StringVar(&addressArg, "address", "", "residential address")
	localAddressCmd.Flags().StringVar(&documentArg, "file", "", "path to the utility bill image")
	localFaceCmd.Flags().StringVar(&imageArg, "image", "", "path to the selfie image")
	_ = localFaceCmd.MarkFlagRequired("image")

	localCmd.AddCommand(
		localStatusCmd,
		localNINCmd,
		localBVNCmd,
		localIDCardCmd,
		localAddressCmd,
		localFaceCmd,
		localCloseCmd,
		localContinueCmd,
	)
}

type controllerAction func(ctx context.Context, c *kyc.Controller, args []string) error

// withController mounts a controller over the persisted state, runs action
// and prints the resulting progress. Validation and submission errors are
// shown to the user rather than failing the command.
func withController(action controllerAction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		backend, err := api.New(api.Options{
			BaseURL: cfg.API.BaseURL,
			Token:   cfg.API.Token,
			Timeout: cfg.API.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		state, err := storage.OpenBadger(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer state.Close()

		ctx := cmd.Context()
		c := kyc.NewController(kyc.NewStore(), backend, state, logger)
		c.Mount(ctx)

		if err := action(ctx, c, args); err != nil {
			var verrs kyc.ValidationErrors
			var serr *kyc.SubmissionError
			switch {
			case errors.As(err, &verrs):
				for _, fe := range verrs {
					fmt.Printf("❌ %s: %s\n", fe.Field, fe.Message)
				}
			case errors.As(err, &serr):
				fmt.Printf("❌ %s\n", serr.Message)
			default:
				return err
			}
		}
		printState(c.State())
		return nil
	}
}

package main

import (
	"fmt"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"megacoop-kyc/config"
	"megacoop-kyc/logging"
	"megacoop-kyc/shared"
	"megacoop-kyc/workflows"
)

func main() {
	cfg, err := config.Load(os.Getenv("MEGACOOP_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load config: %v\n", err)
		os.Exit(1)
	}
	logger, sync := logging.New(cfg.Logging)
	defer func() { _ = sync() }()

	// Connect to the Temporal server via gRPC. HostPort and Namespace come
	// from config; the SDK logs through the same zap core as the worker.
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logging.Temporal(logger),
	})
	if err != nil {
		logger.Error("Unable to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	// Workflow tasks do no I/O, so the default concurrency is fine. Sticky
	// execution keeps a session's state cached on the worker between signals.
	w := worker.New(c, shared.SessionWorkflowTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.KYCSessionWorkflow)
	w.RegisterWorkflow(workflows.SubmitStepWorkflow)

	logger.Info("Starting KYC session workflow worker", "taskQueue", shared.SessionWorkflowTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Unable to start worker", "error", err)
		os.Exit(1)
	}
}

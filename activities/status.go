package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"megacoop-kyc/api"
	"megacoop-kyc/kyc"
	"megacoop-kyc/shared"
)

// FetchStatus reads the user's verification status. "Not started" and
// application-level rejections are business outcomes (Started=false), not
// activity failures; only transport problems return an error.
func (a *Activities) FetchStatus(ctx context.Context) (shared.StatusResult, error) {
	logger := activity.GetLogger(ctx)

	rec, err := a.Backend.FetchStatus(ctx)
	if err == nil {
		logger.Info("KYC status fetched",
			"nextStep", kyc.NextIncompleteStep(rec),
			"adminApproval", rec.AdminApproval,
		)
		return shared.StatusResult{Started: true, Status: rec}, nil
	}

	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrNotStarted):
		logger.Info("KYC not started for user")
		return shared.StatusResult{Started: false, Message: err.Error()}, nil
	case errors.As(err, &apiErr):
		logger.Info("KYC status rejected by backend", "statusCode", apiErr.StatusCode, "message", apiErr.Message)
		return shared.StatusResult{Started: false, Message: apiErr.Message}, nil
	default:
		logger.Error("KYC status fetch failed", "error", err)
		return shared.StatusResult{}, err
	}
}

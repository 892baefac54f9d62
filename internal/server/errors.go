package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/ashishsumanth1/Resume-Council/internal/council"
)

// runErrorStatus maps pipeline failures to HTTP statuses. Total draft
// failure and synthesis failure are upstream problems (502); a run that ran
// out of time is a gateway timeout.
func runErrorStatus(err error) int {
	var allFailed *council.AllProvidersFailedError
	if errors.As(err, &allFailed) {
		return http.StatusBadGateway
	}
	var synthFailed *council.SynthesisFailedError
	if errors.As(err, &synthFailed) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return 499 // client closed request
	}
	return http.StatusInternalServerError
}

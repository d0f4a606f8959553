package gateway

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	apperrors "promogen-go/internal/errors"
	"promogen-go/internal/monitoring"
	"promogen-go/internal/provider"
)

// PollFunc obtains the next handle state from the provider. It is
// credentialed like any other call; the router wires it through the
// failover executor so a credential expiring mid-poll rotates normally.
type PollFunc func(ctx context.Context, h *provider.LongRunningHandle) (*provider.LongRunningHandle, error)

// Drive advances a long-running provider job to a terminal state by
// bounded-interval polling and returns the artifact reference. There is
// no internal attempt cap; the caller bounds total wait through ctx.
// Cancelling stops scheduling further polls and abandons the handle
// without trying to cancel the provider-side job.
//
// A provider-reported terminal failure is a content outcome, not a
// transient fault, and is surfaced immediately without rotation. A done
// handle with no artifact is a data contract violation.
func Drive(ctx context.Context, h *provider.LongRunningHandle, poll PollFunc, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	for {
		if h.Done {
			if h.ErrMessage != "" {
				return "", &apperrors.ProviderCallError{Message: h.ErrMessage}
			}
			if h.Artifact == "" {
				return "", &apperrors.MalformedResultError{OperationID: h.OperationID}
			}
			return h.Artifact, nil
		}

		select {
		case <-ctx.Done():
			log.WithField("operation_id", h.OperationID).Info("poll loop cancelled; abandoning handle")
			return "", ctx.Err()
		case <-time.After(interval):
		}

		next, err := poll(ctx, h)
		if err != nil {
			return "", err
		}
		monitoring.PollCyclesTotal.Inc()
		if next.OperationID == "" {
			next.OperationID = h.OperationID
		}
		h = next
	}
}

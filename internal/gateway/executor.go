package gateway

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"promogen-go/internal/credential"
	apperrors "promogen-go/internal/errors"
	"promogen-go/internal/logging"
	"promogen-go/internal/monitoring"
	"promogen-go/internal/provider"
	"promogen-go/internal/usage"
)

// Executor runs a unit of work against an ordered credential sequence:
// resolve secret, build a fresh client, invoke, and rotate to the next
// credential on failure. Attempts are strictly sequential; credentials
// often share provider rate-limit buckets, so parallel fan-out would
// amplify exactly the failures rotation is meant to absorb.
type Executor struct {
	Decrypter      credential.Decrypter
	Factory        provider.Factory
	Store          credential.Store
	AttemptTimeout time.Duration
	Usage          *usage.Tracker
	Path           string
}

// Execute iterates seq in order and returns the first success. A success
// short-circuits the remaining credentials. If the sequence is exhausted,
// the returned AggregatedFailureError carries every attempt's error; a
// credential is never retried within one call. Each attempt runs under
// its own timeout so one unresponsive credential cannot stall the
// sequence.
func Execute[T any](ctx context.Context, ex *Executor, seq []*credential.Credential, kind provider.Kind, fn func(ctx context.Context, cl provider.Client) (T, error)) (T, error) {
	var zero T
	attempts := make([]apperrors.Attempt, 0, len(seq))

	for i, cred := range seq {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if i > 0 {
			monitoring.RotationsTotal.Inc()
		}

		secret, err := ex.Decrypter.Decrypt(ctx, cred)
		if err != nil {
			var res *apperrors.CredentialResolutionError
			if !errors.As(err, &res) {
				err = &apperrors.CredentialResolutionError{CredentialID: cred.ID, Err: err}
			}
			ex.observe(cred, kind, 0, err)
			attempts = append(attempts, apperrors.Attempt{CredentialID: cred.ID, Err: err})
			continue
		}

		attemptCtx := ctx
		cancel := func() {}
		if ex.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, ex.AttemptTimeout)
		}
		out, err := fn(attemptCtx, ex.Factory.Build(secret))
		cancel()

		if err == nil {
			ex.observe(cred, kind, 0, nil)
			return out, nil
		}
		if ctx.Err() != nil {
			// Caller cancelled; the attempt error is just the echo of that.
			return zero, ctx.Err()
		}

		status := tagAttempt(cred.ID, err)
		if status == 429 && ex.Store != nil {
			if uerr := ex.Store.UpdateStatus(ctx, cred.ID, credential.StatusRateLimited); uerr != nil {
				log.WithError(uerr).WithField("cred_id", cred.ID).Warn("mark rate-limited failed")
			}
		}
		ex.observe(cred, kind, status, err)
		attempts = append(attempts, apperrors.Attempt{CredentialID: cred.ID, Err: err})
	}

	return zero, &apperrors.AggregatedFailureError{Attempts: attempts}
}

// tagAttempt stamps the credential onto a provider error that was raised
// below the executor, and returns the HTTP status if one is known.
func tagAttempt(credID string, err error) int {
	var pc *apperrors.ProviderCallError
	if errors.As(err, &pc) {
		if pc.CredentialID == "" {
			pc.CredentialID = credID
		}
		return pc.StatusCode
	}
	return 0
}

func (ex *Executor) observe(cred *credential.Credential, kind provider.Kind, status int, err error) {
	outcome := "success"
	if err != nil {
		outcome = logging.ErrorKind(status, true)
	}
	monitoring.AttemptsTotal.WithLabelValues(string(kind), outcome).Inc()

	entry := log.WithFields(log.Fields{
		"component": "executor",
		"path":      ex.Path,
		"kind":      kind,
		"cred_id":   cred.ID,
		"status":    status,
	})
	if err != nil {
		entry.WithError(err).Debug("credential attempt failed")
	} else {
		entry.Debug("credential attempt succeeded")
	}

	ex.Usage.Record(usage.Record{
		Timestamp:    time.Now(),
		CredentialID: cred.ID,
		Kind:         string(kind),
		Path:         ex.Path,
		Success:      err == nil,
		StatusCode:   status,
	})
}

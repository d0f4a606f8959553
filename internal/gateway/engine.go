package gateway

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"promogen-go/internal/cache"
	"promogen-go/internal/credential"
	"promogen-go/internal/provider"
	"promogen-go/internal/usage"
)

// Engine is one full execution chain: key pool, failover executor,
// response cache, and poll loop. The direct fallback path runs an Engine
// over the operator-held credential; a managed-gateway deployment runs
// the same Engine over the per-organization pool.
type Engine struct {
	Source       credential.Source
	Exec         *Executor
	Cache        *cache.Cache
	PollInterval time.Duration
}

// Run executes op end to end. Idempotent operations are memoized under
// their fingerprint; long-running results are polled to completion before
// returning.
func (e *Engine) Run(ctx context.Context, op provider.Operation) (*provider.Result, error) {
	if !op.Idempotent || e.Cache == nil {
		return e.run(ctx, op)
	}

	fp, err := cache.Fingerprint(op.OrganizationID, string(op.Kind), op.Payload)
	if err != nil {
		log.WithError(err).WithField("kind", op.Kind).Warn("fingerprint failed; running uncached")
		return e.run(ctx, op)
	}
	raw, hit, err := e.Cache.GetOrCompute(ctx, fp, func(ctx context.Context) ([]byte, error) {
		res, err := e.run(ctx, op)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
	if err != nil {
		return nil, err
	}
	var res provider.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	res.Kind = op.Kind
	if hit {
		// No credential was attempted; the hit still counts toward the
		// organization-facing usage totals.
		e.Exec.Usage.Record(usage.Record{
			Timestamp: time.Now(),
			Kind:      string(op.Kind),
			Path:      e.Exec.Path,
			Success:   true,
			CacheHit:  true,
		})
		log.WithFields(log.Fields{"kind": op.Kind, "fingerprint": fp}).Debug("response cache hit")
	}
	return &res, nil
}

func (e *Engine) run(ctx context.Context, op provider.Operation) (*provider.Result, error) {
	seq, err := e.Source.Sequence(ctx, op.OrganizationID)
	if err != nil {
		return nil, err
	}
	res, err := Execute(ctx, e.Exec, seq, op.Kind, func(ctx context.Context, cl provider.Client) (*provider.Result, error) {
		return cl.Invoke(ctx, op)
	})
	if err != nil {
		return nil, err
	}
	if res.Operation == nil {
		return res, nil
	}

	artifact, err := Drive(ctx, res.Operation, e.pollOnce(op), e.PollInterval)
	if err != nil {
		return nil, err
	}
	return &provider.Result{Kind: op.Kind, Artifacts: []string{artifact}}, nil
}

// pollOnce credentials each poll cycle exactly like the submission: the
// sequence is re-derived from the source, so a credential revoked or
// rate-limited mid-poll fails over on the next cycle.
func (e *Engine) pollOnce(op provider.Operation) PollFunc {
	return func(ctx context.Context, h *provider.LongRunningHandle) (*provider.LongRunningHandle, error) {
		seq, err := e.Source.Sequence(ctx, op.OrganizationID)
		if err != nil {
			return nil, err
		}
		return Execute(ctx, e.Exec, seq, op.Kind, func(ctx context.Context, cl provider.Client) (*provider.LongRunningHandle, error) {
			return cl.PollOperation(ctx, h)
		})
	}
}

// Stream opens a credentialed chat stream through the failover executor.
// The per-attempt timeout is disabled here: a healthy stream outlives any
// reasonable attempt timeout, and cancelling the attempt context would tear down the
// response body mid-read. Connection establishment is bounded by the HTTP
// transport's dial and response-header timeouts instead.
func (e *Engine) Stream(ctx context.Context, op provider.Operation) (provider.ChatStream, error) {
	seq, err := e.Source.Sequence(ctx, op.OrganizationID)
	if err != nil {
		return nil, err
	}
	ex := *e.Exec
	ex.AttemptTimeout = 0
	return Execute(ctx, &ex, seq, op.Kind, func(ctx context.Context, cl provider.Client) (provider.ChatStream, error) {
		return cl.StreamChat(ctx, op)
	})
}

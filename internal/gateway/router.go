package gateway

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	apperrors "promogen-go/internal/errors"
	"promogen-go/internal/monitoring"
	"promogen-go/internal/monitoring/tracing"
	"promogen-go/internal/provider"
	"promogen-go/internal/usage"
)

// ManagedTransport is the managed gateway path: one HTTP round trip per
// logical operation, with the pool/failover/cache/poll machinery running
// on the gateway side.
type ManagedTransport interface {
	Invoke(ctx context.Context, op provider.Operation) (*provider.Result, error)
	StreamChat(ctx context.Context, op provider.Operation) (provider.ChatStream, error)
}

// Router is the single entry point for every capability. It attempts the
// managed path first and, on a reachability failure, re-executes the same
// logical operation through the direct path. Path switching happens at
// most once per request, and callers cannot tell which path served them.
type Router struct {
	Managed ManagedTransport // nil runs direct-only
	Direct  *Engine
	Usage   *usage.Tracker
}

func (r *Router) GenerateText(ctx context.Context, organizationID string, req *provider.TextRequest) (*provider.Result, error) {
	return r.invoke(ctx, provider.Operation{
		OrganizationID: organizationID, Kind: provider.KindText, Payload: req, Idempotent: true,
	})
}

func (r *Router) GenerateImage(ctx context.Context, organizationID string, req *provider.ImageRequest) (*provider.Result, error) {
	return r.invoke(ctx, provider.Operation{
		OrganizationID: organizationID, Kind: provider.KindImage, Payload: req, Idempotent: true,
	})
}

// GenerateVideo drives the provider's asynchronous job to completion
// before returning. Video synthesis is not memoized: the submission
// creates provider-side work, so it is not side-effect free.
func (r *Router) GenerateVideo(ctx context.Context, organizationID string, req *provider.VideoRequest) (*provider.Result, error) {
	return r.invoke(ctx, provider.Operation{
		OrganizationID: organizationID, Kind: provider.KindVideo, Payload: req, Idempotent: false,
	})
}

func (r *Router) GenerateSpeech(ctx context.Context, organizationID string, req *provider.SpeechRequest) (*provider.Result, error) {
	return r.invoke(ctx, provider.Operation{
		OrganizationID: organizationID, Kind: provider.KindSpeech, Payload: req, Idempotent: true,
	})
}

func (r *Router) invoke(ctx context.Context, op provider.Operation) (*provider.Result, error) {
	ctx, span := tracing.Tracer().Start(ctx, "gateway.generate")
	span.SetAttributes(
		attribute.String("generation.kind", string(op.Kind)),
		attribute.String("organization.id", op.OrganizationID),
	)
	defer span.End()

	if r.Managed != nil {
		res, err := r.Managed.Invoke(ctx, op)
		if err == nil {
			return res, nil
		}
		if !apperrors.IsReachability(err) {
			return nil, err
		}
		r.recordFallback(op.Kind, err)
	}
	return r.Direct.Run(ctx, op)
}

// StreamChat returns a stream of text deltas. A managed-path failure
// before the first chunk falls back to a direct stream; once a chunk has
// been forwarded the stream is committed and any failure is terminal.
func (r *Router) StreamChat(ctx context.Context, organizationID string, req *provider.ChatRequest) (provider.ChatStream, error) {
	op := provider.Operation{
		OrganizationID: organizationID, Kind: provider.KindChat, Payload: req, Idempotent: false,
	}
	if r.Managed == nil {
		s, err := r.Direct.Stream(ctx, op)
		if err != nil {
			return nil, err
		}
		return newFailoverStream(ctx, s, nil), nil
	}

	primary, err := r.Managed.StreamChat(ctx, op)
	if err != nil {
		if !apperrors.IsReachability(err) {
			return nil, err
		}
		r.recordFallback(op.Kind, err)
		s, derr := r.Direct.Stream(ctx, op)
		if derr != nil {
			return nil, derr
		}
		return newFailoverStream(ctx, s, nil), nil
	}
	return newFailoverStream(ctx, primary, func(ctx context.Context) (provider.ChatStream, error) {
		r.recordFallback(op.Kind, nil)
		return r.Direct.Stream(ctx, op)
	}), nil
}

func (r *Router) recordFallback(kind provider.Kind, err error) {
	monitoring.FallbacksTotal.WithLabelValues(string(kind)).Inc()
	r.Usage.RecordFallback()
	entry := log.WithFields(log.Fields{"component": "router", "kind": kind})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("managed path unreachable; switching to direct path")
}

package gateway

import (
	"context"
	"errors"
	"io"

	apperrors "promogen-go/internal/errors"
	"promogen-go/internal/monitoring"
	"promogen-go/internal/provider"
)

// failoverStream enforces the stream fallback boundary. Before the first
// chunk, a transport failure on the primary stream switches to the
// fallback exactly once; semantic provider errors never switch. After a
// chunk has been forwarded, partial output cannot be un-sent, so any
// failure is surfaced as StreamInterrupted with no path switch.
type failoverStream struct {
	ctx       context.Context
	cur       provider.ChatStream
	fallback  func(context.Context) (provider.ChatStream, error)
	delivered int
}

func newFailoverStream(ctx context.Context, primary provider.ChatStream, fallback func(context.Context) (provider.ChatStream, error)) *failoverStream {
	return &failoverStream{ctx: ctx, cur: primary, fallback: fallback}
}

func (s *failoverStream) Recv() (string, error) {
	delta, err := s.cur.Recv()
	if err == nil {
		s.delivered++
		return delta, nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	if s.ctx.Err() != nil {
		return "", s.ctx.Err()
	}
	if s.delivered > 0 {
		monitoring.StreamInterruptionsTotal.Inc()
		return "", &apperrors.StreamInterruptedError{Delivered: s.delivered, Err: err}
	}

	var pc *apperrors.ProviderCallError
	if s.fallback == nil || errors.As(err, &pc) {
		return "", err
	}
	_ = s.cur.Close()
	fb := s.fallback
	s.fallback = nil
	next, ferr := fb(s.ctx)
	if ferr != nil {
		return "", ferr
	}
	s.cur = next
	return s.Recv()
}

func (s *failoverStream) Close() error { return s.cur.Close() }

package gateway

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"promogen-go/internal/cache"
	"promogen-go/internal/credential"
	"promogen-go/internal/provider"
	"promogen-go/internal/usage"
)

func newTestEngine(factory *fakeFactory, creds ...*credential.Credential) *Engine {
	return &Engine{
		Source:       &stubSource{creds: creds},
		Exec:         newTestExecutor(factory, nil),
		Cache:        cache.New(cache.NewMemoryKV(), time.Minute),
		PollInterval: time.Millisecond,
	}
}

func TestEngineMemoizesIdempotentOperations(t *testing.T) {
	var invokes int32
	factory := &fakeFactory{client: fakeClient{
		invoke: func(_ context.Context, _ string, op provider.Operation) (*provider.Result, error) {
			atomic.AddInt32(&invokes, 1)
			return &provider.Result{Kind: op.Kind, Text: "generated copy"}, nil
		},
	}}
	e := newTestEngine(factory, testCred("k1", true))
	op := provider.Operation{
		OrganizationID: "org-1",
		Kind:           provider.KindText,
		Payload:        &provider.TextRequest{Prompt: "spring sale tagline"},
		Idempotent:     true,
	}

	first, err := e.Run(context.Background(), op)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := e.Run(context.Background(), op)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.Text != "generated copy" || second.Text != "generated copy" {
		t.Errorf("texts = %q, %q", first.Text, second.Text)
	}
	if n := atomic.LoadInt32(&invokes); n != 1 {
		t.Errorf("provider invoked %d times, want 1 (second request served from cache)", n)
	}
	if second.Kind != provider.KindText {
		t.Errorf("cached result kind = %s", second.Kind)
	}
}

func TestEngineCountsCacheHitsInUsage(t *testing.T) {
	factory := &fakeFactory{client: fakeClient{
		invoke: func(_ context.Context, _ string, op provider.Operation) (*provider.Result, error) {
			return &provider.Result{Kind: op.Kind, Text: "copy"}, nil
		},
	}}
	e := newTestEngine(factory, testCred("k1", true))
	e.Exec.Usage = usage.NewTracker()
	op := provider.Operation{
		OrganizationID: "org-1",
		Kind:           provider.KindText,
		Payload:        &provider.TextRequest{Prompt: "tagline"},
		Idempotent:     true,
	}

	for i := 0; i < 2; i++ {
		if _, err := e.Run(context.Background(), op); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	snap := e.Exec.Usage.Snapshot()
	text := snap.Kinds["text"]
	if text == nil {
		t.Fatal("no usage recorded for kind text")
	}
	if text.CacheHits != 1 {
		t.Errorf("cache hits = %d, want 1", text.CacheHits)
	}
	if text.Requests != 2 || text.Successes != 2 {
		t.Errorf("requests=%d successes=%d, want the hit counted as a served request", text.Requests, text.Successes)
	}
}

func TestEngineDoesNotCacheNonIdempotent(t *testing.T) {
	var invokes int32
	factory := &fakeFactory{client: fakeClient{
		invoke: func(_ context.Context, _ string, op provider.Operation) (*provider.Result, error) {
			atomic.AddInt32(&invokes, 1)
			return &provider.Result{Kind: op.Kind, Artifacts: []string{"v.mp4"}}, nil
		},
	}}
	e := newTestEngine(factory, testCred("k1", true))
	op := provider.Operation{
		OrganizationID: "org-1",
		Kind:           provider.KindVideo,
		Payload:        &provider.VideoRequest{Prompt: "product demo"},
		Idempotent:     false,
	}

	for i := 0; i < 2; i++ {
		if _, err := e.Run(context.Background(), op); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&invokes); n != 2 {
		t.Errorf("provider invoked %d times, want 2", n)
	}
}

func TestEngineDoesNotCacheFailures(t *testing.T) {
	var invokes int32
	fail := int32(1)
	factory := &fakeFactory{client: fakeClient{
		invoke: func(_ context.Context, _ string, op provider.Operation) (*provider.Result, error) {
			atomic.AddInt32(&invokes, 1)
			if atomic.LoadInt32(&fail) == 1 {
				return nil, context.DeadlineExceeded
			}
			return &provider.Result{Kind: op.Kind, Text: "ok"}, nil
		},
	}}
	e := newTestEngine(factory, testCred("k1", true))
	op := provider.Operation{
		OrganizationID: "org-1",
		Kind:           provider.KindText,
		Payload:        &provider.TextRequest{Prompt: "x"},
		Idempotent:     true,
	}

	if _, err := e.Run(context.Background(), op); err == nil {
		t.Fatal("first Run should fail")
	}
	atomic.StoreInt32(&fail, 0)
	res, err := e.Run(context.Background(), op)
	if err != nil || res.Text != "ok" {
		t.Fatalf("retry: res=%+v err=%v", res, err)
	}
	if n := atomic.LoadInt32(&invokes); n != 2 {
		t.Errorf("provider invoked %d times, want 2 (failure must not be cached)", n)
	}
}

func TestEngineDrivesLongRunningToCompletion(t *testing.T) {
	var polls int32
	factory := &fakeFactory{client: fakeClient{
		invoke: func(_ context.Context, _ string, op provider.Operation) (*provider.Result, error) {
			return &provider.Result{Kind: op.Kind, Operation: &provider.LongRunningHandle{OperationID: "op-9"}}, nil
		},
		poll: func(_ context.Context, _ string, h *provider.LongRunningHandle) (*provider.LongRunningHandle, error) {
			if atomic.AddInt32(&polls, 1) < 2 {
				return &provider.LongRunningHandle{OperationID: h.OperationID}, nil
			}
			return &provider.LongRunningHandle{OperationID: h.OperationID, Done: true, Artifact: "cdn://video/final.mp4"}, nil
		},
	}}
	e := newTestEngine(factory, testCred("k1", true))

	res, err := e.Run(context.Background(), provider.Operation{
		OrganizationID: "org-1",
		Kind:           provider.KindVideo,
		Payload:        &provider.VideoRequest{Prompt: "launch teaser"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Artifacts) != 1 || res.Artifacts[0] != "cdn://video/final.mp4" {
		t.Errorf("artifacts = %v", res.Artifacts)
	}
	if atomic.LoadInt32(&polls) != 2 {
		t.Errorf("polls = %d, want 2", polls)
	}
}

func TestEngineStreamDisablesAttemptTimeout(t *testing.T) {
	factory := &fakeFactory{client: fakeClient{
		stream: func(ctx context.Context, _ string, _ provider.Operation) (provider.ChatStream, error) {
			if _, ok := ctx.Deadline(); ok {
				t.Error("stream attempt must not run under the per-attempt deadline")
			}
			return &scriptStream{events: []streamEvent{{delta: "hi"}}}, nil
		},
	}}
	e := newTestEngine(factory, testCred("k1", true))

	s, err := e.Stream(context.Background(), provider.Operation{
		OrganizationID: "org-1",
		Kind:           provider.KindChat,
		Payload:        &provider.ChatRequest{Messages: []provider.ChatMessage{{Role: "user", Content: "hi"}}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	deltas, err := drain(s)
	if err != nil || len(deltas) != 1 || deltas[0] != "hi" {
		t.Errorf("deltas=%v err=%v", deltas, err)
	}
	// The shared executor keeps its timeout for unary calls.
	if e.Exec.AttemptTimeout == 0 {
		t.Error("Stream must not mutate the shared executor")
	}
}

package gateway

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"promogen-go/internal/credential"
	"promogen-go/internal/provider"
)

func testCred(id string, isDefault bool) *credential.Credential {
	return &credential.Credential{
		ID:             id,
		OrganizationID: "org-1",
		Provider:       "genai",
		SecretRef:      credential.PlainRef("secret-" + id),
		IsDefault:      isDefault,
		Status:         credential.StatusValid,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
}

// fakeClient scripts provider behavior per bound secret.
type fakeClient struct {
	secret string
	invoke func(ctx context.Context, secret string, op provider.Operation) (*provider.Result, error)
	poll   func(ctx context.Context, secret string, h *provider.LongRunningHandle) (*provider.LongRunningHandle, error)
	stream func(ctx context.Context, secret string, op provider.Operation) (provider.ChatStream, error)
}

func (c *fakeClient) Invoke(ctx context.Context, op provider.Operation) (*provider.Result, error) {
	if c.invoke == nil {
		return nil, fmt.Errorf("invoke not scripted")
	}
	return c.invoke(ctx, c.secret, op)
}

func (c *fakeClient) PollOperation(ctx context.Context, h *provider.LongRunningHandle) (*provider.LongRunningHandle, error) {
	if c.poll == nil {
		return nil, fmt.Errorf("poll not scripted")
	}
	return c.poll(ctx, c.secret, h)
}

func (c *fakeClient) StreamChat(ctx context.Context, op provider.Operation) (provider.ChatStream, error) {
	if c.stream == nil {
		return nil, fmt.Errorf("stream not scripted")
	}
	return c.stream(ctx, c.secret, op)
}

// fakeFactory hands out fakeClients and records every secret it was asked
// to bind, in order.
type fakeFactory struct {
	mu     sync.Mutex
	built  []string
	client fakeClient
}

func (f *fakeFactory) Build(secret string) provider.Client {
	f.mu.Lock()
	f.built = append(f.built, secret)
	f.mu.Unlock()
	cl := f.client
	cl.secret = secret
	return &cl
}

func (f *fakeFactory) builtSecrets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.built...)
}

// recordingStore captures UpdateStatus calls.
type recordingStore struct {
	mu      sync.Mutex
	updates map[string]credential.Status
}

func newRecordingStore() *recordingStore {
	return &recordingStore{updates: make(map[string]credential.Status)}
}

func (s *recordingStore) ListCredentials(context.Context, string, string) ([]*credential.Credential, error) {
	return nil, nil
}

func (s *recordingStore) UpdateStatus(_ context.Context, id string, status credential.Status) error {
	s.mu.Lock()
	s.updates[id] = status
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) statusOf(id string) (credential.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.updates[id]
	return st, ok
}

type stubSource struct {
	creds []*credential.Credential
	err   error
}

func (s *stubSource) Sequence(context.Context, string) ([]*credential.Credential, error) {
	return s.creds, s.err
}

func newTestExecutor(factory *fakeFactory, store credential.Store) *Executor {
	return &Executor{
		Decrypter:      credential.PassthroughDecrypter{},
		Factory:        factory,
		Store:          store,
		AttemptTimeout: time.Second,
		Path:           "direct",
	}
}

// scriptStream replays a fixed sequence of events. A nil error entry with
// empty delta terminates with io.EOF.
type streamEvent struct {
	delta string
	err   error
}

type scriptStream struct {
	events []streamEvent
	i      int
	closed bool
}

func (s *scriptStream) Recv() (string, error) {
	if s.i >= len(s.events) {
		return "", io.EOF
	}
	ev := s.events[s.i]
	s.i++
	if ev.err != nil {
		return "", ev.err
	}
	return ev.delta, nil
}

func (s *scriptStream) Close() error {
	s.closed = true
	return nil
}

func drain(s provider.ChatStream) ([]string, error) {
	var out []string
	for {
		delta, err := s.Recv()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, delta)
	}
}

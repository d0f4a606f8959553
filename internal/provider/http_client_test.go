package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "promogen-go/internal/errors"
)

func TestHTTPClientInvokeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate/text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"output":{"text":"summer sale!"}}`))
	}))
	defer srv.Close()

	cl := NewHTTPFactory(srv.URL, srv.Client()).Build("sk-test")
	res, err := cl.Invoke(context.Background(), Operation{
		Kind:    KindText,
		Payload: &TextRequest{Prompt: "tagline"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Text != "summer sale!" || res.Operation != nil {
		t.Errorf("res = %+v", res)
	}
}

func TestHTTPClientInvokeDeferredOperation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"operation":{"id":"op-42","done":false}}`))
	}))
	defer srv.Close()

	cl := NewHTTPFactory(srv.URL, srv.Client()).Build("sk-test")
	res, err := cl.Invoke(context.Background(), Operation{Kind: KindVideo, Payload: &VideoRequest{Prompt: "demo"}})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Operation == nil || res.Operation.OperationID != "op-42" || res.Operation.Done {
		t.Errorf("operation = %+v", res.Operation)
	}
}

func TestHTTPClientInvokeArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output":{"artifacts":["cdn://a.png","cdn://b.png"]}}`))
	}))
	defer srv.Close()

	cl := NewHTTPFactory(srv.URL, srv.Client()).Build("sk-test")
	res, err := cl.Invoke(context.Background(), Operation{Kind: KindImage, Payload: &ImageRequest{Prompt: "banner"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Artifacts) != 2 || res.Artifacts[0] != "cdn://a.png" {
		t.Errorf("artifacts = %v", res.Artifacts)
	}
}

func TestHTTPClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exhausted"}}`))
	}))
	defer srv.Close()

	cl := NewHTTPFactory(srv.URL, srv.Client()).Build("sk-test")
	_, err := cl.Invoke(context.Background(), Operation{Kind: KindText, Payload: &TextRequest{Prompt: "x"}})
	var pc *apperrors.ProviderCallError
	if !errors.As(err, &pc) {
		t.Fatalf("err = %v", err)
	}
	if pc.StatusCode != 429 || pc.Message != "quota exhausted" {
		t.Errorf("pc = %+v", pc)
	}
}

func TestHTTPClientNetworkErrorIsProviderCall(t *testing.T) {
	cl := NewHTTPFactory("http://127.0.0.1:1", http.DefaultClient).Build("sk-test")
	_, err := cl.Invoke(context.Background(), Operation{Kind: KindText, Payload: &TextRequest{Prompt: "x"}})
	var pc *apperrors.ProviderCallError
	if !errors.As(err, &pc) {
		t.Fatalf("err = %v, want ProviderCallError", err)
	}
	if pc.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for pure network errors", pc.StatusCode)
	}
}

func TestHTTPClientPollOperation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/operations/op-42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"op-42","done":true,"result":{"artifacts":["cdn://v.mp4"]}}`))
	}))
	defer srv.Close()

	cl := NewHTTPFactory(srv.URL, srv.Client()).Build("sk-test")
	h, err := cl.PollOperation(context.Background(), &LongRunningHandle{OperationID: "op-42"})
	if err != nil {
		t.Fatalf("PollOperation: %v", err)
	}
	if !h.Done || h.Artifact != "cdn://v.mp4" {
		t.Errorf("handle = %+v", h)
	}
}

func TestHTTPClientPollReportsProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"op-42","done":true,"error":{"message":"render failed"}}`))
	}))
	defer srv.Close()

	cl := NewHTTPFactory(srv.URL, srv.Client()).Build("sk-test")
	h, err := cl.PollOperation(context.Background(), &LongRunningHandle{OperationID: "op-42"})
	if err != nil {
		t.Fatal(err)
	}
	if !h.Done || h.ErrMessage != "render failed" {
		t.Errorf("handle = %+v", h)
	}
}

func TestSSEStreamDeltas(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"delta\":\"Hel\"}\n\n" +
			": keepalive comment\n" +
			"data: {\"delta\":\"lo\"}\n\n" +
			"data: [DONE]\n\n"))
	s := NewSSEStream(body)
	defer s.Close()

	var got []string
	for {
		delta, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		got = append(got, delta)
	}
	if len(got) != 2 || got[0] != "Hel" || got[1] != "lo" {
		t.Errorf("deltas = %v", got)
	}
}

func TestSSEStreamInBandError(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"delta\":\"x\"}\n\n" +
			"data: {\"error\":{\"message\":\"stream quota\"}}\n\n"))
	s := NewSSEStream(body)
	defer s.Close()

	if delta, err := s.Recv(); err != nil || delta != "x" {
		t.Fatalf("first Recv: %q %v", delta, err)
	}
	_, err := s.Recv()
	var pc *apperrors.ProviderCallError
	if !errors.As(err, &pc) || pc.Message != "stream quota" {
		t.Errorf("err = %v", err)
	}
}

func TestSSEStreamTruncationIsNotEOF(t *testing.T) {
	body := io.NopCloser(strings.NewReader("data: {\"delta\":\"x\"}\n\n"))
	s := NewSSEStream(body)
	defer s.Close()

	if _, err := s.Recv(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Recv(); err != io.ErrUnexpectedEOF {
		t.Errorf("err = %v, want ErrUnexpectedEOF for a stream that never sent [DONE]", err)
	}
}

func TestStreamChatOpensSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat:stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"delta\":\"hey\"}\n\ndata: [DONE]\n\n"))
	}))
	defer srv.Close()

	cl := NewHTTPFactory(srv.URL, srv.Client()).Build("sk-test")
	s, err := cl.StreamChat(context.Background(), Operation{
		Kind:    KindChat,
		Payload: &ChatRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}},
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	defer s.Close()
	delta, err := s.Recv()
	if err != nil || delta != "hey" {
		t.Errorf("Recv = %q, %v", delta, err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("err = %v, want EOF", err)
	}
}

func TestRequestValidation(t *testing.T) {
	cases := []struct {
		name string
		req  interface{ Validate() error }
		ok   bool
	}{
		{"text ok", &TextRequest{Prompt: "p"}, true},
		{"text empty", &TextRequest{}, false},
		{"image count", &ImageRequest{Prompt: "p", Count: 9}, false},
		{"video negative duration", &VideoRequest{Prompt: "p", DurationSeconds: -1}, false},
		{"speech ok", &SpeechRequest{Text: "hello"}, true},
		{"chat no messages", &ChatRequest{}, false},
		{"chat blank role", &ChatRequest{Messages: []ChatMessage{{Content: "x"}}}, false},
	}
	for _, tc := range cases {
		if err := tc.req.Validate(); (err == nil) != tc.ok {
			t.Errorf("%s: Validate = %v", tc.name, err)
		}
	}
}

package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "promogen-go/internal/errors"
)

// HTTPFactory builds direct-to-provider clients over the provider's REST
// surface. Build is cheap: it only binds the secret.
type HTTPFactory struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHTTPFactory(baseURL string, hc *http.Client) *HTTPFactory {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPFactory{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: hc}
}

func (f *HTTPFactory) Build(secret string) Client {
	return &httpClient{base: f.BaseURL, hc: f.HTTPClient, secret: secret}
}

type httpClient struct {
	base   string
	hc     *http.Client
	secret string
}

func (c *httpClient) Invoke(ctx context.Context, op Operation) (*Result, error) {
	body, err := json.Marshal(op.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	url := fmt.Sprintf("%s/v1/generate/%s", c.base, op.Kind)
	raw, err := c.postJSON(ctx, url, body)
	if err != nil {
		return nil, err
	}
	return parseResult(op.Kind, raw), nil
}

func (c *httpClient) PollOperation(ctx context.Context, handle *LongRunningHandle) (*LongRunningHandle, error) {
	url := fmt.Sprintf("%s/v1/operations/%s", c.base, handle.OperationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &apperrors.ProviderCallError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ProviderCallError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, callError(resp.StatusCode, raw)
	}
	return parseHandle(raw), nil
}

func (c *httpClient) StreamChat(ctx context.Context, op Operation) (ChatStream, error) {
	body, err := json.Marshal(op.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	url := c.base + "/v1/chat:stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &apperrors.ProviderCallError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return nil, callError(resp.StatusCode, raw)
	}
	return NewSSEStream(resp.Body), nil
}

func (c *httpClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secret)
}

func (c *httpClient) postJSON(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &apperrors.ProviderCallError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ProviderCallError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, callError(resp.StatusCode, raw)
	}
	return raw, nil
}

// parseResult normalizes the provider's response envelope. Synchronous
// work lands under "output"; deferred work under "operation".
func parseResult(kind Kind, raw []byte) *Result {
	res := &Result{Kind: kind, Raw: raw}
	if opID := gjson.GetBytes(raw, "operation.id"); opID.Exists() {
		res.Operation = &LongRunningHandle{
			OperationID: opID.String(),
			Done:        gjson.GetBytes(raw, "operation.done").Bool(),
		}
		return res
	}
	res.Text = gjson.GetBytes(raw, "output.text").String()
	for _, a := range gjson.GetBytes(raw, "output.artifacts").Array() {
		res.Artifacts = append(res.Artifacts, a.String())
	}
	return res
}

func parseHandle(raw []byte) *LongRunningHandle {
	h := &LongRunningHandle{
		OperationID: gjson.GetBytes(raw, "id").String(),
		Done:        gjson.GetBytes(raw, "done").Bool(),
		ErrMessage:  gjson.GetBytes(raw, "error.message").String(),
	}
	if arts := gjson.GetBytes(raw, "result.artifacts").Array(); len(arts) > 0 {
		h.Artifact = arts[0].String()
	}
	return h
}

func callError(status int, raw []byte) error {
	msg := gjson.GetBytes(raw, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	return &apperrors.ProviderCallError{StatusCode: status, Message: msg}
}

// sseStream reads "data:" lines carrying {"delta": "..."} fragments until
// the [DONE] marker.
type sseStream struct {
	body io.ReadCloser
	sc   *bufio.Scanner
}

// NewSSEStream wraps an SSE response body as a ChatStream.
func NewSSEStream(body io.ReadCloser) ChatStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{body: body, sc: sc}
}

func (s *sseStream) Recv() (string, error) {
	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return "", io.EOF
		}
		if delta := gjson.Get(data, "delta"); delta.Exists() {
			return delta.String(), nil
		}
		if errMsg := gjson.Get(data, "error.message"); errMsg.Exists() {
			return "", &apperrors.ProviderCallError{Message: errMsg.String()}
		}
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	// Stream ended without the [DONE] marker; treat as a truncated
	// transport, not a clean finish.
	return "", io.ErrUnexpectedEOF
}

func (s *sseStream) Close() error { return s.body.Close() }

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "promogen-go/internal/errors"
	"promogen-go/internal/provider"
)

// ManagedClient speaks to the managed gateway service, the primary
// execution route. The gateway runs the key pool, failover, cache, and
// poll loop server-side and replies with a normalized result, so a call
// here is one HTTP round trip even for video.
//
// Error classification is the contract that drives fallback: transport
// problems (network error, timeout, non-2xx without a provider error
// envelope) surface as GatewayUnreachableError; a well-formed provider
// error envelope is a semantic failure and passes through unchanged.
type ManagedClient struct {
	base   string
	apiKey string
	hc     *http.Client
}

func NewManagedClient(baseURL, apiKey string, hc *http.Client) *ManagedClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &ManagedClient{base: strings.TrimRight(baseURL, "/"), apiKey: apiKey, hc: hc}
}

func (m *ManagedClient) Invoke(ctx context.Context, op provider.Operation) (*provider.Result, error) {
	body, err := m.encode(op)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1/%s", m.base, op.Kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	m.prepare(req)
	resp, err := m.hc.Do(req)
	if err != nil {
		return nil, &apperrors.GatewayUnreachableError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.GatewayUnreachableError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, raw)
	}
	var res provider.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, &apperrors.GatewayUnreachableError{Err: fmt.Errorf("malformed gateway response: %w", err)}
	}
	res.Kind = op.Kind
	res.Raw = raw
	return &res, nil
}

func (m *ManagedClient) StreamChat(ctx context.Context, op provider.Operation) (provider.ChatStream, error) {
	body, err := m.encode(op)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base+"/v1/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	m.prepare(req)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := m.hc.Do(req)
	if err != nil {
		return nil, &apperrors.GatewayUnreachableError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return nil, classify(resp.StatusCode, raw)
	}
	return provider.NewSSEStream(resp.Body), nil
}

// encode serializes the payload and stamps the organization onto it so
// the gateway can run its own per-organization key pool.
func (m *ManagedClient) encode(op provider.Operation) ([]byte, error) {
	body, err := json.Marshal(op.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	body, err = sjson.SetBytes(body, "organization_id", op.OrganizationID)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (m *ManagedClient) prepare(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
}

// classify decides reachability versus semantic failure for a non-2xx
// gateway response.
func classify(status int, raw []byte) error {
	errNode := gjson.GetBytes(raw, "error")
	if !errNode.Exists() {
		return &apperrors.GatewayUnreachableError{
			Err: fmt.Errorf("gateway returned status %d without error envelope", status),
		}
	}
	upstreamStatus := int(errNode.Get("status_code").Int())
	if upstreamStatus == 0 {
		upstreamStatus = status
	}
	return &apperrors.ProviderCallError{
		StatusCode: upstreamStatus,
		Message:    errNode.Get("message").String(),
	}
}

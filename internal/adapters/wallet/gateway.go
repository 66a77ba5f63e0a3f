package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/okian/arcboard/internal/domain/model"
)

// GatewaySigner implements Signer by posting messages to the ledger
// gateway's write endpoint. The gateway signs with a server-side key, so
// this implementation suits headless deployments where no browser wallet
// exists; the address it reports is the one the gateway key maps to.
type GatewaySigner struct {
	mu        sync.Mutex
	baseURL   string
	address   model.PlayerID
	client    *http.Client
	connected bool
}

// GatewayOption applies a configuration option to the GatewaySigner.
type GatewayOption func(*GatewaySigner)

// WithHTTPClient overrides the HTTP client used for dispatches.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(s *GatewaySigner) {
		if client != nil {
			s.client = client
		}
	}
}

// NewGatewaySigner creates a signer that dispatches through the gateway at
// baseURL on behalf of address.
func NewGatewaySigner(baseURL string, address model.PlayerID, opts ...GatewayOption) *GatewaySigner {
	s := &GatewaySigner{
		baseURL: baseURL,
		address: address,
		client:  http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Connect marks the signer usable. The gateway grants no partial
// permissions, so the requested set is accepted wholesale.
func (s *GatewaySigner) Connect(_ context.Context, _ ...Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

// ActiveAddress returns the configured gateway address.
func (s *GatewaySigner) ActiveAddress(_ context.Context) (model.PlayerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return "", ErrNotConnected
	}
	if s.address == "" {
		return "", ErrNoAddress
	}
	return s.address, nil
}

// dispatchResponse is the gateway's answer to a write.
type dispatchResponse struct {
	ID string `json:"id"`
}

// Dispatch posts msg to the gateway write endpoint and returns the assigned
// reference id.
func (s *GatewaySigner) Dispatch(ctx context.Context, msg Message) (model.LedgerRef, error) {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return "", ErrNotConnected
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: gateway returned %d: %s", ErrRejected, resp.StatusCode, payload)
	}

	var out dispatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrRejected, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: gateway returned no reference id", ErrRejected)
	}

	return model.LedgerRef(out.ID), nil
}

// Disconnect marks the signer unusable.
func (s *GatewaySigner) Disconnect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

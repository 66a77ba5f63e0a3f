package wallet

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/arcboard/internal/domain/model"
)

// Default in-memory signer configuration constants.
const (
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 80 * time.Millisecond
	defaultRandomSeed = 42
)

// Option applies a configuration option to the InMemorySigner.
type Option func(*InMemorySigner)

// WithAddress sets the address the signer reports as active.
func WithAddress(address model.PlayerID) Option {
	return func(s *InMemorySigner) {
		if address != "" {
			s.address = address
		}
	}
}

// WithLatencyRange sets the simulated signing/broadcast latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *InMemorySigner) {
		if minLatency > 0 && maxLatency > minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithDispatchError makes every Dispatch fail with err, simulating a user
// declining the signature or a broken extension.
func WithDispatchError(err error) Option {
	return func(s *InMemorySigner) {
		s.dispatchErr = err
	}
}

// InMemorySigner implements Signer against no real wallet. It simulates the
// latency of an extension round-trip and mints uuid reference ids, which is
// enough for tests and local wiring.
type InMemorySigner struct {
	mu        sync.Mutex
	address   model.PlayerID
	connected bool
	granted   []Permission

	minLatency time.Duration
	maxLatency time.Duration
	rng        *rand.Rand

	dispatchErr error
	dispatched  []Message
}

// NewInMemorySigner creates a stub signer with configuration options.
func NewInMemorySigner(opts ...Option) *InMemorySigner {
	s := &InMemorySigner{
		address:    model.PlayerID(uuid.NewString()),
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Connect records the granted permissions.
func (s *InMemorySigner) Connect(_ context.Context, permissions ...Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.granted = append([]Permission(nil), permissions...)
	return nil
}

// ActiveAddress returns the configured address once connected.
func (s *InMemorySigner) ActiveAddress(_ context.Context) (model.PlayerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return "", ErrNotConnected
	}
	return s.address, nil
}

// Dispatch simulates signing and broadcasting msg.
func (s *InMemorySigner) Dispatch(ctx context.Context, msg Message) (model.LedgerRef, error) {
	s.mu.Lock()
	latency := s.minLatency + time.Duration(s.rng.Int63n(int64(s.maxLatency-s.minLatency)))
	connected := s.connected
	failure := s.dispatchErr
	s.mu.Unlock()

	if !connected {
		return "", ErrNotConnected
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}

	if failure != nil {
		return "", fmt.Errorf("%w: %w", ErrRejected, failure)
	}

	s.mu.Lock()
	s.dispatched = append(s.dispatched, msg)
	s.mu.Unlock()

	return model.LedgerRef(uuid.NewString()), nil
}

// Disconnect drops the connection and granted permissions.
func (s *InMemorySigner) Disconnect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.granted = nil
	return nil
}

// Dispatched returns a copy of every message successfully dispatched so far.
func (s *InMemorySigner) Dispatched() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.dispatched...)
}

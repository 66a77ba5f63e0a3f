package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/arcboard/pkg/metrics"
)

// transport issues read-only dryrun queries against the ledger gateway.
// The smart-contract runtime behind the gateway is opaque to us; all we
// rely on is the message envelope shape.
type transport struct {
	baseURL   string
	processID string
	client    *http.Client
}

// dryrunRequest is the gateway's read payload.
type dryrunRequest struct {
	Process string `json:"process"`
	Tags    []Tag  `json:"tags"`
	Data    string `json:"data"`
}

// dryrunResponse carries the process reply messages. Only the first
// message's Data is meaningful for queries.
type dryrunResponse struct {
	Messages []struct {
		Data string `json:"Data"`
	} `json:"Messages"`
}

// query runs one round-trip for action and returns the envelope's data
// payload. Every failure mode collapses into a QueryError for the caller.
func (t *transport) query(ctx context.Context, action string, tags []Tag) (json.RawMessage, error) {
	metrics.RecordLedgerQuery(action)
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	data, err := t.roundTrip(ctx, action, tags)
	if err != nil {
		metrics.RecordLedgerQueryError(action)
		return nil, newQueryError(action, err)
	}
	return data, nil
}

func (t *transport) roundTrip(ctx context.Context, action string, tags []Tag) (json.RawMessage, error) {
	payload := dryrunRequest{
		Process: t.processID,
		Tags:    append([]Tag{{Name: "Action", Value: action}}, tags...),
		Data:    "",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/dryrun", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway round-trip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: gateway returned %d: %s", ErrMalformedResponse, resp.StatusCode, detail)
	}

	var out dryrunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(out.Messages) == 0 || out.Messages[0].Data == "" {
		return nil, fmt.Errorf("%w: no messages in reply", ErrMalformedResponse)
	}

	var env envelope
	if err := json.Unmarshal([]byte(out.Messages[0].Data), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrQueryRejected, env.Error)
		}
		return nil, ErrQueryRejected
	}

	return env.Data, nil
}

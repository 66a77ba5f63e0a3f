package simscores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/arcboard/pkg/logger"
)

// httpClient wraps http.Client with a shared timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{
		client: &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

func (c *httpClient) post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitScores pushes submissions through POST /scores with a worker pool.
func submitScores(ctx context.Context, config *Config, subs []Submission, stats *Stats) error {
	logger.Get().Info(ctx, "submitting scores",
		logger.Int("count", len(subs)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/scores"

	var (
		submitted int64
		accepted  int64
		failed    int64
	)

	subChan := make(chan Submission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 1)
				if submitSingleScore(ctx, client, url, sub) {
					atomic.AddInt64(&accepted, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	stats.ScoresSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ScoresAccepted = int(atomic.LoadInt64(&accepted))
	stats.ScoresFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "score submission completed",
		logger.Int("accepted", stats.ScoresAccepted),
		logger.Int("failed", stats.ScoresFailed))

	return nil
}

func submitSingleScore(ctx context.Context, client *httpClient, url string, sub Submission) bool {
	resp, err := client.post(ctx, url, sub)
	if err != nil {
		return false
	}
	_, _ = readResponseBody(resp)
	return resp.StatusCode == http.StatusAccepted
}

package pool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPSource fetches <BaseURL>/<poolID>.csv rankings files from a rankings provider.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		headers: make(map[string]string),
	}
}

// SetHeader adds a header to every request, e.g. a provider API key.
func (s *HTTPSource) SetHeader(key, value string) {
	s.headers[key] = value
}

func (s *HTTPSource) SetTimeout(timeout time.Duration) {
	s.client.Timeout = timeout
}

func (s *HTTPSource) LoadPool(ctx context.Context, poolID string) ([]models.Player, error) {
	if poolID == "" || strings.ContainsAny(poolID, `/\`) || strings.Contains(poolID, "..") {
		return nil, drafterr.WithMetadata(drafterr.CodeInvalidArgument, "invalid pool id",
			map[string]string{"pool_id": poolID})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+url.PathEscape(poolID)+".csv", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool %s: %w", poolID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, drafterr.WithMetadata(drafterr.CodeNotFound, "player pool not found",
			map[string]string{"pool_id": poolID})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rankings provider returned status code: %d, response: %s", resp.StatusCode, string(body))
	}

	players, err := ParseRankingsCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool %s: %w", poolID, err)
	}
	return players, nil
}

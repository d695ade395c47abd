package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"praktikum_core/internal/common"
)

// APIError is a non-2xx answer from the judge. The judge was reachable, so
// this is kept distinct from transport failures.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("judge returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a judge client for the given base URL. The timeout bounds
// every call; a judge that never answers must not hold a worker forever.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Judge posts the payload and returns the parsed verdict. Transport errors
// and timeouts wrap common.ErrJudgeUnavailable so callers can retry them;
// non-2xx answers come back as *APIError.
func (c *Client) Judge(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("judge client: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/judge", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("judge client: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("judge client: %v: %w", err, common.ErrJudgeUnavailable)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("judge client: read response: %v: %w", err, common.ErrJudgeUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var verdict Response
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		return nil, fmt.Errorf("judge client: decode response: %w", err)
	}
	return &verdict, nil
}

// IsRetryable reports whether a second attempt could succeed: transport
// failures and 5xx answers are worth retrying, 4xx answers are not.
func IsRetryable(err error) bool {
	if errors.Is(err, common.ErrJudgeUnavailable) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}

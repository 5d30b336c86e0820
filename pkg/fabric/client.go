package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FabricAPIBase is the Fabric REST API root.
const FabricAPIBase = "https://api.fabric.microsoft.com/v1"

// DefaultTimeout is the maximum time to wait for a single Fabric API response.
const DefaultTimeout = 30 * time.Second

// Client provides access to the Fabric REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     *zap.Logger

	// Poll pacing, overridable in tests.
	pollInitialDelay time.Duration
	pollMaxDelay     time.Duration
}

// NewClient creates a Fabric API client. A nil logger disables logging.
func NewClient(tokens TokenProvider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: FabricAPIBase,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		tokens:           tokens,
		logger:           logger.Named("fabric"),
		pollInitialDelay: initialPollDelay,
		pollMaxDelay:     maxPollDelay,
	}
}

// apiError carries the HTTP status so retry logic can tell transient server
// errors from permanent client errors.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("fabric api returned status %d: %s", e.status, e.body)
}

func (e *apiError) IsRetryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// apiResponse is the decoded outcome of a Fabric API call. OperationID is
// set from the x-ms-operation-id header on 202 responses.
type apiResponse struct {
	Status      int
	Body        []byte
	OperationID string
}

// do executes one API call. A non-nil payload is sent as JSON. Responses with
// status >= 400 are returned as *apiError.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*apiResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call fabric api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Error("fabric api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, &apiError{status: resp.StatusCode, body: string(respBody)}
	}

	return &apiResponse{
		Status:      resp.StatusCode,
		Body:        respBody,
		OperationID: resp.Header.Get("x-ms-operation-id"),
	}, nil
}

// getJSON issues a GET and decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("parse response from %s: %w", path, err)
	}
	return nil
}

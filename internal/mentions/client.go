package mentions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RawAPIError is the backend's sentinel for an upstream generation failure
// surfaced inside an otherwise well-formed response.
const RawAPIError = "API_ERROR"

// CheckRequest is the JSON body for POST /api/check.
type CheckRequest struct {
	Prompt string `json:"prompt"`
	Brand  string `json:"brand"`
}

// CheckResponse mirrors the backend's response shape. Every field is
// optional on the wire; absent fields decode to zero values.
type CheckResponse struct {
	Prompt    string `json:"prompt"`
	Brand     string `json:"brand"`
	Mentioned bool   `json:"mentioned"`
	Position  int    `json:"position"`
	Raw       string `json:"raw"`
	Error     string `json:"error"`
}

// TransportError marks a call that never produced a parseable response:
// the network request failed outright or the body was not JSON.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mention service not reachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client communicates with the mention-detection backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the given backend base URL.
// No request timeout is set; a submission blocks until the transport
// resolves or fails.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 0,
		},
	}
}

// Check submits one (prompt, brand) pair and returns the decoded response.
// A *TransportError is returned when the call could not complete or the
// body failed to decode; any structured response, including ones carrying
// an error field or the API_ERROR sentinel, is returned without error and
// left to the caller to classify.
func (c *Client) Check(ctx context.Context, prompt, brand string) (*CheckResponse, error) {
	body, err := json.Marshal(CheckRequest{Prompt: prompt, Brand: brand})
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/check", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	// The backend reports failures through the body (error field or the
	// API_ERROR sentinel), so the status code is not inspected here. A body
	// that does not decode is indistinguishable from a dead service.
	var out CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &out, nil
}

// Package mlclient is an HTTP adapter for models served behind a
// prediction endpoint. It implements the pipeline's Classifier
// collaborator by POSTing the window batch as JSON and decoding the
// returned probabilities.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Doer is the minimal HTTP client surface. *http.Client satisfies it;
// tests substitute a canned implementation.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls a remote prediction service.
type Client struct {
	baseURL string
	model   string
	http    Doer
}

// New returns a client for the service at baseURL using the named
// model. A nil doer falls back to http.DefaultClient.
func New(baseURL, model string, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    doer,
	}
}

// predictRequest is the wire format of one inference call.
type predictRequest struct {
	Model string      `json:"model"`
	Input [][]float64 `json:"input"`
}

// predictResponse is the wire format of the service's answer.
type predictResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
	Error         string      `json:"error,omitempty"`
}

// Predict posts the window batch to /predict and returns the
// window × class probabilities. Timeouts and cancellation come from
// ctx; the service's own errors surface verbatim.
func (c *Client) Predict(ctx context.Context, input [][]float64) ([][]float64, error) {
	body, err := json.Marshal(predictRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("mlclient: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mlclient: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mlclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("mlclient: reading response: %w", err)
	}

	var decoded predictResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("mlclient: decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := decoded.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("mlclient: service error (status %d): %s", resp.StatusCode, msg)
	}
	if len(decoded.Probabilities) == 0 {
		return nil, fmt.Errorf("mlclient: service returned no probabilities")
	}
	return decoded.Probabilities, nil
}

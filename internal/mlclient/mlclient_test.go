package mlclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedDoer records the request and returns a fixed response.
type cannedDoer struct {
	status int
	body   string
	err    error

	gotURL  string
	gotBody []byte
}

func (d *cannedDoer) Do(req *http.Request) (*http.Response, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.gotURL = req.URL.String()
	var err error
	d.gotBody, err = io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: d.status,
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func TestPredict(t *testing.T) {
	t.Parallel()

	doer := &cannedDoer{
		status: http.StatusOK,
		body:   `{"probabilities":[[0.1,0.9],[0.8,0.2]]}`,
	}
	c := New("http://model-svc:9000/", "har-cnn", doer)

	probs, err := c.Predict(context.Background(), [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.9}, {0.8, 0.2}}, probs)

	// Trailing slash on the base URL must not double up.
	assert.Equal(t, "http://model-svc:9000/predict", doer.gotURL)

	var sent predictRequest
	require.NoError(t, json.Unmarshal(doer.gotBody, &sent))
	assert.Equal(t, "har-cnn", sent.Model)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, sent.Input)
}

func TestPredictServiceError(t *testing.T) {
	t.Parallel()

	t.Run("error message from the service body", func(t *testing.T) {
		t.Parallel()
		doer := &cannedDoer{
			status: http.StatusInternalServerError,
			body:   `{"error":"model not loaded"}`,
		}
		c := New("http://model-svc:9000", "har-cnn", doer)
		_, err := c.Predict(context.Background(), [][]float64{{1}})
		assert.ErrorContains(t, err, "model not loaded")
		assert.ErrorContains(t, err, "status 500")
	})

	t.Run("status text when the body has no message", func(t *testing.T) {
		t.Parallel()
		doer := &cannedDoer{status: http.StatusBadGateway, body: `{}`}
		c := New("http://model-svc:9000", "har-cnn", doer)
		_, err := c.Predict(context.Background(), [][]float64{{1}})
		assert.ErrorContains(t, err, "Bad Gateway")
	})
}

func TestPredictTransportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	c := New("http://model-svc:9000", "har-cnn", &cannedDoer{err: boom})
	_, err := c.Predict(context.Background(), [][]float64{{1}})
	assert.ErrorIs(t, err, boom)
}

func TestPredictMalformedResponse(t *testing.T) {
	t.Parallel()

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()
		doer := &cannedDoer{status: http.StatusOK, body: `{"probabilities":`}
		c := New("http://model-svc:9000", "har-cnn", doer)
		_, err := c.Predict(context.Background(), [][]float64{{1}})
		assert.ErrorContains(t, err, "decoding response")
	})

	t.Run("empty probabilities", func(t *testing.T) {
		t.Parallel()
		doer := &cannedDoer{status: http.StatusOK, body: `{"probabilities":[]}`}
		c := New("http://model-svc:9000", "har-cnn", doer)
		_, err := c.Predict(context.Background(), [][]float64{{1}})
		assert.ErrorContains(t, err, "no probabilities")
	})
}

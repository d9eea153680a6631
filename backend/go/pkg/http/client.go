package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/circuitbreaker"
)

// Client wraps http.Client with circuit breaking.
// Status codes >= 500 count as failures; their bodies are drained and closed.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a Client. A nil breaker disables circuit breaking.
func NewClient(httpClient *http.Client, breaker *circuitbreaker.Breaker) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient, breaker: breaker}
}

// Do executes an HTTP request with circuit breaker protection.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := c.breaker.Do(func() error {
		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			r.Body.Close()
			return fmt.Errorf("server error: received status code %d", r.StatusCode)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

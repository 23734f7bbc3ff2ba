// Package cep looks up Brazilian postal codes against the ViaCEP API.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the public ViaCEP endpoint.
	DefaultBaseURL = "https://viacep.com.br"

	// lookupTimeout bounds one Lookup call end to end, retries included.
	lookupTimeout = 5 * time.Second

	// maxRetries is the number of extra attempts after a transient
	// network failure; not-found and client errors are never retried.
	maxRetries     = 2
	initialBackoff = 300 * time.Millisecond
)

// ErrNotFound is returned when the code is well-formed but no address
// exists for it.
var ErrNotFound = errors.New("cep: address not found")

// Address is the resolved location for a postal code.
type Address struct {
	Street       string
	Neighborhood string
	City         string
	State        string
}

type viaCEPResponse struct {
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       bool   `json:"erro"`
}

// Client resolves 8-digit postal codes. Concurrent lookups for the same
// code collapse into one upstream call, and a circuit breaker keeps a
// flapping upstream from being hammered.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*Address]
	group      singleflight.Group
	logger     *slog.Logger
}

// NewClient creates a lookup client. An empty baseURL selects the public
// ViaCEP endpoint.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:    "viacep",
		Timeout: 30 * time.Second,
		IsSuccessful: func(err error) bool {
			// A not-found answer is a healthy upstream.
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   lookupTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
		breaker: gobreaker.NewCircuitBreaker[*Address](settings),
		logger:  logger,
	}
}

// Lookup resolves an already-normalized 8-digit code. It returns
// ErrNotFound for unknown codes and a wrapped transport error when the
// upstream is unreachable after the bounded retries.
func (c *Client) Lookup(ctx context.Context, code string) (*Address, error) {
	v, err, _ := c.group.Do(code, func() (any, error) {
		return c.breaker.Execute(func() (*Address, error) {
			return c.lookupWithRetry(ctx, code)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*Address), nil
}

func (c *Client) lookupWithRetry(ctx context.Context, code string) (*Address, error) {
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying CEP lookup", "cep", code, "attempt", attempt, "error", lastErr)
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		addr, retryable, err := c.lookup(ctx, code)
		if err == nil {
			return addr, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) lookup(ctx context.Context, code string) (addr *Address, retryable bool, err error) {
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("cep: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("cep: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("cep: upstream returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("cep: upstream returned %d", resp.StatusCode)
	}

	var payload viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, true, fmt.Errorf("cep: decoding response: %w", err)
	}
	if payload.Erro {
		return nil, false, ErrNotFound
	}

	return &Address{
		Street:       payload.Logradouro,
		Neighborhood: payload.Bairro,
		City:         payload.Localidade,
		State:        payload.UF,
	}, false, nil
}

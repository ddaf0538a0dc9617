package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8000"

	// El servicio no documenta límites; las emulaciones son caras en servidor.
	requestsPerSec = 5
	requestsBurst  = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
	httpTimeout   = 60 * time.Second
)

// Client es el HTTP client del servicio de analytics (pools, emulate,
// markovitz-optimize, portfolio) con rate limiting y retries.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client con el base URL dado.
// Si baseURL está vacío usa el servicio local por defecto.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		base:    baseURL,
		limiter: rate.NewLimiter(requestsPerSec, requestsBurst),
	}
}

// get hace un GET con query params, rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// Reintenta fallos de red, 429 y 5xx. Los 4xx devuelven el error de validación.
// Todos los errores que devuelve son *APIError.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	var last *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return newNetworkError(fmt.Errorf("rate limiter: %w", err))
		}

		resp, err := fn()
		if err != nil {
			last = newNetworkError(err)
			if ctx.Err() != nil || attempt == maxRetries {
				return last
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			last = newStatusError(resp.StatusCode, body)
			slog.Warn("analytics: retryable status", "status", resp.StatusCode, "attempt", attempt+1)
			if attempt == maxRetries {
				return last
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return newStatusError(resp.StatusCode, body)
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return newNetworkError(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}
	return last
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

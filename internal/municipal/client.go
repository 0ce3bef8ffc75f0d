// Package municipal provides a client for the municipal planning API: incident
// forecasts, the resource inventory and operational ratios.
package municipal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/source"
)

const (
	forecastPath  = "/api/modelo/prediccion/predecir"
	inventoryPath = "/api/recursos/inventario"
	ratiosPath    = "/api/configuracion/ratios"

	defaultTimeout   = 30 * time.Second
	defaultRetryWait = 500 * time.Millisecond
	userAgent        = "resplan/1.0"
)

var (
	// ErrUnauthorized indicates the API token is missing, expired or invalid.
	ErrUnauthorized = errors.New("municipal: unauthorized (token missing or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("municipal: rate limited")
	// ErrNotFound indicates the endpoint or resource does not exist.
	ErrNotFound = errors.New("municipal: not found")
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// Client talks to the municipal API.
type Client struct {
	baseURL string
	http    *resty.Client
}

// NewClient creates a client. Zero timeout and retry wait fall back to defaults.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = defaultRetryWait
	}

	hc := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(4 * opts.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return err != nil
			}
			return r.StatusCode() == http.StatusTooManyRequests ||
				(r.StatusCode() >= 500 && r.StatusCode() <= 504)
		})
	if token := strings.TrimSpace(opts.Token); token != "" {
		hc.SetAuthToken(token)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
	}
}

// FetchForecast requests the incident forecast for one month.
func (c *Client) FetchForecast(ctx context.Context, period model.Period) (model.Forecast, error) {
	body, err := c.do(ctx, http.MethodPost, forecastPath, forecastRequest{Year: period.Year, Month: period.Month})
	if err != nil {
		return model.Forecast{}, err
	}
	f, err := source.DecodeForecast(body, period)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("municipal: %w", err)
	}
	return f, nil
}

// FetchInventory returns the current resource inventory.
func (c *Client) FetchInventory(ctx context.Context) (model.Inventory, error) {
	body, err := c.do(ctx, http.MethodGet, inventoryPath, nil)
	if err != nil {
		return model.Inventory{}, err
	}
	inv, err := source.DecodeInventory(body)
	if err != nil {
		return model.Inventory{}, fmt.Errorf("municipal: %w", err)
	}
	return inv, nil
}

// FetchRatios returns the operational ratio configuration.
func (c *Client) FetchRatios(ctx context.Context) (model.OperationalRatios, error) {
	body, err := c.do(ctx, http.MethodGet, ratiosPath, nil)
	if err != nil {
		return model.OperationalRatios{}, err
	}
	r, err := source.DecodeRatios(body)
	if err != nil {
		return model.OperationalRatios{}, fmt.Errorf("municipal: %w", err)
	}
	return r, nil
}

type forecastRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// do performs a request and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("municipal: %s %s: %w", method, path, err)
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("municipal: %s %s: unexpected status %d", method, path, resp.StatusCode())
	}
	return resp.Body(), nil
}

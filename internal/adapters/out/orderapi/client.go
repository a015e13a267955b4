// Package orderapi reads orders from the fulfillment HTTP API. It backs the customer
// tracking client, which never talks to the Order Store directly.
package orderapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/tracking"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 1 << 20

var _ tracking.Fetcher = (*Client)(nil)

// StatusError is a reply outside 2xx other than 404.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("orderapi: GET %s returned %d: %s", e.Path, e.Code, e.Message)
}

type orderBody struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Client implements tracking.Fetcher over HTTP.
type Client struct {
	base string
	http *http.Client
}

// NewClient points a client at baseURL, e.g. "http://localhost:8080". A nil httpClient
// is replaced with an instrumented one; deadlines come from the request context.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errs.NewValueIsRequiredError("order api url")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("order api url", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{base: base, http: httpClient}, nil
}

// ActiveOrders calls GET /api/v1/orders/active?customer=<ref>.
func (c *Client) ActiveOrders(ctx context.Context, customer kernel.ChannelRef) ([]tracking.Observation, error) {
	path := "/api/v1/orders/active?customer=" + url.QueryEscape(customer.String())

	var bodies []orderBody
	if err := c.get(ctx, path, &bodies); err != nil {
		return nil, err
	}

	result := make([]tracking.Observation, 0, len(bodies))
	for _, b := range bodies {
		obs, err := b.observation()
		if err != nil {
			return nil, err
		}
		result = append(result, obs)
	}
	return result, nil
}

// Order calls GET /api/v1/orders/<id>. A 404 is reported as errs.ErrObjectNotFound.
func (c *Client) Order(ctx context.Context, id kernel.OrderID) (tracking.Observation, error) {
	var body orderBody
	err := c.get(ctx, "/api/v1/orders/"+url.PathEscape(id.String()), &body)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return tracking.Observation{}, errs.NewObjectNotFoundErrorWithCause("order id", id.String(), err)
		}
		return tracking.Observation{}, err
	}
	return body.observation()
}

func (b orderBody) observation() (tracking.Observation, error) {
	id, err := kernel.OrderIDFromString(b.OrderID)
	if err != nil {
		return tracking.Observation{}, fmt.Errorf("orderapi: %w", err)
	}
	status, err := order.ParseStatus(b.Status)
	if err != nil {
		return tracking.Observation{}, fmt.Errorf("orderapi: order %s: %w", id, err)
	}
	return tracking.Observation{OrderID: id, Status: status, UpdatedAt: b.UpdatedAt}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("orderapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("orderapi: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("orderapi: read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		_ = json.Unmarshal(raw, &body)
		if body.Message == "" {
			body.Message = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Path: path, Code: resp.StatusCode, Message: body.Message}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("orderapi: decode %s: %w", path, err)
	}
	return nil
}

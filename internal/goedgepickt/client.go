// Package goedgepickt implements the client for the GoedGepickt
// warehouse-management API, the source of truth for orders and products.
//
// Failure contract: not-found and auth/network failures are normal operating
// conditions for the sync pipeline. They surface as wrapped sentinel errors
// (types.ErrOrderNotFound, types.ErrSourceUnavailable) so callers can record
// and skip; a single bad order must never abort a run.
package goedgepickt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/printlijst/printlijst/internal/types"
)

// DefaultBaseURL is the production GoedGepickt API endpoint.
const DefaultBaseURL = "https://account.goedgepickt.nl/api/v1"

const requestTimeout = 30 * time.Second

// Client is a GoedGepickt API client. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the given base URL and bearer API key.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: requestTimeout},
		log:     log,
	}
}

// GetOrder fetches one order by uuid. Returns types.ErrOrderNotFound for 404
// and types.ErrSourceUnavailable for transport or auth failures.
func (c *Client) GetOrder(ctx context.Context, orderUUID string) (*Order, error) {
	body, err := c.get(ctx, "/orders/"+url.PathEscape(orderUUID), nil)
	if err != nil {
		if errIsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderUUID, types.ErrOrderNotFound)
		}
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		// Some deployments wrap single resources in an envelope.
		var envelope struct {
			Order *Order `json:"order"`
		}
		if err2 := json.Unmarshal(body, &envelope); err2 != nil || envelope.Order == nil {
			return nil, fmt.Errorf("decode order %s: %w", orderUUID, err)
		}
		order = *envelope.Order
	}
	order.Raw = json.RawMessage(body)
	return &order, nil
}

// GetProduct fetches one product by uuid. Returns types.ErrProductNotFound
// for 404 and types.ErrSourceUnavailable for transport or auth failures.
func (c *Client) GetProduct(ctx context.Context, productUUID string) (*Product, error) {
	body, err := c.get(ctx, "/products/"+url.PathEscape(productUUID), nil)
	if err != nil {
		if errIsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("product %s: %w", productUUID, types.ErrProductNotFound)
		}
		return nil, err
	}

	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", productUUID, err)
	}
	return &product, nil
}

// GetOrders fetches one page of orders under the given filter. The API has
// shipped several response envelopes over time (bare array, items, orders,
// data); all are accepted. PageInfo fields are zero when the response does
// not declare pagination.
func (c *Client) GetOrders(ctx context.Context, filter OrderFilter) ([]Order, PageInfo, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.OrderStatus != "" {
		params.Set("orderstatus", filter.OrderStatus)
	}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PerPage > 0 {
		params.Set("perPage", strconv.Itoa(filter.PerPage))
	}

	body, err := c.get(ctx, "/orders", params)
	if err != nil {
		return nil, PageInfo{}, err
	}

	orders, info, err := decodeOrderList(body)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("decode order listing: %w", err)
	}
	return orders, info, nil
}

// TestConnection probes the orders endpoint. A 401 still proves the endpoint
// is reachable, so only transport failures count as a failed probe.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.get(ctx, "/orders", url.Values{"page": {"1"}})
	if err != nil && !errIsStatus(err, http.StatusUnauthorized) {
		return err
	}
	return nil
}

// statusError carries a non-2xx response for sentinel mapping in callers.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("goedgepickt API returned %d: %s", e.code, e.body)
}

func errIsStatus(err error, code int) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == code
	}
	return false
}

// get performs one authenticated GET and returns the response body.
// Non-200 responses become errors wrapping types.ErrSourceUnavailable
// (except 404, wrapped as a plain statusError for sentinel mapping).
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("url", u).Msg("goedgepickt request failed")
		return nil, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", types.ErrSourceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &statusError{code: resp.StatusCode, body: truncate(body, 200)}
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Error().Str("url", u).Msg("goedgepickt authentication failed; check API key")
		return nil, fmt.Errorf("%w: %w", types.ErrSourceUnavailable,
			&statusError{code: resp.StatusCode, body: truncate(body, 200)})
	default:
		c.log.Warn().Int("status", resp.StatusCode).Str("url", u).Msg("goedgepickt API error")
		return nil, fmt.Errorf("%w: %w", types.ErrSourceUnavailable,
			&statusError{code: resp.StatusCode, body: truncate(body, 200)})
	}
}

// decodeOrderList handles the listing envelopes the API has shipped.
func decodeOrderList(body []byte) ([]Order, PageInfo, error) {
	// Bare array first.
	var direct []Order
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct, PageInfo{}, nil
	}

	var envelope struct {
		Items    []Order  `json:"items"`
		Orders   []Order  `json:"orders"`
		Data     []Order  `json:"data"`
		PageInfo PageInfo `json:"pageInfo"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, PageInfo{}, err
	}

	switch {
	case envelope.Items != nil:
		return envelope.Items, envelope.PageInfo, nil
	case envelope.Orders != nil:
		return envelope.Orders, envelope.PageInfo, nil
	case envelope.Data != nil:
		return envelope.Data, envelope.PageInfo, nil
	default:
		return nil, envelope.PageInfo, nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Package crm is a small client for the CRM custom object REST API.
package crm

import (
	"bytes"
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

	"github.com/okian/cobj/internal/domain/model"
	"github.com/okian/cobj/pkg/logger"
	"github.com/okian/cobj/pkg/metrics"
)

// Defaults.
const (
	DefaultBaseURL = "https://api.hubapi.com"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
	objectsPath    = "/crm/v3/objects/"
)

// Operation names used in logs and metrics.
const (
	opList   = "list"
	opCreate = "create"
)

// Client issues authenticated calls against the custom object endpoints.
// It holds no mutable state after construction and is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     logger.Logger
}

// New constructs a Client. Without options it targets DefaultBaseURL with no token.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logger.Named("crm")
	}
	return c
}

// List fetches up to limit objects of objectType with the given properties.
// A response without a results array yields an empty, non-nil slice.
func (c *Client) List(ctx context.Context, objectType string, properties []string, limit int) ([]model.Record, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(properties) > 0 {
		q.Set("properties", strings.Join(properties, ","))
	}

	var out listResponse
	if err := c.do(ctx, opList, http.MethodGet, objectType, q, nil, &out); err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(out.Results))
	for _, o := range out.Results {
		records = append(records, o.toRecord())
	}
	metrics.RecordRecordsListed(len(records))
	return records, nil
}

// Create creates one object of objectType with the given property values and
// returns the record echoed back by the CRM.
func (c *Client) Create(ctx context.Context, objectType string, values map[string]string) (model.Record, error) {
	var out objectDTO
	body := createRequest{Properties: values}
	if err := c.do(ctx, opCreate, http.MethodPost, objectType, nil, body, &out); err != nil {
		return model.Record{}, err
	}
	metrics.RecordRecordCreated()
	return out.toRecord(), nil
}

// do performs one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, op, method, objectType string, q url.Values, in, out any) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordUpstreamCall(op, outcome, float64(time.Since(start).Milliseconds()))
	}()

	endpoint := c.baseURL + objectsPath + url.PathEscape(objectType)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			outcome = "encode_error"
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		outcome = "request_error"
		return fmt.Errorf("%w: %s: create request: %v", ErrRequest, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "transport_error"
		c.logger.Error(ctx, "crm request failed",
			logger.String("op", op),
			logger.String("object_type", objectType),
			logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrRequest, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "status_" + strconv.Itoa(resp.StatusCode)
		apiErr := parseAPIError(resp)
		c.logger.Error(ctx, "crm returned error status",
			logger.String("op", op),
			logger.String("object_type", objectType),
			logger.Int("status", apiErr.StatusCode),
			logger.String("category", apiErr.Category),
			logger.String("correlation_id", apiErr.CorrelationID),
			logger.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty 2xx body: nothing to decode.
			return nil
		}
		outcome = "decode_error"
		return fmt.Errorf("%w: %s: %v", ErrDecode, op, err)
	}
	return nil
}

func parseAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, apiErr)
	}
	apiErr.StatusCode = resp.StatusCode
	apiErr.Body = strings.TrimSpace(string(raw))
	return apiErr
}

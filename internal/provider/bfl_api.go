package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bfl-cli/internal/config"
	"bfl-cli/internal/domain"
	"bfl-cli/internal/ports"
)

const userAgent = "bfl-go-client/0.1.0"

// APIClient is a concrete implementation of the FluxClient port that
// communicates with the BFL REST API over HTTP.
type APIClient struct {
	cfg        config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient constructs a new APIClient. If httpClient is nil, a client
// with the configured timeout (60 seconds by default) is used. A nil logger
// disables logging.
func NewAPIClient(cfg config.Config, httpClient *http.Client, logger *zap.Logger) *APIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIClient{cfg: cfg, httpClient: httpClient, logger: logger}
}

// Generate implements the FluxClient port. It POSTs the parameter map as the
// JSON body of /v1/{model} and returns the Task handle the service assigned.
// Parameter validity is enforced remotely; the client sends the map as-is.
func (c *APIClient) Generate(ctx context.Context, model string, params map[string]any) (domain.Task, error) {
	if strings.TrimSpace(model) == "" {
		return domain.Task{}, fmt.Errorf("model must not be empty")
	}
	if params == nil {
		params = map[string]any{}
	}
	code, raw, err := c.request(ctx, http.MethodPost, "/v1/"+model, nil, params)
	if err != nil {
		return domain.Task{}, err
	}
	if code < 200 || code >= 300 {
		return domain.Task{}, &domain.RequestError{StatusCode: code, Body: raw}
	}
	task, err := c.decodeTask(raw)
	if err != nil {
		return domain.Task{}, err
	}
	c.logger.Info("generation submitted",
		zap.String("model", model),
		zap.String("task_id", task.ID),
		zap.String("status", string(task.Status)))
	return task, nil
}

// GetResult implements the FluxClient port. It GETs /v1/get_result for the
// given task id and returns a freshly constructed Task snapshot. Unknown or
// expired ids yield a *domain.NotFoundError, whether the service signals
// that with HTTP 404 or with a "Task not found" status in a 200 body.
func (c *APIClient) GetResult(ctx context.Context, id string) (domain.Task, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Task{}, fmt.Errorf("task id must not be empty")
	}
	query := url.Values{"id": []string{id}}
	code, raw, err := c.request(ctx, http.MethodGet, "/v1/get_result", query, nil)
	if err != nil {
		return domain.Task{}, err
	}
	if code == http.StatusNotFound {
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}
	if code < 200 || code >= 300 {
		return domain.Task{}, &domain.RequestError{StatusCode: code, Body: raw}
	}
	task, err := c.decodeTask(raw)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Status == domain.StatusNotFound {
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}
	return task, nil
}

// request issues one authenticated call and returns the status code and raw
// body. It is the only place that touches the network. The credential check
// happens here, before any connection is opened.
func (c *APIClient) request(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return 0, nil, domain.ErrMissingAPIKey
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-key", c.cfg.APIKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.logger.Debug("sending request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// taskEnvelope mirrors the wire schema shared by the submission and the poll
// responses. The submission response carries only the id; the poll response
// adds status and, once Ready, the result.
type taskEnvelope struct {
	ID     string  `json:"id"`
	Status *string `json:"status"`
	Result *struct {
		Prompt string  `json:"prompt"`
		Sample *string `json:"sample"`
	} `json:"result"`
}

// decodeTask parses a 2xx response body into a Task snapshot. A missing
// status means the task was just created and is Pending. Any body that
// cannot be decoded, lacks an id, or claims Ready without a result is a
// *domain.ServiceError, logged with the raw payload.
func (c *APIClient) decodeTask(raw []byte) (domain.Task, error) {
	var env taskEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Error("undecodable response body", zap.ByteString("body", raw), zap.Error(err))
		return domain.Task{}, &domain.ServiceError{Body: raw, Err: err}
	}
	if env.ID == "" {
		err := fmt.Errorf("response is missing the task id")
		c.logger.Error("unexpected response schema", zap.ByteString("body", raw), zap.Error(err))
		return domain.Task{}, &domain.ServiceError{Body: raw, Err: err}
	}
	task := domain.Task{ID: env.ID, Status: domain.StatusPending}
	if env.Status != nil {
		task.Status = domain.ParseStatus(*env.Status)
	}
	if task.Status == domain.StatusReady {
		if env.Result == nil {
			err := fmt.Errorf("status is Ready but result is null")
			c.logger.Error("unexpected response schema", zap.ByteString("body", raw), zap.Error(err))
			return domain.Task{}, &domain.ServiceError{Body: raw, Err: err}
		}
		res := &domain.Result{Prompt: env.Result.Prompt}
		if env.Result.Sample != nil {
			res.Sample = *env.Result.Sample
		}
		task.Result = res
	}
	return task, nil
}

// Ensure APIClient satisfies the FluxClient port at compile time.
var _ ports.FluxClient = (*APIClient)(nil)

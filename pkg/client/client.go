// Package client implements the workflow persistence gateway over the REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/palette"
	"github.com/gofiber/fiber/v3"
	fiberclient "github.com/gofiber/fiber/v3/client"
	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = "arcflow-client"
)

// APIError is a non-2xx response from the API, decoded from its problem body.
type APIError struct {
	Status int
	Type   string
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Type, e.Detail)
	}

	return fmt.Sprintf("api error %d (%s)", e.Status, e.Type)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusNotFound
}

// IsConflict reports whether err is a 409 from the API.
func IsConflict(err error) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusConflict
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(timeout) }
}

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.SetDial(dial) }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.http.SetUserAgent(ua) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client talks to the workflow REST API. Requests are never retried.
type Client struct {
	http   *fiberclient.Client
	logger *slog.Logger
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: fiberclient.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultTimeout).
			SetUserAgent(defaultUserAgent),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "client")

	return c
}

// ListWorkflows returns the non-deleted workflows, newest first.
func (c *Client) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	var workflows []models.Workflow
	if err := c.do(ctx, fasthttp.MethodGet, "/workflows", nil, nil, &workflows); err != nil {
		return nil, err
	}

	if workflows == nil {
		workflows = []models.Workflow{}
	}

	return workflows, nil
}

// GetWorkflow fetches one workflow.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var wf models.Workflow
	if err := c.do(ctx, fasthttp.MethodGet, "/workflows/:id", pathID(id), nil, &wf); err != nil {
		return nil, err
	}

	return &wf, nil
}

// CreateWorkflow creates a workflow and returns it as stored.
func (c *Client) CreateWorkflow(ctx context.Context, req models.CreateWorkflowRequest) (*models.Workflow, error) {
	var wf models.Workflow
	if err := c.do(ctx, fasthttp.MethodPost, "/workflows", nil, req, &wf); err != nil {
		return nil, err
	}

	return &wf, nil
}

// UpdateWorkflow applies a partial update.
func (c *Client) UpdateWorkflow(ctx context.Context, id string, req models.UpdateWorkflowRequest) (*models.Workflow, error) {
	var wf models.Workflow
	if err := c.do(ctx, fasthttp.MethodPut, "/workflows/:id", pathID(id), req, &wf); err != nil {
		return nil, err
	}

	return &wf, nil
}

// SaveNodes replaces the node list of a workflow.
func (c *Client) SaveNodes(ctx context.Context, id string, nodes []models.NodeInstance) (*models.Workflow, error) {
	if nodes == nil {
		nodes = []models.NodeInstance{}
	}

	return c.UpdateWorkflow(ctx, id, models.UpdateWorkflowRequest{Nodes: &nodes})
}

// DeleteWorkflow soft deletes a workflow.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, fasthttp.MethodDelete, "/workflows/:id", pathID(id), nil, nil)
}

// Palette fetches the node catalog served by the API.
func (c *Client) Palette(ctx context.Context) ([]palette.NodeTemplate, error) {
	var templates []palette.NodeTemplate
	if err := c.do(ctx, fasthttp.MethodGet, "/palette", nil, nil, &templates); err != nil {
		return nil, err
	}

	return templates, nil
}

func pathID(id string) map[string]string {
	return map[string]string{"id": url.PathEscape(id)}
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body, out any) error {
	cfg := fiberclient.Config{
		Ctx:       ctx,
		PathParam: params,
		Header:    map[string]string{fasthttp.HeaderAccept: fiber.MIMEApplicationJSON},
	}
	if body != nil {
		cfg.Body = body
	}

	var (
		resp *fiberclient.Response
		err  error
	)

	switch method {
	case fasthttp.MethodGet:
		resp, err = c.http.Get(path, cfg)
	case fasthttp.MethodPost:
		resp, err = c.http.Post(path, cfg)
	case fasthttp.MethodPut:
		resp, err = c.http.Put(path, cfg)
	case fasthttp.MethodDelete:
		resp, err = c.http.Delete(path, cfg)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}

	if err != nil {
		c.logger.DebugContext(ctx, "request failed", "method", method, "path", path, "error", err)

		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Close()

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return decodeProblem(status, resp.Body())
	}

	if out == nil || status == fasthttp.StatusNoContent || len(resp.Body()) == 0 {
		return nil
	}

	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}

	return nil
}

func decodeProblem(status int, body []byte) error {
	var problem struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}

	apiErr := &APIError{Status: status}

	if err := json.Unmarshal(body, &problem); err == nil {
		apiErr.Type = problem.Type
		apiErr.Title = problem.Title
		apiErr.Detail = problem.Detail
	} else {
		apiErr.Detail = strings.TrimSpace(string(body))
	}

	return apiErr
}

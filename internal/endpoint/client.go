package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podcast-digest-go/internal/types"
)

// StatusError is a non-200 answer from the endpoints API.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Code, e.Body)
}

type statusResponse struct {
	Name   string `json:"name"`
	Status struct {
		State   string `json:"state"`
		Message string `json:"message"`
		URL     string `json:"url"`
	} `json:"status"`
}

// Client talks to the management API of one inference endpoint:
// {apiBase}/{namespace}/{name}[/resume|/pause].
type Client struct {
	httpClient *http.Client
	apiBase    string
	namespace  string
	name       string
	token      string
}

func NewClient(httpClient *http.Client, apiBase, namespace, name, token string) *Client {
	return &Client{
		httpClient: httpClient,
		apiBase:    strings.TrimRight(apiBase, "/"),
		namespace:  namespace,
		name:       name,
		token:      token,
	}
}

func (c *Client) resourceURL() string {
	return fmt.Sprintf("%s/%s/%s", c.apiBase, c.namespace, c.name)
}

func (c *Client) Resume(ctx context.Context) error {
	_, err := c.do(ctx, "resume", http.MethodPost, c.resourceURL()+"/resume")
	return err
}

func (c *Client) Pause(ctx context.Context) error {
	_, err := c.do(ctx, "pause", http.MethodPost, c.resourceURL()+"/pause")
	return err
}

// Status reads status.state from the endpoint resource.
func (c *Client) Status(ctx context.Context) (types.EndpointState, error) {
	body, err := c.do(ctx, "status", http.MethodGet, c.resourceURL())
	if err != nil {
		return types.StateUnknown, err
	}
	var s statusResponse
	if err := json.Unmarshal(body, &s); err != nil {
		return types.StateUnknown, fmt.Errorf("status decode error: %v body=%s", err, string(body))
	}
	return ParseState(s.Status.State), nil
}

func (c *Client) do(ctx context.Context, op, method, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
}

// ParseState maps the API's state strings onto the lifecycle states.
func ParseState(raw string) types.EndpointState {
	switch strings.ToLower(raw) {
	case "running":
		return types.StateRunning
	case "paused", "scaledtozero", "stopped":
		return types.StateSuspended
	case "pending", "initializing", "updating", "starting":
		return types.StateStarting
	default:
		return types.StateUnknown
	}
}

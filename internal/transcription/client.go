package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type inferenceRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters map[string]interface{} `json:"parameters"`
}

type inferenceResponse struct {
	Text string `json:"text"`
}

// HTTPError is a non-200 answer from the inference endpoint.
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("inference http %d: %s", e.Code, e.Body)
}

// Client invokes the speech-to-text endpoint with one base64 audio payload
// per request.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
}

func NewClient(httpClient *http.Client, url, token string) *Client {
	return &Client{httpClient: httpClient, url: url, token: token}
}

func (c *Client) Transcribe(ctx context.Context, audioB64 string) (string, error) {
	data, err := json.Marshal(inferenceRequest{Inputs: audioB64, Parameters: map[string]interface{}{}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out inferenceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("json decode error: %v body=%s", err, string(body))
	}
	return out.Text, nil
}

// Package transport posts form submissions to the restaurant backend.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"spicegarden-storefront/internal/form"
)

// ErrBadResponse is returned when the backend reply is not the expected JSON.
var ErrBadResponse = errors.New("unexpected backend response")

// maxReplyBytes bounds how much of a reply body is read.
const maxReplyBytes = 1 << 20

// Client submits multipart form posts and decodes the JSON reply.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type reply struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Submit posts payload to endpoint. It never retries; a rejected submission
// comes back as a Result with Success false.
func (c *Client) Submit(ctx context.Context, endpoint string, payload url.Values) (form.Result, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return form.Result{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return form.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return form.Result{}, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return form.Result{}, fmt.Errorf("read reply: %w", err)
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return form.Result{}, fmt.Errorf("%w: status %d: %v", ErrBadResponse, resp.StatusCode, err)
	}
	if r.Success == nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return form.Result{Success: false, Message: r.Message}, nil
		}
		return form.Result{}, fmt.Errorf("%w: status %d: missing success flag", ErrBadResponse, resp.StatusCode)
	}
	return form.Result{Success: *r.Success && resp.StatusCode < http.StatusBadRequest, Message: r.Message}, nil
}

func encodeMultipart(payload url.Values) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range payload[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

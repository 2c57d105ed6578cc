// Package client talks to the annotation backend (the FastAPI service that
// produces annotation batches). The review UI uses it for reannotating
// single examples and submitting newly added ones.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kbenson/examdeck/internal/model"
)

// Client is the annotation backend API client.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a client for the backend at baseURL.
// requestsPerSec caps reannotation traffic; values < 1 mean one per second.
func New(baseURL string, timeout time.Duration, requestsPerSec int) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if requestsPerSec < 1 {
		requestsPerSec = 1
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

// annotateRequest mirrors the backend's AnnotationRequest model.
type annotateRequest struct {
	Examples            []string `json:"examples"`
	AnnotationGuideline string   `json:"annotation_guideline"`
	UIDs                []string `json:"uids,omitempty"`
	TaskID              string   `json:"task_id"`
	ReannotateRound     int      `json:"reannotate_round,omitempty"`
}

// Annotate submits a batch of texts and returns the annotated items.
func (c *Client) Annotate(ctx context.Context, texts []string, guideline, taskID string, round int) ([]model.Item, error) {
	if len(texts) == 0 {
		return []model.Item{}, nil
	}

	req := annotateRequest{
		Examples:            texts,
		AnnotationGuideline: guideline,
		TaskID:              taskID,
		ReannotateRound:     round,
	}

	body, err := c.post(ctx, "/annotate/", req)
	if err != nil {
		return nil, err
	}
	return model.DecodeBatch(body)
}

// Reannotate re-runs annotation for a single example. The returned item
// carries the original uid so it can replace the stale one in place.
func (c *Client) Reannotate(ctx context.Context, item model.Item, guideline, taskID string, round int) (*model.Item, error) {
	req := annotateRequest{
		Examples:            []string{item.TextToAnnotate},
		AnnotationGuideline: guideline,
		UIDs:                []string{item.UID},
		TaskID:              taskID,
		ReannotateRound:     round,
	}

	body, err := c.post(ctx, "/annotate_one/", req)
	if err != nil {
		return nil, err
	}

	items, err := model.DecodeBatch(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("backend returned no annotation for %q", item.UID)
	}

	result := items[0]
	if result.UID == "" {
		result.UID = item.UID
	}
	result.IsReannotated = true
	return &result, nil
}

// AddExample annotates a new free-text example. A fresh uid is generated
// client-side so the item is addressable before the backend round-trips.
func (c *Client) AddExample(ctx context.Context, text, guideline, taskID string) (*model.Item, error) {
	uid := uuid.NewString()

	req := annotateRequest{
		Examples:            []string{text},
		AnnotationGuideline: guideline,
		UIDs:                []string{uid},
		TaskID:              taskID,
	}

	body, err := c.post(ctx, "/annotate_one/", req)
	if err != nil {
		return nil, err
	}

	items, err := model.DecodeBatch(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("backend returned no annotation for added example")
	}

	result := items[0]
	if result.UID == "" {
		result.UID = uid
	}
	if result.TextToAnnotate == "" {
		result.TextToAnnotate = text
	}
	return &result, nil
}

// post marshals req and executes the request with rate limiting and retry.
func (c *Client) post(ctx context.Context, path string, req annotateRequest) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	return c.doWithRetry(ctx, path, jsonBody)
}

// doWithRetry executes the API request with retry logic for transient errors.
// Retries up to 3 times on HTTP 429 or 5xx with exponential backoff (1s, 2s, 4s).
// Honors the Retry-After header on 429 responses.
func (c *Client) doWithRetry(ctx context.Context, path string, jsonBody []byte) ([]byte, error) {
	maxRetries := 3
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffs[attempt-1]
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("execute request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if secs, err := strconv.Atoi(retryAfter); err == nil && attempt < maxRetries {
					backoffs[attempt] = time.Duration(secs) * time.Second
				}
			}
			lastErr = fmt.Errorf("backend rate limited (429)")

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("backend error (%d): %s", resp.StatusCode, string(body))

		default:
			// 4xx other than 429 won't improve on retry.
			return nil, fmt.Errorf("backend rejected request (%d): %s", resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

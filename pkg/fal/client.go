// Package fal submits generation jobs to the fal.ai serverless queue and
// watches them to completion. The flow is always submit, poll the status
// under backoff, then fetch the result exactly once.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/jonboulle/clockwork"
)

// DefaultBaseURL is the public queue endpoint.
const DefaultBaseURL = "https://queue.fal.run"

const defaultHTTPTimeout = 30 * time.Second

// QueueStatus is the queue's view of one submitted request.
type QueueStatus string

const (
	StatusInQueue    QueueStatus = "IN_QUEUE"
	StatusInProgress QueueStatus = "IN_PROGRESS"
	StatusCompleted  QueueStatus = "COMPLETED"
	StatusFailed     QueueStatus = "FAILED"
)

// Config carries the client settings. Zero fields fall back to production
// defaults; Clock exists so tests can drive the polling schedule.
type Config struct {
	BaseURL string
	APIKey  string
	Backoff Backoff
	Clock   clockwork.Clock
}

// Client talks to the serverless queue. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    Backoff
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a queue client from config.
func NewClient(config Config, logger *slog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if config.Backoff == (Backoff{}) {
		config.Backoff = DefaultBackoff()
	}

	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		backoff:    config.Backoff,
		clock:      config.Clock,
		logger:     logger.With("module", "fal_client"),
	}
}

// Submit queues one payload on the given model endpoint and returns the
// ticket identifying the queued request. Submission never waits for the
// job to run.
func (c *Client) Submit(ctx context.Context, endpoint string, payload map[string]any) (*models.Ticket, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &SubmitError{Endpoint: endpoint, Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	submitURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(body))
	if err != nil {
		return nil, &SubmitError{Endpoint: endpoint, Err: err}
	}

	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SubmitError{Endpoint: endpoint, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(resp.Body)

		return nil, &SubmitError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Detail:     strings.TrimSpace(string(detail)),
		}
	}

	var queued queueResponse

	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		return nil, &SubmitError{Endpoint: endpoint, Err: fmt.Errorf("%w: %v", ErrResponseParse, err)}
	}

	if queued.RequestID == "" {
		return nil, &SubmitError{Endpoint: endpoint, Err: fmt.Errorf("%w: response carries no request id", ErrResponseParse)}
	}

	c.logger.InfoContext(ctx, "Cloud job submitted", "endpoint", endpoint, "ticket_id", queued.RequestID)

	return &models.Ticket{
		ID:        queued.RequestID,
		StatusURL: queued.StatusURL,
		ResultURL: queued.ResponseURL,
		CancelURL: queued.CancelURL,
	}, nil
}

// Poll watches a submitted job until it completes or fails, then fetches
// the result. The timeout is a wall-clock bound measured from the start of
// the call, enforced independently of the backoff schedule. A job with no
// terminal status by the deadline yields ErrPollTimeout; the queue keeps
// the job, so a later Poll with the same ticket can still succeed.
func (c *Client) Poll(ctx context.Context, ticket *models.Ticket, timeout time.Duration) (*models.JobResult, error) {
	deadline := c.clock.Now().Add(timeout)

	for attempt := 0; ; attempt++ {
		if c.clock.Now().After(deadline) {
			return nil, fmt.Errorf("%w: waited %s for ticket %s", ErrPollTimeout, timeout, ticket.ID)
		}

		status, retryable, err := c.fetchStatus(ctx, ticket)

		switch {
		case err != nil && !retryable:
			return nil, err
		case err != nil:
			c.logger.DebugContext(ctx, "Transient status check failure",
				"ticket_id", ticket.ID,
				"error", err)
		case status.Status == StatusCompleted:
			return c.fetchResult(ctx, ticket)
		case status.Status == StatusFailed:
			message := status.Error
			if message == "" {
				message = "no failure detail provided"
			}

			return nil, &RemoteError{TicketID: ticket.ID, Message: message}
		case status.Status == StatusInQueue || status.Status == StatusInProgress:
			// Keep waiting.
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrResponseParse, status.Status)
		}

		delay := c.backoff.Delay(attempt)

		c.logger.DebugContext(ctx, "Job not finished, backing off",
			"ticket_id", ticket.ID,
			"attempt", attempt,
			"delay", delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(delay):
		}
	}
}

// Status reports the queue's current view of a ticket without waiting.
func (c *Client) Status(ctx context.Context, ticket *models.Ticket) (QueueStatus, error) {
	status, _, err := c.fetchStatus(ctx, ticket)
	if err != nil {
		return "", err
	}

	switch status.Status {
	case StatusInQueue, StatusInProgress, StatusCompleted, StatusFailed:
		return status.Status, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrResponseParse, status.Status)
	}
}

// Cancel asks the queue to drop a job. Cancellation is advisory, a job
// already executing may run to completion regardless.
func (c *Client) Cancel(ctx context.Context, ticket *models.Ticket) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.cancelURL(ticket), nil)
	if err != nil {
		return fmt.Errorf("failed to build cancel request: %w", err)
	}

	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cancel request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("cancel of ticket %s failed with status %d", ticket.ID, resp.StatusCode)
	}

	c.logger.InfoContext(ctx, "Cloud job cancellation requested", "ticket_id", ticket.ID)

	return nil
}

// fetchStatus performs one status probe. The bool reports whether a failure
// is transient and worth retrying under the polling schedule.
func (c *Client) fetchStatus(ctx context.Context, ticket *models.Ticket) (statusResponse, bool, error) {
	var status statusResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL(ticket), nil)
	if err != nil {
		return status, false, fmt.Errorf("failed to build status request: %w", err)
	}

	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, true, fmt.Errorf("status check failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return status, true, fmt.Errorf("status check failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, false, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	return status, false, nil
}

func (c *Client) fetchResult(ctx context.Context, ticket *models.Ticket) (*models.JobResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resultURL(ticket), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build result request: %w", err)
	}

	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("result fetch failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read result body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("result fetch failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result resultResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	return &models.JobResult{Outputs: result.artifacts(), Raw: raw}, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Key "+c.apiKey)
}

func (c *Client) statusURL(ticket *models.Ticket) string {
	if ticket.StatusURL != "" {
		return ticket.StatusURL
	}

	return c.baseURL + "/requests/" + ticket.ID + "/status"
}

func (c *Client) resultURL(ticket *models.Ticket) string {
	if ticket.ResultURL != "" {
		return ticket.ResultURL
	}

	return c.baseURL + "/requests/" + ticket.ID
}

func (c *Client) cancelURL(ticket *models.Ticket) string {
	if ticket.CancelURL != "" {
		return ticket.CancelURL
	}

	return c.baseURL + "/requests/" + ticket.ID + "/cancel"
}

type queueResponse struct {
	RequestID   string `json:"request_id"`
	ResponseURL string `json:"response_url"`
	StatusURL   string `json:"status_url"`
	CancelURL   string `json:"cancel_url"`
}

type statusResponse struct {
	Status QueueStatus `json:"status"`
	Error  string      `json:"error"`
}

type fileOutput struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type resultResponse struct {
	Images []fileOutput `json:"images"`
	Video  *fileOutput  `json:"video"`
	Audio  *fileOutput  `json:"audio"`
}

func (r resultResponse) artifacts() []models.Artifact {
	var artifacts []models.Artifact

	for _, image := range r.Images {
		if image.URL == "" {
			continue
		}

		artifacts = append(artifacts, models.Artifact{
			Name: path.Base(image.URL),
			URL:  image.URL,
			Kind: models.ArtifactImage,
		})
	}

	if r.Video != nil && r.Video.URL != "" {
		artifacts = append(artifacts, models.Artifact{
			Name: path.Base(r.Video.URL),
			URL:  r.Video.URL,
			Kind: models.ArtifactVideo,
		})
	}

	if r.Audio != nil && r.Audio.URL != "" {
		artifacts = append(artifacts, models.Artifact{
			Name: path.Base(r.Audio.URL),
			URL:  r.Audio.URL,
			Kind: models.ArtifactAudio,
		})
	}

	return artifacts
}

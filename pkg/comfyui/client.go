// Package comfyui drives generation workflows on a locally running ComfyUI
// engine over its HTTP and WebSocket APIs, and manages the engine process
// lifecycle.
package comfyui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultBaseURL is the address a locally installed engine listens on.
const DefaultBaseURL = "http://127.0.0.1:8188"

const defaultHTTPTimeout = 30 * time.Second

// ProgressSink receives streamed progress while a job runs. The event loop
// calls it inline, so implementations must not block.
type ProgressSink func(models.ProgressEvent)

// Client executes workflow jobs on a local engine. Execution and process
// lifecycle are decoupled: Execute requires a running engine and never
// starts one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *slog.Logger
}

// NewClient creates a client for the engine at baseURL. An empty baseURL
// falls back to DefaultBaseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		dialer:     websocket.DefaultDialer,
		logger:     logger.With("module", "comfyui_client"),
	}
}

// Ping probes the engine's readiness endpoint. It reports
// ErrLocalNotAvailable when the engine cannot accept work.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/system_stats", nil)
	if err != nil {
		return fmt.Errorf("failed to build readiness request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLocalNotAvailable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: readiness probe returned status %d", ErrLocalNotAvailable, resp.StatusCode)
	}

	return nil
}

// Execute runs one instantiated workflow to completion, forwarding progress
// into sink. Callers own deadlines through ctx; there is no driver-side
// timeout. Cancelling ctx abandons the job without stopping engine-side
// work. Events belonging to other prompts are ignored.
func (c *Client) Execute(
	ctx context.Context,
	payload *models.WorkflowPayload,
	sink ProgressSink,
) (*models.JobResult, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	clientID := uuid.New().String()

	conn, _, err := c.dialer.DialContext(ctx, c.websocketURL(clientID), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: websocket dial failed: %v", ErrLocalNotAvailable, err)
	}

	defer func() {
		_ = conn.Close()
	}()

	// Unblock the read loop when the caller gives up.
	watchDone := make(chan struct{})
	defer close(watchDone)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watchDone:
		}
	}()

	promptID, err := c.queuePrompt(ctx, payload, clientID)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Workflow queued on local engine",
		"prompt_id", promptID,
		"template_id", payload.TemplateID)

	return c.listen(ctx, conn, promptID, sink)
}

// listen demultiplexes the engine's event stream for one prompt until a
// terminal event arrives.
func (c *Client) listen(
	ctx context.Context,
	conn *websocket.Conn,
	promptID string,
	sink ProgressSink,
) (*models.JobResult, error) {
	var artifacts []models.Artifact

	raw := make(map[string]any)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			return nil, fmt.Errorf("%w: %v", ErrChannelClosed, err)
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var msg wsMessage

		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.DebugContext(ctx, "Ignoring malformed engine event", "error", err)

			continue
		}

		switch msg.Type {
		case "progress":
			var ev progressData
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				continue
			}

			if ev.PromptID != "" && ev.PromptID != promptID {
				continue
			}

			if sink != nil {
				sink(models.ProgressEvent{NodeID: ev.Node, Fraction: ev.fraction(), Phase: "running"})
			}

		case "executed":
			var ev executedData
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				continue
			}

			if ev.PromptID != promptID {
				continue
			}

			artifacts = append(artifacts, c.collectArtifacts(ev.Node, ev.Output)...)
			raw[ev.Node] = decodeRawOutput(ev.Output)

		case "execution_error":
			var ev executionErrorData
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				continue
			}

			if ev.PromptID != promptID {
				continue
			}

			return nil, &ExecutionError{
				PromptID:      ev.PromptID,
				NodeID:        ev.NodeID,
				NodeType:      ev.NodeType,
				ExceptionType: ev.ExceptionType,
				Message:       ev.ExceptionMessage,
			}

		case "execution_complete", "execution_cached":
			var ev completionData
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				continue
			}

			if ev.PromptID != promptID {
				continue
			}

			return &models.JobResult{Outputs: artifacts, Raw: raw}, nil

		default:
			// Status, queue and preview traffic is not relevant here.
		}
	}
}

func (c *Client) queuePrompt(ctx context.Context, payload *models.WorkflowPayload, clientID string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"prompt":    payload.Graph,
		"client_id": clientID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build prompt request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to queue prompt: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("queue request failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var queued queueResponse

	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		return "", fmt.Errorf("failed to parse queue response: %w", err)
	}

	if queued.PromptID == "" {
		return "", errors.New("queue response carries no prompt id")
	}

	return queued.PromptID, nil
}

// History fetches the engine's stored record for one prompt. Entries are
// keyed by prompt id and keep the submitted graph alongside node outputs.
func (c *Client) History(ctx context.Context, promptID string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request failed with status %d", resp.StatusCode)
	}

	var history map[string]any

	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	return history, nil
}

// ViewURL builds the download address for a file saved by the engine.
func (c *Client) ViewURL(filename, subfolder, fileType string) string {
	query := url.Values{}
	query.Set("filename", filename)
	query.Set("subfolder", subfolder)
	query.Set("type", fileType)

	return c.baseURL + "/view?" + query.Encode()
}

func (c *Client) websocketURL(clientID string) string {
	wsBase := strings.Replace(c.baseURL, "http", "ws", 1)

	return wsBase + "/ws?clientId=" + url.QueryEscape(clientID)
}

func decodeRawOutput(output map[string]json.RawMessage) map[string]any {
	decoded := make(map[string]any, len(output))

	for key, value := range output {
		var entry any
		if err := json.Unmarshal(value, &entry); err == nil {
			decoded[key] = entry
		}
	}

	return decoded
}

// Package indexer is a resilient client for the metadata index server
// that stores the persisted tree between runs.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/tgvault/tgvault/internal/errors"
	"github.com/tgvault/tgvault/internal/retry"
	"github.com/tgvault/tgvault/internal/tree"
)

const (
	// apiTimeout bounds every index server call.
	apiTimeout = 30 * time.Second

	// healthTimeout is shorter: the probe is a cheap liveness check.
	healthTimeout = 5 * time.Second

	// MaxPayloadSize is the largest serialized tree the client will send.
	// Oversized payloads fail locally, before any network round trip.
	MaxPayloadSize = 10 * 1024 * 1024

	// maxResponseBytes caps response body reads. Trees can be large, so
	// this is generous compared to the other clients.
	maxResponseBytes = 32 * 1024 * 1024

	// defaultRateLimitWait is used when a 429 carries no Retry-After.
	defaultRateLimitWait = 30 * time.Second
)

// BotStatus is the registration state of a bot on the index server.
type BotStatus struct {
	Status          string `json:"status"`
	BotID           string `json:"botId"`
	BotUsername     string `json:"botUsername"`
	OwnerRegistered bool   `json:"ownerRegistered"`
}

// PersistResult is the server's acceptance of an uploaded tree.
type PersistResult struct {
	BotID            string  `json:"botId"`
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	IsUpdate         bool    `json:"isUpdate"`
	ChangePercentage float64 `json:"changePercentage"`
}

// RejectionError is a definitive server-side rejection of a persist call,
// carrying the server's itemized validation details verbatim.
type RejectionError struct {
	Message string
	Details []string
}

func (e *RejectionError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}

	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// Client talks to the index server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      retry.Policy
	logger     *slog.Logger
}

// NewClient creates an index client for the given server base URL.
func NewClient(serverURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(serverURL, "/"),
		retry:      retry.Default(),
		logger:     logger,
	}
}

// checkJSONBody rejects responses that do not declare a JSON content type.
// An HTML error page from a proxy must never be parsed as data; it is a
// connectivity problem and retried as such.
func checkJSONBody(resp *http.Response) error {
	ct, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || ct != "application/json" {
		return retry.Transient(fmt.Errorf("content type %q: %w",
			resp.Header.Get("Content-Type"), apperrors.ErrBadResponse))
	}

	return nil
}

// get performs one GET and returns status plus body. Network errors are
// transient.
func (c *Client) get(ctx context.Context, path string, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, retry.Transient(fmt.Errorf("GET %s: %w", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, retry.Transient(fmt.Errorf("reading %s response: %w", path, err))
	}

	if resp.StatusCode == http.StatusOK {
		if err := checkJSONBody(resp); err != nil {
			return resp.StatusCode, nil, err
		}
	}

	return resp.StatusCode, body, nil
}

// Probe checks that the index server is reachable. Failures are transient
// and retried with the standard backoff before being reported.
func (c *Client) Probe(ctx context.Context) error {
	return c.retry.Do(ctx, func() error {
		status, _, err := c.get(ctx, "/health", healthTimeout)
		if err != nil {
			return err
		}

		if status != http.StatusOK {
			return retry.Transient(fmt.Errorf("health check returned status %d", status))
		}

		return nil
	})
}

// Status fetches the bot's registration state. A 404 maps to
// ErrTreeNotFound: the bot has never completed an upload.
func (c *Client) Status(ctx context.Context, botToken string) (*BotStatus, error) {
	body, err := retry.DoWithResult(ctx, c.retry, func() ([]byte, error) {
		status, body, err := c.get(ctx, "/bot-status/"+botToken, apiTimeout)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusNotFound:
			return nil, apperrors.ErrTreeNotFound
		case status >= http.StatusInternalServerError:
			return nil, retry.Transient(fmt.Errorf("bot-status returned %d", status))
		case status != http.StatusOK:
			return nil, fmt.Errorf("bot-status returned %d", status)
		}

		return body, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Success bool `json:"success"`
		BotStatus
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding bot-status: %v: %w", err, apperrors.ErrBadResponse)
	}

	if !parsed.Success {
		return nil, apperrors.ErrTreeNotFound
	}

	return &parsed.BotStatus, nil
}

// FetchTree retrieves the previously persisted tree for this bot.
// ErrTreeNotFound is a legitimate terminal state (first-ever run), not a
// failure; transient problems are retried before surfacing.
func (c *Client) FetchTree(ctx context.Context, botToken string) (*tree.Node, error) {
	body, err := retry.DoWithResult(ctx, c.retry, func() ([]byte, error) {
		status, body, err := c.get(ctx, "/bot-metadata/"+botToken, apiTimeout)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusNotFound:
			return nil, apperrors.ErrTreeNotFound
		case status >= http.StatusInternalServerError:
			return nil, retry.Transient(fmt.Errorf("bot-metadata returned %d", status))
		case status != http.StatusOK:
			return nil, fmt.Errorf("bot-metadata returned %d", status)
		}

		return body, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Success  bool            `json:"success"`
		Metadata json.RawMessage `json:"metadata"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding bot-metadata: %v: %w", err, apperrors.ErrBadResponse)
	}

	if !parsed.Success || len(parsed.Metadata) == 0 || string(parsed.Metadata) == "null" {
		return nil, apperrors.ErrTreeNotFound
	}

	node, err := tree.Unmarshal(parsed.Metadata)
	if err != nil {
		return nil, fmt.Errorf("persisted tree: %w", err)
	}

	return node, nil
}

// persistRequest is the body for POST /upload. Metadata is the serialized
// tree in its exchange form.
type persistRequest struct {
	BotToken    string          `json:"botToken"`
	ChannelID   string          `json:"channelId"`
	BotUsername string          `json:"botUsername"`
	Metadata    json.RawMessage `json:"metadata"`
}

// PersistTree uploads the final merged tree. The payload size is checked
// locally against MaxPayloadSize before anything touches the network.
// Server-side 413 and 429 surface as distinct outcomes; generic rejections
// come back as a RejectionError carrying the server's detail list.
func (c *Client) PersistTree(ctx context.Context, botToken, channelID, botUsername string, treeData []byte) (*PersistResult, error) {
	payload, err := json.Marshal(persistRequest{
		BotToken:    botToken,
		ChannelID:   channelID,
		BotUsername: botUsername,
		Metadata:    treeData,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding upload payload: %w", err)
	}

	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload is %.2fMB (limit %dMB): %w",
			float64(len(payload))/(1024*1024), MaxPayloadSize/(1024*1024), apperrors.ErrPayloadTooLarge)
	}

	return retry.DoWithResult(ctx, c.retry, func() (*PersistResult, error) {
		return c.persistOnce(ctx, payload)
	})
}

func (c *Client) persistOnce(ctx context.Context, payload []byte) (*PersistResult, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("POST /upload: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("reading upload response: %w", err))
	}

	switch resp.StatusCode {
	case http.StatusRequestEntityTooLarge:
		return nil, fmt.Errorf("server rejected payload size: %w", apperrors.ErrPayloadTooLarge)
	case http.StatusTooManyRequests:
		return nil, &retry.RateLimitError{
			Err:  fmt.Errorf("index server rate limited the upload"),
			Wait: retryAfterWait(resp),
		}
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return nil, retry.Transient(fmt.Errorf("upload returned status %d", resp.StatusCode))
	}

	if err := checkJSONBody(resp); err != nil {
		return nil, err
	}

	var parsed struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Details []struct {
			Msg string `json:"msg"`
		} `json:"details"`
		PersistResult
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding upload response: %v: %w", err, apperrors.ErrBadResponse)
	}

	if !parsed.Success {
		rejection := &RejectionError{Message: parsed.Error}
		if rejection.Message == "" {
			rejection.Message = fmt.Sprintf("upload rejected with status %d", resp.StatusCode)
		}

		for _, d := range parsed.Details {
			rejection.Details = append(rejection.Details, d.Msg)
		}

		return nil, rejection
	}

	return &parsed.PersistResult, nil
}

// retryAfterWait reads the Retry-After header (seconds), falling back to a
// fixed wait when absent or unparsable.
func retryAfterWait(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	return defaultRateLimitWait
}

// Package telegram is a resilient client for the Bot API surface tgvault
// needs: credential validation, channel permission checks, document upload
// and message deletion.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/tgvault/tgvault/internal/errors"
	"github.com/tgvault/tgvault/internal/retry"
)

// MaxFileSize is the hard per-document limit of the Bot API (2 GiB).
// Larger files never enter the tree; the scanner excludes them up front.
const MaxFileSize = 2 << 30

const defaultBaseURL = "https://api.telegram.org"

const (
	// apiCallTimeout bounds the small JSON calls (getMe, getChat,
	// getChatMember, deleteMessage). Uploads get their own size-scaled
	// deadline.
	apiCallTimeout = 30 * time.Second

	// maxAPIResponseBytes caps response body reads so a misbehaving
	// endpoint cannot consume unbounded memory.
	maxAPIResponseBytes = 1024 * 1024
)

// permanentDescriptions maps Bot API error descriptions to actionable
// messages. Any description matched here is a permanent failure; retrying
// the identical call cannot succeed.
var permanentDescriptions = map[string]string{
	"chat not found":        "channel not found, check the channel id",
	"have no rights":        "bot lacks permissions, add it as admin with posting rights",
	"TOKEN_INVALID":         "bot token is invalid or revoked",
	"bot was blocked":       "bot was blocked",
	"CHAT_WRITE_FORBIDDEN":  "bot cannot write to this channel, add it as admin",
	"message is too long":   "file name is too long, rename the file",
	"Request Entity Too La": "file is too large for the Bot API",
}

// BotIdentity is the authenticated bot, from getMe.
type BotIdentity struct {
	ID       int64
	Username string
}

// ChannelAccess is the result of a successful permission check.
type ChannelAccess struct {
	Title  string
	Type   string
	Status string
}

// Client talks to the Telegram Bot API. Not safe for concurrent use: the
// orchestrator drives it from a single goroutine, matching the API's own
// serialized rate limits.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retry      retry.Policy
	logger     *slog.Logger

	// bot is populated by ValidateToken and required by the channel
	// permission check (getChatMember needs the bot's own user id).
	bot *BotIdentity
}

// NewClient creates a Bot API client. If httpClient is nil a client
// without a global timeout is used; every call carries its own context
// deadline, since upload deadlines scale with file size.
func NewClient(token string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		token:      token,
		retry:      retry.Default(),
		logger:     logger,
	}
}

// methodURL builds the full URL for a Bot API method. The token is part
// of the path and must never appear in errors or logs.
func (c *Client) methodURL(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

// classifyStatus wraps err according to the HTTP status: 429 with a
// server-specified wait, 5xx transient, anything else permanent.
func classifyStatus(status int, retryAfter time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &retry.RateLimitError{Err: err, Wait: retryAfter}
	case status >= http.StatusInternalServerError:
		return retry.Transient(err)
	default:
		return err
	}
}

// apiError converts a Bot API error body into a classified error. The
// description is translated to an actionable message where recognized.
func (c *Client) apiError(method string, status int, body []byte) error {
	desc := gjson.GetBytes(body, "description").String()
	if desc == "" {
		desc = fmt.Sprintf("status %d", status)
	}

	for fragment, friendly := range permanentDescriptions {
		if strings.Contains(desc, fragment) {
			return fmt.Errorf("%s: %s", method, friendly)
		}
	}

	err := fmt.Errorf("%s: %s", method, desc)

	retryAfter := time.Duration(gjson.GetBytes(body, "parameters.retry_after").Int()) * time.Second

	return classifyStatus(status, retryAfter, err)
}

// call performs one GET-style Bot API request with form values and returns
// the raw response body after the ok-envelope check. Network failures are
// transient; API errors are classified by apiError.
func (c *Client) call(ctx context.Context, method string, params url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, apiCallTimeout)
	defer cancel()

	endpoint := c.methodURL(method)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", method, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("%s: %w", method, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("reading %s response: %w", method, err))
	}

	if !gjson.GetBytes(body, "ok").Bool() {
		return nil, c.apiError(method, resp.StatusCode, body)
	}

	return body, nil
}

// ValidateToken checks the bot credential via getMe and remembers the bot
// identity for the later permission check.
func (c *Client) ValidateToken(ctx context.Context) (*BotIdentity, error) {
	body, err := retry.DoWithResult(ctx, c.retry, func() ([]byte, error) {
		return c.call(ctx, "getMe", nil)
	})
	if err != nil {
		if retry.IsTransient(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("validating token: %w", err)
		}

		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidToken, err)
	}

	bot := &BotIdentity{
		ID:       gjson.GetBytes(body, "result.id").Int(),
		Username: gjson.GetBytes(body, "result.username").String(),
	}

	if bot.ID == 0 || bot.Username == "" {
		return nil, fmt.Errorf("getMe response missing bot identity: %w", apperrors.ErrBadResponse)
	}

	c.bot = bot

	return bot, nil
}

// CheckChannelAccess verifies the bot can post to the channel: it must be
// the creator, or an administrator with can_post_messages. Anything else
// is a permission failure, never a transient one. ValidateToken must have
// succeeded first.
func (c *Client) CheckChannelAccess(ctx context.Context, channelID string) (*ChannelAccess, error) {
	if c.bot == nil {
		return nil, fmt.Errorf("bot identity not loaded, validate the token first")
	}

	chatBody, err := retry.DoWithResult(ctx, c.retry, func() ([]byte, error) {
		return c.call(ctx, "getChat", url.Values{"chat_id": {channelID}})
	})
	if err != nil {
		if retry.IsTransient(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("checking channel: %w", err)
		}

		return nil, fmt.Errorf("%w: %s", apperrors.ErrChannelNotFound, err)
	}

	memberBody, err := retry.DoWithResult(ctx, c.retry, func() ([]byte, error) {
		return c.call(ctx, "getChatMember", url.Values{
			"chat_id": {channelID},
			"user_id": {fmt.Sprintf("%d", c.bot.ID)},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("checking bot membership: %w", err)
	}

	status := gjson.GetBytes(memberBody, "result.status").String()

	switch status {
	case "creator":
	case "administrator":
		if !gjson.GetBytes(memberBody, "result.can_post_messages").Bool() {
			return nil, fmt.Errorf("%w: bot is admin but cannot post messages, enable \"Post Messages\" in channel settings", apperrors.ErrPermissionDenied)
		}
	default:
		return nil, fmt.Errorf("%w: bot status is %q, add it as admin with posting rights", apperrors.ErrPermissionDenied, status)
	}

	return &ChannelAccess{
		Title:  gjson.GetBytes(chatBody, "result.title").String(),
		Type:   gjson.GetBytes(chatBody, "result.type").String(),
		Status: status,
	}, nil
}

// DeleteMessage removes a previously uploaded document's message from the
// channel. Best-effort: a false return means the message was not deleted,
// which callers log and move past.
func (c *Client) DeleteMessage(ctx context.Context, channelID string, messageID int64) bool {
	body, err := c.call(ctx, "deleteMessage", url.Values{
		"chat_id":    {channelID},
		"message_id": {fmt.Sprintf("%d", messageID)},
	})
	if err != nil {
		c.logger.Warn("delete failed",
			slog.Int64("message_id", messageID),
			slog.String("error", err.Error()),
		)

		return false
	}

	return gjson.GetBytes(body, "result").Bool()
}

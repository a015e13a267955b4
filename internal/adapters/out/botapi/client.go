// Package botapi talks to the Telegram Bot API through go-telegram/bot. The same client
// reaches customers (plain messages) and the operator chat (order cards with inline buttons).
package botapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultRateLimit      = 25
	defaultRateLimitBurst = 5
)

// Options configures the client.
type Options struct {
	BaseURL        string
	Token          string
	OperatorChatID string
	Timeout        time.Duration
	RateLimit      rate.Limit
	RateLimitBurst int
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

// APIError is a Bot API call that failed, either refused by the platform or lost in
// transport. The bot token never appears in its message.
type APIError struct {
	Method string
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("botapi: %s failed: %v", e.Method, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Client implements ports.CustomerChannel and ports.ControlSurface.
// Outgoing calls share one rate limiter so bursts of transitions stay within platform limits.
type Client struct {
	bot          *bot.Bot
	token        string
	operatorChat string
	limiter      *rate.Limiter
}

// NewClient validates opts and builds a client. It does not contact the Bot API:
// a bad token surfaces on the first call.
//
// Parameters:
//   - opts: BaseURL and Token are required; OperatorChatID is needed only by PostControls.
//     Zero Timeout, RateLimit and RateLimitBurst fall back to 10s, 25/s and 5.
//
// Returns:
//   - *Client: ready to serve both the customer channel and the control surface
//   - error: errs.ErrValueIsRequired or errs.ErrValueIsInvalid for bad options
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errs.NewValueIsRequiredError("bot api url")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("bot api url", err)
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errs.NewValueIsRequiredError("bot token")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	b, err := bot.New(token,
		bot.WithServerURL(base),
		bot.WithHTTPClient(opts.Timeout, httpClient),
		bot.WithSkipGetMe(),
	)
	if err != nil {
		return nil, fmt.Errorf("botapi: %w", redact(err, token))
	}

	return &Client{
		bot:          b,
		token:        token,
		operatorChat: strings.TrimSpace(opts.OperatorChatID),
		limiter:      rate.NewLimiter(opts.RateLimit, opts.RateLimitBurst),
	}, nil
}

// SendText sends a plain message to a customer chat.
func (c *Client) SendText(ctx context.Context, to kernel.ChannelRef, text string) error {
	return c.call(ctx, "sendMessage", func(ctx context.Context) error {
		_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: to.String(), Text: text})
		return err
	})
}

// PostControls sends an order card to the operator chat. The returned reference has
// the form "<chat_id>:<message_id>".
func (c *Client) PostControls(ctx context.Context, controls ports.Controls) (string, error) {
	if c.operatorChat == "" {
		return "", errs.NewValueIsRequiredError("operator chat id")
	}

	var sent *models.Message
	err := c.call(ctx, "sendMessage", func(ctx context.Context) error {
		var err error
		sent, err = c.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      c.operatorChat,
			Text:        controls.Text,
			ReplyMarkup: keyboard(controls.Buttons),
		})
		return err
	})
	if err != nil {
		return "", err
	}

	return FormatMessageRef(strconv.FormatInt(sent.Chat.ID, 10), int64(sent.ID)), nil
}

// RenderControls rewrites the card behind messageRef, buttons included.
func (c *Client) RenderControls(ctx context.Context, messageRef string, controls ports.Controls) error {
	chatID, messageID, err := ParseMessageRef(messageRef)
	if err != nil {
		return err
	}

	return c.call(ctx, "editMessageText", func(ctx context.Context) error {
		_, err := c.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   int(messageID),
			Text:        controls.Text,
			ReplyMarkup: keyboard(controls.Buttons),
		})
		return err
	})
}

// AnswerAction answers a callback query. Rejections are shown as an alert.
func (c *Client) AnswerAction(ctx context.Context, actionID string, ack ports.Ack) error {
	if actionID == "" {
		return nil
	}
	return c.call(ctx, "answerCallbackQuery", func(ctx context.Context) error {
		_, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: actionID,
			Text:            ack.Text,
			ShowAlert:       !ack.OK,
		})
		return err
	})
}

// FormatMessageRef builds the reference of a message in a chat.
func FormatMessageRef(chatID string, messageID int64) string {
	return chatID + ":" + strconv.FormatInt(messageID, 10)
}

// ParseMessageRef splits a reference built by FormatMessageRef.
func ParseMessageRef(ref string) (chatID string, messageID int64, err error) {
	i := strings.LastIndex(ref, ":")
	if i <= 0 || i == len(ref)-1 {
		return "", 0, errs.NewValueIsInvalidErrorWithCause("message ref", fmt.Errorf("%q is not <chat_id>:<message_id>", ref))
	}
	messageID, err = strconv.ParseInt(ref[i+1:], 10, 64)
	if err != nil {
		return "", 0, errs.NewValueIsInvalidErrorWithCause("message ref", err)
	}
	return ref[:i], messageID, nil
}

// keyboard lays out one button per row. An empty keyboard removes existing buttons.
func keyboard(buttons []ports.Button) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []models.InlineKeyboardButton{{Text: b.Text, CallbackData: b.Data}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (c *Client) call(ctx context.Context, method string, do func(context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("botapi: %s: %w", method, err)
	}
	if err := do(ctx); err != nil {
		return &APIError{Method: method, Err: redact(err, c.token)}
	}
	return nil
}

// redact drops the request URL, which carries the bot token.
func redact(err error, token string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	if msg := err.Error(); strings.Contains(msg, token) {
		return errors.New(strings.ReplaceAll(msg, token, "<token>"))
	}
	return err
}

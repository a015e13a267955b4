package botapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fulfillment/internal/adapters/out/botapi"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const sentMessage = `{"ok":true,"result":{"message_id":77,"date":1760431800,"chat":{"id":-1001,"type":"supergroup"}}}`

type recordedCall struct {
	Method string
	Form   map[string]string
}

// fakeBotAPI answers every method with the configured body and records the form fields.
type fakeBotAPI struct {
	mu       sync.Mutex
	calls    []recordedCall
	response func(method string) (int, string)
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if !strings.HasPrefix(r.URL.Path, "/botsecret-token/") {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		return
	}

	form := map[string]string{}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
	} else if err := r.ParseForm(); err == nil {
		for k, v := range r.PostForm {
			form[k] = v[0]
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: method, Form: form})
	f.mu.Unlock()

	status, payload := http.StatusOK, defaultResponse(method)
	if f.response != nil {
		status, payload = f.response(method)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, payload)
}

func defaultResponse(method string) string {
	switch method {
	case "sendMessage", "editMessageText":
		return sentMessage
	default:
		return `{"ok":true,"result":true}`
	}
}

func (f *fakeBotAPI) lastCall(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *fakeBotAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newClient(t *testing.T, api *fakeBotAPI, opts botapi.Options) *botapi.Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL
	opts.Token = "secret-token"
	opts.OperatorChatID = "-1001"
	opts.HTTPClient = server.Client()
	c, err := botapi.NewClient(opts)
	require.NoError(t, err)
	return c
}

func keyboardRows(t *testing.T, call recordedCall) [][]models.InlineKeyboardButton {
	t.Helper()
	var markup models.InlineKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(call.Form["reply_markup"]), &markup))
	return markup.InlineKeyboard
}

func TestNewClient_Validation(t *testing.T) {
	_, err := botapi.NewClient(botapi.Options{Token: "x"})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = botapi.NewClient(botapi.Options{BaseURL: "http://localhost"})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewClient_DoesNotCallTheAPI(t *testing.T) {
	api := &fakeBotAPI{}
	newClient(t, api, botapi.Options{})

	assert.Zero(t, api.callCount())
}

func TestClient_SendText(t *testing.T) {
	api := &fakeBotAPI{}
	c := newClient(t, api, botapi.Options{})
	to, err := kernel.ChannelRefFromString("4242")
	require.NoError(t, err)

	require.NoError(t, c.SendText(context.Background(), to, "Your order O-1 is on its way."))

	call := api.lastCall(t)
	assert.Equal(t, "sendMessage", call.Method)
	assert.Equal(t, "4242", call.Form["chat_id"])
	assert.Equal(t, "Your order O-1 is on its way.", call.Form["text"])
	assert.NotContains(t, call.Form, "reply_markup")
}

func TestClient_SendText_APIError(t *testing.T) {
	api := &fakeBotAPI{response: func(string) (int, string) {
		return http.StatusForbidden, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
	}}
	c := newClient(t, api, botapi.Options{})

	err := c.SendText(context.Background(), kernel.ChannelRef{}, "hi")

	var apiErr *botapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.Contains(t, err.Error(), "blocked by the user")
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestClient_TransportErrorHidesToken(t *testing.T) {
	c, err := botapi.NewClient(botapi.Options{BaseURL: "http://127.0.0.1:1", Token: "secret-token"})
	require.NoError(t, err)

	err = c.SendText(context.Background(), kernel.ChannelRef{}, "hi")

	var apiErr *botapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	api := &fakeBotAPI{}
	c := newClient(t, api, botapi.Options{RateLimit: rate.Every(1 << 40), RateLimitBurst: 1})
	to, err := kernel.ChannelRefFromString("4242")
	require.NoError(t, err)

	require.NoError(t, c.SendText(context.Background(), to, "first"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.SendText(ctx, to, "second")

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, api.callCount())
}

func TestClient_PostControls(t *testing.T) {
	api := &fakeBotAPI{}
	c := newClient(t, api, botapi.Options{})

	ref, err := c.PostControls(context.Background(), ports.Controls{
		Text: "Order O-1\nStatus: pending",
		Buttons: []ports.Button{
			{Text: "Accepted", Data: "accepted:O-1"},
			{Text: "Cancelled", Data: "cancelled:O-1"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "-1001:77", ref)

	call := api.lastCall(t)
	assert.Equal(t, "-1001", call.Form["chat_id"])
	rows := keyboardRows(t, call)
	require.Len(t, rows, 2)
	assert.Equal(t, "accepted:O-1", rows[0][0].CallbackData)
	assert.Equal(t, "Cancelled", rows[1][0].Text)
}

func TestClient_RenderControls_TerminalRemovesKeyboard(t *testing.T) {
	api := &fakeBotAPI{}
	c := newClient(t, api, botapi.Options{})

	require.NoError(t, c.RenderControls(context.Background(), "-1001:77", ports.Controls{Text: "Order O-1\nStatus: delivered"}))

	call := api.lastCall(t)
	assert.Equal(t, "editMessageText", call.Method)
	assert.Equal(t, "-1001", call.Form["chat_id"])
	assert.Equal(t, "77", call.Form["message_id"])
	assert.Empty(t, keyboardRows(t, call))
}

func TestClient_RenderControls_BadRef(t *testing.T) {
	api := &fakeBotAPI{}
	c := newClient(t, api, botapi.Options{})

	err := c.RenderControls(context.Background(), "nope", ports.Controls{Text: "x"})

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Zero(t, api.callCount())
}

func TestClient_AnswerAction(t *testing.T) {
	api := &fakeBotAPI{}
	c := newClient(t, api, botapi.Options{})

	require.NoError(t, c.AnswerAction(context.Background(), "cb-1", ports.Ack{Text: "Order O-1 not found."}))

	call := api.lastCall(t)
	assert.Equal(t, "answerCallbackQuery", call.Method)
	assert.Equal(t, "cb-1", call.Form["callback_query_id"])
	assert.Equal(t, "Order O-1 not found.", call.Form["text"])
	assert.Equal(t, "true", call.Form["show_alert"])
}

func TestClient_AnswerAction_WithoutIDIsSkipped(t *testing.T) {
	api := &fakeBotAPI{}
	c := newClient(t, api, botapi.Options{})

	require.NoError(t, c.AnswerAction(context.Background(), "", ports.Ack{OK: true}))
	assert.Zero(t, api.callCount())
}

func TestParseMessageRef(t *testing.T) {
	chatID, messageID, err := botapi.ParseMessageRef(botapi.FormatMessageRef("-1001", 5))
	require.NoError(t, err)
	assert.Equal(t, "-1001", chatID)
	assert.Equal(t, int64(5), messageID)

	for _, bad := range []string{"", "77", ":77", "-1001:", "-1001:x"} {
		t.Run(fmt.Sprintf("%q", bad), func(t *testing.T) {
			_, _, err := botapi.ParseMessageRef(bad)
			require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		})
	}
}

package orderapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	fhttp "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/in/chatops"
	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/adapters/out/orderapi"
	"fulfillment/internal/core/application/notifications"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unreachableCustomer struct{}

func (unreachableCustomer) SendText(context.Context, kernel.ChannelRef, string) error {
	return errors.New("bot was blocked by the user")
}

type operatorChat struct{}

func (operatorChat) PostControls(context.Context, ports.Controls) (string, error) { return "-1001:7", nil }

func (operatorChat) RenderControls(context.Context, string, ports.Controls) error { return nil }

func (operatorChat) AnswerAction(context.Context, string, ports.Ack) error { return nil }

type customerScreen struct {
	mu     sync.Mutex
	shown  []tracking.Observation
	clears int
}

func (s *customerScreen) Show(o tracking.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, tracking.Observation{OrderID: o.OrderID, Status: o.Status})
}

func (s *customerScreen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

func (s *customerScreen) cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears > 0
}

func post(t *testing.T, url, body string) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

// An operator walks an order to delivered while the customer cannot be notified; the
// tracking client still converges on every persisted status and auto-clears at the end.
func TestConvergence_OperatorToTrackingClient(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	repo := memory.NewOrderRepository()
	dispatcher := notifications.NewDispatcher(unreachableCustomer{}, time.Second, logger)
	t.Cleanup(dispatcher.Wait)

	operator := chatops.NewAdapter(
		commands.NewChangeOrderStatusCommandHandler(repo, time.Now, logger),
		dispatcher,
		operatorChat{},
		logger,
	)
	server := fhttp.NewServer(
		commands.NewCreateOrderCommandHandler(repo, time.Now),
		queries.NewGetOrderQueryHandler(repo),
		queries.NewGetActiveOrdersQueryHandler(repo),
		operator,
		"",
		logger,
	)
	api := httptest.NewServer(fhttp.NewRouter(server, logger))
	t.Cleanup(api.Close)

	post(t, api.URL+"/api/v1/orders", `{"order_id":"O-100","customer_ref":"chat-7"}`)

	client, err := orderapi.NewClient(api.URL, api.Client())
	require.NoError(t, err)
	screen := &customerScreen{}
	session, err := tracking.NewSession(*kernel.OptionalChannelRef("chat-7"), client, screen, tracking.Config{
		PollInterval:   time.Hour,
		AutoClearDelay: 50 * time.Millisecond,
		FetchTimeout:   time.Second,
	}, logger)
	require.NoError(t, err)
	require.NoError(t, session.Start(t.Context()))
	t.Cleanup(session.Stop)

	act := func(label string) {
		ack := post(t, api.URL+"/api/v1/operator/actions",
			`{"action_id":"cb-`+label+`","message_ref":"-1001:7","data":"`+label+`:O-100","operator":"ann"}`)
		require.Equal(t, true, ack["ok"], ack["text"])
	}

	act("accepted")
	require.True(t, session.Refresh())
	act("accepted")
	require.True(t, session.Refresh())
	act("preparing")
	act("delivering")
	act("delivered")
	require.True(t, session.Refresh())

	id := kernel.MustOrderIDFromString("O-100")
	assert.Equal(t, []tracking.Observation{
		{OrderID: id, Status: order.Pending},
		{OrderID: id, Status: order.Confirmed},
		{OrderID: id, Status: order.Delivered},
	}, screen.shown)
	assert.Equal(t, tracking.AutoClearPending, session.State())

	require.Eventually(t, screen.cleared, time.Second, 5*time.Millisecond)
	assert.Equal(t, tracking.Idle, session.State())

	stored, err := repo.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, order.Delivered, stored.Status())
}

package chatops_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"fulfillment/internal/adapters/in/chatops"
	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockControlSurface struct{ mock.Mock }

func (m *MockControlSurface) PostControls(ctx context.Context, controls ports.Controls) (string, error) {
	args := m.Called(ctx, controls)
	return args.String(0), args.Error(1)
}

func (m *MockControlSurface) RenderControls(ctx context.Context, messageRef string, controls ports.Controls) error {
	args := m.Called(ctx, messageRef, controls)
	return args.Error(0)
}

func (m *MockControlSurface) AnswerAction(ctx context.Context, actionID string, ack ports.Ack) error {
	args := m.Called(ctx, actionID, ack)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Dispatch(ctx context.Context, ref *kernel.ChannelRef, id kernel.OrderID, status order.Status) {
	m.Called(ctx, ref, id, status)
}

type MockEngine struct{ mock.Mock }

func (m *MockEngine) Handle(
	ctx context.Context,
	cmd commands.ChangeOrderStatusCommand,
) (commands.ChangeOrderStatusResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.ChangeOrderStatusResult), args.Error(1)
}

var created = time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)

type AdapterTestSuite struct {
	suite.Suite
	repo     *memory.OrderRepository
	surface  *MockControlSurface
	notifier *MockNotifier
	adapter  *chatops.Adapter
}

func (suite *AdapterTestSuite) SetupTest() {
	suite.repo = memory.NewOrderRepository()
	suite.surface = new(MockControlSurface)
	suite.notifier = new(MockNotifier)

	logger := slog.New(slog.DiscardHandler)
	engine := commands.NewChangeOrderStatusCommandHandler(suite.repo, func() time.Time { return created.Add(time.Minute) }, logger)
	suite.adapter = chatops.NewAdapter(engine, suite.notifier, suite.surface, logger)
}

func (suite *AdapterTestSuite) seed(id string, status order.Status) {
	o, err := order.RestoreOrder(kernel.MustOrderIDFromString(id), kernel.OptionalChannelRef("chat-1"), status, created, created)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repo.Add(context.Background(), o))
}

func (suite *AdapterTestSuite) storedStatus(id string) order.Status {
	o, err := suite.repo.Get(context.Background(), kernel.MustOrderIDFromString(id))
	suite.Require().NoError(err)
	return o.Status()
}

func (suite *AdapterTestSuite) TestHandleAction_AppliesNotifiesRendersAndAnswers() {
	suite.seed("O-100", order.Pending)
	id := kernel.MustOrderIDFromString("O-100")
	want := ports.Ack{OK: true, Text: "Order O-100 is now confirmed."}

	mock.InOrder(
		suite.notifier.On("Dispatch", mock.Anything, kernel.OptionalChannelRef("chat-1"), id, order.Confirmed).Once(),
		suite.surface.On("RenderControls", mock.Anything, "chat:1", mock.MatchedBy(func(c ports.Controls) bool {
			return c.Buttons[0].Active && c.Buttons[0].Text == "• Accepted"
		})).Return(nil).Once(),
		suite.surface.On("AnswerAction", mock.Anything, "cb-1", want).Return(nil).Once(),
	)

	ack := suite.adapter.HandleAction(context.Background(), chatops.Action{
		ID: "cb-1", MessageRef: "chat:1", Data: "accepted:O-100", Operator: "alice",
	})

	suite.Equal(want, ack)
	suite.Equal(order.Confirmed, suite.storedStatus("O-100"))
	suite.notifier.AssertExpectations(suite.T())
	suite.surface.AssertExpectations(suite.T())
}

func (suite *AdapterTestSuite) TestHandleAction_DuplicateDoesNotNotifyAgain() {
	suite.seed("O-101", order.Confirmed)
	suite.surface.On("RenderControls", mock.Anything, "chat:2", mock.Anything).Return(nil).Once()
	suite.surface.On("AnswerAction", mock.Anything, "cb-2", mock.Anything).Return(nil).Once()

	ack := suite.adapter.HandleAction(context.Background(), chatops.Action{
		ID: "cb-2", MessageRef: "chat:2", Data: "accepted:O-101",
	})

	suite.True(ack.OK)
	suite.Equal("Order O-101 is already confirmed.", ack.Text)
	suite.notifier.AssertNotCalled(suite.T(), "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AdapterTestSuite) TestHandleAction_Rejections() {
	suite.seed("O-200", order.Pending)
	suite.seed("O-201", order.Delivered)

	tests := []struct {
		data string
		want string
	}{
		{data: "delivering:O-200", want: "Order O-200 cannot move from pending to delivering."},
		{data: "cancelled:O-201", want: "Order O-201 is already delivered."},
		{data: "accepted:O-404", want: "Order O-404 not found."},
		{data: "shipped:O-200", want: "Unknown action."},
		{data: "garbage", want: "Unknown action."},
	}

	for _, tt := range tests {
		suite.Run(tt.data, func() {
			suite.surface.On("AnswerAction", mock.Anything, "cb", ports.Ack{Text: tt.want}).Return(nil).Once()

			ack := suite.adapter.HandleAction(context.Background(), chatops.Action{
				ID: "cb", MessageRef: "chat:3", Data: tt.data,
			})

			suite.False(ack.OK)
			suite.Equal(tt.want, ack.Text)
		})
	}

	suite.Equal(order.Pending, suite.storedStatus("O-200"))
	suite.Equal(order.Delivered, suite.storedStatus("O-201"))
	suite.surface.AssertNotCalled(suite.T(), "RenderControls", mock.Anything, mock.Anything, mock.Anything)
	suite.notifier.AssertNotCalled(suite.T(), "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AdapterTestSuite) TestHandleAction_RenderFailureStillAcknowledges() {
	suite.seed("O-300", order.Delivering)
	suite.notifier.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, order.Delivered).Once()
	suite.surface.On("RenderControls", mock.Anything, "chat:4", mock.Anything).Return(errors.New("message is too old")).Once()
	suite.surface.On("AnswerAction", mock.Anything, "cb-4", mock.Anything).Return(errors.New("query expired")).Once()

	ack := suite.adapter.HandleAction(context.Background(), chatops.Action{
		ID: "cb-4", MessageRef: "chat:4", Data: "delivered:O-300",
	})

	suite.True(ack.OK)
	suite.Equal(order.Delivered, suite.storedStatus("O-300"))
}

func (suite *AdapterTestSuite) TestAnnounceOrder() {
	o, err := order.NewOrder(kernel.MustOrderIDFromString("O-400"), nil, created)
	suite.Require().NoError(err)
	suite.surface.On("PostControls", mock.Anything, mock.MatchedBy(func(c ports.Controls) bool {
		return c.OrderID.String() == "O-400" && len(c.Buttons) == 5
	})).Return("chat:9", nil).Once()

	suite.adapter.AnnounceOrder(context.Background(), o)

	suite.surface.AssertExpectations(suite.T())
}

func (suite *AdapterTestSuite) TestAnnounceOrder_FailureIsLogged() {
	o, err := order.NewOrder(kernel.MustOrderIDFromString("O-401"), nil, created)
	suite.Require().NoError(err)
	suite.surface.On("PostControls", mock.Anything, mock.Anything).Return("", errors.New("chat not found")).Once()

	suite.NotPanics(func() { suite.adapter.AnnounceOrder(context.Background(), o) })
}

func TestAdapterTestSuite(t *testing.T) {
	suite.Run(t, new(AdapterTestSuite))
}

func TestHandleAction_StoreUnavailable(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Handle", mock.Anything, mock.Anything).
		Return(commands.ChangeOrderStatusResult{}, errs.NewStoreUnavailableError("get order", context.DeadlineExceeded)).Once()
	surface := new(MockControlSurface)
	surface.On("AnswerAction", mock.Anything, "cb", mock.Anything).Return(nil).Once()
	notifier := new(MockNotifier)

	adapter := chatops.NewAdapter(engine, notifier, surface, slog.New(slog.DiscardHandler))
	ack := adapter.HandleAction(context.Background(), chatops.Action{ID: "cb", Data: "preparing:O-1"})

	assert.False(t, ack.OK)
	assert.Equal(t, "Order O-1 was not updated, please try again.", ack.Text)
	notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	surface.AssertNotCalled(t, "RenderControls", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleAction_CommandCarriesOperator(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.ChangeOrderStatusCommand) bool {
		return cmd.RequestedBy() == "operator:bob" && cmd.Status() == order.Cancelled
	})).Return(commands.ChangeOrderStatusResult{}, errs.NewObjectNotFoundError("order", "O-1")).Once()
	surface := new(MockControlSurface)
	surface.On("AnswerAction", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	chatops.NewAdapter(engine, new(MockNotifier), surface, slog.New(slog.DiscardHandler)).
		HandleAction(context.Background(), chatops.Action{ID: "cb", Data: "cancelled:O-1", Operator: " bob "})

	engine.AssertExpectations(t)
}

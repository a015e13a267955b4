package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewCreateOrderCommand(kernel.MustOrderIDFromString("O-7"), kernel.OptionalChannelRef("chat-1"))
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("Add", ctx, mock.MatchedBy(func(o *order.Order) bool {
		return o.ID().String() == "O-7" && o.Status() == order.Pending
	})).Return(nil).Once()

	h := commands.NewCreateOrderCommandHandler(repo, fixedClock(checkout))
	created, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Pending, created.Status())
	assert.True(t, checkout.Equal(created.CreatedAt()))
	assert.True(t, checkout.Equal(created.UpdatedAt()))
	repo.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_Duplicate(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewCreateOrderCommand(kernel.MustOrderIDFromString("O-7"), nil)
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("Add", ctx, mock.Anything).Return(errs.NewObjectAlreadyExistsError("order", "O-7")).Once()

	h := commands.NewCreateOrderCommandHandler(repo, fixedClock(checkout))
	created, err := h.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectAlreadyExists)
	assert.Nil(t, created)
	repo.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_InvalidCommand(t *testing.T) {
	repo := new(MockOrderRepository)
	h := commands.NewCreateOrderCommandHandler(repo, fixedClock(checkout))

	_, err := h.Handle(t.Context(), commands.CreateOrderCommand{})

	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

// Package storetest holds the behavioural contract every ports.OrderRepository backend must meet.
// Backend test files call Run with a constructor returning an empty store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Checkout is the creation time used by contract fixtures.
var Checkout = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

// Run executes the contract against fresh stores produced by newRepo.
func Run(t *testing.T, newRepo func(t *testing.T) ports.OrderRepository) {
	t.Helper()

	t.Run("add and get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created := NewOrder(t, "O-100", "chat-1", Checkout)

		require.NoError(t, repo.Add(ctx, created))

		got, err := repo.Get(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "O-100", got.ID().String())
		require.NotNil(t, got.CustomerRef())
		assert.Equal(t, "chat-1", got.CustomerRef().String())
		assert.Equal(t, order.Pending, got.Status())
		assert.True(t, Checkout.Equal(got.CreatedAt()))
		assert.True(t, Checkout.Equal(got.UpdatedAt()))
	})

	t.Run("order without customer ref", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created := NewOrder(t, "O-101", "", Checkout)

		require.NoError(t, repo.Add(ctx, created))

		got, err := repo.Get(ctx, created.ID())
		require.NoError(t, err)
		assert.Nil(t, got.CustomerRef())
	})

	t.Run("add rejects duplicate id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Add(ctx, NewOrder(t, "O-102", "chat-1", Checkout)))
		err := repo.Add(ctx, NewOrder(t, "O-102", "chat-2", Checkout))
		require.ErrorIs(t, err, errs.ErrObjectAlreadyExists)
	})

	t.Run("get unknown order", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(context.Background(), kernel.MustOrderIDFromString("O-missing"))
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("compare and set applies when expected matches", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created := NewOrder(t, "O-103", "chat-1", Checkout)
		require.NoError(t, repo.Add(ctx, created))

		at := Checkout.Add(time.Minute)
		require.NoError(t, repo.CompareAndSetStatus(ctx, created.ID(), order.Pending, order.Confirmed, at))

		got, err := repo.Get(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, order.Confirmed, got.Status())
		assert.True(t, at.Equal(got.UpdatedAt()))
		assert.True(t, Checkout.Equal(got.CreatedAt()))
	})

	t.Run("compare and set conflicts on stale expectation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created := NewOrder(t, "O-104", "chat-1", Checkout)
		require.NoError(t, repo.Add(ctx, created))
		require.NoError(t, repo.CompareAndSetStatus(ctx, created.ID(), order.Pending, order.Confirmed, Checkout.Add(time.Minute)))

		err := repo.CompareAndSetStatus(ctx, created.ID(), order.Pending, order.Cancelled, Checkout.Add(2*time.Minute))
		require.ErrorIs(t, err, errs.ErrVersionIsInvalid)

		got, err := repo.Get(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, order.Confirmed, got.Status())
		assert.True(t, Checkout.Add(time.Minute).Equal(got.UpdatedAt()))
	})

	t.Run("compare and set unknown order", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.CompareAndSetStatus(context.Background(), kernel.MustOrderIDFromString("O-missing"),
			order.Pending, order.Confirmed, Checkout)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("concurrent compare and set has a single winner", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created := NewOrder(t, "O-105", "chat-1", Checkout)
		require.NoError(t, repo.Add(ctx, created))

		const writers = 8
		results := make(chan error, writers)
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next := order.Confirmed
				if i%2 == 0 {
					next = order.Cancelled
				}
				results <- repo.CompareAndSetStatus(ctx, created.ID(), order.Pending, next, Checkout.Add(time.Minute))
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, errs.ErrVersionIsInvalid)
		}
		assert.Equal(t, 1, wins)
	})

	t.Run("list active filters and orders newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		oldest := NewOrder(t, "O-200", "chat-1", Checkout)
		middle := NewOrder(t, "O-201", "chat-1", Checkout.Add(time.Minute))
		newest := NewOrder(t, "O-202", "chat-1", Checkout.Add(2*time.Minute))
		delivered := NewOrder(t, "O-203", "chat-1", Checkout.Add(3*time.Minute))
		otherCustomer := NewOrder(t, "O-204", "chat-2", Checkout.Add(4*time.Minute))
		anonymous := NewOrder(t, "O-205", "", Checkout.Add(5*time.Minute))

		for _, o := range []*order.Order{oldest, middle, newest, delivered, otherCustomer, anonymous} {
			require.NoError(t, repo.Add(ctx, o))
		}
		require.NoError(t, repo.CompareAndSetStatus(ctx, delivered.ID(), order.Pending, order.Cancelled, Checkout.Add(time.Hour)))
		require.NoError(t, repo.CompareAndSetStatus(ctx, middle.ID(), order.Pending, order.Confirmed, Checkout.Add(time.Hour)))

		active, err := repo.ListActive(ctx, MustChannelRef(t, "chat-1"))
		require.NoError(t, err)

		ids := make([]string, 0, len(active))
		for _, o := range active {
			ids = append(ids, o.ID().String())
		}
		assert.Equal(t, []string{"O-202", "O-201", "O-200"}, ids)
		assert.Equal(t, order.Confirmed, active[1].Status())
	})

	t.Run("list active for unknown customer is empty", func(t *testing.T) {
		repo := newRepo(t)

		active, err := repo.ListActive(context.Background(), MustChannelRef(t, "nobody"))
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("cancelled context reports store unavailable", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.Get(ctx, kernel.MustOrderIDFromString("O-1"))
		require.ErrorIs(t, err, errs.ErrStoreUnavailable)
	})
}

// NewOrder builds a pending order fixture; an empty ref creates an order without customer channel.
func NewOrder(t *testing.T, id, ref string, createdAt time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.MustOrderIDFromString(id), kernel.OptionalChannelRef(ref), createdAt)
	require.NoError(t, err)
	return o
}

// MustChannelRef builds a channel reference fixture.
func MustChannelRef(t *testing.T, ref string) kernel.ChannelRef {
	t.Helper()
	r, err := kernel.ChannelRefFromString(ref)
	require.NoError(t, err)
	return r
}

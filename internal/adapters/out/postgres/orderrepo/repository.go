package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
// The connection must be opened with TranslateError enabled.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts a new order row.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewObjectAlreadyExistsErrorWithCause("order", dto.OrderID, err)
		}
		return errs.NewStoreUnavailableError("add order", err)
	}

	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, errs.NewStoreUnavailableError("get order", err)
	}

	return toDomain(dto)
}

// CompareAndSetStatus issues a single conditional UPDATE. When no row matches, a
// follow-up read tells a missing order apart from a stale expectation.
func (r *GormOrderRepository) CompareAndSetStatus(
	ctx context.Context,
	id kernel.OrderID,
	expected order.Status,
	next order.Status,
	updatedAt time.Time,
) error {
	if err := errors.Join(id.Validate(), next.Validate()); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("order_id = ? AND status = ?", id.String(), expected.String()).
		Updates(map[string]any{
			"status":     next.String(),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return errs.NewStoreUnavailableError("compare and set status", result.Error)
	}

	if result.RowsAffected == 1 {
		return nil
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).Select("status").First(&dto, "order_id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		return errs.NewStoreUnavailableError("compare and set status", err)
	}

	return errs.NewVersionIsInvalidErrorWithCause(
		"status",
		fmt.Errorf("expected %s, found %s", expected, dto.Status),
	)
}

// ListActive retrieves the customer's non-terminal orders, newest first.
func (r *GormOrderRepository) ListActive(ctx context.Context, customerRef kernel.ChannelRef) ([]*order.Order, error) {
	if err := customerRef.Validate(); err != nil {
		return nil, err
	}

	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("customer_ref = ? AND status NOT IN ?", customerRef.String(), terminalStatusNames()).
		Order("created_at DESC, order_id DESC").
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewStoreUnavailableError("list active orders", err)
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

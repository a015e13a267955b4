// Package orderrepo provides the GORM-backed Order Store and the mapping between
// the Order aggregate and its row in the orders table.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderDTO is the database row of an order. Status is stored by canonical name so
// the table stays readable from psql.
type OrderDTO struct {
	OrderID     string    `gorm:"column:order_id;type:varchar(64);primaryKey"`
	CustomerRef *string   `gorm:"column:customer_ref;type:varchar(128);index:idx_orders_customer_created,priority:1"`
	Status      string    `gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false;index:idx_orders_customer_created,priority:2"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	var ref *string
	if r := o.CustomerRef(); r != nil {
		value := r.String()
		ref = &value
	}

	return OrderDTO{
		OrderID:     o.ID().String(),
		CustomerRef: ref,
		Status:      o.Status().String(),
		CreatedAt:   o.CreatedAt(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.OrderIDFromString(dto.OrderID)
	if err != nil {
		return nil, err
	}

	var ref *kernel.ChannelRef
	if dto.CustomerRef != nil {
		ref = kernel.OptionalChannelRef(*dto.CustomerRef)
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(id, ref, status, dto.CreatedAt, dto.UpdatedAt)
}

func terminalStatusNames() []string {
	terminal := order.TerminalStatuses()
	names := make([]string, 0, len(terminal))
	for _, s := range terminal {
		names = append(names, s.String())
	}
	return names
}

// Package sqlite provides a single-file Order Store on the pure-Go SQLite driver.
//
// WAL mode is enabled on Open so the tracking endpoints can read while the
// transition engine writes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    order_id      TEXT PRIMARY KEY,
    customer_ref  TEXT,
    status        TEXT NOT NULL,
    -- fixed-width UTC timestamps, so text order equals time order
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_customer_created ON orders(customer_ref, created_at);
`

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// OrderRepository implements ports.OrderRepository on database/sql.
type OrderRepository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/orders.db")
func Open(path string) (*OrderRepository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// single writer connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &OrderRepository{db: db}, nil
}

// Close releases the database connection.
func (r *OrderRepository) Close() error {
	return r.db.Close()
}

// Add inserts a new order row.
func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	const q = `
		INSERT INTO orders (order_id, customer_ref, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	var ref any
	if r := aggregate.CustomerRef(); r != nil {
		ref = r.String()
	}

	_, err := r.db.ExecContext(ctx, q,
		aggregate.ID().String(),
		ref,
		aggregate.Status().String(),
		formatTime(aggregate.CreatedAt()),
		formatTime(aggregate.UpdatedAt()),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return errs.NewObjectAlreadyExistsErrorWithCause("order", aggregate.ID().String(), err)
		}
		return errs.NewStoreUnavailableError("add order", err)
	}
	return nil
}

// Get retrieves an order by ID.
func (r *OrderRepository) Get(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	const q = `
		SELECT order_id, customer_ref, status, created_at, updated_at
		FROM   orders
		WHERE  order_id = ?`

	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	if err != nil {
		return nil, storeError("get order", err)
	}
	return o, nil
}

// CompareAndSetStatus issues a conditional UPDATE and reads the current status back
// when nothing matched.
func (r *OrderRepository) CompareAndSetStatus(
	ctx context.Context,
	id kernel.OrderID,
	expected order.Status,
	next order.Status,
	updatedAt time.Time,
) error {
	if err := next.Validate(); err != nil {
		return err
	}

	const update = `
		UPDATE orders
		SET    status = ?, updated_at = ?
		WHERE  order_id = ? AND status = ?`

	res, err := r.db.ExecContext(ctx, update, next.String(), formatTime(updatedAt), id.String(), expected.String())
	if err != nil {
		return errs.NewStoreUnavailableError("compare and set status", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errs.NewStoreUnavailableError("compare and set status", err)
	}
	if affected == 1 {
		return nil
	}

	var found string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE order_id = ?`, id.String()).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	if err != nil {
		return errs.NewStoreUnavailableError("compare and set status", err)
	}

	return errs.NewVersionIsInvalidErrorWithCause(
		"status",
		fmt.Errorf("expected %s, found %s", expected, found),
	)
}

// ListActive returns the customer's non-terminal orders, newest first.
func (r *OrderRepository) ListActive(ctx context.Context, customerRef kernel.ChannelRef) ([]*order.Order, error) {
	const q = `
		SELECT order_id, customer_ref, status, created_at, updated_at
		FROM   orders
		WHERE  customer_ref = ? AND status NOT IN (?, ?)
		ORDER  BY created_at DESC, order_id DESC`

	rows, err := r.db.QueryContext(ctx, q, customerRef.String(), order.Delivered.String(), order.Cancelled.String())
	if err != nil {
		return nil, errs.NewStoreUnavailableError("list active orders", err)
	}
	defer rows.Close()

	orders := make([]*order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storeError("list active orders", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewStoreUnavailableError("list active orders", err)
	}

	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// errMalformedRow marks rows that were read but could not be mapped to an Order.
var errMalformedRow = errors.New("malformed order row")

func scanOrder(row scanner) (*order.Order, error) {
	var (
		rawID, rawStatus     string
		rawRef               sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&rawID, &rawRef, &rawStatus, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := kernel.OrderIDFromString(rawID)
	if err != nil {
		return nil, errors.Join(errMalformedRow, err)
	}

	var ref *kernel.ChannelRef
	if rawRef.Valid {
		ref = kernel.OptionalChannelRef(rawRef.String)
	}

	status, err := order.ParseStatus(rawStatus)
	if err != nil {
		return nil, errors.Join(errMalformedRow, err)
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return nil, errors.Join(errMalformedRow, err)
	}
	updated, err := parseTime(updatedAt)
	if err != nil {
		return nil, errors.Join(errMalformedRow, err)
	}

	o, err := order.RestoreOrder(id, ref, status, created, updated)
	if err != nil {
		return nil, errors.Join(errMalformedRow, err)
	}
	return o, nil
}

// storeError keeps mapping failures visible as such and reports everything else
// as an unavailable store.
func storeError(op string, err error) error {
	if errors.Is(err, errMalformedRow) {
		return fmt.Errorf("sqlite: %s: %w", op, err)
	}
	return errs.NewStoreUnavailableError(op, err)
}

// isConstraintViolation matches both the primary and the extended constraint codes.
func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

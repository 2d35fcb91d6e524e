package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo persists placed orders.
type Repo interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, orderID string) (Order, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error
}

// PGRepo stores orders in Postgres. The header row and its items are
// written in one transaction so a crash never leaves a half-written
// order behind.
type PGRepo struct {
	Pool *pgxpool.Pool
}

// NewPGRepo builds the order repo over the shared pool.
func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{Pool: pool}
}

// Insert writes the order and its items transactionally.
func (r *PGRepo) Insert(ctx context.Context, o Order) error {
	if r == nil || r.Pool == nil {
		return errors.New("order: repository not configured")
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertOrder = `INSERT INTO orders
        (id, tenant_id, outlet_id, session_id, order_type, table_id,
         subtotal, discount, tax, service_charge, total, status, placed_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13)`
	_, err = tx.Exec(ctx, insertOrder,
		o.ID, o.TenantID, o.OutletID, o.SessionID, string(o.OrderType), o.TableID,
		o.Pricing.Subtotal, o.Pricing.Discount, o.Pricing.Tax, o.Pricing.ServiceCharge,
		o.Pricing.Total, string(o.Status), o.PlacedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	const insertItem = `INSERT INTO order_items
        (id, order_id, menu_item_id, name, quantity, unit_price, total_price,
         customizations, addons, special_instructions)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))`
	for _, it := range o.Items {
		customs, err := json.Marshal(it.Customizations)
		if err != nil {
			return fmt.Errorf("encode customizations: %w", err)
		}
		addons, err := json.Marshal(it.Addons)
		if err != nil {
			return fmt.Errorf("encode addons: %w", err)
		}
		if _, err := tx.Exec(ctx, insertItem,
			it.ID, o.ID, it.MenuItemID, it.Name, it.Quantity, it.UnitPrice, it.TotalPrice,
			customs, addons, it.SpecialInstructions); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

// Get loads an order with its items.
func (r *PGRepo) Get(ctx context.Context, orderID string) (Order, error) {
	if r == nil || r.Pool == nil {
		return Order{}, errors.New("order: repository not configured")
	}
	const q = `SELECT id, COALESCE(tenant_id, ''), outlet_id, session_id, order_type,
                      COALESCE(table_id, ''), subtotal, discount, tax, service_charge,
                      total, status, placed_at
               FROM orders WHERE id = $1`
	var o Order
	err := r.Pool.QueryRow(ctx, q, orderID).Scan(
		&o.ID, &o.TenantID, &o.OutletID, &o.SessionID, &o.OrderType, &o.TableID,
		&o.Pricing.Subtotal, &o.Pricing.Discount, &o.Pricing.Tax, &o.Pricing.ServiceCharge,
		&o.Pricing.Total, &o.Status, &o.PlacedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}

	items, err := r.itemsFor(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListBySession returns a session's orders, newest first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]Order, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("order: repository not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT id, COALESCE(tenant_id, ''), outlet_id, session_id, order_type,
                      COALESCE(table_id, ''), subtotal, discount, tax, service_charge,
                      total, status, placed_at
               FROM orders WHERE session_id = $1 ORDER BY placed_at DESC LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.TenantID, &o.OutletID, &o.SessionID, &o.OrderType, &o.TableID,
			&o.Pricing.Subtotal, &o.Pricing.Discount, &o.Pricing.Tax, &o.Pricing.ServiceCharge,
			&o.Pricing.Total, &o.Status, &o.PlacedAt); err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// UpdateStatus moves an order to a new lifecycle status.
func (r *PGRepo) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if r == nil || r.Pool == nil {
		return errors.New("order: repository not configured")
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	tag, err := r.Pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) itemsFor(ctx context.Context, orderID string) ([]Item, error) {
	const q = `SELECT id, menu_item_id, name, quantity, unit_price, total_price,
                      customizations, addons, COALESCE(special_instructions, '')
               FROM order_items WHERE order_id = $1 ORDER BY name`
	rows, err := r.Pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it         Item
			rawCustoms []byte
			rawAddons  []byte
		)
		if err := rows.Scan(&it.ID, &it.MenuItemID, &it.Name, &it.Quantity,
			&it.UnitPrice, &it.TotalPrice, &rawCustoms, &rawAddons, &it.SpecialInstructions); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if len(rawCustoms) > 0 {
			if err := json.Unmarshal(rawCustoms, &it.Customizations); err != nil {
				return nil, fmt.Errorf("decode customizations: %w", err)
			}
		}
		if len(rawAddons) > 0 {
			if err := json.Unmarshal(rawAddons, &it.Addons); err != nil {
				return nil, fmt.Errorf("decode addons: %w", err)
			}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan order items: %w", err)
	}
	return items, nil
}

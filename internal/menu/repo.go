package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo reads the outlet catalog.
type Repo interface {
	GetOutlet(ctx context.Context, outletID string) (Outlet, error)
	GetItem(ctx context.Context, outletID, itemID string) (Item, error)
	ListItems(ctx context.Context, outletID string) ([]Item, error)
}

// PGRepo is the Postgres-backed catalog. Customizations and addons are
// stored as JSONB alongside the item row, so a single query returns
// the whole configurable item.
type PGRepo struct {
	Pool *pgxpool.Pool
}

// NewPGRepo builds a catalog repo over the shared connection pool.
func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{Pool: pool}
}

// GetOutlet loads one outlet.
func (r *PGRepo) GetOutlet(ctx context.Context, outletID string) (Outlet, error) {
	if r == nil || r.Pool == nil {
		return Outlet{}, errors.New("menu: repository not configured")
	}
	const q = `SELECT id, name, COALESCE(address, ''), open
               FROM outlets WHERE id = $1`
	var o Outlet
	err := r.Pool.QueryRow(ctx, q, outletID).Scan(&o.ID, &o.Name, &o.Address, &o.Open)
	if errors.Is(err, pgx.ErrNoRows) {
		return Outlet{}, ErrNotFound
	}
	if err != nil {
		return Outlet{}, fmt.Errorf("get outlet: %w", err)
	}
	return o, nil
}

// GetItem loads one menu item with its customization groups and addons.
func (r *PGRepo) GetItem(ctx context.Context, outletID, itemID string) (Item, error) {
	if r == nil || r.Pool == nil {
		return Item{}, errors.New("menu: repository not configured")
	}
	const q = `SELECT id, outlet_id, COALESCE(category_id, ''), name, COALESCE(description, ''),
                      base_price, is_veg, available, COALESCE(image_url, ''),
                      customizations, addons
               FROM menu_items WHERE id = $1 AND outlet_id = $2`
	row := r.Pool.QueryRow(ctx, q, itemID, outletID)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get menu item: %w", err)
	}
	return item, nil
}

// ListItems returns the full menu for an outlet, available or not, so
// the storefront can render sold-out entries greyed out.
func (r *PGRepo) ListItems(ctx context.Context, outletID string) ([]Item, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("menu: repository not configured")
	}
	const q = `SELECT id, outlet_id, COALESCE(category_id, ''), name, COALESCE(description, ''),
                      base_price, is_veg, available, COALESCE(image_url, ''),
                      customizations, addons
               FROM menu_items WHERE outlet_id = $1 ORDER BY category_id, name`
	rows, err := r.Pool.Query(ctx, q, outletID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list menu items: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		item       Item
		rawCustoms []byte
		rawAddons  []byte
	)
	if err := row.Scan(&item.ID, &item.OutletID, &item.CategoryID, &item.Name, &item.Description,
		&item.BasePrice, &item.IsVeg, &item.Available, &item.ImageURL,
		&rawCustoms, &rawAddons); err != nil {
		return Item{}, err
	}
	if len(rawCustoms) > 0 {
		if err := json.Unmarshal(rawCustoms, &item.Customizations); err != nil {
			return Item{}, fmt.Errorf("decode customizations: %w", err)
		}
	}
	if len(rawAddons) > 0 {
		if err := json.Unmarshal(rawAddons, &item.Addons); err != nil {
			return Item{}, fmt.Errorf("decode addons: %w", err)
		}
	}
	return item, nil
}

package menu

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/foodgrid/backend-pos/internal/tenant"
)

// Service serves the catalog with a redis read-through cache in front
// of Postgres. Cache keys are tenant-prefixed so co-hosted brands
// never see each other's menus.
type Service struct {
	Repo   Repo
	Cache  *Cache
	Logger zerolog.Logger
}

// NewService wires the catalog service.
func NewService(repo Repo, cache *Cache, logger zerolog.Logger) *Service {
	return &Service{Repo: repo, Cache: cache, Logger: logger}
}

// GetOutlet returns one outlet.
func (s *Service) GetOutlet(ctx context.Context, outletID string) (Outlet, error) {
	if s == nil || s.Repo == nil {
		return Outlet{}, errors.New("menu: service not configured")
	}
	key := tenant.KeyFromContext(ctx, "menu:outlet:"+outletID)
	var out Outlet
	if s.Cache.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := s.Repo.GetOutlet(ctx, outletID)
	if err != nil {
		return Outlet{}, err
	}
	s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// GetItem returns one menu item for an outlet.
func (s *Service) GetItem(ctx context.Context, outletID, itemID string) (Item, error) {
	if s == nil || s.Repo == nil {
		return Item{}, errors.New("menu: service not configured")
	}
	key := tenant.KeyFromContext(ctx, "menu:item:"+outletID+":"+itemID)
	var item Item
	if s.Cache.GetJSON(ctx, key, &item) {
		return item, nil
	}
	item, err := s.Repo.GetItem(ctx, outletID, itemID)
	if err != nil {
		return Item{}, err
	}
	s.Cache.SetJSON(ctx, key, item)
	return item, nil
}

// ListMenu returns the outlet's full menu.
func (s *Service) ListMenu(ctx context.Context, outletID string) ([]Item, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("menu: service not configured")
	}
	key := tenant.KeyFromContext(ctx, "menu:list:"+outletID)
	var items []Item
	if s.Cache.GetJSON(ctx, key, &items) {
		return items, nil
	}
	items, err := s.Repo.ListItems(ctx, outletID)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, key, items)
	return items, nil
}

// Resolve returns the menu item a cart add refers to, rejecting items
// that are not currently sellable. Implements the cart's resolver.
func (s *Service) Resolve(ctx context.Context, outletID, menuItemID string) (Item, error) {
	item, err := s.GetItem(ctx, outletID, menuItemID)
	if err != nil {
		return Item{}, err
	}
	if !item.Available {
		return Item{}, ErrUnavailable
	}
	return item, nil
}

// ErrUnavailable is returned when a menu item exists but cannot be
// ordered right now.
var ErrUnavailable = errors.New("menu: item unavailable")

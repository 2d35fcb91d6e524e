// Seeder populates a development database with a demo outlet, a small
// menu, and an outlet staff PIN for device registration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodgrid/backend-pos/internal/app"
	"github.com/foodgrid/backend-pos/internal/config"
	"github.com/foodgrid/backend-pos/internal/menu"
	"github.com/foodgrid/backend-pos/internal/obs"
)

func main() {
	staffPIN := flag.String("staff-pin", "4321", "staff PIN to seed for the demo outlet")
	tenantID := flag.String("tenant", "default", "tenant slug to seed under")
	flag.Parse()

	cfg := config.MustLoad()
	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := app.NewDBPool(ctx, *cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	outletID := uuid.NewString()
	const insertOutlet = `INSERT INTO outlets (id, tenant_id, name, address, open)
        VALUES ($1, $2, $3, $4, TRUE)`
	if _, err := pool.Exec(ctx, insertOutlet, outletID, *tenantID, "FoodGrid Koramangala", "80 Feet Road, Bengaluru"); err != nil {
		logger.Fatal().Err(err).Msg("seed outlet")
	}

	items := demoMenu(outletID)
	const insertItem = `INSERT INTO menu_items
        (id, outlet_id, tenant_id, category_id, name, description, base_price,
         is_veg, available, image_url, customizations, addons)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)`
	for _, item := range items {
		customs, err := json.Marshal(item.Customizations)
		if err != nil {
			logger.Fatal().Err(err).Msg("encode customizations")
		}
		addons, err := json.Marshal(item.Addons)
		if err != nil {
			logger.Fatal().Err(err).Msg("encode addons")
		}
		if _, err := pool.Exec(ctx, insertItem,
			item.ID, outletID, *tenantID, item.CategoryID, item.Name, item.Description,
			item.BasePrice, item.IsVeg, item.Available, item.ImageURL, customs, addons); err != nil {
			logger.Fatal().Err(err).Str("item", item.Name).Msg("seed menu item")
		}
	}

	hash, err := app.HashStaffPIN(*staffPIN)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash staff pin")
	}
	const insertStaff = `INSERT INTO outlet_staff (id, outlet_id, pin_hash) VALUES ($1, $2, $3)`
	if _, err := pool.Exec(ctx, insertStaff, uuid.NewString(), outletID, hash); err != nil {
		logger.Fatal().Err(err).Msg("seed staff pin")
	}

	logger.Info().
		Str("outlet_id", outletID).
		Int("menu_items", len(items)).
		Msg("seed complete")
	fmt.Println("outlet:", outletID)
}

func demoMenu(outletID string) []menu.Item {
	sizes := []menu.Customization{
		{
			ID:   "size",
			Name: "Size",
			Options: []menu.Option{
				{ID: "opt-regular", Name: "Regular", Price: 0},
				{ID: "opt-large", Name: "Large", Price: 300},
			},
		},
	}
	return []menu.Item{
		{
			ID:             uuid.NewString(),
			OutletID:       outletID,
			CategoryID:     "starters",
			Name:           "Paneer Tikka",
			Description:    "Char-grilled cottage cheese with mint chutney",
			BasePrice:      1264,
			IsVeg:          true,
			Available:      true,
			Customizations: sizes,
			Addons: []menu.Addon{
				{ID: "cheese", Name: "Extra Cheese", Price: 50, Available: true},
			},
		},
		{
			ID:          uuid.NewString(),
			OutletID:    outletID,
			CategoryID:  "mains",
			Name:        "Chicken Biryani",
			Description: "Dum-cooked with saffron and fried onions",
			BasePrice:   4200,
			Available:   true,
			Addons: []menu.Addon{
				{ID: "raita", Name: "Raita", Price: 120, Available: true},
				{ID: "egg", Name: "Boiled Egg", Price: 80, Available: true},
			},
		},
		{
			ID:         uuid.NewString(),
			OutletID:   outletID,
			CategoryID: "beverages",
			Name:       "Filter Coffee",
			BasePrice:  250,
			IsVeg:      true,
			Available:  true,
		},
	}
}

// Command seed applies the catalog schema to the configured database and
// inserts the launch sellers and their listings. Running it twice is safe.
package main

import (
	"context"
	"fmt"
	"os"

	"gidersen/internal/config"
	"gidersen/internal/database"
	"gidersen/internal/model"
	"gidersen/internal/repository"

	"github.com/google/uuid"
)

type seedListing struct {
	name             string
	category         string
	marketplacePrice float64
	gidersenPrice    float64
	image            string
}

type seedSeller struct {
	storeName string
	location  string
	listings  []seedListing
}

var sellers = []seedSeller{
	{
		storeName: "Teknoloji Dünyası",
		location:  "Kadıköy, İstanbul",
		listings: []seedListing{{
			name:             "Logitech MX Master 3S Mouse",
			category:         "Elektronik",
			marketplacePrice: 4200,
			gidersenPrice:    3500,
			image:            "https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=400&h=300&fit=crop",
		}},
	},
	{
		storeName: "Mutfak Gereçleri A.Ş.",
		location:  "Çankaya, Ankara",
		listings: []seedListing{{
			name:             "Espresso Kahve Makinesi",
			category:         "Ev Aletleri",
			marketplacePrice: 12500,
			gidersenPrice:    10800,
			image:            "https://images.unsplash.com/photo-1517668808822-9ebb02f2a0e6?w=400&h=300&fit=crop",
		}},
	},
	{
		storeName: "Mobilya Trend",
		location:  "Nilüfer, Bursa",
		listings: []seedListing{{
			name:             "Ortopedik Ofis Koltuğu",
			category:         "Mobilya",
			marketplacePrice: 6800,
			gidersenPrice:    5900,
			image:            "https://images.unsplash.com/photo-1505797149-43b0069ec26b?w=400&h=300&fit=crop",
		}},
	},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.ApplySchema(ctx, pool); err != nil {
		return err
	}

	productRepo := repository.NewProductRepository(pool, logger)
	sellerRepo := repository.NewSellerRepository(pool, logger)

	existing, err := productRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	listed := make(map[string]bool, len(existing))
	for _, row := range existing {
		if row.SellerID != nil {
			listed[row.SellerID.String()+"/"+row.Name] = true
		}
	}

	created := 0
	for _, s := range sellers {
		// Seed sellers have no real auth account; the owner id is derived
		// from the store name so reruns find the same row.
		ownerID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("gidersen.com/seed/"+s.storeName))

		row, err := sellerRepo.GetByUserID(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to look up seller %s: %w", s.storeName, err)
		}
		if row == nil {
			row, err = sellerRepo.Create(ctx, ownerID, s.storeName, s.location, nil)
			if err != nil {
				return fmt.Errorf("failed to create seller %s: %w", s.storeName, err)
			}
		}

		for _, l := range s.listings {
			if listed[row.ID.String()+"/"+l.name] {
				continue
			}
			image := l.image
			if _, err := productRepo.Create(ctx, model.NewProductRow{
				SellerID:         row.ID,
				Name:             l.name,
				Category:         l.category,
				MarketplacePrice: l.marketplacePrice,
				GidersenPrice:    l.gidersenPrice,
				ImagePath:        &image,
			}); err != nil {
				return fmt.Errorf("failed to create listing %s: %w", l.name, err)
			}
			created++
		}
	}

	fmt.Printf("Seeded %d sellers, %d new listings\n", len(sellers), created)
	return nil
}

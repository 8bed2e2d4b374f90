// Package menu is the read-only view of the menu catalog used to resolve cart lines.
package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"restaurant-system/internal/core"
	"restaurant-system/internal/database"
	"restaurant-system/internal/models"
)

// Catalog looks up menu items in PostgreSQL
type Catalog struct {
	db *database.DB
}

func NewCatalog(db *database.DB) *Catalog {
	return &Catalog{db: db}
}

// GetItem returns the menu item with the given id
func (c *Catalog) GetItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := c.db.QueryRow(ctx, database.GetMenuItemSQL, id).Scan(&item.ID, &item.Name, &item.Price, &item.IsAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("menu item %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query menu item: %w", err)
	}
	return &item, nil
}

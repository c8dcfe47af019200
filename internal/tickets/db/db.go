package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-discounts/internal/models"

	"github.com/uptrace/bun"
)

// DB is the read-only catalog store. The discount engine only ever consults
// ticket types (with their event, for scope checks); it never mutates them.
type DB struct {
	Bun *bun.DB
}

// GetTicketTypeByID fetches a ticket type together with its event. Returns
// (nil, nil) when the ticket type does not exist so callers can report a
// validation failure instead of a store error.
func (d *DB) GetTicketTypeByID(ctx context.Context, id string) (*models.TicketType, error) {
	var tt models.TicketType
	err := d.Bun.NewSelect().
		Model(&tt).
		Relation("Event").
		Where("tt.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tt, nil
}

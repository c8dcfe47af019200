package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ms-discounts/internal/models"

	"github.com/uptrace/bun"
)

// ErrAlreadyRedeemed is returned when the USED transition matches no row,
// i.e. a concurrent redemption won the compare-and-swap.
var ErrAlreadyRedeemed = errors.New("courtesy code already redeemed")

type DB struct {
	Bun *bun.DB
}

// GetApprovedByCodeAndEvent resolves a courtesy code for one event. The
// compound filter (code + event + APPROVED) enforces event scoping and
// approval state in a single lookup. Returns (nil, nil) when absent.
func (d *DB) GetApprovedByCodeAndEvent(ctx context.Context, code, eventID string) (*models.CourtesyRequest, error) {
	var cr models.CourtesyRequest
	err := d.Bun.NewSelect().
		Model(&cr).
		Where("code = ?", strings.ToUpper(code)).
		Where("event_id = ?", eventID).
		Where("status = ?", models.CourtesyStatusApproved).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cr, nil
}

// ExpireRequest lazily transitions an APPROVED request to EXPIRED. The
// status guard keeps a concurrent redemption from being overwritten.
func (d *DB) ExpireRequest(ctx context.Context, id string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.CourtesyRequest)(nil)).
		Set("status = ?", models.CourtesyStatusExpired).
		Where("id = ?", id).
		Where("status = ?", models.CourtesyStatusApproved).
		Exec(ctx)
	return err
}

// MarkUsed transitions APPROVED -> USED with compare-and-swap semantics.
// Zero affected rows means another redemption got there first.
func (d *DB) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.CourtesyRequest)(nil)).
		Set("status = ?", models.CourtesyStatusUsed).
		Set("used_at = ?", usedAt).
		Where("id = ?", id).
		Where("status = ?", models.CourtesyStatusApproved).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyRedeemed
	}
	return nil
}

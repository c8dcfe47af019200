package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ms-discounts/internal/models"

	"github.com/uptrace/bun"
)

// ErrUsageLimitReached is returned when the conditional used_count increment
// matches no row, i.e. the code hit its usage limit between validation and
// recording.
var ErrUsageLimitReached = errors.New("promo code usage limit reached")

// ErrOrderNotFound is returned when the usage transaction cannot find the
// order to write discount bookkeeping onto.
var ErrOrderNotFound = errors.New("order not found")

type DB struct {
	Bun *bun.DB
}

// GetPromoCodeByCode looks a code up case-insensitively (codes are stored
// upper-cased). Returns (nil, nil) when absent.
func (d *DB) GetPromoCodeByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var pc models.PromoCode
	err := d.Bun.NewSelect().
		Model(&pc).
		Where("code = ?", strings.ToUpper(code)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &pc, nil
}

// CountUsagesByUser returns how many times a user has already redeemed the
// given promo code.
func (d *DB) CountUsagesByUser(ctx context.Context, promoCodeID, userID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.PromoCodeUsage)(nil)).
		Where("promo_code_id = ?", promoCodeID).
		Where("user_id = ?", userID).
		Count(ctx)
}

// RecordUsage commits one redemption atomically: conditional used_count
// increment, usage-row insert, and order bookkeeping update. All three
// commit together or not at all.
//
// The increment re-checks the usage limit at write time instead of trusting
// the earlier read in the validation path; two racing redemptions near the
// limit cannot both get a row affected.
func (d *DB) RecordUsage(ctx context.Context, usage models.PromoCodeUsage) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.PromoCode)(nil)).
			Set("used_count = used_count + 1").
			Where("id = ?", usage.PromoCodeID).
			Where("usage_limit IS NULL OR used_count < usage_limit").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to increment used_count: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrUsageLimitReached
		}

		if _, err := tx.NewInsert().Model(&usage).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert usage record: %w", err)
		}

		res, err = tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("original_amount = ?", usage.OriginalAmount).
			Set("discount_amount = ?", usage.DiscountAmount).
			Set("total_amount = ?", usage.FinalAmount).
			Where("id = ?", usage.OrderID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update order discount fields: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderNotFound
		}

		return nil
	})
}

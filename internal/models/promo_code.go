package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PromoCodeType string

const (
	PromoTypePercentage  PromoCodeType = "PERCENTAGE"
	PromoTypeFixedAmount PromoCodeType = "FIXED_AMOUNT"
	PromoTypeFree        PromoCodeType = "FREE"
)

type PromoCodeStatus string

const (
	PromoStatusActive   PromoCodeStatus = "ACTIVE"
	PromoStatusInactive PromoCodeStatus = "INACTIVE"
	PromoStatusExpired  PromoCodeStatus = "EXPIRED"
	PromoStatusUsedUp   PromoCodeStatus = "USED_UP"
)

// PromoCode is an organizer-created promotional code. Codes are stored
// upper-cased; lookups upper-case the input so matching stays
// case-insensitive. The scope columns (event_id, category_id,
// ticket_type_id) are each nullable; null means unrestricted on that axis.
type PromoCode struct {
	bun.BaseModel `bun:"table:promo_codes,alias:pc"`

	ID                string          `bun:"id,pk" json:"id"`
	Code              string          `bun:"code,unique,notnull" json:"code"`
	Name              string          `bun:"name,notnull" json:"name"`
	Description       string          `bun:"description,nullzero" json:"description,omitempty"`
	Type              PromoCodeType   `bun:"type,notnull" json:"type"`
	Value             float64         `bun:"value,notnull" json:"value"`
	Currency          string          `bun:"currency,notnull" json:"currency"`
	Status            PromoCodeStatus `bun:"status,notnull" json:"status"`
	ValidFrom         time.Time       `bun:"valid_from,notnull" json:"valid_from"`
	ValidUntil        *time.Time      `bun:"valid_until" json:"valid_until,omitempty"`
	UsageLimit        *int            `bun:"usage_limit" json:"usage_limit,omitempty"`
	UsageLimitPerUser *int            `bun:"usage_limit_per_user" json:"usage_limit_per_user,omitempty"`
	UsedCount         int             `bun:"used_count,notnull,default:0" json:"used_count"`
	MinOrderAmount    *int64          `bun:"min_order_amount" json:"min_order_amount,omitempty"`
	MaxDiscountAmount *int64          `bun:"max_discount_amount" json:"max_discount_amount,omitempty"`
	EventID           *string         `bun:"event_id" json:"event_id,omitempty"`
	CategoryID        *string         `bun:"category_id" json:"category_id,omitempty"`
	TicketTypeID      *string         `bun:"ticket_type_id" json:"ticket_type_id,omitempty"`
	CreatedAt         time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// PromoCodeUsage is written exactly once per successful redemption, in the
// same transaction as the used_count increment and the order update.
// Immutable after creation.
type PromoCodeUsage struct {
	bun.BaseModel `bun:"table:promo_code_usages,alias:pcu"`

	ID             string    `bun:"id,pk" json:"id"`
	PromoCodeID    string    `bun:"promo_code_id,notnull" json:"promo_code_id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	OrderID        string    `bun:"order_id,notnull" json:"order_id"`
	DiscountAmount int64     `bun:"discount_amount,notnull" json:"discount_amount"`
	OriginalAmount int64     `bun:"original_amount,notnull" json:"original_amount"`
	FinalAmount    int64     `bun:"final_amount,notnull" json:"final_amount"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	PromoCode *PromoCode `bun:"rel:belongs-to,join:promo_code_id=id" json:"-"`
}

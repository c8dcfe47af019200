package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is owned by the checkout flow; the discount engine only writes its
// discount bookkeeping columns (original_amount, discount_amount,
// total_amount) inside the promo usage transaction.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID             string    `bun:"id,pk" json:"id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	TicketTypeID   string    `bun:"ticket_type_id,notnull" json:"ticket_type_id"`
	Quantity       int       `bun:"quantity,notnull" json:"quantity"`
	Status         string    `bun:"status,notnull" json:"status"`
	OriginalAmount int64     `bun:"original_amount,notnull,default:0" json:"original_amount"`
	DiscountAmount int64     `bun:"discount_amount,notnull,default:0" json:"discount_amount"`
	TotalAmount    int64     `bun:"total_amount,notnull,default:0" json:"total_amount"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

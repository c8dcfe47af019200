package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EventCategory groups events (concerts, conferences, ...). Promo codes can
// be scoped to a category.
type EventCategory struct {
	bun.BaseModel `bun:"table:event_categories,alias:ec"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID         string    `bun:"id,pk" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	CategoryID string    `bun:"category_id,notnull" json:"category_id"`
	StartDate  time.Time `bun:"start_date,notnull" json:"start_date"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Category *EventCategory `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
}

// TicketType is read-only pricing input for the discount engine. Price is in
// integer currency units.
type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types,alias:tt"`

	ID        string    `bun:"id,pk" json:"id"`
	EventID   string    `bun:"event_id,notnull" json:"event_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Price     int64     `bun:"price,notnull" json:"price"`
	Currency  string    `bun:"currency,notnull" json:"currency"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
}

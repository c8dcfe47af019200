package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CourtesyCodeType string

const (
	CourtesyTypeFree     CourtesyCodeType = "FREE"
	CourtesyTypeDiscount CourtesyCodeType = "DISCOUNT"
)

type CourtesyStatus string

const (
	CourtesyStatusPending  CourtesyStatus = "PENDING"
	CourtesyStatusApproved CourtesyStatus = "APPROVED"
	CourtesyStatusRejected CourtesyStatus = "REJECTED"
	CourtesyStatusUsed     CourtesyStatus = "USED"
	CourtesyStatusExpired  CourtesyStatus = "EXPIRED"
)

// CourtesyRequest doubles as the courtesy code record. The code column is
// null until an organizer approves the request and assigns one. Courtesy
// codes are bearer tokens: single-use, always scoped to one event, not
// bound to a user account.
type CourtesyRequest struct {
	bun.BaseModel `bun:"table:courtesy_requests,alias:cr"`

	ID            string           `bun:"id,pk" json:"id"`
	Code          *string          `bun:"code,unique" json:"code,omitempty"`
	CodeType      CourtesyCodeType `bun:"code_type,notnull" json:"code_type"`
	DiscountValue int64            `bun:"discount_value,notnull,default:0" json:"discount_value"`
	Status        CourtesyStatus   `bun:"status,notnull" json:"status"`
	ExpiresAt     *time.Time       `bun:"expires_at" json:"expires_at,omitempty"`
	UsedAt        *time.Time       `bun:"used_at" json:"used_at,omitempty"`
	EventID       string           `bun:"event_id,notnull" json:"event_id"`
	CreatedAt     time.Time        `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

package models

import "time"

// CodeKind tags which namespace a resolved code came from.
type CodeKind string

const (
	CodeKindPromo    CodeKind = "PROMO_CODE"
	CodeKindCourtesy CodeKind = "COURTESY_CODE"
)

// DiscountResult is the normalized outcome of resolving a code against a
// ticket purchase. Validation failures are carried in Error with
// IsValid=false; they are never returned as Go errors.
type DiscountResult struct {
	IsValid            bool     `json:"is_valid"`
	Error              string   `json:"error,omitempty"`
	Type               CodeKind `json:"type,omitempty"`
	Code               string   `json:"code,omitempty"`
	Name               string   `json:"name,omitempty"`
	Description        string   `json:"description,omitempty"`
	DiscountAmount     int64    `json:"discount_amount"`
	FinalAmount        int64    `json:"final_amount"`
	DiscountPercentage float64  `json:"discount_percentage"`

	PromoCode *PromoCode       `json:"-"`
	Courtesy  *CourtesyRequest `json:"-"`
}

// InvalidDiscount builds a failed result carrying a single user-facing
// message.
func InvalidDiscount(reason string) *DiscountResult {
	return &DiscountResult{IsValid: false, Error: reason}
}

// DiscountRedeemedEvent is published to Kafka after usage recording commits.
type DiscountRedeemedEvent struct {
	Type           CodeKind  `json:"type"`
	Code           string    `json:"code"`
	UserID         string    `json:"user_id"`
	OrderID        string    `json:"order_id"`
	DiscountAmount int64     `json:"discount_amount"`
	OriginalAmount int64     `json:"original_amount"`
	FinalAmount    int64     `json:"final_amount"`
	RedeemedAt     time.Time `json:"redeemed_at"`
}

package promocode

import (
	"context"
	"fmt"
	"time"

	"ms-discounts/internal/discount"
	"ms-discounts/internal/logger"
	"ms-discounts/internal/models"
)

type DBLayer interface {
	GetPromoCodeByCode(ctx context.Context, code string) (*models.PromoCode, error)
	CountUsagesByUser(ctx context.Context, promoCodeID, userID string) (int, error)
	RecordUsage(ctx context.Context, usage models.PromoCodeUsage) error
}

type TicketTypeStore interface {
	GetTicketTypeByID(ctx context.Context, id string) (*models.TicketType, error)
}

// Service validates promo codes against a ticket purchase. Validation is
// side-effect free; used_count moves only through RecordUsage so a
// validation attempt can always be retried.
type Service struct {
	DB      DBLayer
	Tickets TicketTypeStore
	Logger  *logger.Logger
}

func NewService(db DBLayer, tickets TicketTypeStore, log *logger.Logger) *Service {
	return &Service{DB: db, Tickets: tickets, Logger: log}
}

// Validate runs the ordered promo checks and returns a structured result.
// Validation failures come back as IsValid=false with a single user-facing
// message; a non-nil error means the store itself failed.
func (s *Service) Validate(ctx context.Context, code, userID, ticketTypeID string, quantity int) (*models.DiscountResult, error) {
	promo, err := s.DB.GetPromoCodeByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up promo code: %w", err)
	}
	if promo == nil {
		return models.InvalidDiscount("code not found"), nil
	}

	if promo.Status != models.PromoStatusActive {
		return models.InvalidDiscount("code is not active"), nil
	}

	now := time.Now()
	if now.Before(promo.ValidFrom) {
		return models.InvalidDiscount("code is not yet valid"), nil
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return models.InvalidDiscount("code has expired"), nil
	}

	if promo.UsageLimit != nil && promo.UsedCount >= *promo.UsageLimit {
		return models.InvalidDiscount("code usage limit reached"), nil
	}

	if promo.UsageLimitPerUser != nil {
		priorUsages, err := s.DB.CountUsagesByUser(ctx, promo.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count prior usages: %w", err)
		}
		if priorUsages >= *promo.UsageLimitPerUser {
			return models.InvalidDiscount("per-user usage limit reached"), nil
		}
	}

	ticketType, err := s.Tickets.GetTicketTypeByID(ctx, ticketTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ticket type: %w", err)
	}
	if ticketType == nil {
		return models.InvalidDiscount("ticket type not found"), nil
	}

	if promo.EventID != nil && *promo.EventID != ticketType.EventID {
		return models.InvalidDiscount("code is not valid for this event"), nil
	}
	if promo.CategoryID != nil && (ticketType.Event == nil || *promo.CategoryID != ticketType.Event.CategoryID) {
		return models.InvalidDiscount("code is not valid for this category"), nil
	}
	if promo.TicketTypeID != nil && *promo.TicketTypeID != ticketTypeID {
		return models.InvalidDiscount("code is not valid for this ticket type"), nil
	}

	totalBaseAmount := ticketType.Price * int64(quantity)
	if promo.MinOrderAmount != nil && totalBaseAmount < *promo.MinOrderAmount {
		return models.InvalidDiscount(fmt.Sprintf(
			"minimum order amount of %d %s not met", *promo.MinOrderAmount, promo.Currency)), nil
	}

	perTicketDiscount, perTicketFinal := discount.PerTicket(ticketType.Price, discount.Rule{
		Type:              promo.Type,
		Value:             promo.Value,
		MaxDiscountAmount: promo.MaxDiscountAmount,
	})
	totalDiscount := perTicketDiscount * int64(quantity)
	totalFinal := perTicketFinal * int64(quantity)

	return &models.DiscountResult{
		IsValid:            true,
		Type:               models.CodeKindPromo,
		Code:               promo.Code,
		Name:               promo.Name,
		Description:        promo.Description,
		DiscountAmount:     totalDiscount,
		FinalAmount:        totalFinal,
		DiscountPercentage: discount.Percentage(totalDiscount, totalBaseAmount),
		PromoCode:          promo,
	}, nil
}

// RecordUsage writes one redemption through the store's single-transaction
// primitive (used_count increment + usage row + order update).
func (s *Service) RecordUsage(ctx context.Context, usage models.PromoCodeUsage) error {
	if err := s.DB.RecordUsage(ctx, usage); err != nil {
		return fmt.Errorf("failed to record promo code usage: %w", err)
	}
	if s.Logger != nil {
		s.Logger.LogDiscount("REDEEM", usage.PromoCodeID,
			fmt.Sprintf("usage recorded for order %s", usage.OrderID))
	}
	return nil
}

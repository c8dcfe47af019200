package courtesy

import (
	"context"
	"fmt"
	"time"

	"ms-discounts/internal/discount"
	"ms-discounts/internal/logger"
	"ms-discounts/internal/models"
)

type DBLayer interface {
	GetApprovedByCodeAndEvent(ctx context.Context, code, eventID string) (*models.CourtesyRequest, error)
	ExpireRequest(ctx context.Context, id string) error
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
}

type TicketTypeStore interface {
	GetTicketTypeByID(ctx context.Context, id string) (*models.TicketType, error)
}

// Service validates courtesy codes. Courtesy codes are bearer tokens scoped
// to a single event; no user identity is checked.
type Service struct {
	DB      DBLayer
	Tickets TicketTypeStore
	Logger  *logger.Logger
}

func NewService(db DBLayer, tickets TicketTypeStore, log *logger.Logger) *Service {
	return &Service{DB: db, Tickets: tickets, Logger: log}
}

// Validate resolves a courtesy code against the ticket's event. Validation
// is read-only except for one sanctioned side effect: an APPROVED request
// past its expiry is transitioned to EXPIRED here, because expiry is a
// time-triggered transition with no other clock.
func (s *Service) Validate(ctx context.Context, code, ticketTypeID string, quantity int) (*models.DiscountResult, error) {
	ticketType, err := s.Tickets.GetTicketTypeByID(ctx, ticketTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ticket type: %w", err)
	}
	if ticketType == nil {
		return models.InvalidDiscount("ticket type not found"), nil
	}

	request, err := s.DB.GetApprovedByCodeAndEvent(ctx, code, ticketType.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up courtesy code: %w", err)
	}
	if request == nil {
		return models.InvalidDiscount("code not found or not valid"), nil
	}

	if request.ExpiresAt != nil && time.Now().After(*request.ExpiresAt) {
		if err := s.DB.ExpireRequest(ctx, request.ID); err != nil {
			return nil, fmt.Errorf("failed to expire courtesy request: %w", err)
		}
		if s.Logger != nil {
			s.Logger.LogDiscount("EXPIRE", request.ID, "approved courtesy code lazily expired")
		}
		return models.InvalidDiscount("code has expired"), nil
	}

	// Unreachable given the APPROVED filter above, kept as a guard against
	// a concurrent redemption landing between lookup and here.
	if request.Status == models.CourtesyStatusUsed {
		return models.InvalidDiscount("code has already been used"), nil
	}

	var perTicketDiscount int64
	var description string
	switch request.CodeType {
	case models.CourtesyTypeFree:
		perTicketDiscount = ticketType.Price
		description = "Free admission"
	case models.CourtesyTypeDiscount:
		perTicketDiscount = request.DiscountValue
		if perTicketDiscount > ticketType.Price {
			perTicketDiscount = ticketType.Price
		}
		if perTicketDiscount < 0 {
			perTicketDiscount = 0
		}
		description = fmt.Sprintf("Discount of %d %s", request.DiscountValue, ticketType.Currency)
	default:
		perTicketDiscount = 0
	}

	totalBaseAmount := ticketType.Price * int64(quantity)
	totalDiscount := perTicketDiscount * int64(quantity)
	totalFinal := (ticketType.Price - perTicketDiscount) * int64(quantity)

	codeValue := ""
	if request.Code != nil {
		codeValue = *request.Code
	}

	return &models.DiscountResult{
		IsValid:            true,
		Type:               models.CodeKindCourtesy,
		Code:               codeValue,
		Name:               "Courtesy code",
		Description:        description,
		DiscountAmount:     totalDiscount,
		FinalAmount:        totalFinal,
		DiscountPercentage: discount.Percentage(totalDiscount, totalBaseAmount),
		Courtesy:           request,
	}, nil
}

// Redeem marks a courtesy request USED. The store enforces compare-and-swap
// on the APPROVED status, so double redemption surfaces as an error here.
func (s *Service) Redeem(ctx context.Context, requestID string) error {
	if err := s.DB.MarkUsed(ctx, requestID, time.Now()); err != nil {
		return fmt.Errorf("failed to redeem courtesy code: %w", err)
	}
	if s.Logger != nil {
		s.Logger.LogDiscount("REDEEM", requestID, "courtesy request marked used")
	}
	return nil
}

package discount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-discounts/internal/logger"
	"ms-discounts/internal/models"

	"github.com/google/uuid"
)

// ErrInvalidResult is returned when usage recording is attempted with a
// failed validation result.
var ErrInvalidResult = errors.New("cannot record usage for an invalid discount result")

// ErrRedemptionInProgress is returned when another request currently holds
// the redemption lock for the same courtesy code.
var ErrRedemptionInProgress = errors.New("redemption already in progress for this code")

type PromoValidator interface {
	Validate(ctx context.Context, code, userID, ticketTypeID string, quantity int) (*models.DiscountResult, error)
	RecordUsage(ctx context.Context, usage models.PromoCodeUsage) error
}

type CourtesyValidator interface {
	Validate(ctx context.Context, code, ticketTypeID string, quantity int) (*models.DiscountResult, error)
	Redeem(ctx context.Context, requestID string) error
}

type RedemptionLock interface {
	LockCode(code, orderID string) (bool, error)
	UnlockCode(code, orderID string) error
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

// Service is the unified discount resolver: promo codes are the primary
// namespace, courtesy codes the fallback. Both come back in the same
// normalized result shape.
type Service struct {
	Promo       PromoValidator
	Courtesy    CourtesyValidator
	Lock        RedemptionLock
	Kafka       Publisher
	RedeemTopic string
	Logger      *logger.Logger
}

func NewService(promo PromoValidator, courtesy CourtesyValidator, lock RedemptionLock, kafka Publisher, redeemTopic string, log *logger.Logger) *Service {
	return &Service{
		Promo:       promo,
		Courtesy:    courtesy,
		Lock:        lock,
		Kafka:       kafka,
		RedeemTopic: redeemTopic,
		Logger:      log,
	}
}

// Resolve tries the promo namespace first and falls back to courtesy codes.
// When both reject the code, the promo validator's message is the one
// surfaced (codes must not collide across the two namespaces, or the promo
// message masks the courtesy reason).
func (s *Service) Resolve(ctx context.Context, code, userID, ticketTypeID string, quantity int) (*models.DiscountResult, error) {
	promoResult, err := s.Promo.Validate(ctx, code, userID, ticketTypeID, quantity)
	if err != nil {
		return nil, err
	}
	if promoResult.IsValid {
		return promoResult, nil
	}

	courtesyResult, err := s.Courtesy.Validate(ctx, code, ticketTypeID, quantity)
	if err != nil {
		return nil, err
	}
	if courtesyResult.IsValid {
		return courtesyResult, nil
	}

	return promoResult, nil
}

// ApplyUsage records a redemption after the order is otherwise confirmed.
// Any error here means the payment succeeded but discount bookkeeping
// failed; it is propagated so the caller can alert operators, and never
// rolls the payment back.
func (s *Service) ApplyUsage(ctx context.Context, result *models.DiscountResult, userID, orderID string, originalAmount, finalAmount int64) error {
	if result == nil || !result.IsValid {
		return ErrInvalidResult
	}

	switch result.Type {
	case models.CodeKindPromo:
		if result.PromoCode == nil {
			return fmt.Errorf("promo result for %q carries no code record", result.Code)
		}
		usage := models.PromoCodeUsage{
			ID:             uuid.New().String(),
			PromoCodeID:    result.PromoCode.ID,
			UserID:         userID,
			OrderID:        orderID,
			DiscountAmount: originalAmount - finalAmount,
			OriginalAmount: originalAmount,
			FinalAmount:    finalAmount,
			CreatedAt:      time.Now(),
		}
		if err := s.Promo.RecordUsage(ctx, usage); err != nil {
			return err
		}

	case models.CodeKindCourtesy:
		if result.Courtesy == nil {
			return fmt.Errorf("courtesy result for %q carries no request record", result.Code)
		}
		// Short-TTL lock over the code, belt on top of the store-level
		// compare-and-swap in MarkUsed.
		if s.Lock != nil {
			locked, err := s.Lock.LockCode(result.Code, orderID)
			if err != nil {
				return fmt.Errorf("redis lock error: %w", err)
			}
			if !locked {
				return ErrRedemptionInProgress
			}
			defer func() {
				if err := s.Lock.UnlockCode(result.Code, orderID); err != nil && s.Logger != nil {
					s.Logger.Error("DISCOUNT", fmt.Sprintf("failed to release redemption lock for %s: %v", result.Code, err))
				}
			}()
		}
		if err := s.Courtesy.Redeem(ctx, result.Courtesy.ID); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown discount code kind: %s", result.Type)
	}

	s.publishRedeemed(result, userID, orderID, originalAmount, finalAmount)
	return nil
}

// publishRedeemed streams the redemption to Kafka, fire-and-forget. A
// publish failure is logged, never surfaced: the bookkeeping already
// committed.
func (s *Service) publishRedeemed(result *models.DiscountResult, userID, orderID string, originalAmount, finalAmount int64) {
	if s.Kafka == nil {
		return
	}

	event := models.DiscountRedeemedEvent{
		Type:           result.Type,
		Code:           result.Code,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: originalAmount - finalAmount,
		OriginalAmount: originalAmount,
		FinalAmount:    finalAmount,
		RedeemedAt:     time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("failed to marshal redeemed event: %v", err))
		}
		return
	}

	if err := s.Kafka.Publish(s.RedeemTopic, result.Code, value); err != nil {
		if s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish redeemed event for %s: %v", result.Code, err))
		}
		return
	}

	if s.Logger != nil {
		s.Logger.LogKafka("PUBLISH", s.RedeemTopic, fmt.Sprintf("redeemed event for order %s", orderID))
	}
}

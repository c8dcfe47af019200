package discount

import (
	"ms-discounts/internal/models"

	"github.com/shopspring/decimal"
)

// Rule is the per-ticket discount rule fed to the calculator. Value carries
// percentage points for PERCENTAGE and a currency amount for FIXED_AMOUNT.
type Rule struct {
	Type              models.PromoCodeType
	Value             float64
	MaxDiscountAmount *int64
}

// PerTicket computes the discount for a single ticket at the given base
// price (integer currency units). This is the only arithmetic primitive:
// multi-ticket totals are always perTicket * quantity, never a discount on a
// pre-multiplied total. Results are rounded half-up and clamped so that
// 0 <= discount <= price and discount + final == price, even for negative
// rule values.
func PerTicket(price int64, rule Rule) (discountAmount, finalAmount int64) {
	p := decimal.NewFromInt(price)

	var raw decimal.Decimal
	switch rule.Type {
	case models.PromoTypePercentage:
		raw = p.Mul(decimal.NewFromFloat(rule.Value)).Div(decimal.NewFromInt(100))
		if rule.MaxDiscountAmount != nil {
			if capped := decimal.NewFromInt(*rule.MaxDiscountAmount); raw.GreaterThan(capped) {
				raw = capped
			}
		}
	case models.PromoTypeFixedAmount:
		// Fixed amount is a per-ticket cap, not applied once to the order
		// total. See the regression test pinning this.
		raw = decimal.NewFromFloat(rule.Value)
		if raw.GreaterThan(p) {
			raw = p
		}
	case models.PromoTypeFree:
		raw = p
	default:
		raw = decimal.Zero
	}

	if raw.IsNegative() {
		raw = decimal.Zero
	}
	if raw.GreaterThan(p) {
		raw = p
	}

	discountAmount = raw.Round(0).IntPart()
	if discountAmount < 0 {
		discountAmount = 0
	}
	if discountAmount > price {
		discountAmount = price
	}
	return discountAmount, price - discountAmount
}

// Percentage returns the effective discount share of the base amount, in
// percent, rounded to two decimals. Zero base yields zero.
func Percentage(discountAmount, baseAmount int64) float64 {
	if baseAmount == 0 {
		return 0
	}
	pct := decimal.NewFromInt(discountAmount).
		Div(decimal.NewFromInt(baseAmount)).
		Mul(decimal.NewFromInt(100))
	return pct.Round(2).InexactFloat64()
}

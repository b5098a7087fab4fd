// Package pricing resolves what a customer pays for a product line.
//
// Three candidates compete: the sale price, the regular price reduced by the
// product discount, and the regular price reduced by the best running offer.
// The lowest wins; on a tie the earlier candidate is kept.
package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

var (
	ErrCouponInactive     = errors.New("coupon is not active")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrCouponMinPurchase  = errors.New("order does not meet the coupon minimum purchase")
	ErrDiscountOutOfRange = errors.New("discount must be between 0 and 100")
)

var hundred = decimal.NewFromInt(100)

// Source names the candidate that produced the final price.
type Source string

const (
	SourceRegular Source = "regular"
	SourceSale    Source = "sale"
	SourceProduct Source = "product_discount"
	SourceOffer   Source = "offer"
)

// Line is the input for one product line. A zero SalePrice means there is none.
type Line struct {
	RegularPrice    decimal.Decimal
	DiscountPercent decimal.Decimal
	SalePrice       decimal.Decimal
	Offers          []domain.Offer
}

// Result is the resolved unit price.
type Result struct {
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Source          Source          `json:"source"`
	OfferID         int64           `json:"offer_id,omitempty"`
}

// LineFor builds the pricing input for p with every offer that targets it.
func LineFor(p domain.Product, offers []domain.Offer) Line {
	l := Line{
		RegularPrice:    p.RegularPrice,
		DiscountPercent: p.DiscountPercent,
		SalePrice:       p.SalePrice(),
	}
	for _, o := range offers {
		if o.AppliesTo(p) {
			l.Offers = append(l.Offers, o)
		}
	}
	return l
}

// BestOffer returns the highest discount among offers valid at now.
func BestOffer(offers []domain.Offer, now time.Time) (domain.Offer, bool) {
	var best domain.Offer
	found := false
	for _, o := range offers {
		if !o.ValidAt(now) {
			continue
		}
		if !found || o.DiscountPercent.GreaterThan(best.DiscountPercent) {
			best = o
			found = true
		}
	}
	return best, found
}

// Resolve returns the minimum price for the line at now. It never exceeds the regular price.
func Resolve(l Line, now time.Time) Result {
	regular := l.RegularPrice.Round(2)
	best := Result{Price: regular, DiscountPercent: decimal.Zero, Source: SourceRegular}

	consider := func(c Result) {
		if c.Price.LessThan(best.Price) {
			best = c
		}
	}

	if l.SalePrice.IsPositive() {
		consider(Result{
			Price:           l.SalePrice.Round(2),
			DiscountPercent: percentOff(regular, l.SalePrice),
			Source:          SourceSale,
		})
	}
	if l.DiscountPercent.IsPositive() {
		consider(Result{
			Price:           discounted(regular, l.DiscountPercent),
			DiscountPercent: l.DiscountPercent,
			Source:          SourceProduct,
		})
	}
	if o, ok := BestOffer(l.Offers, now); ok && o.DiscountPercent.IsPositive() {
		consider(Result{
			Price:           discounted(regular, o.DiscountPercent),
			DiscountPercent: o.DiscountPercent,
			Source:          SourceOffer,
			OfferID:         o.ID,
		})
	}
	return best
}

// Subtotal is unit price × quantity rounded to paise.
func Subtotal(price decimal.Decimal, qty int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(qty)).Round(2)
}

// CouponDiscount validates c against subtotal at now and returns the amount taken off.
func CouponDiscount(c domain.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !c.Active {
		return decimal.Zero, ErrCouponInactive
	}
	if now.After(c.ExpiresAt) {
		return decimal.Zero, ErrCouponExpired
	}
	if c.Exhausted() {
		return decimal.Zero, ErrCouponExhausted
	}
	if subtotal.LessThan(c.MinPurchase) {
		return decimal.Zero, ErrCouponMinPurchase
	}
	d := subtotal.Mul(c.DiscountPercent).Div(hundred).Round(2)
	if c.MaxDiscount.IsPositive() && d.GreaterThan(c.MaxDiscount) {
		d = c.MaxDiscount
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d, nil
}

// Prorate splits discount over parts proportionally; rounding drift lands on the last part.
func Prorate(discount decimal.Decimal, parts []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(parts))
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p)
	}
	if discount.IsZero() || total.IsZero() {
		for i := range out {
			out[i] = decimal.Zero
		}
		return out
	}
	assigned := decimal.Zero
	for i, p := range parts {
		if i == len(parts)-1 {
			out[i] = discount.Sub(assigned)
			break
		}
		out[i] = discount.Mul(p).Div(total).Round(2)
		assigned = assigned.Add(out[i])
	}
	return out
}

// ValidateDiscount checks a percentage is within [0, 100].
func ValidateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return ErrDiscountOutOfRange
	}
	return nil
}

func discounted(regular, pct decimal.Decimal) decimal.Decimal {
	if pct.GreaterThanOrEqual(hundred) {
		return decimal.Zero
	}
	return regular.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

func percentOff(regular, price decimal.Decimal) decimal.Decimal {
	if !regular.IsPositive() || price.GreaterThanOrEqual(regular) {
		return decimal.Zero
	}
	return regular.Sub(price).Mul(hundred).Div(regular).Round(2)
}

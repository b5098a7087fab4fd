package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantityPerLine caps the quantity of one product/size in a cart or order line.
const MaxQuantityPerLine = 5

// MaxProductImages caps the ordered image list of a product.
const MaxProductImages = 5

var (
	ErrUnknownSize       = errors.New("size not available")
	ErrInsufficientStock = errors.New("not enough stock")
)

var hundred = decimal.NewFromInt(100)

// Category groups products; inactive categories hide their products from the shop.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SizeStock is the available quantity of one size.
type SizeStock struct {
	Size     string `json:"size"`
	Quantity int64  `json:"quantity"`
}

// Product is a catalog entry.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CategoryID      int64           `json:"category_id"`
	Images          []string        `json:"images"`
	RegularPrice    decimal.Decimal `json:"regular_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Sizes           []SizeStock     `json:"sizes"`
	Active          bool            `json:"active"`
	OfferID         *int64          `json:"offer_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SalePrice is the regular price reduced by the product's own discount.
func (p Product) SalePrice() decimal.Decimal {
	if p.DiscountPercent.IsZero() {
		return p.RegularPrice
	}
	return p.RegularPrice.Mul(hundred.Sub(p.DiscountPercent)).Div(hundred).Round(2)
}

// Stock returns the quantity available for size.
func (p Product) Stock(size string) (int64, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Quantity, true
		}
	}
	return 0, false
}

// TotalStock sums all sizes.
func (p Product) TotalStock() int64 {
	var n int64
	for _, s := range p.Sizes {
		n += s.Quantity
	}
	return n
}

// AdjustStock adds delta (negative to reserve) to the size quantity.
func (p *Product) AdjustStock(size string, delta int64) error {
	for i := range p.Sizes {
		if p.Sizes[i].Size != size {
			continue
		}
		if p.Sizes[i].Quantity+delta < 0 {
			return ErrInsufficientStock
		}
		p.Sizes[i].Quantity += delta
		return nil
	}
	return ErrUnknownSize
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	cp := p
	cp.Images = append([]string(nil), p.Images...)
	cp.Sizes = append([]SizeStock(nil), p.Sizes...)
	if p.OfferID != nil {
		id := *p.OfferID
		cp.OfferID = &id
	}
	return cp
}

// OfferTarget says what an offer applies to.
type OfferTarget string

const (
	OfferTargetProduct  OfferTarget = "product"
	OfferTargetCategory OfferTarget = "category"
)

// Offer is a time-bound promotional discount attached to a product or category.
type Offer struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	TargetType      OfferTarget     `json:"target_type"`
	TargetID        int64           `json:"target_id"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ValidAt reports whether the offer is active and inside its validity window.
func (o Offer) ValidAt(t time.Time) bool {
	return o.Active && !t.Before(o.StartsAt) && !t.After(o.EndsAt)
}

// AppliesTo reports whether the offer targets p.
func (o Offer) AppliesTo(p Product) bool {
	if p.OfferID != nil && *p.OfferID == o.ID {
		return true
	}
	switch o.TargetType {
	case OfferTargetProduct:
		return o.TargetID == p.ID
	case OfferTargetCategory:
		return o.TargetID == p.CategoryID
	}
	return false
}

// Coupon is a code redeemable at checkout for a percentage off the subtotal.
type Coupon struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	Description     string          `json:"description"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MinPurchase     decimal.Decimal `json:"min_purchase"`
	MaxDiscount     decimal.Decimal `json:"max_discount"`
	UsageLimit      int64           `json:"usage_limit"`
	UsedCount       int64           `json:"used_count"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Exhausted reports whether the usage limit has been reached. Zero limit means unlimited.
func (c Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}

package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// PromotionService manages offers and coupons.
type PromotionService struct {
	offers     repository.OfferRepository
	coupons    repository.CouponRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	now        Clock
}

func NewPromotionService(offers repository.OfferRepository, coupons repository.CouponRepository,
	products repository.ProductRepository, categories repository.CategoryRepository) *PromotionService {
	return &PromotionService{offers: offers, coupons: coupons, products: products, categories: categories, now: systemClock}
}

var one = decimal.NewFromInt(1)

func percentInRange(p decimal.Decimal) bool {
	return p.GreaterThanOrEqual(one) && p.LessThanOrEqual(decimal.NewFromInt(100))
}

// OfferInput describes an offer.
type OfferInput struct {
	Name            string
	DiscountPercent decimal.Decimal
	StartsAt        time.Time
	EndsAt          time.Time
	TargetType      domain.OfferTarget
	TargetID        int64
	Active          *bool
}

func (s *PromotionService) validateOffer(ctx context.Context, in OfferInput) error {
	if blank(in.Name) {
		return invalid("offer name is required")
	}
	if !percentInRange(in.DiscountPercent) {
		return invalid("offer discount must be between 1 and 100")
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		return invalid("offer start and end dates are required")
	}
	if !in.EndsAt.After(in.StartsAt) {
		return invalid("end date must be after start date")
	}
	var err error
	switch in.TargetType {
	case domain.OfferTargetProduct:
		_, err = s.products.GetByID(ctx, in.TargetID)
	case domain.OfferTargetCategory:
		_, err = s.categories.GetByID(ctx, in.TargetID)
	default:
		return invalid("offer target must be product or category")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("offer target %s %d does not exist", in.TargetType, in.TargetID)
	}
	return err
}

func (in OfferInput) apply(o *domain.Offer) {
	o.Name = strings.TrimSpace(in.Name)
	o.DiscountPercent = in.DiscountPercent
	o.StartsAt = in.StartsAt.UTC()
	o.EndsAt = in.EndsAt.UTC()
	o.TargetType = in.TargetType
	o.TargetID = in.TargetID
	if in.Active != nil {
		o.Active = *in.Active
	}
}

func (s *PromotionService) CreateOffer(ctx context.Context, in OfferInput) (*domain.Offer, error) {
	if err := s.validateOffer(ctx, in); err != nil {
		return nil, err
	}
	o := domain.Offer{Active: true}
	in.apply(&o)
	if err := s.offers.Create(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PromotionService) UpdateOffer(ctx context.Context, id int64, in OfferInput) (*domain.Offer, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.validateOffer(ctx, in); err != nil {
		return nil, err
	}
	o, err := s.offers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(o)
	if err := s.offers.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PromotionService) DeleteOffer(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.offers.Delete(ctx, id)
}

// ListOffers returns every offer, or only those running now.
func (s *PromotionService) ListOffers(ctx context.Context, runningOnly bool) ([]domain.Offer, error) {
	list, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	if !runningOnly {
		return list, nil
	}
	now := s.now()
	out := make([]domain.Offer, 0, len(list))
	for _, o := range list {
		if o.ValidAt(now) {
			out = append(out, o)
		}
	}
	return out, nil
}

// OffersForProduct lists the running offers that target the product or its category.
func (s *PromotionService) OffersForProduct(ctx context.Context, productID int64) ([]domain.Offer, error) {
	if productID <= 0 {
		return nil, ErrInvalidInput
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	book, err := loadPriceBook(ctx, s.offers, s.now())
	if err != nil {
		return nil, err
	}
	return book.offersFor(*p), nil
}

// CouponInput describes a coupon.
type CouponInput struct {
	Code            string
	Description     string
	DiscountPercent decimal.Decimal
	MinPurchase     decimal.Decimal
	MaxDiscount     decimal.Decimal
	UsageLimit      int64
	ExpiresAt       time.Time
}

var couponCodeRe = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

func (s *PromotionService) CreateCoupon(ctx context.Context, in CouponInput) (*domain.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if !couponCodeRe.MatchString(code) {
		return nil, invalid("coupon code must be 3-20 letters or digits")
	}
	if !percentInRange(in.DiscountPercent) {
		return nil, invalid("coupon discount must be between 1 and 100")
	}
	if in.MinPurchase.IsNegative() || in.MaxDiscount.IsNegative() {
		return nil, invalid("coupon amounts must not be negative")
	}
	if in.UsageLimit < 0 {
		return nil, invalid("usage limit must not be negative")
	}
	if !in.ExpiresAt.After(s.now()) {
		return nil, invalid("expiry must be in the future")
	}
	c := domain.Coupon{
		Code:            code,
		Description:     strings.TrimSpace(in.Description),
		DiscountPercent: in.DiscountPercent,
		MinPurchase:     in.MinPurchase,
		MaxDiscount:     in.MaxDiscount,
		UsageLimit:      in.UsageLimit,
		ExpiresAt:       in.ExpiresAt.UTC(),
		Active:          true,
	}
	if err := s.coupons.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PromotionService) DeleteCoupon(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.coupons.Delete(ctx, id)
}

// ListCoupons pages through every coupon for the admin.
func (s *PromotionService) ListCoupons(ctx context.Context, req repository.PageRequest) ([]domain.Coupon, repository.PageInfo, error) {
	list, err := s.coupons.List(ctx)
	if err != nil {
		return nil, repository.PageInfo{}, err
	}
	page, info := repository.Paginate(list, req)
	return page, info, nil
}

// AvailableCoupons lists coupons a customer can still redeem.
func (s *PromotionService) AvailableCoupons(ctx context.Context) ([]domain.Coupon, error) {
	list, err := s.coupons.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]domain.Coupon, 0, len(list))
	for _, c := range list {
		if c.Active && now.Before(c.ExpiresAt) && !c.Exhausted() {
			out = append(out, c)
		}
	}
	return out, nil
}

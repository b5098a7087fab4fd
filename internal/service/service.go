package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/pricing"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBlocked        = errors.New("User is blocked")
	ErrSessionExpired     = errors.New("Session expired, please login again")
	ErrForbidden          = errors.New("Access denied")

	ErrQuantityLimit     = fmt.Errorf("quantity must be between 1 and %d", domain.MaxQuantityPerLine)
	ErrNotEnoughStock    = errors.New("not enough stock")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnavailable       = errors.New("product is not available")
)

// Clock is the time source shared by services.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// stockErr turns domain stock errors into the service's vocabulary.
func stockErr(p *domain.Product, size string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return fmt.Errorf("%w: %s size %s", ErrNotEnoughStock, p.Name, size)
	case errors.Is(err, domain.ErrUnknownSize):
		return invalid("size %s is not offered for %s", size, p.Name)
	}
	return err
}

// priceBook resolves product prices against the offers loaded once per call.
type priceBook struct {
	offers []domain.Offer
	now    time.Time
}

func loadPriceBook(ctx context.Context, offers repository.OfferRepository, now time.Time) (priceBook, error) {
	list, err := offers.List(ctx)
	if err != nil {
		return priceBook{}, err
	}
	live := list[:0]
	for _, o := range list {
		if o.ValidAt(now) {
			live = append(live, o)
		}
	}
	return priceBook{offers: live, now: now}, nil
}

func (b priceBook) resolve(p domain.Product) pricing.Result {
	return pricing.Resolve(pricing.LineFor(p, b.offers), b.now)
}

// offersFor lists the running offers that target p.
func (b priceBook) offersFor(p domain.Product) []domain.Offer {
	out := make([]domain.Offer, 0)
	for _, o := range b.offers {
		if o.AppliesTo(p) {
			out = append(out, o)
		}
	}
	return out
}

// hiddenCategories returns the ids of inactive categories.
func hiddenCategories(ctx context.Context, categories repository.CategoryRepository) (map[int64]bool, error) {
	list, err := categories.List(ctx)
	if err != nil {
		return nil, err
	}
	hidden := make(map[int64]bool)
	for _, c := range list {
		if !c.Active {
			hidden[c.ID] = true
		}
	}
	return hidden, nil
}

// sellable reports whether p can be shown and bought.
func sellable(ctx context.Context, categories repository.CategoryRepository, p *domain.Product) (bool, error) {
	if !p.Active {
		return false, nil
	}
	c, err := categories.GetByID(ctx, p.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.Active, nil
}

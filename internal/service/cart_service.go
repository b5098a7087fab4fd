package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/pricing"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// CartService owns carts and wishlists.
type CartService struct {
	carts      repository.CartRepository
	wishlists  repository.WishlistRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	offers     repository.OfferRepository
	coupons    repository.CouponRepository
	tx         repository.TxManager
	now        Clock
}

func NewCartService(r repository.Repos) *CartService {
	return &CartService{
		carts:      r.Carts,
		wishlists:  r.Wishlists,
		products:   r.Products,
		categories: r.Categories,
		offers:     r.Offers,
		coupons:    r.Coupons,
		tx:         r.Tx,
		now:        systemClock,
	}
}

// CartLine is a cart item priced for display.
type CartLine struct {
	ProductID       int64           `json:"product_id"`
	Name            string          `json:"name"`
	Image           string          `json:"image,omitempty"`
	Size            string          `json:"size"`
	Quantity        int64           `json:"quantity"`
	RegularPrice    decimal.Decimal `json:"regular_price"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	PriceSource     pricing.Source  `json:"price_source"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Stock           int64           `json:"stock"`
	Available       bool            `json:"available"`
}

// CartView is the priced cart. Unavailable lines are shown but not counted.
type CartView struct {
	Items     []CartLine      `json:"items"`
	ItemCount int64           `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

func checkQuantity(q int64) error {
	if q < 1 || q > domain.MaxQuantityPerLine {
		return ErrQuantityLimit
	}
	return nil
}

// View prices the user's cart.
func (s *CartService) View(ctx context.Context, userID int64) (*CartView, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	book, err := loadPriceBook(ctx, s.offers, s.now())
	if err != nil {
		return nil, err
	}
	v := &CartView{Items: make([]CartLine, 0, len(cart.Items)), Subtotal: decimal.Zero, Discount: decimal.Zero}
	for _, it := range cart.Items {
		line := CartLine{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity}
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if p != nil {
			ok, err := sellable(ctx, s.categories, p)
			if err != nil {
				return nil, err
			}
			stock, hasSize := p.Stock(it.Size)
			r := book.resolve(*p)
			line.Name = p.Name
			if len(p.Images) > 0 {
				line.Image = p.Images[0]
			}
			line.RegularPrice = p.RegularPrice
			line.Price = r.Price
			line.DiscountPercent = r.DiscountPercent
			line.PriceSource = r.Source
			line.Subtotal = pricing.Subtotal(r.Price, it.Quantity)
			line.Stock = stock
			line.Available = ok && hasSize && stock >= it.Quantity
		}
		if line.Available {
			v.Subtotal = v.Subtotal.Add(line.Subtotal)
			v.ItemCount += it.Quantity
		}
		v.Items = append(v.Items, line)
	}
	v.Total = v.Subtotal
	return v, nil
}

// loadSellable fetches a product that can be put in a cart.
func (s *CartService) loadSellable(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	ok, err := sellable(ctx, s.categories, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnavailable
	}
	return p, nil
}

// Add puts qty of product/size in the cart, merging with an existing line.
// A product added to the cart leaves the wishlist.
func (s *CartService) Add(ctx context.Context, userID, productID int64, size string, qty int64) (*CartView, error) {
	size = strings.TrimSpace(size)
	if productID <= 0 || size == "" {
		return nil, invalid("product and size are required")
	}
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.loadSellable(ctx, productID)
		if err != nil {
			return err
		}
		stock, ok := p.Stock(size)
		if !ok {
			return invalid("size %s is not offered for %s", size, p.Name)
		}

		cart, err := s.carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		total := qty
		idx := cart.Find(productID, size)
		if idx >= 0 {
			total += cart.Items[idx].Quantity
		}
		if total > domain.MaxQuantityPerLine {
			return ErrQuantityLimit
		}
		if total > stock {
			return stockErr(p, size, domain.ErrInsufficientStock)
		}
		if idx >= 0 {
			cart.Items[idx].Quantity = total
		} else {
			cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Size: size, Quantity: qty, AddedAt: s.now()})
		}
		if err := s.carts.Save(ctx, cart); err != nil {
			return err
		}

		wl, err := s.wishlists.Get(ctx, userID)
		if err != nil {
			return err
		}
		if !wl.Contains(productID) {
			return nil
		}
		removeID(wl, productID)
		return s.wishlists.Save(ctx, wl)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

// UpdateQuantity sets the quantity of an existing line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID int64, size string, qty int64) (*CartView, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	size = strings.TrimSpace(size)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		idx := cart.Find(productID, size)
		if idx < 0 {
			return repository.ErrNotFound
		}
		p, err := s.loadSellable(ctx, productID)
		if err != nil {
			return err
		}
		if stock, _ := p.Stock(size); qty > stock {
			return stockErr(p, size, domain.ErrInsufficientStock)
		}
		cart.Items[idx].Quantity = qty
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, productID int64, size string) (*CartView, error) {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		idx := cart.Find(productID, strings.TrimSpace(size))
		if idx < 0 {
			return repository.ErrNotFound
		}
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.carts.Save(ctx, &domain.Cart{UserID: userID, Items: []domain.CartItem{}})
}

// CouponQuote is the effect of a coupon on the current cart.
type CouponQuote struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ApplyCoupon checks code against the cart without redeeming it.
func (s *CartService) ApplyCoupon(ctx context.Context, userID int64, code string) (*CouponQuote, error) {
	if blank(code) {
		return nil, invalid("coupon code is required")
	}
	v, err := s.View(ctx, userID)
	if err != nil {
		return nil, err
	}
	if v.ItemCount == 0 {
		return nil, ErrEmptyCart
	}
	c, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("coupon %s does not exist", strings.ToUpper(strings.TrimSpace(code)))
		}
		return nil, err
	}
	d, err := pricing.CouponDiscount(*c, v.Subtotal, s.now())
	if err != nil {
		return nil, invalid("%v", err)
	}
	return &CouponQuote{Code: c.Code, Subtotal: v.Subtotal, Discount: d, Total: v.Subtotal.Sub(d)}, nil
}

// WishlistView lists wishlisted products that still exist.
type WishlistView struct {
	Items []ProductView `json:"items"`
}

func (s *CartService) Wishlist(ctx context.Context, userID int64) (*WishlistView, error) {
	wl, err := s.wishlists.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	book, err := loadPriceBook(ctx, s.offers, s.now())
	if err != nil {
		return nil, err
	}
	out := &WishlistView{Items: make([]ProductView, 0, len(wl.ProductIDs))}
	for _, id := range wl.ProductIDs {
		p, err := s.products.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, ProductView{
			Product:    *p,
			SalePrice:  p.SalePrice(),
			Pricing:    book.resolve(*p),
			TotalStock: p.TotalStock(),
			Offers:     book.offersFor(*p),
		})
	}
	return out, nil
}

// AddToWishlist is idempotent.
func (s *CartService) AddToWishlist(ctx context.Context, userID, productID int64) (*domain.Wishlist, error) {
	if productID <= 0 {
		return nil, ErrInvalidInput
	}
	var wl *domain.Wishlist
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.loadSellable(ctx, productID); err != nil {
			return err
		}
		var err error
		wl, err = s.wishlists.Get(ctx, userID)
		if err != nil {
			return err
		}
		if wl.Contains(productID) {
			return nil
		}
		wl.ProductIDs = append(wl.ProductIDs, productID)
		return s.wishlists.Save(ctx, wl)
	})
	if err != nil {
		return nil, err
	}
	return wl, nil
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, productID int64) (*domain.Wishlist, error) {
	var wl *domain.Wishlist
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		wl, err = s.wishlists.Get(ctx, userID)
		if err != nil {
			return err
		}
		if !wl.Contains(productID) {
			return repository.ErrNotFound
		}
		removeID(wl, productID)
		return s.wishlists.Save(ctx, wl)
	})
	if err != nil {
		return nil, err
	}
	return wl, nil
}

func (s *CartService) ClearWishlist(ctx context.Context, userID int64) error {
	return s.wishlists.Save(ctx, &domain.Wishlist{UserID: userID, ProductIDs: []int64{}})
}

func removeID(wl *domain.Wishlist, productID int64) {
	out := wl.ProductIDs[:0]
	for _, id := range wl.ProductIDs {
		if id != productID {
			out = append(out, id)
		}
	}
	wl.ProductIDs = out
}

package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

var (
	// ErrNotFound is returned when the entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field (email, coupon code, category name) is taken.
	ErrConflict = errors.New("already exists")
)

// Product sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
)

// ProductFilter narrows the product list. Prices compare against the sale price.
type ProductFilter struct {
	NameSubstring string
	CategoryID    int64
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	OnlyActive    bool
	// HiddenCategories excludes products of these categories.
	HiddenCategories map[int64]bool
	Sort             string
}

// OrderFilter narrows the order list; zero values match everything.
type OrderFilter struct {
	UserID     int64
	Status     domain.OrderStatus
	From       time.Time
	To         time.Time
	WithReturn bool
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Category, error)
}

type OfferRepository interface {
	Create(ctx context.Context, o *domain.Offer) error
	GetByID(ctx context.Context, id int64) (*domain.Offer, error)
	Update(ctx context.Context, o *domain.Offer) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Offer, error)
}

type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	GetByID(ctx context.Context, id int64) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Update(ctx context.Context, c *domain.Coupon) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Coupon, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	GetByID(ctx context.Context, id int64) (*domain.Address, error)
	Update(ctx context.Context, a *domain.Address) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Address, error)
}

// CartRepository returns an empty cart for users that never added anything.
type CartRepository interface {
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
}

type WishlistRepository interface {
	Get(ctx context.Context, userID int64) (*domain.Wishlist, error)
	Save(ctx context.Context, w *domain.Wishlist) error
}

type WalletRepository interface {
	Get(ctx context.Context, userID int64) (*domain.Wallet, error)
	Save(ctx context.Context, w *domain.Wallet) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
}

// TxManager runs fn atomically. For the in-memory store this is the global write lock.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Repos bundles one implementation of every repository.
type Repos struct {
	Products   ProductRepository
	Categories CategoryRepository
	Offers     OfferRepository
	Coupons    CouponRepository
	Users      UserRepository
	Addresses  AddressRepository
	Carts      CartRepository
	Wishlists  WishlistRepository
	Wallets    WalletRepository
	Orders     OrderRepository
	Tx         TxManager
}

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/pricing"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

var (
	// ErrQuantityOutOfRange is returned before any request is sent.
	ErrQuantityOutOfRange = fmt.Errorf("quantity must be between 1 and %d", domain.MaxQuantityPerLine)
	// ErrNotAllowed means the item is in a state the action does not apply to.
	ErrNotAllowed = errors.New("action not allowed for this item")
	// ErrUnknownItem means the item id is not in the order passed in.
	ErrUnknownItem = errors.New("item is not part of the order")
)

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items      []T                 `json:"items"`
	Pagination repository.PageInfo `json:"pagination"`
}

// ProductQuery filters the catalog.
type ProductQuery struct {
	Search string
	Page   int
	Limit  int
}

func pageParams(v url.Values, page, limit int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (*Page[service.ProductView], error) {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	pageParams(v, q.Page, q.Limit)
	var out Page[service.ProductView]
	if err := c.do(ctx, http.MethodGet, withQuery("/products", v), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisplayPrice resolves what the shop shows for p given the offers it knows about.
func DisplayPrice(p domain.Product, offers []domain.Offer, now time.Time) pricing.Result {
	return pricing.Resolve(pricing.LineFor(p, offers), now)
}

func (c *Client) Cart(ctx context.Context) (*service.CartView, error) {
	var out service.CartView
	if err := c.do(ctx, http.MethodGet, "/user/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type cartLine struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

func validQuantity(qty int64) bool {
	return qty >= 1 && qty <= domain.MaxQuantityPerLine
}

func (c *Client) AddToCart(ctx context.Context, productID int64, size string, qty int64) (*service.CartView, error) {
	if !validQuantity(qty) {
		return nil, ErrQuantityOutOfRange
	}
	var out service.CartView
	if err := c.do(ctx, http.MethodPost, "/user/cart/add", cartLine{productID, size, qty}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCartQuantity(ctx context.Context, productID int64, size string, qty int64) (*service.CartView, error) {
	if !validQuantity(qty) {
		return nil, ErrQuantityOutOfRange
	}
	var out service.CartView
	if err := c.do(ctx, http.MethodPut, "/user/cart/update", cartLine{productID, size, qty}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Wishlist(ctx context.Context) (*service.WishlistView, error) {
	var out service.WishlistView
	if err := c.do(ctx, http.MethodGet, "/user/wishlist", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleWishlist adds productID when wished is false and removes it otherwise.
func (c *Client) ToggleWishlist(ctx context.Context, productID int64, wished bool) (*domain.Wishlist, error) {
	var out domain.Wishlist
	var err error
	if wished {
		err = c.do(ctx, http.MethodDelete, "/user/wishlist/remove/"+strconv.FormatInt(productID, 10), nil, &out)
	} else {
		err = c.do(ctx, http.MethodPost, "/user/wishlist/add", map[string]int64{"product_id": productID}, &out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context, page, limit int) (*Page[domain.Order], error) {
	v := url.Values{}
	pageParams(v, page, limit)
	var out Page[domain.Order]
	if err := c.do(ctx, http.MethodGet, withQuery("/user/order", v), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Order(ctx context.Context, id int64) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodGet, "/user/order/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func item(o domain.Order, itemID int64) (domain.OrderItem, error) {
	it := o.Item(itemID)
	if it == nil {
		return domain.OrderItem{}, ErrUnknownItem
	}
	return *it, nil
}

// CancelItem cancels one item, refusing locally when the order no longer allows it.
func (c *Client) CancelItem(ctx context.Context, o domain.Order, itemID int64) (*domain.Order, error) {
	it, err := item(o, itemID)
	if err != nil {
		return nil, err
	}
	if !o.CanCancelItem(it) {
		return nil, ErrNotAllowed
	}
	var out domain.Order
	path := fmt.Sprintf("/user/order/%d/items/%d/cancel", o.ID, itemID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestReturn asks for a return of a delivered item.
func (c *Client) RequestReturn(ctx context.Context, o domain.Order, itemID int64, reason string) (*domain.Order, error) {
	it, err := item(o, itemID)
	if err != nil {
		return nil, err
	}
	if !o.CanReturnItem(it) {
		return nil, ErrNotAllowed
	}
	body := map[string]any{"order_id": o.ID, "item_id": itemID, "reason": reason}
	var out domain.Order
	if err := c.do(ctx, http.MethodPost, "/user/return/request", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Wallet(ctx context.Context, page, limit int) (*service.WalletDetails, error) {
	v := url.Values{}
	pageParams(v, page, limit)
	var out service.WalletDetails
	if err := c.do(ctx, http.MethodGet, withQuery("/user/wallet/details", v), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

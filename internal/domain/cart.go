package domain

import "time"

// CartItem is one product/size line in a cart.
type CartItem struct {
	ProductID int64     `json:"product_id"`
	Size      string    `json:"size"`
	Quantity  int64     `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart belongs to exactly one user.
type Cart struct {
	UserID int64      `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// Find returns the index of the product/size line or -1.
func (c Cart) Find(productID int64, size string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.Size == size {
			return i
		}
	}
	return -1
}

// Count is the total quantity, used for the cart badge.
func (c Cart) Count() int64 {
	var n int64
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) Clone() Cart {
	cp := c
	cp.Items = append([]CartItem(nil), c.Items...)
	return cp
}

// Wishlist is an ordered set of product ids.
type Wishlist struct {
	UserID     int64   `json:"user_id"`
	ProductIDs []int64 `json:"product_ids"`
}

// Contains reports whether productID is on the list.
func (w Wishlist) Contains(productID int64) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

func (w Wishlist) Clone() Wishlist {
	cp := w
	cp.ProductIDs = append([]int64(nil), w.ProductIDs...)
	return cp
}

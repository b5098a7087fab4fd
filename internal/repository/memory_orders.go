package repository

import (
	"context"
	"sort"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

// MemoryOrders implements OrderRepository on top of the shared store.
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o.ID = mo.store.nextOrderID
	mo.store.nextOrderID++
	o.CreatedAt = mo.store.now()
	o.UpdatedAt = o.CreatedAt
	mo.store.ordersByID[o.ID] = o.Clone()
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o.Clone()
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.ordersByID[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = mo.store.now()
	mo.store.ordersByID[o.ID] = o.Clone()
	return nil
}

// List returns matching orders, newest first.
func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByID {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && o.CreatedAt.After(f.To) {
			continue
		}
		if f.WithReturn && !hasReturn(o) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func hasReturn(o domain.Order) bool {
	for _, it := range o.Items {
		if it.Return != nil {
			return true
		}
	}
	return false
}

type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) Get(ctx context.Context, userID int64) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.cartsByUser[userID]
	if !ok {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	cp := c.Clone()
	return &cp, nil
}

func (mc *MemoryCarts) Save(ctx context.Context, c *domain.Cart) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	mc.store.cartsByUser[c.UserID] = c.Clone()
	return nil
}

type MemoryWishlists struct{ store *MemoryStore }

func NewMemoryWishlists(store *MemoryStore) *MemoryWishlists {
	return &MemoryWishlists{store: store}
}

var _ WishlistRepository = (*MemoryWishlists)(nil)

func (mw *MemoryWishlists) Get(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	mw.store.rlock(ctx)
	defer mw.store.runlock(ctx)
	w, ok := mw.store.wishlists[userID]
	if !ok {
		return &domain.Wishlist{UserID: userID, ProductIDs: []int64{}}, nil
	}
	cp := w.Clone()
	return &cp, nil
}

func (mw *MemoryWishlists) Save(ctx context.Context, w *domain.Wishlist) error {
	mw.store.wlock(ctx)
	defer mw.store.wunlock(ctx)
	mw.store.wishlists[w.UserID] = w.Clone()
	return nil
}

package repository

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

// MemoryStore is the combined in-memory storage with simple id sequences.
// Every entity repository is a thin wrapper sharing its lock, so MemoryTx can
// make a multi-entity change atomic.
type MemoryStore struct {
	mu sync.RWMutex

	nextProdID     int64
	nextCategoryID int64
	nextOfferID    int64
	nextCouponID   int64
	nextUserID     int64
	nextAddressID  int64
	nextOrderID    int64

	productsByID   map[int64]domain.Product
	categoriesByID map[int64]domain.Category
	offersByID     map[int64]domain.Offer
	couponsByID    map[int64]domain.Coupon
	usersByID      map[int64]domain.User
	addressesByID  map[int64]domain.Address
	ordersByID     map[int64]domain.Order
	cartsByUser    map[int64]domain.Cart
	wishlists      map[int64]domain.Wishlist
	walletsByUser  map[int64]domain.Wallet

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextProdID:     1,
		nextCategoryID: 1,
		nextOfferID:    1,
		nextCouponID:   1,
		nextUserID:     1,
		nextAddressID:  1,
		nextOrderID:    1,
		productsByID:   make(map[int64]domain.Product),
		categoriesByID: make(map[int64]domain.Category),
		offersByID:     make(map[int64]domain.Offer),
		couponsByID:    make(map[int64]domain.Coupon),
		usersByID:      make(map[int64]domain.User),
		addressesByID:  make(map[int64]domain.Address),
		ordersByID:     make(map[int64]domain.Order),
		cartsByUser:    make(map[int64]domain.Cart),
		wishlists:      make(map[int64]domain.Wishlist),
		walletsByUser:  make(map[int64]domain.Wallet),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

var _ ProductRepository = (*MemoryStore)(nil)

func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p.ID = m.nextProdID
	m.nextProdID++
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.productsByID[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p.Clone()
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	old, ok := m.productsByID[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = m.now()
	m.productsByID[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.productsByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range m.productsByID {
		if !containsIgnoreCase(p.Name, f.NameSubstring) {
			continue
		}
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if f.OnlyActive && !p.Active {
			continue
		}
		if f.HiddenCategories[p.CategoryID] {
			continue
		}
		price := p.SalePrice()
		if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
			continue
		}
		out = append(out, p.Clone())
	}
	sortProducts(out, f.Sort)
	return out, nil
}

func sortProducts(ps []domain.Product, order string) {
	var less func(a, b domain.Product) bool
	switch order {
	case SortPriceAsc:
		less = func(a, b domain.Product) bool { return a.SalePrice().LessThan(b.SalePrice()) }
	case SortPriceDesc:
		less = func(a, b domain.Product) bool { return a.SalePrice().GreaterThan(b.SalePrice()) }
	case SortNameAsc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortNameDesc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	default:
		less = func(a, b domain.Product) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID > b.ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if less(ps[i], ps[j]) {
			return true
		}
		if less(ps[j], ps[i]) {
			return false
		}
		return ps[i].ID < ps[j].ID
	})
}

// MemoryTx uses the store write lock to emulate a transaction boundary.
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	snap := tx.store.snapshot()
	ctx = context.WithValue(ctx, txKey{}, true)
	if err := fn(ctx); err != nil {
		tx.store.restore(snap)
		return err
	}
	return nil
}

// storeState is a copy of the maps and sequences taken before a transaction.
// Values are stored as clones, so copying the maps is enough to roll back.
type storeState struct {
	seq        [7]int64
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	offers     map[int64]domain.Offer
	coupons    map[int64]domain.Coupon
	users      map[int64]domain.User
	addresses  map[int64]domain.Address
	orders     map[int64]domain.Order
	carts      map[int64]domain.Cart
	wishlists  map[int64]domain.Wishlist
	wallets    map[int64]domain.Wallet
}

func (m *MemoryStore) snapshot() storeState {
	return storeState{
		seq: [7]int64{m.nextProdID, m.nextCategoryID, m.nextOfferID, m.nextCouponID,
			m.nextUserID, m.nextAddressID, m.nextOrderID},
		products:   maps.Clone(m.productsByID),
		categories: maps.Clone(m.categoriesByID),
		offers:     maps.Clone(m.offersByID),
		coupons:    maps.Clone(m.couponsByID),
		users:      maps.Clone(m.usersByID),
		addresses:  maps.Clone(m.addressesByID),
		orders:     maps.Clone(m.ordersByID),
		carts:      maps.Clone(m.cartsByUser),
		wishlists:  maps.Clone(m.wishlists),
		wallets:    maps.Clone(m.walletsByUser),
	}
}

func (m *MemoryStore) restore(s storeState) {
	m.nextProdID, m.nextCategoryID, m.nextOfferID, m.nextCouponID = s.seq[0], s.seq[1], s.seq[2], s.seq[3]
	m.nextUserID, m.nextAddressID, m.nextOrderID = s.seq[4], s.seq[5], s.seq[6]
	m.productsByID = s.products
	m.categoriesByID = s.categories
	m.offersByID = s.offers
	m.couponsByID = s.coupons
	m.usersByID = s.users
	m.addressesByID = s.addresses
	m.ordersByID = s.orders
	m.cartsByUser = s.carts
	m.wishlists = s.wishlists
	m.walletsByUser = s.wallets
}

// NewMemoryRepos wires every in-memory repository to store.
func NewMemoryRepos(store *MemoryStore) Repos {
	return Repos{
		Products:   store,
		Categories: NewMemoryCategories(store),
		Offers:     NewMemoryOffers(store),
		Coupons:    NewMemoryCoupons(store),
		Users:      NewMemoryUsers(store),
		Addresses:  NewMemoryAddresses(store),
		Carts:      NewMemoryCarts(store),
		Wishlists:  NewMemoryWishlists(store),
		Wallets:    NewMemoryWallets(store),
		Orders:     NewMemoryOrders(store),
		Tx:         NewMemoryTx(store),
	}
}

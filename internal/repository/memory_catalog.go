package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

// MemoryCategories keeps category names unique case-insensitively.
type MemoryCategories struct{ store *MemoryStore }

func NewMemoryCategories(store *MemoryStore) *MemoryCategories {
	return &MemoryCategories{store: store}
}

var _ CategoryRepository = (*MemoryCategories)(nil)

func (mc *MemoryCategories) nameTaken(name string, exceptID int64) bool {
	for id, c := range mc.store.categoriesByID {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (mc *MemoryCategories) Create(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if mc.nameTaken(c.Name, 0) {
		return ErrConflict
	}
	c.ID = mc.store.nextCategoryID
	mc.store.nextCategoryID++
	c.CreatedAt = mc.store.now()
	c.UpdatedAt = c.CreatedAt
	mc.store.categoriesByID[c.ID] = *c
	return nil
}

func (mc *MemoryCategories) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.categoriesByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (mc *MemoryCategories) Update(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	old, ok := mc.store.categoriesByID[c.ID]
	if !ok {
		return ErrNotFound
	}
	if mc.nameTaken(c.Name, c.ID) {
		return ErrConflict
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = mc.store.now()
	mc.store.categoriesByID[c.ID] = *c
	return nil
}

func (mc *MemoryCategories) Delete(ctx context.Context, id int64) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.categoriesByID[id]; !ok {
		return ErrNotFound
	}
	delete(mc.store.categoriesByID, id)
	return nil
}

func (mc *MemoryCategories) List(ctx context.Context) ([]domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.Category, 0, len(mc.store.categoriesByID))
	for _, c := range mc.store.categoriesByID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type MemoryOffers struct{ store *MemoryStore }

func NewMemoryOffers(store *MemoryStore) *MemoryOffers { return &MemoryOffers{store: store} }

var _ OfferRepository = (*MemoryOffers)(nil)

func (mo *MemoryOffers) Create(ctx context.Context, o *domain.Offer) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o.ID = mo.store.nextOfferID
	mo.store.nextOfferID++
	o.CreatedAt = mo.store.now()
	mo.store.offersByID[o.ID] = *o
	return nil
}

func (mo *MemoryOffers) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.offersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (mo *MemoryOffers) Update(ctx context.Context, o *domain.Offer) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	old, ok := mo.store.offersByID[o.ID]
	if !ok {
		return ErrNotFound
	}
	o.CreatedAt = old.CreatedAt
	mo.store.offersByID[o.ID] = *o
	return nil
}

func (mo *MemoryOffers) Delete(ctx context.Context, id int64) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.offersByID[id]; !ok {
		return ErrNotFound
	}
	delete(mo.store.offersByID, id)
	return nil
}

func (mo *MemoryOffers) List(ctx context.Context) ([]domain.Offer, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Offer, 0, len(mo.store.offersByID))
	for _, o := range mo.store.offersByID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryCoupons stores codes upper-cased and unique.
type MemoryCoupons struct{ store *MemoryStore }

func NewMemoryCoupons(store *MemoryStore) *MemoryCoupons { return &MemoryCoupons{store: store} }

var _ CouponRepository = (*MemoryCoupons)(nil)

func (mc *MemoryCoupons) Create(ctx context.Context, c *domain.Coupon) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.Code = strings.ToUpper(c.Code)
	for _, existing := range mc.store.couponsByID {
		if existing.Code == c.Code {
			return ErrConflict
		}
	}
	c.ID = mc.store.nextCouponID
	mc.store.nextCouponID++
	c.CreatedAt = mc.store.now()
	mc.store.couponsByID[c.ID] = *c
	return nil
}

func (mc *MemoryCoupons) GetByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.couponsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (mc *MemoryCoupons) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range mc.store.couponsByID {
		if c.Code == code {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mc *MemoryCoupons) Update(ctx context.Context, c *domain.Coupon) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	old, ok := mc.store.couponsByID[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	mc.store.couponsByID[c.ID] = *c
	return nil
}

func (mc *MemoryCoupons) Delete(ctx context.Context, id int64) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.couponsByID[id]; !ok {
		return ErrNotFound
	}
	delete(mc.store.couponsByID, id)
	return nil
}

func (mc *MemoryCoupons) List(ctx context.Context) ([]domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.Coupon, 0, len(mc.store.couponsByID))
	for _, c := range mc.store.couponsByID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

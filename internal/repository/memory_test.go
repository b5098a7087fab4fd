package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

func newProduct(name string, price int64, categoryID int64) domain.Product {
	return domain.Product{
		Name:         name,
		CategoryID:   categoryID,
		RegularPrice: decimal.NewFromInt(price),
		Sizes:        []domain.SizeStock{{Size: "M", Quantity: 5}},
		Active:       true,
	}
}

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := newProduct("Runner", 1000, 1)
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 {
		t.Fatalf("no id")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}

	// mutating the returned copy must not leak into the store
	got.Sizes[0].Quantity = 0
	again, _ := store.GetByID(ctx, p.ID)
	if again.Sizes[0].Quantity != 5 {
		t.Fatalf("store shares slices with caller")
	}

	p.RegularPrice = decimal.NewFromInt(1200)
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	p := newProduct("Runner", 1000, 1)
	if err := store.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	// emulate atomic create order with stock decrease
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		pp, err := store.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := pp.AdjustStock("M", -3); err != nil {
			return err
		}
		if err := store.Update(ctx, pp); err != nil {
			return err
		}
		o := domain.Order{UserID: 1, Items: []domain.OrderItem{{ProductID: p.ID, Size: "M", Quantity: 3}}, Status: domain.OrderStatusPending}
		return orders.Create(ctx, &o)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	pp, _ := store.GetByID(context.Background(), p.ID)
	if q, _ := pp.Stock("M"); q != 2 {
		t.Fatalf("stock expected 2, got %v", q)
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	p := newProduct("Runner", 1000, 1)
	_ = store.Create(ctx, &p)

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		pp, _ := store.GetByID(ctx, p.ID)
		_ = pp.AdjustStock("M", -5)
		_ = store.Update(ctx, pp)
		o := domain.Order{UserID: 1}
		_ = orders.Create(ctx, &o)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	pp, _ := store.GetByID(ctx, p.ID)
	if q, _ := pp.Stock("M"); q != 5 {
		t.Fatalf("stock must be restored, got %d", q)
	}
	list, _ := orders.List(ctx, OrderFilter{})
	if len(list) != 0 {
		t.Fatalf("order must be rolled back, got %d", len(list))
	}
	o := domain.Order{UserID: 1}
	_ = orders.Create(ctx, &o)
	if o.ID != 1 {
		t.Fatalf("sequence must be rolled back, got id %d", o.ID)
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	add := func(n string, price int64, cat int64, active bool) {
		p := newProduct(n, price, cat)
		p.Active = active
		if err := store.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	add("Trail Runner", 100, 1, true)
	add("Road Runner", 50, 1, true)
	add("Sandal", 150, 2, true)
	add("Old Runner", 70, 1, false)

	list, _ := store.List(ctx, ProductFilter{NameSubstring: "runner", OnlyActive: true})
	if len(list) != 2 {
		t.Fatalf("name filter: got %d", len(list))
	}

	min := decimal.NewFromInt(100)
	list, _ = store.List(ctx, ProductFilter{MinPrice: &min})
	for _, p := range list {
		if p.SalePrice().LessThan(min) {
			t.Fatalf("min filter fail")
		}
	}

	list, _ = store.List(ctx, ProductFilter{HiddenCategories: map[int64]bool{1: true}})
	if len(list) != 1 || list[0].Name != "Sandal" {
		t.Fatalf("hidden category filter fail: %+v", list)
	}

	list, _ = store.List(ctx, ProductFilter{OnlyActive: true, Sort: SortPriceAsc})
	if list[0].Name != "Road Runner" || list[len(list)-1].Name != "Sandal" {
		t.Fatalf("price sort fail")
	}
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	users := NewMemoryUsers(store)
	if err := users.Create(ctx, &domain.User{Email: "A@x.io"}); err != nil {
		t.Fatal(err)
	}
	if err := users.Create(ctx, &domain.User{Email: "a@X.io "}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on email, got %v", err)
	}

	coupons := NewMemoryCoupons(store)
	_ = coupons.Create(ctx, &domain.Coupon{Code: "save10"})
	if err := coupons.Create(ctx, &domain.Coupon{Code: "SAVE10"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on code, got %v", err)
	}
	if c, err := coupons.GetByCode(ctx, " Save10"); err != nil || c.Code != "SAVE10" {
		t.Fatalf("lookup by code: %v", err)
	}

	cats := NewMemoryCategories(store)
	_ = cats.Create(ctx, &domain.Category{Name: "Shoes"})
	if err := cats.Create(ctx, &domain.Category{Name: "shoes"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on category, got %v", err)
	}
}

func TestOrders_ListFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)
	for _, o := range []domain.Order{
		{UserID: 1, Status: domain.OrderStatusPending},
		{UserID: 2, Status: domain.OrderStatusDelivered, Items: []domain.OrderItem{{Return: &domain.ReturnRequest{}}}},
		{UserID: 1, Status: domain.OrderStatusDelivered},
	} {
		o := o
		_ = orders.Create(ctx, &o)
	}

	mine, _ := orders.List(ctx, OrderFilter{UserID: 1})
	if len(mine) != 2 || mine[0].ID != 3 {
		t.Fatalf("expected user orders newest first, got %+v", mine)
	}
	delivered, _ := orders.List(ctx, OrderFilter{Status: domain.OrderStatusDelivered})
	if len(delivered) != 2 {
		t.Fatalf("status filter: %d", len(delivered))
	}
	returns, _ := orders.List(ctx, OrderFilter{WithReturn: true})
	if len(returns) != 1 || returns[0].UserID != 2 {
		t.Fatalf("return filter fail")
	}
}

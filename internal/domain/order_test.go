package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrder_CanReturnItem(t *testing.T) {
	tests := []struct {
		name        string
		orderStatus OrderStatus
		item        OrderItem
		want        bool
	}{
		{"delivered item on delivered order", OrderStatusDelivered, OrderItem{Status: ItemStatusDelivered}, true},
		{"return already requested", OrderStatusDelivered, OrderItem{Status: ItemStatusDelivered, Return: &ReturnRequest{Status: ReturnRejected}}, false},
		{"item return pending", OrderStatusDelivered, OrderItem{Status: ItemStatusReturnPending, Return: &ReturnRequest{}}, false},
		{"order shipped", OrderStatusShipped, OrderItem{Status: ItemStatusDelivered}, false},
		{"item cancelled", OrderStatusDelivered, OrderItem{Status: ItemStatusCancelled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Status: tt.orderStatus, Items: []OrderItem{tt.item}}
			if got := o.CanReturnItem(tt.item); got != tt.want {
				t.Errorf("CanReturnItem() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_CanCancelItem(t *testing.T) {
	tests := []struct {
		name        string
		orderStatus OrderStatus
		itemStatus  ItemStatus
		want        bool
	}{
		{"pending", OrderStatusPending, ItemStatusPending, true},
		{"processing", OrderStatusProcessing, ItemStatusProcessing, true},
		{"item already cancelled", OrderStatusPending, ItemStatusCancelled, false},
		{"shipped", OrderStatusShipped, ItemStatusShipped, false},
		{"delivered", OrderStatusDelivered, ItemStatusDelivered, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Status: tt.orderStatus}
			if got := o.CanCancelItem(OrderItem{Status: tt.itemStatus}); got != tt.want {
				t.Errorf("CanCancelItem() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	if !OrderStatusPending.CanTransitionTo(OrderStatusProcessing) {
		t.Fatalf("pending -> processing must be allowed")
	}
	if OrderStatusShipped.CanTransitionTo(OrderStatusCancelled) {
		t.Fatalf("shipped orders cannot be cancelled")
	}
	if OrderStatusDelivered.CanTransitionTo(OrderStatusPending) {
		t.Fatalf("delivered is terminal")
	}
}

func TestOrder_Recalculate(t *testing.T) {
	o := Order{
		ShippingCharge: decimal.NewFromInt(40),
		Items: []OrderItem{
			{ID: 1, Quantity: 2, Price: decimal.NewFromInt(100), CouponShare: decimal.NewFromInt(20), Status: ItemStatusPending},
			{ID: 2, Quantity: 1, Price: decimal.NewFromInt(50), Status: ItemStatusCancelled},
		},
	}
	o.Recalculate()
	if !o.CurrentAmount.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("current amount = %s, want 220", o.CurrentAmount)
	}

	o.Items[0].Status = ItemStatusCancelled
	o.Recalculate()
	if !o.CurrentAmount.IsZero() {
		t.Fatalf("fully cancelled order must owe nothing, got %s", o.CurrentAmount)
	}
}

func TestProduct_AdjustStock(t *testing.T) {
	p := Product{Sizes: []SizeStock{{Size: "M", Quantity: 2}}}
	if err := p.AdjustStock("M", -2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := p.AdjustStock("M", -1); err != ErrInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := p.AdjustStock("XL", 1); err != ErrUnknownSize {
		t.Fatalf("expected unknown size, got %v", err)
	}

	cp := p.Clone()
	cp.Sizes[0].Quantity = 9
	if q, _ := p.Stock("M"); q != 0 {
		t.Fatalf("clone must not share sizes, got %d", q)
	}
}

func TestProduct_SalePrice(t *testing.T) {
	p := Product{RegularPrice: decimal.NewFromInt(1000), DiscountPercent: decimal.NewFromInt(20)}
	if !p.SalePrice().Equal(decimal.NewFromInt(800)) {
		t.Fatalf("sale price = %s, want 800", p.SalePrice())
	}
}

func TestDecimalJSONLeftAtLibraryDefault(t *testing.T) {
	if decimal.MarshalJSONWithoutQuotes {
		t.Fatal("importing domain must not change decimal JSON encoding")
	}
	b, err := json.Marshal(OrderItem{Price: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["price"]) != `"5"` {
		t.Fatalf("expected quoted amount, got %s", raw["price"])
	}
}

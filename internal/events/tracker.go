package events

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ProductCount is the quantity ordered of one product.
type ProductCount struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Stats is a point-in-time view of the tracker counters.
type Stats struct {
	OrdersPlaced     int64           `json:"orders_placed"`
	StatusChanges    int64           `json:"status_changes"`
	ItemsCancelled   int64           `json:"items_cancelled"`
	ReturnsRequested int64           `json:"returns_requested"`
	Refunds          int64           `json:"refunds"`
	Revenue          decimal.Decimal `json:"revenue"`
	RefundedAmount   decimal.Decimal `json:"refunded_amount"`
	TopProducts      []ProductCount  `json:"top_products"`
	LastEventAt      *time.Time      `json:"last_event_at,omitempty"`
}

// Tracker aggregates order events for the admin dashboard in a thread-safe manner.
type Tracker struct {
	mu                sync.Mutex
	stats             Stats
	productQuantities map[int64]int64
}

func NewTracker() *Tracker {
	return &Tracker{
		stats:             Stats{Revenue: decimal.Zero, RefundedAmount: decimal.Zero},
		productQuantities: make(map[int64]int64),
	}
}

// Record folds one event into the counters.
func (t *Tracker) Record(e OrderEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case OrderCreated:
		t.stats.OrdersPlaced++
		t.stats.Revenue = t.stats.Revenue.Add(e.Amount)
		for _, it := range e.Items {
			t.productQuantities[it.ProductID] += it.Quantity
		}
	case OrderStatusChanged:
		t.stats.StatusChanges++
	case OrderItemCancelled:
		t.stats.ItemsCancelled++
	case OrderReturnRequested:
		t.stats.ReturnsRequested++
	case OrderRefunded:
		t.stats.Refunds++
		t.stats.RefundedAmount = t.stats.RefundedAmount.Add(e.Amount)
	}
	at := e.OccurredAt
	t.stats.LastEventAt = &at
}

// Snapshot returns the counters with the top n products by quantity.
func (t *Tracker) Snapshot(n int) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.stats
	if t.stats.LastEventAt != nil {
		at := *t.stats.LastEventAt
		out.LastEventAt = &at
	}
	out.TopProducts = TopProducts(t.productQuantities, n)
	return out
}

// TopProducts orders quantities descending, ties by product id.
func TopProducts(quantities map[int64]int64, n int) []ProductCount {
	list := make([]ProductCount, 0, len(quantities))
	for id, q := range quantities {
		list = append(list, ProductCount{ProductID: id, Quantity: q})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Quantity != list[j].Quantity {
			return list[i].Quantity > list[j].Quantity
		}
		return list[i].ProductID < list[j].ProductID
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/events"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

const topProductsLimit = 5

// ReportService builds the admin sales report and dashboard.
type ReportService struct {
	orders  repository.OrderRepository
	tracker *events.Tracker
	now     Clock
}

// NewReportService takes an optional tracker; without one the dashboard is computed from orders.
func NewReportService(orders repository.OrderRepository, tracker *events.Tracker) *ReportService {
	return &ReportService{orders: orders, tracker: tracker, now: systemClock}
}

// SalesReport summarises the orders placed in [From, To].
type SalesReport struct {
	From            time.Time             `json:"from"`
	To              time.Time             `json:"to"`
	Orders          int64                 `json:"orders"`
	Delivered       int64                 `json:"delivered"`
	Cancelled       int64                 `json:"cancelled"`
	GrossRevenue    decimal.Decimal       `json:"gross_revenue"`
	Refunds         decimal.Decimal       `json:"refunds"`
	CouponDiscounts decimal.Decimal       `json:"coupon_discounts"`
	TopProducts     []events.ProductCount `json:"top_products"`
}

// Dashboard is either live event counters or a store scan.
type Dashboard struct {
	Source string       `json:"source"`
	Stats  events.Stats `json:"stats"`
}

// Sales defaults to the last 30 days when the range is open.
func (s *ReportService) Sales(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if to.Before(from) {
		return nil, invalid("from must not be after to")
	}
	list, err := s.orders.List(ctx, repository.OrderFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	r := SalesReport{
		From: from, To: to,
		GrossRevenue: decimal.Zero, Refunds: decimal.Zero, CouponDiscounts: decimal.Zero,
	}
	quantities := make(map[int64]int64)
	for _, o := range list {
		r.Orders++
		switch o.Status {
		case domain.OrderStatusDelivered:
			r.Delivered++
		case domain.OrderStatusCancelled:
			r.Cancelled++
		}
		if o.Status != domain.OrderStatusCancelled {
			r.GrossRevenue = r.GrossRevenue.Add(o.CurrentAmount)
		}
		r.Refunds = r.Refunds.Add(o.RefundAmount)
		r.CouponDiscounts = r.CouponDiscounts.Add(o.CouponDiscount)
		for _, it := range o.Items {
			if it.Status != domain.ItemStatusCancelled {
				quantities[it.ProductID] += it.Quantity
			}
		}
	}
	r.TopProducts = events.TopProducts(quantities, topProductsLimit)
	return &r, nil
}

func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	if s.tracker != nil {
		return &Dashboard{Source: "events", Stats: s.tracker.Snapshot(topProductsLimit)}, nil
	}
	list, err := s.orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, err
	}
	st := events.Stats{Revenue: decimal.Zero, RefundedAmount: decimal.Zero}
	quantities := make(map[int64]int64)
	for _, o := range list {
		st.OrdersPlaced++
		st.Revenue = st.Revenue.Add(o.OriginalAmount)
		st.RefundedAmount = st.RefundedAmount.Add(o.RefundAmount)
		for _, it := range o.Items {
			quantities[it.ProductID] += it.Quantity
			switch {
			case it.Status == domain.ItemStatusCancelled:
				st.ItemsCancelled++
			case it.Return != nil:
				st.ReturnsRequested++
			}
			if it.RefundAmount.IsPositive() {
				st.Refunds++
			}
		}
		if at := o.UpdatedAt; st.LastEventAt == nil || at.After(*st.LastEventAt) {
			st.LastEventAt = &at
		}
	}
	st.TopProducts = events.TopProducts(quantities, topProductsLimit)
	return &Dashboard{Source: "store", Stats: st}, nil
}

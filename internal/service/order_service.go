package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/events"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/pricing"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// OrderService implements the order lifecycle: checkout, cancellation, returns and refunds.
// Every state change runs in one transaction; stock and wallet move together with the order.
type OrderService struct {
	products    repository.ProductRepository
	categories  repository.CategoryRepository
	offers      repository.OfferRepository
	coupons     repository.CouponRepository
	orders      repository.OrderRepository
	carts       repository.CartRepository
	addresses   repository.AddressRepository
	tx          repository.TxManager
	wallet      *WalletService
	events      events.Publisher
	shippingFee decimal.Decimal
	now         Clock
	log         *slog.Logger
}

func NewOrderService(r repository.Repos, wallet *WalletService, pub events.Publisher, log *slog.Logger) *OrderService {
	return &OrderService{
		products:    r.Products,
		categories:  r.Categories,
		offers:      r.Offers,
		coupons:     r.Coupons,
		orders:      r.Orders,
		carts:       r.Carts,
		addresses:   r.Addresses,
		tx:          r.Tx,
		wallet:      wallet,
		events:      pub,
		shippingFee: decimal.Zero,
		now:         systemClock,
		log:         log,
	}
}

// WithShippingFee sets the flat charge added to new orders.
func (s *OrderService) WithShippingFee(fee decimal.Decimal) *OrderService {
	s.shippingFee = fee
	return s
}

// CheckoutInput selects the address, payment method and optional coupon.
type CheckoutInput struct {
	AddressID     int64
	PaymentMethod domain.PaymentMethod
	CouponCode    string
}

// ReturnEntry is one item with a return request, listed with its order.
type ReturnEntry struct {
	OrderID     int64            `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	UserID      int64            `json:"user_id"`
	Item        domain.OrderItem `json:"item"`
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// Checkout turns the cart into an order. Stock is reserved, the coupon redeemed,
// the wallet debited for wallet payments and the cart emptied, all or nothing.
func (s *OrderService) Checkout(ctx context.Context, userID int64, in CheckoutInput) (*domain.Order, error) {
	switch in.PaymentMethod {
	case domain.PaymentCOD, domain.PaymentWallet:
	default:
		return nil, invalid("payment method must be COD or Wallet")
	}
	if in.AddressID <= 0 {
		return nil, invalid("address is required")
	}

	var created *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		cart, err := s.carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}
		addr, err := s.addresses.GetByID(ctx, in.AddressID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && addr.UserID != userID) {
			return invalid("address %d not found", in.AddressID)
		}
		if err != nil {
			return err
		}
		book, err := loadPriceBook(ctx, s.offers, now)
		if err != nil {
			return err
		}

		items := make([]domain.OrderItem, 0, len(cart.Items))
		totals := make([]decimal.Decimal, 0, len(cart.Items))
		subtotal := decimal.Zero
		for i, line := range cart.Items {
			if err := checkQuantity(line.Quantity); err != nil {
				return err
			}
			p, err := s.products.GetByID(ctx, line.ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: product %d", ErrUnavailable, line.ProductID)
			}
			if err != nil {
				return err
			}
			ok, err := sellable(ctx, s.categories, p)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnavailable, p.Name)
			}
			// reserve
			if err := p.AdjustStock(line.Size, -line.Quantity); err != nil {
				return stockErr(p, line.Size, err)
			}
			if err := s.products.Update(ctx, p); err != nil {
				return err
			}

			r := book.resolve(*p)
			it := domain.OrderItem{
				ID:              int64(i + 1),
				ProductID:       p.ID,
				ProductName:     p.Name,
				Size:            line.Size,
				Quantity:        line.Quantity,
				RegularPrice:    p.RegularPrice,
				Price:           r.Price,
				DiscountPercent: r.DiscountPercent,
				CouponShare:     decimal.Zero,
				Status:          domain.ItemStatusPending,
				RefundAmount:    decimal.Zero,
			}
			if len(p.Images) > 0 {
				it.Image = p.Images[0]
			}
			items = append(items, it)
			totals = append(totals, it.Total())
			subtotal = subtotal.Add(it.Total())
		}

		discount := decimal.Zero
		code := ""
		if !blank(in.CouponCode) {
			c, err := s.coupons.GetByCode(ctx, in.CouponCode)
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("coupon %s does not exist", strings.ToUpper(strings.TrimSpace(in.CouponCode)))
			}
			if err != nil {
				return err
			}
			discount, err = pricing.CouponDiscount(*c, subtotal, now)
			if err != nil {
				return invalid("%v", err)
			}
			c.UsedCount++
			if err := s.coupons.Update(ctx, c); err != nil {
				return err
			}
			code = c.Code
			for i, share := range pricing.Prorate(discount, totals) {
				items[i].CouponShare = share
			}
		}

		original := subtotal.Sub(discount).Add(s.shippingFee)
		o := domain.Order{
			OrderNumber:     newOrderNumber(),
			UserID:          userID,
			Items:           items,
			Status:          domain.OrderStatusPending,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   domain.PaymentPending,
			ShippingAddress: *addr,
			CouponCode:      code,
			Subtotal:        subtotal,
			CouponDiscount:  discount,
			ShippingCharge:  s.shippingFee,
			OriginalAmount:  original,
			CurrentAmount:   original,
			RefundAmount:    decimal.Zero,
			RefundStatus:    domain.RefundNone,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		if in.PaymentMethod == domain.PaymentWallet {
			if _, err := s.wallet.Debit(ctx, userID, original, "Payment for order "+o.OrderNumber, o.ID); err != nil {
				return err
			}
			o.PaymentStatus = domain.PaymentPaid
			if err := s.orders.Update(ctx, &o); err != nil {
				return err
			}
		}
		if err := s.carts.Save(ctx, &domain.Cart{UserID: userID, Items: []domain.CartItem{}}); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed", "order_id", created.ID, "order_number", created.OrderNumber,
		"user_id", userID, "amount", created.OriginalAmount.String(), "payment", created.PaymentMethod)
	s.publish(ctx, events.OrderCreated, created, created.OriginalAmount)
	return created, nil
}

// GetOrder returns the user's order; other users' orders are reported as missing.
func (s *OrderService) GetOrder(ctx context.Context, userID, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.loadOwned(ctx, userID, id)
}

func (s *OrderService) loadOwned(ctx context.Context, userID, id int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

// ListForUser pages through the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID int64, status domain.OrderStatus, req repository.PageRequest) ([]domain.Order, repository.PageInfo, error) {
	return s.List(ctx, repository.OrderFilter{UserID: userID, Status: status}, "", req)
}

// List pages through orders for the admin. search matches the order number.
func (s *OrderService) List(ctx context.Context, f repository.OrderFilter, search string, req repository.PageRequest) ([]domain.Order, repository.PageInfo, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, repository.PageInfo{}, invalid("unknown order status %q", f.Status)
	}
	list, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, repository.PageInfo{}, err
	}
	if search = strings.ToUpper(strings.TrimSpace(search)); search != "" {
		filtered := list[:0]
		for _, o := range list {
			if strings.Contains(o.OrderNumber, search) {
				filtered = append(filtered, o)
			}
		}
		list = filtered
	}
	page, info := repository.Paginate(list, req)
	return page, info, nil
}

// Get returns any order, for the admin.
func (s *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, id)
}

// CancelOrder cancels every item that is still cancellable.
func (s *OrderService) CancelOrder(ctx context.Context, userID, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	var (
		updated *domain.Order
		refund  decimal.Decimal
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.loadOwned(ctx, userID, id)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending && o.Status != domain.OrderStatusProcessing {
			return invalidState("order in status %s cannot be cancelled", o.Status)
		}
		refund, err = s.cancelItems(ctx, o, cancellable(o))
		if err != nil {
			return err
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order cancelled", "order_id", updated.ID, "refund", refund.String())
	s.publish(ctx, events.OrderStatusChanged, updated, updated.CurrentAmount)
	if refund.IsPositive() {
		s.publish(ctx, events.OrderRefunded, updated, refund)
	}
	return updated, nil
}

// CancelItem cancels one item of the user's order.
func (s *OrderService) CancelItem(ctx context.Context, userID, orderID, itemID int64) (*domain.Order, error) {
	if orderID <= 0 || itemID <= 0 {
		return nil, ErrInvalidInput
	}
	var (
		updated *domain.Order
		refund  decimal.Decimal
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.loadOwned(ctx, userID, orderID)
		if err != nil {
			return err
		}
		it := o.Item(itemID)
		if it == nil {
			return repository.ErrNotFound
		}
		if !o.CanCancelItem(*it) {
			return invalidState("item cannot be cancelled (order %s, item %s)", o.Status, it.Status)
		}
		refund, err = s.cancelItems(ctx, o, []*domain.OrderItem{it})
		if err != nil {
			return err
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderItemCancelled, updated, updated.CurrentAmount)
	if refund.IsPositive() {
		s.publish(ctx, events.OrderRefunded, updated, refund)
	}
	return updated, nil
}

func cancellable(o *domain.Order) []*domain.OrderItem {
	out := make([]*domain.OrderItem, 0, len(o.Items))
	for i := range o.Items {
		if o.CanCancelItem(o.Items[i]) {
			out = append(out, &o.Items[i])
		}
	}
	return out
}

// cancelItems restocks and cancels items and refunds a paid order for what it no longer owes.
// The caller persists o.
func (s *OrderService) cancelItems(ctx context.Context, o *domain.Order, items []*domain.OrderItem) (decimal.Decimal, error) {
	before := o.CurrentAmount
	for _, it := range items {
		if err := s.restock(ctx, it); err != nil {
			return decimal.Zero, err
		}
		it.Status = domain.ItemStatusCancelled
	}
	o.Recalculate()
	if o.AllItemsCancelled() {
		o.Status = domain.OrderStatusCancelled
	}

	if o.PaymentStatus != domain.PaymentPaid {
		return decimal.Zero, nil
	}
	refund := before.Sub(o.CurrentAmount)
	if !refund.IsPositive() {
		return decimal.Zero, nil
	}
	for _, it := range items {
		it.RefundAmount = it.Payable()
	}
	if _, err := s.wallet.Credit(ctx, o.UserID, refund, "Refund for cancelled items of order "+o.OrderNumber, o.ID); err != nil {
		return decimal.Zero, err
	}
	o.RefundAmount = o.RefundAmount.Add(refund)
	settleRefund(o)
	return refund, nil
}

// restock puts the item quantity back. Deleted products and sizes are skipped.
func (s *OrderService) restock(ctx context.Context, it *domain.OrderItem) error {
	p, err := s.products.GetByID(ctx, it.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("restock skipped, product gone", "product_id", it.ProductID)
		return nil
	}
	if err != nil {
		return err
	}
	if err := p.AdjustStock(it.Size, it.Quantity); err != nil {
		if errors.Is(err, domain.ErrUnknownSize) {
			s.log.Warn("restock skipped, size gone", "product_id", it.ProductID, "size", it.Size)
			return nil
		}
		return err
	}
	return s.products.Update(ctx, p)
}

// settleRefund derives the refund and payment status from the items.
func settleRefund(o *domain.Order) {
	pending := false
	open := false
	for _, it := range o.Items {
		switch it.Status {
		case domain.ItemStatusReturnPending:
			pending = true
			open = true
		case domain.ItemStatusCancelled, domain.ItemStatusReturned:
		default:
			open = true
		}
	}
	switch {
	case pending:
		o.RefundStatus = domain.RefundPending
	case o.RefundAmount.IsPositive():
		o.RefundStatus = domain.RefundCompleted
	default:
		o.RefundStatus = domain.RefundNone
	}
	if !open && o.PaymentStatus == domain.PaymentPaid && o.RefundAmount.IsPositive() {
		o.PaymentStatus = domain.PaymentRefunded
	}
}

// UpdateStatus moves an order forward on the admin's request.
// Cancelling here behaves like a customer cancellation.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if id <= 0 || !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	var (
		updated *domain.Order
		refund  decimal.Decimal
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(status) {
			return invalidState("cannot move order from %s to %s", o.Status, status)
		}
		if status == domain.OrderStatusCancelled {
			refund, err = s.cancelItems(ctx, o, cancellable(o))
			if err != nil {
				return err
			}
		} else {
			o.Status = status
			for i := range o.Items {
				if o.Items[i].Status != domain.ItemStatusCancelled {
					o.Items[i].Status = domain.ItemStatus(status)
				}
			}
			if status == domain.OrderStatusDelivered && o.PaymentMethod == domain.PaymentCOD {
				o.PaymentStatus = domain.PaymentPaid
			}
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order status changed", "order_id", updated.ID, "status", updated.Status)
	s.publish(ctx, events.OrderStatusChanged, updated, updated.CurrentAmount)
	if refund.IsPositive() {
		s.publish(ctx, events.OrderRefunded, updated, refund)
	}
	return updated, nil
}

// RequestReturn opens a return for a delivered item.
func (s *OrderService) RequestReturn(ctx context.Context, userID, orderID, itemID int64, reason string) (*domain.Order, error) {
	reason = strings.TrimSpace(reason)
	if orderID <= 0 || itemID <= 0 {
		return nil, ErrInvalidInput
	}
	if reason == "" {
		return nil, invalid("return reason is required")
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.loadOwned(ctx, userID, orderID)
		if err != nil {
			return err
		}
		it := o.Item(itemID)
		if it == nil {
			return repository.ErrNotFound
		}
		if !o.CanReturnItem(*it) {
			return invalidState("item is not eligible for return")
		}
		it.Return = &domain.ReturnRequest{Reason: reason, Status: domain.ReturnPending, RequestedAt: s.now()}
		it.Status = domain.ItemStatusReturnPending
		settleRefund(o)
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderReturnRequested, updated, decimal.Zero)
	return updated, nil
}

// ApproveReturn restocks the item and credits its paid amount to the wallet.
func (s *OrderService) ApproveReturn(ctx context.Context, orderID, itemID int64, note string) (*domain.Order, error) {
	var (
		updated *domain.Order
		refund  decimal.Decimal
	)
	err := s.resolveReturn(ctx, orderID, itemID, func(ctx context.Context, o *domain.Order, it *domain.OrderItem) error {
		if err := s.restock(ctx, it); err != nil {
			return err
		}
		it.Status = domain.ItemStatusReturned
		it.Return.Status = domain.ReturnApproved
		refund = it.Payable()
		it.RefundAmount = refund
		o.Recalculate()
		if refund.IsPositive() {
			if _, err := s.wallet.Credit(ctx, o.UserID, refund, "Refund for returned item of order "+o.OrderNumber, o.ID); err != nil {
				return err
			}
			o.RefundAmount = o.RefundAmount.Add(refund)
		}
		return nil
	}, note, &updated)
	if err != nil {
		return nil, err
	}
	s.log.Info("return approved", "order_id", orderID, "item_id", itemID, "refund", refund.String())
	s.publish(ctx, events.OrderRefunded, updated, refund)
	return updated, nil
}

// RejectReturn puts the item back to Delivered.
func (s *OrderService) RejectReturn(ctx context.Context, orderID, itemID int64, note string) (*domain.Order, error) {
	var updated *domain.Order
	err := s.resolveReturn(ctx, orderID, itemID, func(ctx context.Context, o *domain.Order, it *domain.OrderItem) error {
		it.Status = domain.ItemStatusDelivered
		it.Return.Status = domain.ReturnRejected
		return nil
	}, note, &updated)
	if err != nil {
		return nil, err
	}
	s.log.Info("return rejected", "order_id", orderID, "item_id", itemID)
	s.publish(ctx, events.OrderStatusChanged, updated, updated.CurrentAmount)
	return updated, nil
}

func (s *OrderService) resolveReturn(ctx context.Context, orderID, itemID int64,
	fn func(ctx context.Context, o *domain.Order, it *domain.OrderItem) error, note string, out **domain.Order) error {
	if orderID <= 0 || itemID <= 0 {
		return ErrInvalidInput
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		it := o.Item(itemID)
		if it == nil {
			return repository.ErrNotFound
		}
		if it.Return == nil || it.Return.Status != domain.ReturnPending {
			return invalidState("item has no pending return")
		}
		if err := fn(ctx, o, it); err != nil {
			return err
		}
		at := s.now()
		it.Return.ResolvedAt = &at
		it.Return.AdminNote = strings.TrimSpace(note)
		settleRefund(o)
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		*out = o
		return nil
	})
}

// ListReturns pages through items with a return request. userID 0 lists everyone's.
func (s *OrderService) ListReturns(ctx context.Context, userID int64, status domain.ReturnStatus, req repository.PageRequest) ([]ReturnEntry, repository.PageInfo, error) {
	list, err := s.orders.List(ctx, repository.OrderFilter{UserID: userID, WithReturn: true})
	if err != nil {
		return nil, repository.PageInfo{}, err
	}
	entries := make([]ReturnEntry, 0)
	for _, o := range list {
		for _, it := range o.Items {
			if it.Return == nil || (status != "" && it.Return.Status != status) {
				continue
			}
			entries = append(entries, ReturnEntry{OrderID: o.ID, OrderNumber: o.OrderNumber, UserID: o.UserID, Item: it})
		}
	}
	page, info := repository.Paginate(entries, req)
	return page, info, nil
}

// publish never fails the caller; the order change is already committed.
func (s *OrderService) publish(ctx context.Context, typ events.Type, o *domain.Order, amount decimal.Decimal) {
	e := events.OrderEvent{
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      string(o.Status),
		Amount:      amount,
		OccurredAt:  s.now(),
	}
	if typ == events.OrderCreated {
		for _, it := range o.Items {
			e.Items = append(e.Items, events.Item{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("order event not published", "type", typ, "order_id", o.ID, "error", err)
	}
}

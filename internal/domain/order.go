package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a whole order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo lists the admin-driven moves. Cancellation is only possible before shipping.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// ItemStatus extends the order statuses with the return states.
type ItemStatus string

const (
	ItemStatusPending       ItemStatus = "Pending"
	ItemStatusProcessing    ItemStatus = "Processing"
	ItemStatusShipped       ItemStatus = "Shipped"
	ItemStatusDelivered     ItemStatus = "Delivered"
	ItemStatusCancelled     ItemStatus = "Cancelled"
	ItemStatusReturnPending ItemStatus = "Return_Pending"
	ItemStatusReturned      ItemStatus = "Returned"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentWallet PaymentMethod = "Wallet"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
	PaymentFailed   PaymentStatus = "Failed"
)

type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundFailed    RefundStatus = "failed"
)

type ReturnStatus string

const (
	ReturnPending  ReturnStatus = "Pending"
	ReturnApproved ReturnStatus = "Approved"
	ReturnRejected ReturnStatus = "Rejected"
)

// ReturnRequest is a customer-initiated return of one order item.
type ReturnRequest struct {
	Reason      string       `json:"reason"`
	Status      ReturnStatus `json:"status"`
	AdminNote   string       `json:"admin_note,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}

// OrderItem is one product/size line of an order with its price snapshot.
type OrderItem struct {
	ID              int64           `json:"id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Image           string          `json:"image,omitempty"`
	Size            string          `json:"size"`
	Quantity        int64           `json:"quantity"`
	RegularPrice    decimal.Decimal `json:"regular_price"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CouponShare     decimal.Decimal `json:"coupon_share"`
	Status          ItemStatus      `json:"status"`
	Return          *ReturnRequest  `json:"return,omitempty"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
}

// Total is the line amount before the coupon.
func (it OrderItem) Total() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}

// Payable is what the customer paid for the line after its coupon share.
func (it OrderItem) Payable() decimal.Decimal {
	return it.Total().Sub(it.CouponShare)
}

// Order is a placed order with its address and amount snapshots.
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          int64           `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	ShippingAddress Address         `json:"shipping_address"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CouponDiscount  decimal.Decimal `json:"coupon_discount"`
	ShippingCharge  decimal.Decimal `json:"shipping_charge"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	CurrentAmount   decimal.Decimal `json:"current_amount"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	RefundStatus    RefundStatus    `json:"refund_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	cp := o
	cp.Items = make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		if it.Return != nil {
			r := *it.Return
			it.Return = &r
		}
		cp.Items[i] = it
	}
	return cp
}

// Item returns a pointer into o.Items for id.
func (o *Order) Item(id int64) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// CanCancelItem: order still Pending/Processing and the item not already cancelled.
func (o Order) CanCancelItem(it OrderItem) bool {
	if o.Status != OrderStatusPending && o.Status != OrderStatusProcessing {
		return false
	}
	return it.Status != ItemStatusCancelled
}

// CanReturnItem: order and item Delivered and no return requested yet.
func (o Order) CanReturnItem(it OrderItem) bool {
	return o.Status == OrderStatusDelivered &&
		it.Status == ItemStatusDelivered &&
		it.Return == nil
}

// AllItemsCancelled reports whether nothing is left to fulfil.
func (o Order) AllItemsCancelled() bool {
	for _, it := range o.Items {
		if it.Status != ItemStatusCancelled {
			return false
		}
	}
	return true
}

// Recalculate refreshes CurrentAmount from the items that are still owed.
func (o *Order) Recalculate() {
	current := decimal.Zero
	for _, it := range o.Items {
		if it.Status == ItemStatusCancelled || it.Status == ItemStatusReturned {
			continue
		}
		current = current.Add(it.Payable())
	}
	if !current.IsZero() {
		current = current.Add(o.ShippingCharge)
	}
	o.CurrentAmount = current
}

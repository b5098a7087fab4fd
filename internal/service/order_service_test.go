package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/events"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/logger"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

const customer int64 = 1

type fixture struct {
	repos      repository.Repos
	products   *ProductService
	categories *CategoryService
	promos     *PromotionService
	carts      *CartService
	addresses  *AddressService
	wallet     *WalletService
	orders     *OrderService
	published  []events.OrderEvent
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupRepos(t, nil)
}

// setupRepos lets a test wrap repositories before the services are built.
func setupRepos(t *testing.T, wrap func(*repository.Repos)) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	r := repository.NewMemoryRepos(store)
	if wrap != nil {
		wrap(&r)
	}
	f := &fixture{repos: r}
	f.products = NewProductService(r.Products, r.Categories, r.Offers)
	f.categories = NewCategoryService(r.Categories, r.Products)
	f.promos = NewPromotionService(r.Offers, r.Coupons, r.Products, r.Categories)
	f.carts = NewCartService(r)
	f.addresses = NewAddressService(r.Addresses, r.Tx)
	f.wallet = NewWalletService(r.Wallets)
	pub := events.PublisherFunc(func(_ context.Context, e events.OrderEvent) error {
		f.published = append(f.published, e)
		return nil
	})
	f.orders = NewOrderService(r, f.wallet, pub, logger.Discard()).WithShippingFee(decimal.NewFromInt(50))
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// product creates an active product with one size "M".
func (f *fixture) product(t *testing.T, name string, price int64, stock int64) *domain.Product {
	t.Helper()
	ctx := context.Background()
	cats, _ := f.categories.List(ctx, false)
	var catID int64
	if len(cats) > 0 {
		catID = cats[0].ID
	} else {
		c, err := f.categories.Create(ctx, "Shoes", "")
		if err != nil {
			t.Fatalf("create category: %v", err)
		}
		catID = c.ID
	}
	p, err := f.products.Create(ctx, ProductInput{
		Name:         name,
		CategoryID:   catID,
		RegularPrice: decimal.NewFromInt(price),
		Sizes:        []domain.SizeStock{{Size: "M", Quantity: stock}},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) address(t *testing.T, userID int64) *domain.Address {
	t.Helper()
	a, err := f.addresses.Create(context.Background(), userID, domain.Address{
		Type: domain.AddressHome, FullName: "Asha Rao", Phone: "9876543210",
		Street: "12 MG Road", City: "Bengaluru", State: "KA", Country: "India", PostalCode: "560001",
	})
	if err != nil {
		t.Fatalf("create address: %v", err)
	}
	return a
}

func (f *fixture) addToCart(t *testing.T, p *domain.Product, qty int64) {
	t.Helper()
	if _, err := f.carts.Add(context.Background(), customer, p.ID, "M", qty); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
}

func (f *fixture) stock(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	q, _ := p.Stock("M")
	return q
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	d, err := f.wallet.Details(context.Background(), customer, repository.PageRequest{})
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	return d.Balance
}

func (f *fixture) topUp(t *testing.T, amount int64) {
	t.Helper()
	if _, err := f.wallet.Credit(context.Background(), customer, decimal.NewFromInt(amount), "top up", 0); err != nil {
		t.Fatalf("credit: %v", err)
	}
}

func TestCheckout_ReservesStockAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "Runner", 1000, 10)
	a := f.address(t, customer)
	f.addToCart(t, p, 2)

	o, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: domain.PaymentCOD})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", o.OrderNumber)
	}
	if o.Status != domain.OrderStatusPending || o.PaymentStatus != domain.PaymentPending {
		t.Fatalf("unexpected statuses %s/%s", o.Status, o.PaymentStatus)
	}
	if !o.Subtotal.Equal(dec("2000")) || !o.OriginalAmount.Equal(dec("2050")) || !o.CurrentAmount.Equal(dec("2050")) {
		t.Fatalf("unexpected amounts subtotal=%s original=%s current=%s", o.Subtotal, o.OriginalAmount, o.CurrentAmount)
	}
	if o.ShippingAddress.City != "Bengaluru" {
		t.Fatalf("address not copied: %+v", o.ShippingAddress)
	}
	if got := f.stock(t, p.ID); got != 8 {
		t.Fatalf("stock expected 8, got %d", got)
	}
	cart, _ := f.carts.View(ctx, customer)
	if len(cart.Items) != 0 {
		t.Fatalf("cart not cleared: %+v", cart.Items)
	}
	if len(f.published) != 1 || f.published[0].Type != events.OrderCreated || len(f.published[0].Items) != 1 {
		t.Fatalf("expected one order.created event, got %+v", f.published)
	}
}

func TestCheckout_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "Runner", 1000, 10)
	a := f.address(t, customer)
	other := f.address(t, 2)

	if _, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: domain.PaymentCOD}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	f.addToCart(t, p, 1)
	if _, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: "Card"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid payment method, got %v", err)
	}
	if _, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: other.ID, PaymentMethod: domain.PaymentCOD}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected foreign address to be rejected, got %v", err)
	}
	if _, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: domain.PaymentCOD, CouponCode: "NOPE"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected unknown coupon to be rejected, got %v", err)
	}
}

func TestCheckout_NotEnoughStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "Runner", 1000, 10)
	p2 := f.product(t, "Walker", 500, 3)
	a := f.address(t, customer)
	f.addToCart(t, p1, 2)
	f.addToCart(t, p2, 3)

	// stock sold elsewhere after the cart was filled
	cur, _ := f.repos.Products.GetByID(ctx, p2.ID)
	cur.Sizes[0].Quantity = 1
	if err := f.repos.Products.Update(ctx, cur); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: domain.PaymentCOD})
	if !errors.Is(err, ErrNotEnoughStock) {
		t.Fatalf("expected not enough stock, got %v", err)
	}
	if got := f.stock(t, p1.ID); got != 10 {
		t.Fatalf("reservation of first line not rolled back: %d", got)
	}
	cart, _ := f.carts.View(ctx, customer)
	if len(cart.Items) != 2 {
		t.Fatalf("cart must survive a failed checkout, got %d lines", len(cart.Items))
	}
}

func TestCheckout_WalletPayment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "Runner", 1000, 10)
	a := f.address(t, customer)
	f.addToCart(t, p, 1)
	f.topUp(t, 500)

	if _, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: domain.PaymentWallet}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := f.stock(t, p.ID); got != 10 {
		t.Fatalf("stock changed by failed checkout: %d", got)
	}

	f.topUp(t, 1000)
	o, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: domain.PaymentWallet})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("wallet order should be paid, got %s", o.PaymentStatus)
	}
	if got := f.balance(t); !got.Equal(dec("450")) {
		t.Fatalf("balance expected 450, got %s", got)
	}
}

func TestCheckout_CouponIsProratedAndRedeemed(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "Runner", 1000, 10)
	p2 := f.product(t, "Walker", 500, 10)
	a := f.address(t, customer)
	c, err := f.promos.CreateCoupon(ctx, CouponInput{
		Code: "save10", DiscountPercent: dec("10"), UsageLimit: 5,
		ExpiresAt: systemClock().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	f.addToCart(t, p1, 1)
	f.addToCart(t, p2, 1)

	o, err := f.orders.Checkout(ctx, customer, CheckoutInput{AddressID: a.ID, PaymentMethod: domain.PaymentCOD, CouponCode: "SAVE10"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.CouponCode != "SAVE10" || !o.CouponDiscount.Equal(dec("150")) {
		t.Fatalf("unexpected coupon %s %s", o.CouponCode, o.CouponDiscount)
	}
	if !o.Items[0].CouponShare.Equal(dec("100")) || !o.Items[1].CouponShare.Equal(dec("50")) {
		t.Fatalf("unexpected shares %s %s", o.Items[0].CouponShare, o.Items[1].CouponShare)
	}
	if !o.OriginalAmount.Equal(dec("1400")) {
		t.Fatalf("original amount expected 1400, got %s", o.OriginalAmount)
	}
	stored, _ := f.repos.Coupons.GetByID(ctx, c.ID)
	if stored.UsedCount != 1 {
		t.Fatalf("coupon usage expected 1, got %d", stored.UsedCount)
	}
}

// placeTwoItemOrder orders Runner (1000) and Walker (500), one each, plus 50 shipping.
func placeTwoItemOrder(t *testing.T, f *fixture, method domain.PaymentMethod) (*domain.Order, *domain.Product, *domain.Product) {
	t.Helper()
	p1 := f.product(t, "Runner", 1000, 10)
	p2 := f.product(t, "Walker", 500, 10)
	a := f.address(t, customer)
	f.addToCart(t, p1, 1)
	f.addToCart(t, p2, 1)
	o, err := f.orders.Checkout(context.Background(), customer, CheckoutInput{AddressID: a.ID, PaymentMethod: method})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return o, p1, p2
}

func TestCancelItem_RefundsPaidOrderToWallet(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.topUp(t, 5000)
	o, p1, p2 := placeTwoItemOrder(t, f, domain.PaymentWallet)
	if got := f.balance(t); !got.Equal(dec("3450")) {
		t.Fatalf("balance after payment expected 3450, got %s", got)
	}

	o, err := f.orders.CancelItem(ctx, customer, o.ID, 2)
	if err != nil {
		t.Fatalf("cancel item: %v", err)
	}
	if o.Status != domain.OrderStatusPending || !o.CurrentAmount.Equal(dec("1050")) {
		t.Fatalf("unexpected order after partial cancel: %s %s", o.Status, o.CurrentAmount)
	}
	if o.RefundStatus != domain.RefundCompleted || !o.Items[1].RefundAmount.Equal(dec("500")) {
		t.Fatalf("unexpected refund state %s %s", o.RefundStatus, o.Items[1].RefundAmount)
	}
	if got := f.balance(t); !got.Equal(dec("3950")) {
		t.Fatalf("balance expected 3950, got %s", got)
	}
	if got := f.stock(t, p2.ID); got != 10 {
		t.Fatalf("stock not restored: %d", got)
	}

	if _, err := f.orders.CancelItem(ctx, customer, o.ID, 2); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancelling twice must fail, got %v", err)
	}

	o, err = f.orders.CancelItem(ctx, customer, o.ID, 1)
	if err != nil {
		t.Fatalf("cancel last item: %v", err)
	}
	if o.Status != domain.OrderStatusCancelled || o.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("expected cancelled/refunded, got %s/%s", o.Status, o.PaymentStatus)
	}
	if !o.CurrentAmount.IsZero() || !o.RefundAmount.Equal(dec("1550")) {
		t.Fatalf("unexpected amounts current=%s refunded=%s", o.CurrentAmount, o.RefundAmount)
	}
	if got := f.balance(t); !got.Equal(dec("5000")) {
		t.Fatalf("balance expected 5000, got %s", got)
	}
	if got := f.stock(t, p1.ID); got != 10 {
		t.Fatalf("stock not restored: %d", got)
	}
}

func TestCancelOrder_CODDoesNotTouchWallet(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o, _, _ := placeTwoItemOrder(t, f, domain.PaymentCOD)

	o, err := f.orders.CancelOrder(ctx, customer, o.ID)
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if o.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", o.Status)
	}
	for _, it := range o.Items {
		if it.Status != domain.ItemStatusCancelled {
			t.Fatalf("item %d not cancelled", it.ID)
		}
	}
	if got := f.balance(t); !got.IsZero() {
		t.Fatalf("COD cancel must not credit the wallet, got %s", got)
	}
	if _, err := f.orders.CancelOrder(ctx, customer, o.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestOrders_OwnershipAndListing(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o, _, _ := placeTwoItemOrder(t, f, domain.PaymentCOD)

	if _, err := f.orders.GetOrder(ctx, 2, o.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("another user's order must be hidden, got %v", err)
	}
	if _, err := f.orders.CancelItem(ctx, 2, o.ID, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("another user cannot cancel, got %v", err)
	}
	list, info, err := f.orders.ListForUser(ctx, customer, "", repository.PageRequest{})
	if err != nil || len(list) != 1 || info.Total != 1 {
		t.Fatalf("unexpected list %d %+v %v", len(list), info, err)
	}
	list, _, _ = f.orders.ListForUser(ctx, customer, domain.OrderStatusDelivered, repository.PageRequest{})
	if len(list) != 0 {
		t.Fatalf("status filter ignored")
	}
	list, _, _ = f.orders.List(ctx, repository.OrderFilter{}, strings.ToLower(o.OrderNumber[4:8]), repository.PageRequest{})
	if len(list) != 1 {
		t.Fatalf("order number search failed")
	}
}

func deliver(t *testing.T, f *fixture, id int64) *domain.Order {
	t.Helper()
	var o *domain.Order
	for _, st := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		var err error
		o, err = f.orders.UpdateStatus(context.Background(), id, st)
		if err != nil {
			t.Fatalf("move to %s: %v", st, err)
		}
	}
	return o
}

func TestUpdateStatus_Transitions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o, _, _ := placeTwoItemOrder(t, f, domain.PaymentCOD)

	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusShipped); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("skipping Processing must fail, got %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, "Lost"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status must fail, got %v", err)
	}
	o = deliver(t, f, o.ID)
	if o.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("COD must be paid on delivery, got %s", o.PaymentStatus)
	}
	for _, it := range o.Items {
		if it.Status != domain.ItemStatusDelivered {
			t.Fatalf("item %d status %s", it.ID, it.Status)
		}
	}
	if _, err := f.orders.CancelItem(ctx, customer, o.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delivered items cannot be cancelled, got %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delivered order cannot be cancelled, got %v", err)
	}
}

func TestUpdateStatus_AdminCancelRefunds(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.topUp(t, 2000)
	o, _, _ := placeTwoItemOrder(t, f, domain.PaymentWallet)

	o, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != domain.OrderStatusCancelled || o.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("unexpected %s/%s", o.Status, o.PaymentStatus)
	}
	if got := f.balance(t); !got.Equal(dec("2000")) {
		t.Fatalf("balance expected 2000, got %s", got)
	}
	last := f.published[len(f.published)-1]
	if last.Type != events.OrderRefunded || !last.Amount.Equal(dec("1550")) {
		t.Fatalf("expected refund event, got %+v", last)
	}
}

func TestReturn_ApproveCreditsWallet(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o, p1, _ := placeTwoItemOrder(t, f, domain.PaymentCOD)

	if _, err := f.orders.RequestReturn(ctx, customer, o.ID, 1, "too small"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("undelivered item cannot be returned, got %v", err)
	}
	deliver(t, f, o.ID)

	if _, err := f.orders.RequestReturn(ctx, customer, o.ID, 1, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("reason is required, got %v", err)
	}
	o, err := f.orders.RequestReturn(ctx, customer, o.ID, 1, "too small")
	if err != nil {
		t.Fatalf("request return: %v", err)
	}
	if o.Items[0].Status != domain.ItemStatusReturnPending || o.RefundStatus != domain.RefundPending {
		t.Fatalf("unexpected %s/%s", o.Items[0].Status, o.RefundStatus)
	}
	if _, err := f.orders.RequestReturn(ctx, customer, o.ID, 1, "again"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second request must fail, got %v", err)
	}

	returns, info, err := f.orders.ListReturns(ctx, 0, domain.ReturnPending, repository.PageRequest{})
	if err != nil || len(returns) != 1 || info.Total != 1 || returns[0].Item.ID != 1 {
		t.Fatalf("unexpected returns %+v %v", returns, err)
	}

	o, err = f.orders.ApproveReturn(ctx, o.ID, 1, "ok")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	it := o.Items[0]
	if it.Status != domain.ItemStatusReturned || it.Return.Status != domain.ReturnApproved || it.Return.ResolvedAt == nil {
		t.Fatalf("unexpected item %+v", it)
	}
	if !it.RefundAmount.Equal(dec("1000")) || o.RefundStatus != domain.RefundCompleted {
		t.Fatalf("unexpected refund %s %s", it.RefundAmount, o.RefundStatus)
	}
	if !o.CurrentAmount.Equal(dec("550")) {
		t.Fatalf("current amount expected 550, got %s", o.CurrentAmount)
	}
	if got := f.balance(t); !got.Equal(dec("1000")) {
		t.Fatalf("wallet expected 1000, got %s", got)
	}
	if got := f.stock(t, p1.ID); got != 10 {
		t.Fatalf("returned stock not restored: %d", got)
	}
	if _, err := f.orders.ApproveReturn(ctx, o.ID, 1, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("approving twice must fail, got %v", err)
	}
}

func TestReturn_RejectRestoresDelivered(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o, _, _ := placeTwoItemOrder(t, f, domain.PaymentCOD)
	deliver(t, f, o.ID)
	if _, err := f.orders.RequestReturn(ctx, customer, o.ID, 2, "changed my mind"); err != nil {
		t.Fatalf("request return: %v", err)
	}

	o, err := f.orders.RejectReturn(ctx, o.ID, 2, "worn")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	it := o.Items[1]
	if it.Status != domain.ItemStatusDelivered || it.Return.Status != domain.ReturnRejected || it.Return.AdminNote != "worn" {
		t.Fatalf("unexpected item %+v", it)
	}
	if o.RefundStatus != domain.RefundNone {
		t.Fatalf("refund status expected none, got %s", o.RefundStatus)
	}
	if _, err := f.orders.RequestReturn(ctx, customer, o.ID, 2, "again"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("a rejected item cannot be returned again, got %v", err)
	}
	if got := f.balance(t); !got.IsZero() {
		t.Fatalf("rejected return must not refund, got %s", got)
	}
}

func TestReports_Sales(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	o, _, _ := placeTwoItemOrder(t, f, domain.PaymentCOD)
	if _, err := f.orders.CancelItem(ctx, customer, o.ID, 2); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	rs := NewReportService(f.repos.Orders, nil)
	r, err := rs.Sales(ctx, systemClock().AddDate(0, 0, -1), systemClock().AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if r.Orders != 1 || r.Cancelled != 0 || !r.GrossRevenue.Equal(dec("1050")) {
		t.Fatalf("unexpected report %+v", r)
	}
	if len(r.TopProducts) != 1 || r.TopProducts[0].ProductID != o.Items[0].ProductID {
		t.Fatalf("unexpected top products %+v", r.TopProducts)
	}
	if _, err := rs.Sales(ctx, systemClock(), systemClock().AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("inverted range must fail, got %v", err)
	}

	d, err := rs.Dashboard(ctx)
	if err != nil || d.Source != "store" || d.Stats.OrdersPlaced != 1 || d.Stats.ItemsCancelled != 1 {
		t.Fatalf("unexpected dashboard %+v %v", d, err)
	}

	tracker := events.NewTracker()
	for _, e := range f.published {
		tracker.Record(e)
	}
	d, _ = NewReportService(f.repos.Orders, tracker).Dashboard(ctx)
	if d.Source != "events" || d.Stats.OrdersPlaced != 1 || d.Stats.ItemsCancelled != 1 {
		t.Fatalf("unexpected live dashboard %+v", d)
	}
}

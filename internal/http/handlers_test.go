package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/auth"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/events"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/logger"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

const (
	adminEmail    = "admin@blitz.test"
	adminPassword = "admin12345"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = bcrypt.MinCost
	log := logger.Discard()

	r := repository.NewMemoryRepos(repository.NewMemoryStore())
	sessions, err := auth.OpenSessionStore("", 24*time.Hour)
	if err != nil {
		t.Fatalf("open sessions: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })
	tokens := auth.NewTokenManager("test-secret", 15*time.Minute)

	wallet := service.NewWalletService(r.Wallets)
	svc := Services{
		Auth:       service.NewAuthService(r.Users, sessions, tokens, log),
		Users:      service.NewUserService(r.Users, sessions, log),
		Products:   service.NewProductService(r.Products, r.Categories, r.Offers),
		Categories: service.NewCategoryService(r.Categories, r.Products),
		Promotions: service.NewPromotionService(r.Offers, r.Coupons, r.Products, r.Categories),
		Carts:      service.NewCartService(r),
		Addresses:  service.NewAddressService(r.Addresses, r.Tx),
		Wallet:     wallet,
		Orders:     service.NewOrderService(r, wallet, events.NopPublisher{}, log).WithShippingFee(decimal.NewFromInt(50)),
		Reports:    service.NewReportService(r.Orders, nil),
	}
	if _, err := svc.Auth.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	return NewServer(svc, Options{}, log)
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func do(t *testing.T, s *Server, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&buf).Encode(c.body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	expect(t, w, status)
	e := decode[errorResponse](t, w)
	if e.Error != errorCode(status) || e.Message != message {
		t.Fatalf("unexpected error body %+v", e)
	}
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type session struct {
	token   string
	cookies []*http.Cookie
}

func login(t *testing.T, s *Server, path, email, password string) session {
	t.Helper()
	w := do(t, s, call{method: http.MethodPost, path: path, body: map[string]string{"email": email, "password": password}})
	expect(t, w, http.StatusOK)
	pair := decode[service.TokenPair](t, w)
	return session{token: pair.AccessToken, cookies: w.Result().Cookies()}
}

func adminSession(t *testing.T, s *Server) session {
	return login(t, s, "/auth/admin/login", adminEmail, adminPassword)
}

func customerSession(t *testing.T, s *Server, email string) session {
	t.Helper()
	w := do(t, s, call{method: http.MethodPost, path: "/auth/signup", body: map[string]string{
		"name": "Asha", "email": email, "password": "password1",
	}})
	expect(t, w, http.StatusCreated)
	return login(t, s, "/auth/login", email, "password1")
}

// seedProduct creates a category and one product with size M.
func seedProduct(t *testing.T, s *Server, admin session, price, stock int64) int64 {
	t.Helper()
	w := do(t, s, call{method: http.MethodPost, path: "/admin/categories", token: admin.token,
		body: map[string]string{"name": fmt.Sprintf("Shoes %d", price)}})
	expect(t, w, http.StatusCreated)
	cat := decode[domain.Category](t, w)

	w = do(t, s, call{method: http.MethodPost, path: "/admin/products", token: admin.token, body: map[string]any{
		"name":          fmt.Sprintf("Runner %d", price),
		"category_id":   cat.ID,
		"regular_price": price,
		"sizes":         []map[string]any{{"size": "M", "quantity": stock}},
	}})
	expect(t, w, http.StatusCreated)
	return decode[domain.Product](t, w).ID
}

func seedAddress(t *testing.T, s *Server, user session) int64 {
	t.Helper()
	w := do(t, s, call{method: http.MethodPost, path: "/user/address", token: user.token, body: map[string]string{
		"type": "home", "full_name": "Asha Rao", "phone": "9876543210", "street": "12 MG Road",
		"city": "Bengaluru", "state": "KA", "country": "India", "postal_code": "560001",
	}})
	expect(t, w, http.StatusCreated)
	return decode[domain.Address](t, w).ID
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	expect(t, do(t, s, call{method: http.MethodGet, path: "/health"}), http.StatusOK)
}

func TestAuthMiddleware_Messages(t *testing.T) {
	s := setupServer(t)
	user := customerSession(t, s, "asha@example.com")

	expectError(t, do(t, s, call{method: http.MethodGet, path: "/user/cart"}), http.StatusBadRequest, msgNoToken)
	expectError(t, do(t, s, call{method: http.MethodGet, path: "/user/cart", token: "garbage"}), http.StatusBadRequest, msgInvalidToken)

	forged, _, err := auth.NewTokenManager("other-secret", time.Minute).IssueAccess(1, domain.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	expectError(t, do(t, s, call{method: http.MethodGet, path: "/user/cart", token: forged}), http.StatusUnauthorized, msgTokenExpired)

	expectError(t, do(t, s, call{method: http.MethodGet, path: "/admin/orders", token: user.token}), http.StatusForbidden, msgAccessDenied)

	admin := adminSession(t, s)
	expectError(t, do(t, s, call{method: http.MethodGet, path: "/user/cart", token: admin.token}), http.StatusForbidden, msgAccessDenied)

	w := do(t, s, call{method: http.MethodGet, path: "/user/profile", token: user.token})
	expect(t, w, http.StatusOK)
	me := decode[domain.User](t, w)

	expect(t, do(t, s, call{method: http.MethodPatch, path: fmt.Sprintf("/admin/users/%d/block", me.ID), token: admin.token}), http.StatusOK)
	expectError(t, do(t, s, call{method: http.MethodGet, path: "/user/cart", token: user.token}), http.StatusUnauthorized, msgUserBlocked)
}

func TestLogin_CookiesRefreshAndLogout(t *testing.T) {
	s := setupServer(t)
	customerSession(t, s, "asha@example.com")

	w := do(t, s, call{method: http.MethodPost, path: "/auth/login", body: map[string]string{"email": "asha@example.com", "password": "wrong-pass"}})
	expect(t, w, http.StatusUnauthorized)

	w = do(t, s, call{method: http.MethodPost, path: "/auth/admin/login", body: map[string]string{"email": "asha@example.com", "password": "password1"}})
	expect(t, w, http.StatusUnauthorized)

	w = do(t, s, call{method: http.MethodPost, path: "/auth/login", body: map[string]string{"email": "asha@example.com", "password": "password1"}})
	expect(t, w, http.StatusOK)
	access := cookie(w, "user_access_token")
	refresh := cookie(w, "user_refresh_token")
	if access == nil || refresh == nil || !access.HttpOnly || !refresh.HttpOnly {
		t.Fatalf("expected http-only auth cookies, got %v", w.Result().Cookies())
	}
	if access.MaxAge < int(time.Hour.Seconds()) || access.MaxAge > refresh.MaxAge+1 {
		t.Fatalf("access cookie must live as long as the refresh session, got %d vs %d", access.MaxAge, refresh.MaxAge)
	}

	// the access cookie alone authenticates
	expect(t, do(t, s, call{method: http.MethodGet, path: "/user/cart", cookies: []*http.Cookie{access}}), http.StatusOK)

	w = do(t, s, call{method: http.MethodPost, path: "/auth/refreshtoken", cookies: []*http.Cookie{refresh}})
	expect(t, w, http.StatusOK)
	rotated := cookie(w, "user_refresh_token")
	if rotated == nil || rotated.Value == refresh.Value {
		t.Fatalf("refresh token must rotate")
	}

	w = do(t, s, call{method: http.MethodPost, path: "/auth/refreshtoken", cookies: []*http.Cookie{refresh}})
	expectError(t, w, http.StatusForbidden, msgSessionExpired)
	if c := cookie(w, "user_refresh_token"); c == nil || c.MaxAge >= 0 {
		t.Fatalf("failed refresh must clear cookies")
	}

	expectError(t, do(t, s, call{method: http.MethodPost, path: "/auth/refreshtoken"}), http.StatusForbidden, msgSessionExpired)

	w = do(t, s, call{method: http.MethodPost, path: "/auth/logout", cookies: []*http.Cookie{rotated}})
	expect(t, w, http.StatusOK)
	if c := cookie(w, "user_access_token"); c == nil || c.MaxAge >= 0 {
		t.Fatalf("logout must clear cookies")
	}
	expectError(t, do(t, s, call{method: http.MethodPost, path: "/auth/refreshtoken", cookies: []*http.Cookie{rotated}}),
		http.StatusForbidden, msgSessionExpired)
}

func TestRefresh_RoleHintAndMalformedBody(t *testing.T) {
	s := setupServer(t)
	user := customerSession(t, s, "asha@example.com")
	admin := adminSession(t, s)
	both := append(append([]*http.Cookie{}, user.cookies...), admin.cookies...)

	w := do(t, s, call{method: http.MethodPost, path: "/auth/refreshtoken?role=user", cookies: both})
	expect(t, w, http.StatusOK)
	if cookie(w, "user_refresh_token") == nil || cookie(w, "admin_refresh_token") != nil {
		t.Fatalf("role=user must rotate only the customer session, got %v", w.Result().Cookies())
	}

	w = do(t, s, call{method: http.MethodPost, path: "/auth/refreshtoken", body: "not-an-object", cookies: admin.cookies})
	expectError(t, w, http.StatusBadRequest, "invalid request body")
	expect(t, do(t, s, call{method: http.MethodPost, path: "/auth/refreshtoken?role=admin", cookies: admin.cookies}), http.StatusOK)
}

func TestSignup_BindingErrors(t *testing.T) {
	s := setupServer(t)
	w := do(t, s, call{method: http.MethodPost, path: "/auth/signup", body: map[string]string{"email": "a@b.com", "password": "password1"}})
	expectError(t, w, http.StatusBadRequest, "name is required")

	w = do(t, s, call{method: http.MethodPost, path: "/auth/signup", body: map[string]string{"name": "A", "email": "nope", "password": "password1"}})
	expectError(t, w, http.StatusBadRequest, "email is invalid (email)")

	customerSession(t, s, "asha@example.com")
	w = do(t, s, call{method: http.MethodPost, path: "/auth/signup", body: map[string]string{"name": "A", "email": "asha@example.com", "password": "password1"}})
	expect(t, w, http.StatusConflict)
}

func TestCatalog_PublicListing(t *testing.T) {
	s := setupServer(t)
	admin := adminSession(t, s)
	id := seedProduct(t, s, admin, 1000, 10)

	w := do(t, s, call{method: http.MethodGet, path: "/products?page=99"})
	expect(t, w, http.StatusOK)
	list := decode[listResponse[service.ProductView]](t, w)
	if len(list.Items) != 1 || list.Pagination.Page != 1 || list.Pagination.Total != 1 {
		t.Fatalf("expected clamped single page, got %+v", list.Pagination)
	}

	expect(t, do(t, s, call{method: http.MethodGet, path: "/products/abc"}), http.StatusBadRequest)
	expect(t, do(t, s, call{method: http.MethodGet, path: "/products/999"}), http.StatusNotFound)
	expect(t, do(t, s, call{method: http.MethodGet, path: "/products?min_price=x"}), http.StatusBadRequest)

	expect(t, do(t, s, call{method: http.MethodPatch, path: fmt.Sprintf("/admin/products/%d/toggle", id), token: admin.token}), http.StatusOK)
	w = do(t, s, call{method: http.MethodGet, path: "/products"})
	if list := decode[listResponse[service.ProductView]](t, w); len(list.Items) != 0 {
		t.Fatalf("inactive product must be hidden")
	}
	w = do(t, s, call{method: http.MethodGet, path: "/admin/products", token: admin.token})
	if list := decode[listResponse[service.ProductView]](t, w); len(list.Items) != 1 {
		t.Fatalf("admin sees inactive products")
	}
}

func TestCart_QuantityLimits(t *testing.T) {
	s := setupServer(t)
	admin := adminSession(t, s)
	user := customerSession(t, s, "asha@example.com")
	id := seedProduct(t, s, admin, 1000, 3)

	add := func(q int) *httptest.ResponseRecorder {
		return do(t, s, call{method: http.MethodPost, path: "/user/cart/add", token: user.token,
			body: map[string]any{"product_id": id, "size": "M", "quantity": q}})
	}
	expect(t, add(6), http.StatusBadRequest)
	expect(t, add(0), http.StatusBadRequest)
	expect(t, add(4), http.StatusBadRequest) // stock 3

	w := add(2)
	expect(t, w, http.StatusOK)
	cart := decode[service.CartView](t, w)
	if cart.ItemCount != 2 || !cart.Total.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected cart %+v", cart)
	}

	w = do(t, s, call{method: http.MethodDelete, path: "/user/cart/remove", token: user.token,
		body: map[string]any{"product_id": id, "size": "M"}})
	expect(t, w, http.StatusOK)
	if cart := decode[service.CartView](t, w); len(cart.Items) != 0 {
		t.Fatalf("cart should be empty")
	}
}

func TestOrder_CheckoutCancelAndReturn(t *testing.T) {
	s := setupServer(t)
	admin := adminSession(t, s)
	user := customerSession(t, s, "asha@example.com")
	id := seedProduct(t, s, admin, 1000, 10)
	addr := seedAddress(t, s, user)

	checkout := func(q int) domain.Order {
		t.Helper()
		expect(t, do(t, s, call{method: http.MethodPost, path: "/user/cart/add", token: user.token,
			body: map[string]any{"product_id": id, "size": "M", "quantity": q}}), http.StatusOK)
		w := do(t, s, call{method: http.MethodPost, path: "/user/order/create", token: user.token,
			body: map[string]any{"address_id": addr, "payment_method": "COD"}})
		expect(t, w, http.StatusCreated)
		return decode[domain.Order](t, w)
	}

	w := do(t, s, call{method: http.MethodPost, path: "/user/order/create", token: user.token,
		body: map[string]any{"address_id": addr, "payment_method": "Card"}})
	expectError(t, w, http.StatusBadRequest, "paymentMethod is invalid (payment_method)")

	first := checkout(2)
	if first.Status != domain.OrderStatusPending || !first.CurrentAmount.Equal(decimal.NewFromInt(2050)) {
		t.Fatalf("unexpected order %+v", first)
	}
	w = do(t, s, call{method: http.MethodPost, path: fmt.Sprintf("/user/order/%d/cancel", first.ID), token: user.token})
	expect(t, w, http.StatusOK)
	if o := decode[domain.Order](t, w); o.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", o.Status)
	}
	expect(t, do(t, s, call{method: http.MethodPost, path: fmt.Sprintf("/user/order/%d/cancel", first.ID), token: user.token}), http.StatusConflict)

	second := checkout(1)
	other := customerSession(t, s, "ravi@example.com")
	expect(t, do(t, s, call{method: http.MethodGet, path: fmt.Sprintf("/user/order/%d", second.ID), token: other.token}), http.StatusNotFound)

	statusPath := fmt.Sprintf("/admin/orders/%d/status", second.ID)
	expect(t, do(t, s, call{method: http.MethodPut, path: statusPath, token: admin.token, body: map[string]string{"status": "Lost"}}), http.StatusBadRequest)
	expect(t, do(t, s, call{method: http.MethodPut, path: statusPath, token: admin.token, body: map[string]string{"status": "Delivered"}}), http.StatusConflict)
	for _, st := range []string{"Processing", "Shipped", "Delivered"} {
		expect(t, do(t, s, call{method: http.MethodPut, path: statusPath, token: admin.token, body: map[string]string{"status": st}}), http.StatusOK)
	}

	item := second.Items[0].ID
	expect(t, do(t, s, call{method: http.MethodPost, path: "/user/return/request", token: user.token,
		body: map[string]any{"order_id": second.ID, "item_id": item}}), http.StatusBadRequest)
	expect(t, do(t, s, call{method: http.MethodPost, path: "/user/return/request", token: user.token,
		body: map[string]any{"order_id": second.ID, "item_id": item, "reason": "too small"}}), http.StatusOK)

	w = do(t, s, call{method: http.MethodGet, path: "/admin/returns?status=Pending", token: admin.token})
	expect(t, w, http.StatusOK)
	if list := decode[listResponse[service.ReturnEntry]](t, w); len(list.Items) != 1 {
		t.Fatalf("expected one pending return, got %d", len(list.Items))
	}

	w = do(t, s, call{method: http.MethodPost, path: fmt.Sprintf("/admin/returns/%d/items/%d/approve", second.ID, item),
		token: admin.token, body: map[string]string{"note": "ok"}})
	expect(t, w, http.StatusOK)
	if o := decode[domain.Order](t, w); o.Items[0].Status != domain.ItemStatusReturned {
		t.Fatalf("expected returned item, got %s", o.Items[0].Status)
	}

	w = do(t, s, call{method: http.MethodGet, path: "/user/wallet/details", token: user.token})
	expect(t, w, http.StatusOK)
	if d := decode[service.WalletDetails](t, w); !d.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected refund of 1000, got %s", d.Balance)
	}

	w = do(t, s, call{method: http.MethodGet, path: fmt.Sprintf("/products/%d", id)})
	if p := decode[service.ProductView](t, w); p.TotalStock != 10 {
		t.Fatalf("stock should be restored, got %d", p.TotalStock)
	}

	w = do(t, s, call{method: http.MethodGet, path: "/admin/reports/sales?from=2000-01-01", token: admin.token})
	expect(t, w, http.StatusOK)
	if r := decode[service.SalesReport](t, w); r.Orders != 2 || r.Cancelled != 1 {
		t.Fatalf("unexpected report %+v", r)
	}
	expect(t, do(t, s, call{method: http.MethodGet, path: "/admin/reports/sales?from=yesterday", token: admin.token}), http.StatusBadRequest)
	expect(t, do(t, s, call{method: http.MethodGet, path: "/admin/dashboard", token: admin.token}), http.StatusOK)
}

func TestParseTime(t *testing.T) {
	start, err := parseTime("2025-03-01", false)
	if err != nil || !start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v %v", start, err)
	}
	end, err := parseTime("2025-03-01", true)
	if err != nil || end.Day() != 1 || end.Hour() != 23 {
		t.Fatalf("unexpected end %v %v", end, err)
	}
	exact, err := parseTime("2025-03-01T10:00:00+05:30", true)
	if err != nil || exact.Hour() != 4 {
		t.Fatalf("unexpected rfc3339 %v %v", exact, err)
	}
	if _, err := parseTime("03/01/2025", false); err == nil {
		t.Fatal("expected error")
	}
}

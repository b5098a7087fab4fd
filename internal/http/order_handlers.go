package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

const dateLayout = "2006-01-02"

// parseTime accepts RFC3339 or a bare date. With endOfDay a bare date means its last instant.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC3339", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func optionalTime(s string, endOfDay bool) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseTime(s, endOfDay)
}

// Customer orders

type checkoutReq struct {
	AddressID     int64                `json:"address_id" binding:"required,gt=0"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" binding:"required,payment_method"`
	CouponCode    string               `json:"coupon_code" binding:"omitempty,coupon_code"`
}

type orderListQuery struct {
	Status domain.OrderStatus `form:"status" binding:"omitempty,order_status"`
	Page   int                `form:"page"`
	Limit  int                `form:"limit"`
}

// @Summary Place an order from the cart
// @Description Reserves stock, redeems the coupon and clears the cart. Wallet orders are paid immediately.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body checkoutReq true "Checkout"
// @Success 201 {object} domain.Order
// @Failure 400 {object} errorResponse
// @Router /user/order/create [post]
func (s *Server) createOrder(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	o, err := s.svc.Orders.Checkout(c.Request.Context(), principal(c).UserID, service.CheckoutInput{
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary My orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[domain.Order]
// @Router /user/order [get]
func (s *Server) listMyOrders(c *gin.Context) {
	var q orderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	list, info, err := s.svc.Orders.ListForUser(c.Request.Context(), principal(c).UserID, q.Status,
		repository.PageRequest{Page: q.Page, Limit: q.Limit})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(list, info))
}

// @Summary My order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} errorResponse
// @Router /user/order/{id} [get]
func (s *Server) getMyOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := s.svc.Orders.GetOrder(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel an order
// @Description Only Pending or Processing orders. Paid amounts go back to the wallet.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 409 {object} errorResponse
// @Router /user/order/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := s.svc.Orders.CancelOrder(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel one item
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param itemId path int true "Item ID"
// @Success 200 {object} domain.Order
// @Failure 409 {object} errorResponse
// @Router /user/order/{id}/items/{itemId}/cancel [post]
func (s *Server) cancelOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	o, err := s.svc.Orders.CancelItem(c.Request.Context(), principal(c).UserID, id, itemID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Returns

type returnReq struct {
	OrderID int64  `json:"order_id" binding:"required,gt=0"`
	ItemID  int64  `json:"item_id" binding:"required,gt=0"`
	Reason  string `json:"reason" binding:"required,max=500"`
}

type returnListQuery struct {
	Status domain.ReturnStatus `form:"status" binding:"omitempty,oneof=Pending Approved Rejected"`
	Page   int                 `form:"page"`
	Limit  int                 `form:"limit"`
}

type resolveReq struct {
	Note string `json:"note" binding:"max=500"`
}

// @Summary Request a return
// @Description Only delivered items.
// @Tags returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body returnReq true "Return"
// @Success 200 {object} domain.Order
// @Failure 409 {object} errorResponse
// @Router /user/return/request [post]
func (s *Server) requestReturn(c *gin.Context) {
	var req returnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	o, err := s.svc.Orders.RequestReturn(c.Request.Context(), principal(c).UserID, req.OrderID, req.ItemID, req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) returnList(c *gin.Context, userID int64) {
	var q returnListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	list, info, err := s.svc.Orders.ListReturns(c.Request.Context(), userID, q.Status,
		repository.PageRequest{Page: q.Page, Limit: q.Limit})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(list, info))
}

// @Summary My returns
// @Tags returns
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending, Approved or Rejected"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[service.ReturnEntry]
// @Router /user/return [get]
func (s *Server) listMyReturns(c *gin.Context) { s.returnList(c, principal(c).UserID) }

// @Summary All return requests
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending, Approved or Rejected"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[service.ReturnEntry]
// @Router /admin/returns [get]
func (s *Server) adminListReturns(c *gin.Context) { s.returnList(c, 0) }

type resolveFunc func(c *gin.Context, orderID, itemID int64, note string) (*domain.Order, error)

func (s *Server) resolveReturn(c *gin.Context, fn resolveFunc) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var req resolveReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	o, err := fn(c, orderID, itemID, req.Note)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Approve a return
// @Description Restocks the item and refunds its payable amount to the wallet.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderId path int true "Order ID"
// @Param itemId path int true "Item ID"
// @Param input body resolveReq false "Admin note"
// @Success 200 {object} domain.Order
// @Failure 409 {object} errorResponse
// @Router /admin/returns/{orderId}/items/{itemId}/approve [post]
func (s *Server) approveReturn(c *gin.Context) {
	s.resolveReturn(c, func(c *gin.Context, orderID, itemID int64, note string) (*domain.Order, error) {
		return s.svc.Orders.ApproveReturn(c.Request.Context(), orderID, itemID, note)
	})
}

// @Summary Reject a return
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderId path int true "Order ID"
// @Param itemId path int true "Item ID"
// @Param input body resolveReq false "Admin note"
// @Success 200 {object} domain.Order
// @Failure 409 {object} errorResponse
// @Router /admin/returns/{orderId}/items/{itemId}/reject [post]
func (s *Server) rejectReturn(c *gin.Context) {
	s.resolveReturn(c, func(c *gin.Context, orderID, itemID int64, note string) (*domain.Order, error) {
		return s.svc.Orders.RejectReturn(c.Request.Context(), orderID, itemID, note)
	})
}

// Admin orders

type adminOrderQuery struct {
	Status domain.OrderStatus `form:"status" binding:"omitempty,order_status"`
	UserID int64              `form:"user_id" binding:"gte=0"`
	Search string             `form:"search"`
	From   string             `form:"from"`
	To     string             `form:"to"`
	Page   int                `form:"page"`
	Limit  int                `form:"limit"`
}

type statusReq struct {
	Status domain.OrderStatus `json:"status" binding:"required,order_status"`
}

// @Summary List orders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status"
// @Param user_id query int false "Customer"
// @Param search query string false "Order number contains"
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[domain.Order]
// @Router /admin/orders [get]
func (s *Server) adminListOrders(c *gin.Context) {
	var q adminOrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	from, err := optionalTime(q.From, false)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	to, err := optionalTime(q.To, true)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	list, info, err := s.svc.Orders.List(c.Request.Context(), repository.OrderFilter{
		UserID: q.UserID,
		Status: q.Status,
		From:   from,
		To:     to,
	}, q.Search, repository.PageRequest{Page: q.Page, Limit: q.Limit})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(list, info))
}

// @Summary Get order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} errorResponse
// @Router /admin/orders/{id} [get]
func (s *Server) adminGetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := s.svc.Orders.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Move an order forward
// @Description Pending > Processing > Shipped > Delivered; Cancelled from Pending or Processing.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param input body statusReq true "Status"
// @Success 200 {object} domain.Order
// @Failure 409 {object} errorResponse
// @Router /admin/orders/{id}/status [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	o, err := s.svc.Orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Users

type userListQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// @Summary List customers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email contains"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[domain.User]
// @Router /admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	var q userListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	list, info, err := s.svc.Users.List(c.Request.Context(), q.Search, repository.PageRequest{Page: q.Page, Limit: q.Limit})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(list, info))
}

func (s *Server) setBlocked(c *gin.Context, blocked bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := s.svc.Users.SetBlocked(c.Request.Context(), id, blocked)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Block a customer
// @Description Revokes every session of the customer.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} domain.User
// @Router /admin/users/{id}/block [patch]
func (s *Server) blockUser(c *gin.Context) { s.setBlocked(c, true) }

// @Summary Unblock a customer
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} domain.User
// @Router /admin/users/{id}/unblock [patch]
func (s *Server) unblockUser(c *gin.Context) { s.setBlocked(c, false) }

// Reports

type reportQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// @Summary Sales report
// @Description Defaults to the last 30 days.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Success 200 {object} service.SalesReport
// @Failure 400 {object} errorResponse
// @Router /admin/reports/sales [get]
func (s *Server) salesReport(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	from, err := optionalTime(q.From, false)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	to, err := optionalTime(q.To, true)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	r, err := s.svc.Reports.Sales(c.Request.Context(), from, to)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary Dashboard counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Dashboard
// @Router /admin/dashboard [get]
func (s *Server) dashboard(c *gin.Context) {
	d, err := s.svc.Reports.Dashboard(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

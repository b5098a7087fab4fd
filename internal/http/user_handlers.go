package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

// Cart

type cartItemReq struct {
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	Size      string `json:"size" binding:"required,max=10"`
	Quantity  int64  `json:"quantity"`
}

type cartLineReq struct {
	ProductID int64  `json:"product_id" form:"product_id" binding:"required,gt=0"`
	Size      string `json:"size" form:"size" binding:"required"`
}

// @Summary Get cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.CartView
// @Router /user/cart [get]
func (s *Server) getCart(c *gin.Context) {
	v, err := s.svc.Carts.View(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Add to cart
// @Description Merges with an existing line; a line holds at most 5 and never more than stock.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body cartItemReq true "Line"
// @Success 200 {object} service.CartView
// @Failure 400 {object} errorResponse
// @Router /user/cart/add [post]
func (s *Server) addToCart(c *gin.Context) {
	var req cartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := s.svc.Carts.Add(c.Request.Context(), principal(c).UserID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Set cart line quantity
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body cartItemReq true "Line"
// @Success 200 {object} service.CartView
// @Failure 400 {object} errorResponse
// @Router /user/cart/update [put]
func (s *Server) updateCart(c *gin.Context) {
	var req cartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := s.svc.Carts.UpdateQuantity(c.Request.Context(), principal(c).UserID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Remove cart line
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body cartLineReq true "Line"
// @Success 200 {object} service.CartView
// @Failure 404 {object} errorResponse
// @Router /user/cart/remove [delete]
func (s *Server) removeFromCart(c *gin.Context) {
	var req cartLineReq
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := s.svc.Carts.Remove(c.Request.Context(), principal(c).UserID, req.ProductID, req.Size)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Clear cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} messageResponse
// @Router /user/cart/clear [delete]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.svc.Carts.Clear(c.Request.Context(), principal(c).UserID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Cart cleared"})
}

// Wishlist

type wishlistReq struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

// @Summary Get wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.WishlistView
// @Router /user/wishlist [get]
func (s *Server) getWishlist(c *gin.Context) {
	v, err := s.svc.Carts.Wishlist(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Add to wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body wishlistReq true "Product"
// @Success 200 {object} domain.Wishlist
// @Router /user/wishlist/add [post]
func (s *Server) addToWishlist(c *gin.Context) {
	var req wishlistReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	wl, err := s.svc.Carts.AddToWishlist(c.Request.Context(), principal(c).UserID, req.ProductID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}

// @Summary Remove from wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param productId path int true "Product ID"
// @Success 200 {object} domain.Wishlist
// @Failure 404 {object} errorResponse
// @Router /user/wishlist/remove/{productId} [delete]
func (s *Server) removeFromWishlist(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	wl, err := s.svc.Carts.RemoveFromWishlist(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}

// @Summary Clear wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} messageResponse
// @Router /user/wishlist/clear [delete]
func (s *Server) clearWishlist(c *gin.Context) {
	if err := s.svc.Carts.ClearWishlist(c.Request.Context(), principal(c).UserID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Wishlist cleared"})
}

// Addresses

type addressReq struct {
	Type       domain.AddressType `json:"type" binding:"required,address_type"`
	FullName   string             `json:"full_name" binding:"required,max=80"`
	Phone      string             `json:"phone" binding:"required"`
	Street     string             `json:"street" binding:"required,max=200"`
	Apartment  string             `json:"apartment" binding:"max=100"`
	City       string             `json:"city" binding:"required,max=60"`
	State      string             `json:"state" binding:"required,max=60"`
	Country    string             `json:"country" binding:"required,max=60"`
	PostalCode string             `json:"postal_code" binding:"required"`
}

func (r addressReq) address() domain.Address {
	return domain.Address{
		Type: r.Type, FullName: r.FullName, Phone: r.Phone, Street: r.Street, Apartment: r.Apartment,
		City: r.City, State: r.State, Country: r.Country, PostalCode: r.PostalCode,
	}
}

// @Summary List addresses
// @Tags address
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Address
// @Router /user/address [get]
func (s *Server) listAddresses(c *gin.Context) {
	list, err := s.svc.Addresses.List(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Add address
// @Description The first address becomes the default.
// @Tags address
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addressReq true "Address"
// @Success 201 {object} domain.Address
// @Failure 400 {object} errorResponse
// @Router /user/address [post]
func (s *Server) createAddress(c *gin.Context) {
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := s.svc.Addresses.Create(c.Request.Context(), principal(c).UserID, req.address())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// @Summary Update address
// @Tags address
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Address ID"
// @Param input body addressReq true "Address"
// @Success 200 {object} domain.Address
// @Failure 404 {object} errorResponse
// @Router /user/address/{id} [put]
func (s *Server) updateAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := s.svc.Addresses.Update(c.Request.Context(), principal(c).UserID, id, req.address())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary Delete address
// @Tags address
// @Security BearerAuth
// @Param id path int true "Address ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Router /user/address/{id} [delete]
func (s *Server) deleteAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Addresses.Delete(c.Request.Context(), principal(c).UserID, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Make address the default
// @Tags address
// @Produce json
// @Security BearerAuth
// @Param id path int true "Address ID"
// @Success 200 {object} domain.Address
// @Router /user/address/{id}/default [patch]
func (s *Server) setDefaultAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := s.svc.Addresses.SetDefault(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Wallet and coupons

// @Summary Wallet balance and ledger
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} service.WalletDetails
// @Router /user/wallet/details [get]
func (s *Server) walletDetails(c *gin.Context) {
	req, ok := bindPage(c)
	if !ok {
		return
	}
	d, err := s.svc.Wallet.Details(c.Request.Context(), principal(c).UserID, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary Coupons the customer can redeem
// @Tags coupons
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Coupon
// @Router /user/coupons [get]
func (s *Server) availableCoupons(c *gin.Context) {
	list, err := s.svc.Promotions.AvailableCoupons(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type applyCouponReq struct {
	Code string `json:"code" binding:"required,coupon_code"`
}

// @Summary Preview a coupon on the cart
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body applyCouponReq true "Code"
// @Success 200 {object} service.CouponQuote
// @Failure 400 {object} errorResponse
// @Router /user/coupon/apply [post]
func (s *Server) applyCoupon(c *gin.Context) {
	var req applyCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	q, err := s.svc.Carts.ApplyCoupon(c.Request.Context(), principal(c).UserID, req.Code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

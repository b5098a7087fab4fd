package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

// listResponse is one page of a collection.
type listResponse[T any] struct {
	Items      []T                 `json:"items"`
	Pagination repository.PageInfo `json:"pagination"`
}

func page[T any](items []T, info repository.PageInfo) listResponse[T] {
	return listResponse[T]{Items: items, Pagination: info}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err == nil && id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, err
}

// pathID parses a positive id path parameter or answers 400.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := parseID(c.Param(name))
	if err != nil {
		abortWith(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func bindPage(c *gin.Context) (repository.PageRequest, bool) {
	var req repository.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "page and limit must be numbers")
		return req, false
	}
	return req, true
}

// Product handlers

type productQuery struct {
	Search     string `form:"search"`
	CategoryID int64  `form:"category"`
	MinPrice   string `form:"min_price"`
	MaxPrice   string `form:"max_price"`
	Sort       string `form:"sort"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

func optionalDecimal(v string) (*decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Server) productList(c *gin.Context, public bool) {
	var q productQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	minPrice, err := optionalDecimal(q.MinPrice)
	if err != nil {
		abortWith(c, http.StatusBadRequest, "min_price must be a number")
		return
	}
	maxPrice, err := optionalDecimal(q.MaxPrice)
	if err != nil {
		abortWith(c, http.StatusBadRequest, "max_price must be a number")
		return
	}
	list, info, err := s.svc.Products.List(c.Request.Context(), service.ProductQuery{
		Search:     q.Search,
		CategoryID: q.CategoryID,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Sort:       q.Sort,
		Page:       repository.PageRequest{Page: q.Page, Limit: q.Limit},
	}, public)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(list, info))
}

// @Summary List products
// @Description Active products of active categories. A page past the end returns the last page.
// @Tags products
// @Produce json
// @Param search query string false "Name contains"
// @Param category query int false "Category ID"
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Param sort query string false "newest, price_asc, price_desc, name_asc, name_desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[service.ProductView]
// @Failure 400 {object} errorResponse
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) { s.productList(c, true) }

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} service.ProductView
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.svc.Products.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List all products
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name contains"
// @Param category query int false "Category ID"
// @Param sort query string false "Sort order"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[service.ProductView]
// @Router /admin/products [get]
func (s *Server) adminListProducts(c *gin.Context) { s.productList(c, false) }

// @Summary Get any product
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} errorResponse
// @Router /admin/products/{id} [get]
func (s *Server) adminGetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.svc.Products.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type productReq struct {
	Name            string             `json:"name" binding:"required,max=120"`
	Description     string             `json:"description" binding:"max=2000"`
	CategoryID      int64              `json:"category_id" binding:"required,gt=0"`
	Images          []string           `json:"images" binding:"max=5,dive,url"`
	RegularPrice    decimal.Decimal    `json:"regular_price" swaggertype:"number"`
	DiscountPercent decimal.Decimal    `json:"discount_percent" swaggertype:"number"`
	Sizes           []domain.SizeStock `json:"sizes" binding:"required,min=1"`
	Active          *bool              `json:"active"`
	OfferID         *int64             `json:"offer_id"`
}

func (r productReq) input() service.ProductInput {
	return service.ProductInput{
		Name:            r.Name,
		Description:     r.Description,
		CategoryID:      r.CategoryID,
		Images:          r.Images,
		RegularPrice:    r.RegularPrice,
		DiscountPercent: r.DiscountPercent,
		Sizes:           r.Sizes,
		Active:          r.Active,
		OfferID:         r.OfferID,
	}
}

// @Summary Create product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} errorResponse
// @Router /admin/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := s.svc.Products.Create(c.Request.Context(), req.input())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /admin/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := s.svc.Products.Update(c.Request.Context(), id, req.input())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Toggle product visibility
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} errorResponse
// @Router /admin/products/{id}/toggle [patch]
func (s *Server) toggleProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.svc.Products.Toggle(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Router /admin/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Products.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Category handlers

type categoryReq struct {
	Name        string `json:"name" binding:"required,max=60"`
	Description string `json:"description" binding:"max=500"`
}

// @Summary List active categories
// @Tags categories
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.svc.Categories.List(c.Request.Context(), true)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List all categories
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Category
// @Router /admin/categories [get]
func (s *Server) adminListCategories(c *gin.Context) {
	list, err := s.svc.Categories.List(c.Request.Context(), false)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create category
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body categoryReq true "Category"
// @Success 201 {object} domain.Category
// @Failure 409 {object} errorResponse
// @Router /admin/categories [post]
func (s *Server) createCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cat, err := s.svc.Categories.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// @Summary Update category
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param input body categoryReq true "Category"
// @Success 200 {object} domain.Category
// @Router /admin/categories/{id} [put]
func (s *Server) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cat, err := s.svc.Categories.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary Toggle category visibility
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} domain.Category
// @Router /admin/categories/{id}/toggle [patch]
func (s *Server) toggleCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cat, err := s.svc.Categories.Toggle(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary Delete empty category
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 409 {object} errorResponse
// @Router /admin/categories/{id} [delete]
func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Categories.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Offer handlers

type offerReq struct {
	Name            string             `json:"name" binding:"required,max=80"`
	DiscountPercent decimal.Decimal    `json:"discount_percent" swaggertype:"number"`
	StartsAt        string             `json:"starts_at" binding:"required"`
	EndsAt          string             `json:"ends_at" binding:"required"`
	TargetType      domain.OfferTarget `json:"target_type" binding:"required,oneof=product category"`
	TargetID        int64              `json:"target_id" binding:"required,gt=0"`
	Active          *bool              `json:"active"`
}

func (r offerReq) input() (service.OfferInput, error) {
	start, err := parseTime(r.StartsAt, false)
	if err != nil {
		return service.OfferInput{}, err
	}
	end, err := parseTime(r.EndsAt, true)
	if err != nil {
		return service.OfferInput{}, err
	}
	return service.OfferInput{
		Name:            r.Name,
		DiscountPercent: r.DiscountPercent,
		StartsAt:        start,
		EndsAt:          end,
		TargetType:      r.TargetType,
		TargetID:        r.TargetID,
		Active:          r.Active,
	}, nil
}

// @Summary List running offers
// @Tags offers
// @Produce json
// @Success 200 {array} domain.Offer
// @Router /offers [get]
func (s *Server) listOffers(c *gin.Context) {
	list, err := s.svc.Promotions.ListOffers(c.Request.Context(), true)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List every offer
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Offer
// @Router /admin/offers [get]
func (s *Server) adminListOffers(c *gin.Context) {
	list, err := s.svc.Promotions.ListOffers(c.Request.Context(), false)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Running offers for a product
// @Tags offers
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {array} domain.Offer
// @Failure 404 {object} errorResponse
// @Router /offers/product/{id} [get]
func (s *Server) offersForProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := s.svc.Promotions.OffersForProduct(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create offer
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body offerReq true "Offer"
// @Success 201 {object} domain.Offer
// @Failure 400 {object} errorResponse
// @Router /admin/createoffer [post]
func (s *Server) createOffer(c *gin.Context) {
	var req offerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in, err := req.input()
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	o, err := s.svc.Promotions.CreateOffer(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary Update offer
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offer ID"
// @Param input body offerReq true "Offer"
// @Success 200 {object} domain.Offer
// @Router /admin/offers/{id} [put]
func (s *Server) updateOffer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req offerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in, err := req.input()
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	o, err := s.svc.Promotions.UpdateOffer(c.Request.Context(), id, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Delete offer
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Offer ID"
// @Success 204
// @Router /admin/offers/{id} [delete]
func (s *Server) deleteOffer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Promotions.DeleteOffer(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Coupon handlers

type couponReq struct {
	Code            string          `json:"code" binding:"required,coupon_code"`
	Description     string          `json:"description" binding:"max=200"`
	DiscountPercent decimal.Decimal `json:"discount_percent" swaggertype:"number"`
	MinPurchase     decimal.Decimal `json:"min_purchase" swaggertype:"number"`
	MaxDiscount     decimal.Decimal `json:"max_discount" swaggertype:"number"`
	UsageLimit      int64           `json:"usage_limit" binding:"gte=0"`
	ExpiresAt       string          `json:"expires_at" binding:"required"`
}

// @Summary Create coupon
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body couponReq true "Coupon"
// @Success 201 {object} domain.Coupon
// @Failure 409 {object} errorResponse
// @Router /admin/create [post]
func (s *Server) createCoupon(c *gin.Context) {
	var req couponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	exp, err := parseTime(req.ExpiresAt, true)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	cp, err := s.svc.Promotions.CreateCoupon(c.Request.Context(), service.CouponInput{
		Code:            req.Code,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		MinPurchase:     req.MinPurchase,
		MaxDiscount:     req.MaxDiscount,
		UsageLimit:      req.UsageLimit,
		ExpiresAt:       exp,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

// @Summary List coupons
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} listResponse[domain.Coupon]
// @Router /admin/coupons [get]
func (s *Server) listCoupons(c *gin.Context) {
	req, ok := bindPage(c)
	if !ok {
		return
	}
	list, info, err := s.svc.Promotions.ListCoupons(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(list, info))
}

// @Summary Delete coupon
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Coupon ID"
// @Success 204
// @Router /admin/coupons/{id} [delete]
func (s *Server) deleteCoupon(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Promotions.DeleteCoupon(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Package httpapi exposes the storefront REST API over gin.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

// Services are the use cases the API is built on.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Products   *service.ProductService
	Categories *service.CategoryService
	Promotions *service.PromotionService
	Carts      *service.CartService
	Addresses  *service.AddressService
	Wallet     *service.WalletService
	Orders     *service.OrderService
	Reports    *service.ReportService
}

// Options tune the HTTP surface.
type Options struct {
	// CookieSecure marks auth cookies Secure; enable behind TLS.
	CookieSecure bool
}

type Server struct {
	engine *gin.Engine
	svc    Services
	opts   Options
	log    *slog.Logger
}

func NewServer(svc Services, opts Options, log *slog.Logger) *Server {
	registerValidators()
	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())
	s := &Server{engine: r, svc: svc, opts: opts, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/health", s.health)

	authGroup := s.engine.Group("/auth")
	{
		authGroup.POST("/signup", s.signup)
		authGroup.POST("/login", s.login)
		authGroup.POST("/admin/login", s.adminLogin)
		authGroup.POST("/refreshtoken", s.refresh)
		authGroup.POST("/logout", s.logout)
	}

	s.engine.GET("/products", s.listProducts)
	s.engine.GET("/products/:id", s.getProduct)
	s.engine.GET("/categories", s.listCategories)
	s.engine.GET("/offers", s.listOffers)
	s.engine.GET("/offers/product/:id", s.offersForProduct)

	user := s.engine.Group("/user", s.requireRole(domain.RoleUser))
	{
		user.GET("/profile", s.profile)

		user.GET("/cart", s.getCart)
		user.POST("/cart/add", s.addToCart)
		user.PUT("/cart/update", s.updateCart)
		user.DELETE("/cart/remove", s.removeFromCart)
		user.DELETE("/cart/clear", s.clearCart)

		user.GET("/wishlist", s.getWishlist)
		user.POST("/wishlist/add", s.addToWishlist)
		user.DELETE("/wishlist/remove/:productId", s.removeFromWishlist)
		user.DELETE("/wishlist/clear", s.clearWishlist)

		user.GET("/address", s.listAddresses)
		user.POST("/address", s.createAddress)
		user.PUT("/address/:id", s.updateAddress)
		user.DELETE("/address/:id", s.deleteAddress)
		user.PATCH("/address/:id/default", s.setDefaultAddress)

		user.POST("/order/create", s.createOrder)
		user.GET("/order", s.listMyOrders)
		user.GET("/order/:id", s.getMyOrder)
		user.POST("/order/:id/cancel", s.cancelOrder)
		user.POST("/order/:id/items/:itemId/cancel", s.cancelOrderItem)

		user.POST("/return/request", s.requestReturn)
		user.GET("/return", s.listMyReturns)

		user.GET("/wallet/details", s.walletDetails)
		user.GET("/coupons", s.availableCoupons)
		user.POST("/coupon/apply", s.applyCoupon)
	}

	admin := s.engine.Group("/admin", s.requireRole(domain.RoleAdmin))
	{
		admin.GET("/categories", s.adminListCategories)
		admin.POST("/categories", s.createCategory)
		admin.PUT("/categories/:id", s.updateCategory)
		admin.DELETE("/categories/:id", s.deleteCategory)
		admin.PATCH("/categories/:id/toggle", s.toggleCategory)

		admin.GET("/products", s.adminListProducts)
		admin.GET("/products/:id", s.adminGetProduct)
		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)
		admin.PATCH("/products/:id/toggle", s.toggleProduct)

		admin.GET("/offers", s.adminListOffers)
		admin.POST("/createoffer", s.createOffer)
		admin.PUT("/offers/:id", s.updateOffer)
		admin.DELETE("/offers/:id", s.deleteOffer)

		admin.POST("/create", s.createCoupon)
		admin.GET("/coupons", s.listCoupons)
		admin.DELETE("/coupons/:id", s.deleteCoupon)

		admin.GET("/orders", s.adminListOrders)
		admin.GET("/orders/:id", s.adminGetOrder)
		admin.PUT("/orders/:id/status", s.updateOrderStatus)

		admin.GET("/returns", s.adminListReturns)
		admin.POST("/returns/:orderId/items/:itemId/approve", s.approveReturn)
		admin.POST("/returns/:orderId/items/:itemId/reject", s.rejectReturn)

		admin.GET("/users", s.listUsers)
		admin.PATCH("/users/:id/block", s.blockUser)
		admin.PATCH("/users/:id/unblock", s.unblockUser)

		admin.GET("/reports/sales", s.salesReport)
		admin.GET("/dashboard", s.dashboard)
	}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

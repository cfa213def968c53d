package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/krushee/krushee-backend-go/handlers"
	customMiddleware "github.com/krushee/krushee-backend-go/middleware"
)

// SetupRoutes registers every endpoint. Catalog reads are public; cart, address and
// card routes are scoped to the X-Session-ID shopper session; order history needs a
// signed-in user. Checkout and single purchases accept guests at the routing level and
// report AUTH_REQUIRED themselves, after the empty-cart check.
func SetupRoutes(e *echo.Echo, h *handlers.Handler, jwtSecret string) {
	e.GET("/health", handlers.Health)

	// Public routes
	e.POST("/register", h.Register)
	e.POST("/login", h.Login)

	api := e.Group("/api")
	api.Use(customMiddleware.SessionID())
	api.Use(customMiddleware.OptionalAuth(jwtSecret))

	// Catalog routes
	api.GET("/catalog/products", h.GetProducts)
	api.GET("/catalog/products/search", h.SearchProducts)
	api.GET("/catalog/products/:id", h.GetProduct)
	api.GET("/catalog/categories", h.GetCategories)
	api.GET("/catalog/brands", h.GetBrands)
	api.GET("/catalog/banners", h.GetBanners)
	api.GET("/catalog/testimonials", h.GetTestimonials)
	api.GET("/catalog/stream/:collection", h.CatalogStream)

	// Cart routes
	api.GET("/cart", h.GetCart)
	api.POST("/cart", h.AddToCart)
	api.DELETE("/cart", h.ClearCart)
	api.GET("/cart/totals", h.GetCartTotals)
	api.PATCH("/cart/:productId", h.UpdateCartItemQuantity)
	api.DELETE("/cart/:productId", h.RemoveFromCart)
	api.POST("/cart/:productId/save-for-later", h.SaveForLater)

	api.GET("/coupons", h.GetCoupons)
	api.POST("/coupons", h.GrantCoupon)
	api.POST("/coupons/:code/use", h.UseCoupon)

	api.GET("/wishlist", h.GetWishlist)
	api.DELETE("/wishlist/:productId", h.RemoveWishlistItem)

	// Address and card routes
	api.GET("/addresses", h.GetAddresses)
	api.POST("/addresses", h.SaveAddress)
	api.PUT("/addresses/:id", h.SaveAddress)
	api.DELETE("/addresses/:id", h.DeleteAddress)

	api.GET("/cards", h.GetCards)
	api.POST("/cards", h.AddCard)
	api.DELETE("/cards/:id", h.RemoveCard)

	api.GET("/session/events", h.SessionEvents)
	api.POST("/logout", h.Logout)

	// Order routes
	api.POST("/checkout", h.Checkout)
	api.POST("/products/:id/purchase", h.PurchaseProduct)

	// Protected API routes
	requireAuth := customMiddleware.RequireAuth(jwtSecret)
	api.GET("/users/me", h.GetUserProfile, requireAuth)
	api.GET("/orders", h.GetOrders, requireAuth)
	api.GET("/orders/:orderId/status", h.GetOrderStatus, requireAuth)
	api.GET("/purchases", h.GetPurchases, requireAuth)
}

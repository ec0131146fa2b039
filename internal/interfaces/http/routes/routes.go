// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/checkout-backend/internal/interfaces/http/handlers"
	"github.com/your-org/checkout-backend/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-backend/internal/pkg/auth"
)

// Handlers groups the handlers mounted under /api/v1
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
}

// SetupRoutes registers every API route on rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager) {
	authenticated := rg.Group("")
	authenticated.Use(middleware.AuthMiddleware(jwtManager))

	SetupCartRoutes(authenticated, h.Cart)
	SetupOrderRoutes(authenticated, h.Checkout, h.Order)
	SetupAdminRoutes(authenticated, h.Order)
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, cartHandler *handlers.CartHandler) {
	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.GET("/checked", cartHandler.GetChecked)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.POST("/validate", cartHandler.ValidateCart)

		cart.POST("/items", cartHandler.AddItem)
		cart.PATCH("/items/toggle-all", cartHandler.ToggleAll)
		cart.DELETE("/items/batch", cartHandler.BatchRemove)
		cart.DELETE("/items/checked", cartHandler.RemoveChecked)
		cart.PUT("/items/:id", cartHandler.UpdateItem)
		cart.DELETE("/items/:id", cartHandler.RemoveItem)
		cart.PATCH("/items/:id/toggle", cartHandler.ToggleItem)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, checkoutHandler *handlers.CheckoutHandler, orderHandler *handlers.OrderHandler) {
	orders := rg.Group("/orders")
	{
		orders.POST("", checkoutHandler.CreateOrder)
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/count", orderHandler.CountOrders)
		orders.GET("/number/:orderNumber", orderHandler.GetOrderByNumber)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/history", orderHandler.GetOrderHistory)
		orders.PATCH("/:id/cancel", orderHandler.CancelOrder)
	}
}

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.PUT("/orders/:id/status", orderHandler.AdminUpdateOrderStatus)
	}
}

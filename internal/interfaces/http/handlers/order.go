// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/domain/lifecycle"
	"github.com/your-org/checkout-backend/internal/domain/order"
)

// OrderHandler handles order queries and status changes
type OrderHandler struct {
	lifecycle *lifecycle.Service
	log       logrus.FieldLogger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(lifecycleService *lifecycle.Service, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{
		lifecycle: lifecycleService,
		log:       log,
	}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	status, ok := h.statusFilter(c)
	if !ok {
		return
	}

	orders, err := h.lifecycle.List(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    order.ToResponses(orders),
	})
}

// CountOrders handles GET /orders/count
func (h *OrderHandler) CountOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	status, ok := h.statusFilter(c)
	if !ok {
		return
	}

	count, err := h.lifecycle.Count(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order count retrieved successfully",
		"data":    gin.H{"count": count},
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id", "order ID")
	if !ok {
		return
	}

	o, err := h.lifecycle.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    order.ToResponse(o),
	})
}

// GetOrderByNumber handles GET /orders/number/:orderNumber
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	orderNumber := c.Param("orderNumber")
	if orderNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Order number is required",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	o, err := h.lifecycle.GetByNumber(c.Request.Context(), userID, orderNumber)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    order.ToResponse(o),
	})
}

// GetOrderHistory handles GET /orders/:id/history
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id", "order ID")
	if !ok {
		return
	}

	history, err := h.lifecycle.History(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order history retrieved successfully",
		"data":    history,
	})
}

// CancelOrder handles PATCH /orders/:id/cancel. The body is optional.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	cancelled, err := h.lifecycle.Cancel(c.Request.Context(), userID, orderID, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    order.ToResponse(cancelled),
	})
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	updated, err := h.lifecycle.UpdateStatus(c.Request.Context(), orderID, status, req.Comment, adminID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    order.ToResponse(updated),
	})
}

// statusFilter reads the optional ?status= query parameter
func (h *OrderHandler) statusFilter(c *gin.Context) (*order.OrderStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}

	status, err := order.ParseStatus(raw)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return &status, true
}

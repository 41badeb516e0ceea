package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// OrderHandler HTTP 处理器
type OrderHandler struct {
	svc *application.Service
}

// NewOrderHandler 创建 HTTP 处理器实例
func NewOrderHandler(svc *application.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/orders")
	{
		api.POST("", h.PlaceOrder)           // 下单
		api.GET("", h.ListOrders)            // 订单列表
		api.GET("/:id", h.GetOrder)          // 订单详情
		api.PUT("/:id/status", h.UpdateStatus) // 状态推进（履约侧）
	}
}

// PlaceOrderRequest 下单请求；items 为空时按当前购物车下单
type PlaceOrderRequest struct {
	Items []struct {
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required,min=1"`
	} `json:"items"`
	ShippingAddress string `json:"shipping_address"`
}

// PlaceOrder 下单
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	lines := make([]application.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, application.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.svc.PlaceOrder(c.Request.Context(), userID, lines, req.ShippingAddress)
	if err != nil {
		var lineErr *domain.LineError
		switch {
		case errors.Is(err, domain.ErrEmptyOrder):
			response.ErrorWithStatus(c, http.StatusBadRequest, "no items in order", "EmptyOrder")
		case errors.Is(err, catalog.ErrProductNotFound):
			body := response.Body{Success: false, Message: "product not found", Code: "NotFound"}
			if errors.As(err, &lineErr) {
				body.Data = gin.H{"product_id": lineErr.ProductID}
			}
			c.JSON(http.StatusNotFound, body)
		case errors.Is(err, catalog.ErrInsufficientStock):
			body := response.Body{Success: false, Message: "insufficient stock", Code: "InsufficientStock"}
			if errors.As(err, &lineErr) {
				body.Data = gin.H{"product_id": lineErr.ProductID}
			}
			c.JSON(http.StatusBadRequest, body)
		default:
			logger.Error(c.Request.Context(), "Failed to place order", "user_id", userID, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Created(c, gin.H{"order": order})
}

// GetOrder 订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	view, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "order not found", "NotFound")
			return
		}
		logger.Error(c.Request.Context(), "Failed to get order", "order_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"order": view})
}

// ListOrders 按用户分页列出订单
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, total, err := h.svc.ListOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list orders", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"orders": views, "total": total})
}

// UpdateStatusRequest 状态推进请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 履约侧推进订单状态
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, "order not found", "NotFound")
		case errors.Is(err, domain.ErrInvalidTransition):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "InvalidTransition")
		default:
			logger.Error(c.Request.Context(), "Failed to update order status", "order_id", c.Param("id"), "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Success(c, gin.H{"order_id": c.Param("id"), "status": req.Status})
}

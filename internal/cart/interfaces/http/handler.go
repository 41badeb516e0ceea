package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/ecommerce/internal/cart/application"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CartHandler HTTP 处理器
type CartHandler struct {
	svc *application.Service
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(svc *application.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/cart")
	{
		api.GET("", h.GetCart)                   // 查看购物车
		api.POST("/items", h.AddItem)            // 加购
		api.PUT("/items", h.UpdateQuantity)      // 改数量
		api.DELETE("/items/:id", h.RemoveItem)   // 删行
	}
}

// AddItemRequest 加购请求
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// AddItem 加购
func (h *CartHandler) AddItem(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cart, err := h.svc.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "NotFound")
		case errors.Is(err, catalog.ErrInsufficientStock):
			response.ErrorWithStatus(c, http.StatusBadRequest, "insufficient stock", "InsufficientStock")
		default:
			logger.Error(c.Request.Context(), "Failed to add cart item", "user_id", userID, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Success(c, gin.H{"cart": cart})
}

// GetCart 查看购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	view, err := h.svc.GetCart(c.Request.Context(), userID)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get cart", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"cart": view})
}

// UpdateQuantityRequest 改数量请求
type UpdateQuantityRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateQuantity 改数量
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cart, err := h.svc.UpdateQuantity(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"cart": cart})
}

// RemoveItem 删行（幂等）
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}

	cart, err := h.svc.RemoveItem(c.Request.Context(), userID, uint(productID))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to remove cart item", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"cart": cart})
}

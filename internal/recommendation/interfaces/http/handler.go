package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/recommendation/application"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// RecommendationHandler HTTP 处理器
type RecommendationHandler struct {
	svc *application.Service
}

// NewRecommendationHandler 创建 HTTP 处理器实例
func NewRecommendationHandler(svc *application.Service) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *RecommendationHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/recommendations")
	{
		api.GET("/user", h.ForUser)                          // 用户维度推荐
		api.GET("/product/:id", h.ForProduct)                // 相似商品
		api.GET("/product/:id/bought-together", h.BoughtTogether) // 凑单推荐
	}
}

// ForUser 用户维度推荐
func (h *RecommendationHandler) ForUser(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.svc.ForUser(c.Request.Context(), userID, limit)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get user recommendations", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"recommendations": result.Products, "degraded": result.Degraded})
}

// ForProduct 相似商品推荐
func (h *RecommendationHandler) ForProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.svc.ForProduct(c.Request.Context(), uint(productID), limit)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "NotFound")
			return
		}
		logger.Error(c.Request.Context(), "Failed to get product recommendations", "product_id", productID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"recommendations": result.Products, "degraded": result.Degraded})
}

// BoughtTogether 凑单推荐
func (h *RecommendationHandler) BoughtTogether(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	result, err := h.svc.FrequentlyBoughtTogether(c.Request.Context(), uint(productID), limit)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "NotFound")
			return
		}
		logger.Error(c.Request.Context(), "Failed to get bought-together recommendations", "product_id", productID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"recommendations": result.Products, "degraded": result.Degraded})
}

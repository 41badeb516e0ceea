package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// ProductHandler HTTP 处理器
// 鉴权在网关完成，用户身份从 X-User-ID 头透传
type ProductHandler struct {
	svc *application.Service
}

// NewProductHandler 创建 HTTP 处理器实例
func NewProductHandler(svc *application.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/products")
	{
		api.GET("", h.ListProducts)          // 商品列表
		api.GET("/search", h.SearchProducts) // 关键词检索
		api.GET("/:id", h.GetProduct)        // 商品详情
		api.POST("", h.CreateProduct)        // 创建商品（管理端）
		api.PUT("/:id", h.UpdateProduct)     // 编辑商品（管理端）
		api.DELETE("/:id", h.DeleteProduct)  // 删除商品（管理端）
		api.POST("/:id/rating", h.RateProduct)
	}
}

// ProductRequest 创建/编辑商品请求
type ProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"min=0"`
	Category    string  `json:"category" binding:"required"`
	Stock       int     `json:"stock" binding:"min=0"`
	Featured    bool    `json:"featured"`
}

func (r ProductRequest) toCommand() application.CreateProductRequest {
	return application.CreateProductRequest{
		Name:        r.Name,
		Description: r.Description,
		Price:       decimal.NewFromFloat(r.Price),
		Category:    r.Category,
		Stock:       r.Stock,
		Featured:    r.Featured,
	}
}

// ListProducts 商品列表
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}

	filter := domain.ListFilter{
		Category: c.Query("category"),
		Sort:     c.DefaultQuery("sort", "-created_at"),
		Offset:   (page - 1) * limit,
		Limit:    limit,
	}
	if v := c.Query("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filter.MinPrice = &d
		}
	}
	if v := c.Query("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filter.MaxPrice = &d
		}
	}

	result, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list products", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{
		"products": result.Products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": result.Total,
		},
	})
}

// SearchProducts 关键词检索
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "search term is required", "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	products, err := h.svc.SearchProducts(c.Request.Context(), term, limit)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to search products", "term", term, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"products": products})
}

// GetProduct 商品详情
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}

	product, err := h.svc.GetProduct(c.Request.Context(), id, c.GetHeader("X-User-ID"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "NotFound")
			return
		}
		logger.Error(c.Request.Context(), "Failed to get product", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"product": product})
}

// CreateProduct 创建商品
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), req.toCommand())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategory) {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
			return
		}
		logger.Error(c.Request.Context(), "Failed to create product", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Created(c, gin.H{"product": product})
}

// UpdateProduct 编辑商品
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	product, err := h.svc.UpdateProduct(c.Request.Context(), id, req.toCommand())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "NotFound")
		case errors.Is(err, domain.ErrInvalidCategory):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		default:
			logger.Error(c.Request.Context(), "Failed to update product", "product_id", id, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Success(c, gin.H{"product": product})
}

// DeleteProduct 删除商品
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}

	if err := h.svc.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "NotFound")
			return
		}
		logger.Error(c.Request.Context(), "Failed to delete product", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"message": "product deleted"})
}

// RateProductRequest 评分请求
type RateProductRequest struct {
	Value float64 `json:"value" binding:"required,min=0,max=5"`
}

// RateProduct 用户评分
func (h *ProductHandler) RateProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}

	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user id is required", "")
		return
	}

	var req RateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.svc.RateProduct(c.Request.Context(), userID, id, req.Value); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "NotFound")
			return
		}
		logger.Error(c.Request.Context(), "Failed to rate product", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"message": "rating recorded"})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Package metrics 提供 Prometheus helper，包含商城核心链路的 counter/gauge/histogram
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 缓存命中/未命中（按命名空间）
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// 订单相关
	OrdersTotal        prometheus.Counter
	OrderFailuresTotal *prometheus.CounterVec
	// 库存条件更新被拒次数（并发下单竞争失败）
	StockConflictsTotal prometheus.Counter

	// 推荐相关
	RecommendationRequestsTotal  prometheus.Counter
	RecommendationFallbacksTotal prometheus.Counter

	// 行为事件
	InteractionsTotal *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "cache_hits_total",
			Help:      "Cache hits by key namespace",
		}, []string{"namespace"}),
		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "cache_misses_total",
			Help:      "Cache misses by key namespace",
		}, []string{"namespace"}),

		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "orders_total",
			Help:      "Total orders placed successfully",
		}),
		OrderFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "order_failures_total",
			Help:      "Order placement failures by reason",
		}, []string{"reason"}),
		StockConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "stock_conflicts_total",
			Help:      "Conditional stock decrements rejected under contention",
		}),

		RecommendationRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "recommendation_requests_total",
			Help:      "Total recommendation requests served",
		}),
		RecommendationFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "recommendation_fallbacks_total",
			Help:      "Recommendation requests served by the local fallback",
		}),

		InteractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "interactions_total",
			Help:      "Interaction events recorded by type",
		}, []string{"type"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.OrdersTotal,
		m.OrderFailuresTotal,
		m.StockConflictsTotal,
		m.RecommendationRequestsTotal,
		m.RecommendationFallbacksTotal,
		m.InteractionsTotal,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}

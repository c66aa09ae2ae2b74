package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/parkingtime-identity/internal/interface/middleware"
	"github.com/oksasatya/parkingtime-identity/pkg/metrics"
)

// MetricsModule exposes Prometheus metrics to private networks only.
type MetricsModule struct{}

func NewMetricsModule() *MetricsModule { return &MetricsModule{} }

func (m *MetricsModule) Register(rg *gin.RouterGroup) {
	rg.GET("/metrics", middleware.PrivateOnly(), gin.WrapH(metrics.Handler()))
}

package metrics

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const maxScrapesInFlight = 4

// MetricsHandler serves the walletpay collectors in the Prometheus exposition format
type MetricsHandler struct {
	gatherer prometheus.Gatherer
	logger   *logger.Logger
}

func NewMetricsHandler(gatherer prometheus.Gatherer, logger *logger.Logger) *MetricsHandler {
	return &MetricsHandler{
		gatherer: gatherer,
		logger:   logger,
	}
}

// Handler returns a Gin handler function for the /metrics endpoint.
// A collector failing to gather is logged and the remaining families are still served.
func (h *MetricsHandler) Handler() gin.HandlerFunc {
	opts := promhttp.HandlerOpts{
		EnableOpenMetrics:   true,
		ErrorHandling:       promhttp.ContinueOnError,
		MaxRequestsInFlight: maxScrapesInFlight,
	}
	if h.logger != nil {
		opts.ErrorLog = scrapeErrorLog{h.logger}
	}
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, opts))
}

type scrapeErrorLog struct {
	logger *logger.Logger
}

func (l scrapeErrorLog) Println(v ...interface{}) {
	l.logger.Error("[MetricsHandler] scrape failed", map[string]string{
		"error": fmt.Sprint(v...),
	})
}

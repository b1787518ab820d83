package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stockStatusSQL mirrors inventory.StockStatusFor, keeping its evaluation order
const stockStatusSQL = `
SELECT business_id,
       CASE
         WHEN quantity = 0 THEN 'out_of_stock'
         WHEN quantity <= reorder_point THEN 'low_stock'
         WHEN quantity > max_stock_level THEN 'overstocked'
         ELSE 'adequate'
       END AS status,
       COUNT(*) AS positions
FROM shop_inventories
GROUP BY business_id, status`

// StockStatusCollector reports how many shop inventory positions sit in
// each stock status, per business. It queries on every scrape.
type StockStatusCollector struct {
	db      *gorm.DB
	logger  *zap.Logger
	timeout time.Duration
	desc    *prometheus.Desc
}

// NewStockStatusCollector creates the collector
func NewStockStatusCollector(db *gorm.DB, namespace string, logger *zap.Logger) *StockStatusCollector {
	return &StockStatusCollector{
		db:      db,
		logger:  logger,
		timeout: 5 * time.Second,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "stock", "positions"),
			"Shop inventory positions by business and stock status.",
			[]string{"business_id", "status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StockStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. A failed query yields no samples.
func (c *StockStatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var rows []struct {
		BusinessID string
		Status     string
		Positions  int64
	}
	if err := c.db.WithContext(ctx).Raw(stockStatusSQL).Scan(&rows).Error; err != nil {
		c.logger.Warn("Stock status collection failed", zap.Error(err))
		return
	}
	for _, r := range rows {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(r.Positions), r.BusinessID, r.Status)
	}
}

var _ prometheus.Collector = (*StockStatusCollector)(nil)

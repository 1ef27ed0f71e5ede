package model

import "github.com/shopspring/decimal"

// LowStockThreshold is the stock level at or below which a product counts as low.
const LowStockThreshold = 5

// AdminStats is the dashboard rollup.
type AdminStats struct {
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalUsers    int             `json:"totalUsers"`
	LowStockItems int             `json:"lowStockItems"`
	RecentOrders  []Order         `json:"recentOrders"`
	Latency       LatencySnapshot `json:"latency"`
}

// LatencySnapshot summarises request latency in milliseconds.
type LatencySnapshot struct {
	Count int64   `json:"count"`
	P50   float64 `json:"p50Ms"`
	P95   float64 `json:"p95Ms"`
	P99   float64 `json:"p99Ms"`
	Max   float64 `json:"maxMs"`
}

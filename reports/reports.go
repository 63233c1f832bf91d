package reports

import (
	"sort"

	"safiri-mazao-api/models"
	"safiri-mazao-api/query"
)

const dashboardListSize = 5

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int                `json:"count"`
}

type OrdersSummary struct {
	TotalOrders    int           `json:"total_orders"`
	OrdersByStatus []StatusCount `json:"orders_by_status"`
}

type DailyCount struct {
	OrderDate string `json:"order_date"` // YYYY-MM-DD, UTC
	Count     int    `json:"count"`
}

type DashboardStats struct {
	TotalOrders        int                  `json:"total_orders"`
	PendingOrders      int                  `json:"pending_orders"`
	InTransitOrders    int                  `json:"in_transit_orders"`
	CompletedOrders    int                  `json:"completed_orders"`
	TotalTransporters  int                  `json:"total_transporters"`
	ActiveTransporters int                  `json:"active_transporters"`
	TotalRevenue       int64                `json:"total_revenue"`
	StatusCounts       []StatusCount        `json:"status_counts"`
	RecentOrders       []models.Order       `json:"recent_orders"`
	TopTransporters    []models.Transporter `json:"top_transporters"`
}

func countByStatus(orders []models.Order) []StatusCount {
	counts := map[models.OrderStatus]int{}
	for _, o := range orders {
		counts[o.Status]++
	}
	out := make([]StatusCount, 0, len(counts))
	for _, s := range models.AllOrderStatuses() {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

// Summary counts orders per status; every status is listed, zero counts included
func Summary(orders []models.Order) OrdersSummary {
	return OrdersSummary{
		TotalOrders:    len(orders),
		OrdersByStatus: countByStatus(orders),
	}
}

// OverTime counts orders per creation day, oldest day first
func OverTime(orders []models.Order) []DailyCount {
	perDay := map[string]int{}
	for _, o := range orders {
		perDay[o.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out := make([]DailyCount, 0, len(perDay))
	for day, n := range perDay {
		out = append(out, DailyCount{OrderDate: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate < out[j].OrderDate })
	return out
}

// Dashboard aggregates the headline figures of the admin console
func Dashboard(orders []models.Order, transporters []models.Transporter) DashboardStats {
	stats := DashboardStats{
		TotalOrders:       len(orders),
		TotalTransporters: len(transporters),
		StatusCounts:      countByStatus(orders),
		RecentOrders:      query.RecentOrders(orders, dashboardListSize),
		TopTransporters:   query.TopTransporters(transporters, dashboardListSize),
	}
	for _, o := range orders {
		switch o.Status {
		case models.StatusPending:
			stats.PendingOrders++
		case models.StatusInTransit:
			stats.InTransitOrders++
		case models.StatusDelivered:
			stats.CompletedOrders++
		}
		if o.PaymentAmount != nil {
			stats.TotalRevenue += *o.PaymentAmount
		}
	}
	for _, t := range transporters {
		if t.Status == models.TransporterActive {
			stats.ActiveTransporters++
		}
	}
	return stats
}

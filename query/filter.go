// Package query filters and ranks the in-memory order and transporter lists.
// All functions are pure: they never mutate their input and return a fresh slice.
package query

import (
	"sort"
	"strings"

	"safiri-mazao-api/models"
)

// All is the status filter value meaning "no status filter"
const All = "all"

// OrderFilter narrows an order list. Zero value matches everything.
type OrderFilter struct {
	Search string
	Status string
}

// TransporterFilter narrows a transporter list. Zero value matches everything.
type TransporterFilter struct {
	Search string
	Status string
}

func statusFilterActive(s string) bool {
	return s != "" && s != All
}

func containsFold(field, term string) bool {
	return strings.Contains(strings.ToLower(field), term)
}

// Match reports whether o passes every predicate of f
func (f OrderFilter) Match(o models.Order) bool {
	if statusFilterActive(f.Status) && string(o.Status) != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return containsFold(o.TrackNumber, term) ||
		containsFold(o.PhoneNumber, term) ||
		containsFold(o.Crop, term) ||
		containsFold(o.PickupLocation.Name, term) ||
		containsFold(o.DestinationLocation.Name, term)
}

// Match reports whether t passes every predicate of f
func (f TransporterFilter) Match(t models.Transporter) bool {
	if statusFilterActive(f.Status) && string(t.Status) != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return containsFold(t.Name, term) ||
		containsFold(t.Phone, term) ||
		containsFold(t.VehicleNumber, term) ||
		containsFold(t.Email, term)
}

// FilterOrders keeps the orders matching f, preserving their relative order
func FilterOrders(orders []models.Order, f OrderFilter) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// FilterTransporters keeps the transporters matching f, preserving their relative order
func FilterTransporters(ts []models.Transporter, f TransporterFilter) []models.Transporter {
	out := make([]models.Transporter, 0, len(ts))
	for _, t := range ts {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// RecentOrders returns at most n orders, newest first. Ties keep list order.
func RecentOrders(orders []models.Order, n int) []models.Order {
	out := append([]models.Order(nil), orders...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return head(out, n)
}

// TopTransporters returns at most n transporters ranked by completed orders
func TopTransporters(ts []models.Transporter, n int) []models.Transporter {
	out := append([]models.Transporter(nil), ts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedOrders > out[j].CompletedOrders
	})
	return head(out, n)
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

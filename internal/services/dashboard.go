package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quentinv/invoicely/internal/models"
)

// MetricPoint is one bar of a dashboard chart.
type MetricPoint struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// DashboardMetrics groups invoice totals by client, calendar month, and
// calendar year.
type DashboardMetrics struct {
	ByClient []MetricPoint `json:"by_client"`
	ByMonth  []MetricPoint `json:"by_month"`
	ByYear   []MetricPoint `json:"by_year"`
}

type metricBucket struct {
	name  string
	total decimal.Decimal
}

// ComputeMetrics folds the given invoices (items and client preloaded) into
// grouped totals. Client groups come out by descending total, month groups
// chronologically by year-month, year groups chronologically by year. Totals
// sum the stored line totals only.
func ComputeMetrics(invoices []models.Invoice) DashboardMetrics {
	byClient := map[uint]*metricBucket{}
	byMonth := map[string]*metricBucket{}
	byYear := map[string]*metricBucket{}

	for _, inv := range invoices {
		total := inv.Total()

		cb, ok := byClient[inv.ClientID]
		if !ok {
			name := ""
			if inv.Client != nil {
				name = inv.Client.Name
			}
			cb = &metricBucket{name: name, total: decimal.Zero}
			byClient[inv.ClientID] = cb
		}
		cb.total = cb.total.Add(total)

		monthKey := inv.IssueDate.Format("2006-01")
		mb, ok := byMonth[monthKey]
		if !ok {
			mb = &metricBucket{name: inv.IssueDate.Format("Jan 2006"), total: decimal.Zero}
			byMonth[monthKey] = mb
		}
		mb.total = mb.total.Add(total)

		yearKey := inv.IssueDate.Format("2006")
		yb, ok := byYear[yearKey]
		if !ok {
			yb = &metricBucket{name: yearKey, total: decimal.Zero}
			byYear[yearKey] = yb
		}
		yb.total = yb.total.Add(total)
	}

	metrics := DashboardMetrics{
		ByClient: make([]MetricPoint, 0, len(byClient)),
		ByMonth:  chronological(byMonth),
		ByYear:   chronological(byYear),
	}
	for _, b := range byClient {
		metrics.ByClient = append(metrics.ByClient, MetricPoint{Name: b.name, Total: b.total})
	}
	sort.Slice(metrics.ByClient, func(i, j int) bool {
		a, b := metrics.ByClient[i], metrics.ByClient[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.Name < b.Name
	})
	return metrics
}

// chronological flattens buckets in ascending key order; keys are zero-padded
// date strings so lexicographic order is chronological.
func chronological(buckets map[string]*metricBucket) []MetricPoint {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	points := make([]MetricPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, MetricPoint{Name: buckets[k].name, Total: buckets[k].total})
	}
	return points
}

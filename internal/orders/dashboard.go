package orders

import (
	"sort"

	"github.com/shopspring/decimal"
)

const recentOrders = 5

// DailySales is the revenue of one calendar day (UTC).
type DailySales struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// Dashboard aggregates the admin overview figures.
type Dashboard struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	OrderCount      int             `json:"order_count"`
	ProductCount    int             `json:"product_count"`
	UniqueCustomers int             `json:"unique_customers"`
	DailySales      []DailySales    `json:"daily_sales"`
	RecentOrders    []Order         `json:"recent_orders"`
}

// Summarize builds a Dashboard from orders sorted newest first.
func Summarize(list []Order, productCount int) Dashboard {
	d := Dashboard{
		TotalRevenue: decimal.Zero,
		OrderCount:   len(list),
		ProductCount: productCount,
		DailySales:   []DailySales{},
		RecentOrders: []Order{},
	}

	customers := map[string]struct{}{}
	byDay := map[string]decimal.Decimal{}
	for _, o := range list {
		d.TotalRevenue = d.TotalRevenue.Add(o.TotalPrice)
		if o.UserID != "" {
			customers[o.UserID] = struct{}{}
		}
		day := o.CreatedAt.UTC().Format("2006-01-02")
		byDay[day] = byDay[day].Add(o.TotalPrice)
	}
	d.UniqueCustomers = len(customers)

	for day, total := range byDay {
		d.DailySales = append(d.DailySales, DailySales{Date: day, Total: total})
	}
	sort.Slice(d.DailySales, func(i, j int) bool {
		return d.DailySales[i].Date < d.DailySales[j].Date
	})

	n := len(list)
	if n > recentOrders {
		n = recentOrders
	}
	d.RecentOrders = append(d.RecentOrders, list[:n]...)
	return d
}

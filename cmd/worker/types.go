package main

// DefaultNamespace is where order metrics land when METRICS_NAMESPACE is unset.
const DefaultNamespace = "FruitMarket/Orders"

// Metric names published per placed order.
const (
	MetricOrdersPlaced     = "OrdersPlaced"
	MetricOrderRevenue     = "OrderRevenue"
	MetricKilogramsOrdered = "KilogramsOrdered"
)

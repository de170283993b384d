package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/aws/awstest"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/logging"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/orders"
	"github.com/shopspring/decimal"
)

func placedBody(t *testing.T, orderID string) string {
	t.Helper()
	ev := orders.PlacedEvent{
		EventType:  orders.EventOrderPlaced,
		OrderID:    orderID,
		UserID:     "u1",
		TotalPrice: decimal.RequireFromString("11.50"),
		Kilograms:  decimal.NewFromInt(4),
		Lines:      2,
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestProcessor_PublishesMetrics(t *testing.T) {
	cw := &awstest.CloudWatch{}
	p := NewProcessor(cw, "", logging.Discard())

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", Body: placedBody(t, "o1")},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}
	if len(cw.Calls) != 1 {
		t.Fatalf("expected one PutMetricData call, got %d", len(cw.Calls))
	}
	in := cw.Calls[0]
	if *in.Namespace != DefaultNamespace {
		t.Fatalf("unexpected namespace %q", *in.Namespace)
	}
	got := map[string]float64{}
	for _, d := range in.MetricData {
		got[*d.MetricName] = *d.Value
	}
	want := map[string]float64{MetricOrdersPlaced: 1, MetricOrderRevenue: 11.5, MetricKilogramsOrdered: 4}
	for name, v := range want {
		if got[name] != v {
			t.Fatalf("%s: expected %v, got %v", name, v, got[name])
		}
	}
}

func TestProcessor_ReportsOnlyFailedMessages(t *testing.T) {
	cw := &awstest.CloudWatch{}
	p := NewProcessor(cw, "Test/Orders", logging.Discard())

	resp, _ := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "good", Body: placedBody(t, "o1")},
		{MessageId: "garbage", Body: "{not json"},
		{MessageId: "no-id", Body: `{"event_type":"order.placed"}`},
		{MessageId: "other", Body: `{"event_type":"order.shipped","order_id":"o2"}`},
	}})

	if len(resp.BatchItemFailures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", resp.BatchItemFailures)
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "garbage" || resp.BatchItemFailures[1].ItemIdentifier != "no-id" {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}
	if len(cw.Calls) != 1 || *cw.Calls[0].Namespace != "Test/Orders" {
		t.Fatalf("expected one call in Test/Orders, got %d", len(cw.Calls))
	}
}

func TestProcessor_CloudWatchErrorFailsMessage(t *testing.T) {
	cw := &awstest.CloudWatch{Err: errors.New("throttled")}
	p := NewProcessor(cw, "", logging.Discard())

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", Body: placedBody(t, "o1")},
	}})
	if err != nil {
		t.Fatalf("batch error should not be returned: %v", err)
	}
	if len(resp.BatchItemFailures) != 1 || resp.BatchItemFailures[0].ItemIdentifier != "m1" {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}
}

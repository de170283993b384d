package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/aws"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/orders"
)

// Processor turns order.placed messages into CloudWatch metrics.
type Processor struct {
	cw        aws.CloudWatchAPI
	namespace string
	log       *slog.Logger
}

// NewProcessor creates a new worker processor with the CloudWatch client injected.
func NewProcessor(cw aws.CloudWatchAPI, namespace string, log *slog.Logger) *Processor {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Processor{cw: cw, namespace: namespace, log: log}
}

// Handle processes an SQS batch. Messages that fail are reported back so only
// they are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker message failed", "message_id", rec.MessageId, "err", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev orders.PlacedEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.EventType != orders.EventOrderPlaced {
		// other event types share the queue; nothing to record
		p.log.Debug("skipping event", "event_type", ev.EventType)
		return nil
	}
	if ev.OrderID == "" {
		return errors.New("order.placed without order_id")
	}

	ts := ev.CreatedAt
	data := []cwtypes.MetricDatum{
		{MetricName: aws.String(MetricOrdersPlaced), Value: float(1), Unit: cwtypes.StandardUnitCount, Timestamp: &ts},
		{MetricName: aws.String(MetricOrderRevenue), Value: float(ev.TotalPrice.InexactFloat64()), Unit: cwtypes.StandardUnitNone, Timestamp: &ts},
		{MetricName: aws.String(MetricKilogramsOrdered), Value: float(ev.Kilograms.InexactFloat64()), Unit: cwtypes.StandardUnitNone, Timestamp: &ts},
	}
	if ts.IsZero() {
		for i := range data {
			data[i].Timestamp = nil
		}
	}

	_, err := p.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data for order=%s: %w", ev.OrderID, err)
	}

	p.log.Info("recorded order metrics", "order_id", ev.OrderID, "lines", ev.Lines)
	return nil
}

func float(f float64) *float64 { return &f }

package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/aws"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/logging"
)

func main() {
	ctx := context.Background()
	log := logging.New()

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}
	p := NewProcessor(clients.CloudWatch, os.Getenv("METRICS_NAMESPACE"), log)

	// If RUN_LOCAL=true, process a single message from LOCAL_SQS_BODY and exit.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"event_type":"order.placed","order_id":"local-order-1","user_id":"local-user","total_price":"11.50","kilograms":"4","lines":2}`
		}
		resp, _ := p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}})
		if len(resp.BatchItemFailures) > 0 {
			log.Error("local message failed")
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}

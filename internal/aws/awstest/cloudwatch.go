package awstest

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// CloudWatch records PutMetricData calls.
type CloudWatch struct {
	mu    sync.Mutex
	Calls []*cloudwatch.PutMetricDataInput
	Err   error
}

func (m *CloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Calls = append(m.Calls, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

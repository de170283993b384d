package awstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SentMessage is a message captured by SQS.
type SentMessage struct {
	QueueURL   string
	Body       string
	Attributes map[string]sqstypes.MessageAttributeValue
}

// SQS records every SendMessage call.
type SQS struct {
	mu   sync.Mutex
	Sent []SentMessage
	Err  error
}

func (m *SQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	msg := SentMessage{Attributes: params.MessageAttributes}
	if params.QueueUrl != nil {
		msg.QueueURL = *params.QueueUrl
	}
	if params.MessageBody != nil {
		msg.Body = *params.MessageBody
	}
	m.Sent = append(m.Sent, msg)
	id := fmt.Sprintf("msg-%d", len(m.Sent))
	return &sqs.SendMessageOutput{MessageId: &id}, nil
}

// Messages returns a copy of the captured messages.
func (m *SQS) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}

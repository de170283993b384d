// Package awstest provides small in-memory stand-ins for the AWS clients used
// by the stores, the publisher and the worker.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	pk    string
	order []string
	items map[string]map[string]types.AttributeValue
}

// DynamoDB is an in-memory DynamoDB supporting the expressions our stores issue:
// attribute_not_exists(pk), "#name = :value" conditions and plain SET updates.
type DynamoDB struct {
	mu     sync.Mutex
	tables map[string]*table

	// Err, when set, is returned by every call.
	Err error

	PutCalls    int
	GetCalls    int
	UpdateCalls int
	ScanCalls   int
}

// NewDynamoDB returns an empty mock.
func NewDynamoDB() *DynamoDB {
	return &DynamoDB{tables: map[string]*table{}}
}

// CreateTable registers a table with a string partition key.
func (m *DynamoDB) CreateTable(name, partitionKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &table{pk: partitionKey, items: map[string]map[string]types.AttributeValue{}}
}

// Item returns the raw stored item, or nil.
func (m *DynamoDB) Item(tableName, key string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableName]
	if !ok {
		return nil
	}
	return t.items[key]
}

// Len returns the number of items in a table.
func (m *DynamoDB) Len(tableName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[tableName]; ok {
		return len(t.items)
	}
	return 0
}

func (m *DynamoDB) table(name *string) (*table, error) {
	if name == nil {
		return nil, errors.New("missing table name")
	}
	t, ok := m.tables[*name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: name}
	}
	return t, nil
}

func keyOf(t *table, item map[string]types.AttributeValue) (string, error) {
	v, ok := item[t.pk].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing key attribute %s", t.pk)
	}
	return v.Value, nil
}

func (m *DynamoDB) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, params.Item)
	if err != nil {
		return nil, err
	}
	existing := t.items[k]
	if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing); err != nil {
		return nil, err
	}
	if existing == nil {
		t.order = append(t.order, k)
	}
	t.items[k] = copyItem(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *DynamoDB) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(item)}, nil
}

func (m *DynamoDB) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, params.Key)
	if err != nil {
		return nil, err
	}
	item := t.items[k]
	if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, item); err != nil {
		return nil, err
	}
	if item == nil {
		item = copyItem(params.Key)
		t.order = append(t.order, k)
	}
	if params.UpdateExpression != nil {
		expr := strings.TrimSpace(*params.UpdateExpression)
		if !strings.HasPrefix(expr, "SET ") {
			return nil, fmt.Errorf("unsupported update expression %q", expr)
		}
		for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
			parts := strings.SplitN(clause, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("unsupported clause %q", clause)
			}
			name := resolveName(strings.TrimSpace(parts[0]), params.ExpressionAttributeNames)
			v, ok := params.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
			if !ok {
				return nil, fmt.Errorf("missing value for %q", clause)
			}
			item[name] = v
		}
	}
	t.items[k] = item
	return &dyn.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (m *DynamoDB) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	start := 0
	if params.ExclusiveStartKey != nil {
		k, err := keyOf(t, params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		for i, id := range t.order {
			if id == k {
				start = i + 1
				break
			}
		}
	}
	limit := len(t.order)
	if params.Limit != nil && int(*params.Limit) > 0 {
		limit = int(*params.Limit)
	}
	out := &dyn.ScanOutput{}
	i := start
	for ; i < len(t.order) && len(out.Items) < limit; i++ {
		out.Items = append(out.Items, copyItem(t.items[t.order[i]]))
	}
	out.Count = int32(len(out.Items))
	if i < len(t.order) && len(out.Items) > 0 {
		last := t.order[i-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{t.pk: &types.AttributeValueMemberS{Value: last}}
	}
	return out, nil
}

func checkCondition(cond *string, names map[string]string, values map[string]types.AttributeValue, existing map[string]types.AttributeValue) error {
	if cond == nil {
		return nil
	}
	expr := strings.TrimSpace(*cond)
	if strings.HasPrefix(expr, "attribute_not_exists(") {
		if existing != nil {
			return &types.ConditionalCheckFailedException{}
		}
		return nil
	}
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("unsupported condition %q", expr)
	}
	name := resolveName(strings.TrimSpace(parts[0]), names)
	want, ok := values[strings.TrimSpace(parts[1])].(*types.AttributeValueMemberS)
	if !ok {
		return fmt.Errorf("unsupported condition value in %q", expr)
	}
	if existing == nil {
		return &types.ConditionalCheckFailedException{}
	}
	got, ok := existing[name].(*types.AttributeValueMemberS)
	if !ok || got.Value != want.Value {
		return &types.ConditionalCheckFailedException{}
	}
	return nil
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if n, ok := names[name]; ok {
			return n
		}
	}
	return name
}

func copyItem(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

type pricedItem struct {
	Name  string  `dynamodbav:"name"`
	Price Decimal `dynamodbav:"price"`
}

func TestDecimal_StoredAsNumber(t *testing.T) {
	item, err := attributevalue.MarshalMap(pricedItem{Name: "kiwi", Price: NewDecimal(decimal.RequireFromString("11.50"))})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	n, ok := item["price"].(*types.AttributeValueMemberN)
	if !ok {
		t.Fatalf("expected number attribute, got %T", item["price"])
	}
	if n.Value != "11.5" {
		t.Fatalf("unexpected number %q", n.Value)
	}

	var out pricedItem
	if err := attributevalue.UnmarshalMap(item, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Price.Equal(decimal.RequireFromString("11.5")) {
		t.Fatalf("round trip lost precision: %s", out.Price)
	}
}

func TestDecimal_RejectsGarbage(t *testing.T) {
	var d Decimal
	if err := d.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberS{Value: "twelve"}); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
	if err := d.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberBOOL{Value: true}); err == nil {
		t.Fatal("expected error for bool attribute")
	}
}

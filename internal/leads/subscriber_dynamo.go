package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type dynamoPutAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoSubscriberStore keeps subscribers in a table whose partition key is
// the email address.
type DynamoSubscriberStore struct {
	client    dynamoPutAPI
	tableName string
}

func NewDynamoSubscriberStore(client dynamoPutAPI, tableName string) *DynamoSubscriberStore {
	if client == nil {
		panic("leads: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("leads: table name cannot be empty")
	}
	return &DynamoSubscriberStore{client: client, tableName: tableName}
}

func (s *DynamoSubscriberStore) Subscribe(ctx context.Context, sub *Subscriber) error {
	rec := *sub
	if err := prepareSubscriber(&rec, time.Now().UTC()); err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("leads: failed to marshal subscriber: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("leads: failed to persist subscriber: %w", err)
	}
	*sub = rec
	return nil
}

var _ SubscriberStore = (*DynamoSubscriberStore)(nil)

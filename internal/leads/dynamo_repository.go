package leads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository stores leads as documents keyed by id.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time

	mu          sync.Mutex
	lastCreated time.Time
}

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string) *DynamoRepository {
	if client == nil {
		panic("leads: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("leads: table name cannot be empty")
	}
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *DynamoRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// createdAt keeps creation times from this process strictly increasing so
// newest-first order does not fall back to random ids.
func (r *DynamoRepository) createdAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCreated = nextUpdatedAt(r.lastCreated, r.now())
	return r.lastCreated
}

// Create writes a new document; an existing id is never overwritten.
func (r *DynamoRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	stored := lead.Clone()
	initialize(stored, uuid.NewString(), r.createdAt())

	item, err := attributevalue.MarshalMap(stored)
	if err != nil {
		return nil, fmt.Errorf("leads: failed to marshal lead: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("leads: failed to persist lead: %w", err)
	}
	return stored, nil
}

// GetByID fetches a lead document.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("leads: failed to fetch lead: %w", err)
	}
	if out.Item == nil {
		return nil, ErrLeadNotFound
	}
	var lead Lead
	if err := attributevalue.UnmarshalMap(out.Item, &lead); err != nil {
		return nil, fmt.Errorf("leads: failed to decode lead: %w", err)
	}
	return &lead, nil
}

// UpdateStatus moves a lead to status.
func (r *DynamoRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return r.Update(ctx, id, Patch{Status: &status})
}

// Update reads, patches and writes back the document. The write is
// conditioned on the item still existing so a concurrent delete wins.
func (r *DynamoRepository) Update(ctx context.Context, id string, patch Patch) (*Lead, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	patch.Apply(updated)
	updated.UpdatedAt = nextUpdatedAt(current.UpdatedAt, r.now())

	item, err := attributevalue.MarshalMap(updated)
	if err != nil {
		return nil, fmt.Errorf("leads: failed to marshal lead: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: failed to update lead: %w", err)
	}
	return updated, nil
}

// Delete removes a lead document.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrLeadNotFound
		}
		return fmt.Errorf("leads: failed to delete lead: %w", err)
	}
	return nil
}

// List scans the table, filtering status server side and free text in
// memory, then sorts newest first.
func (r *DynamoRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	if filter.Status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(filter.Status)},
		}
	}

	items, err := r.scanAll(ctx, input)
	if err != nil {
		return nil, err
	}

	list := make([]*Lead, 0, len(items))
	for _, item := range items {
		var lead Lead
		if err := attributevalue.UnmarshalMap(item, &lead); err != nil {
			return nil, fmt.Errorf("leads: failed to decode lead: %w", err)
		}
		if filter.Matches(&lead) {
			list = append(list, &lead)
		}
	}
	sortNewestFirst(list)
	return paginate(list, filter.Limit, filter.Offset), nil
}

// CountByStatus tallies leads per status using a projected scan.
func (r *DynamoRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	items, err := r.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		ProjectionExpression:     aws.String("#status"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[Status]int, len(Statuses))
	for _, item := range items {
		var row struct {
			Status Status `dynamodbav:"status"`
		}
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("leads: failed to decode status: %w", err)
		}
		counts[row.Status]++
	}
	return counts, nil
}

func (r *DynamoRepository) scanAll(ctx context.Context, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("leads: failed to scan leads: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

var _ Repository = (*DynamoRepository)(nil)

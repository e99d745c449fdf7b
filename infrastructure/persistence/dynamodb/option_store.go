// Package dynamodb stores options as single items in a DynamoDB table using
// conditional writes for optimistic locking.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admin-notes-backend/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const optionSortKey = "OPTION"

var _ ports.OptionStore = (*OptionStore)(nil)

// API is the subset of the DynamoDB client the store uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// OptionItem is the DynamoDB representation of an option
type OptionItem struct {
	PK        string   `dynamodbav:"PK"` // OPTION#<name>
	SK        string   `dynamodbav:"SK"` // OPTION
	Name      string   `dynamodbav:"Name"`
	Values    []string `dynamodbav:"Values"`
	Version   uint64   `dynamodbav:"Version"`
	UpdatedAt string   `dynamodbav:"UpdatedAt"`
}

// OptionStore is a DynamoDB-backed ports.OptionStore
type OptionStore struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewOptionStore creates a new DynamoDB option store
func NewOptionStore(client API, tableName string, logger *zap.Logger) *OptionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptionStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

func optionKey(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("OPTION#%s", name)},
		"SK": &types.AttributeValueMemberS{Value: optionSortKey},
	}
}

// Get returns the record stored under name
func (s *OptionStore) Get(ctx context.Context, name string) (ports.OptionRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            optionKey(name),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return ports.OptionRecord{}, fmt.Errorf("failed to get option %s: %w", name, err)
	}
	if out.Item == nil {
		return ports.OptionRecord{}, nil
	}

	var item OptionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return ports.OptionRecord{}, fmt.Errorf("failed to unmarshal option %s: %w", name, err)
	}
	return ports.OptionRecord{Values: item.Values, Version: item.Version}, nil
}

// Put writes values when the stored version equals expectedVersion
func (s *OptionStore) Put(ctx context.Context, name string, values []string, expectedVersion uint64) (uint64, error) {
	if values == nil {
		values = []string{}
	}
	next := expectedVersion + 1

	item, err := attributevalue.MarshalMap(OptionItem{
		PK:        fmt.Sprintf("OPTION#%s", name),
		SK:        optionSortKey,
		Name:      name,
		Values:    values,
		Version:   next,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal option %s: %w", name, err)
	}

	var condition expression.ConditionBuilder
	if expectedVersion == 0 {
		condition = expression.Name("PK").AttributeNotExists()
	} else {
		condition = expression.Name("Version").Equal(expression.Value(expectedVersion))
	}
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			s.logger.Debug("Option version conflict",
				zap.String("option", name),
				zap.Uint64("expectedVersion", expectedVersion),
			)
			return 0, ports.ErrVersionConflict
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			s.logger.Error("DynamoDB rejected option write",
				zap.String("option", name),
				zap.String("code", apiErr.ErrorCode()),
				zap.String("fault", apiErr.ErrorFault().String()),
			)
		}
		return 0, fmt.Errorf("failed to put option %s: %w", name, err)
	}

	return next, nil
}

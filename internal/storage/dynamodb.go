package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"
	"github.com/google/uuid"

	"github.com/startupjobs/jobboard-service/internal/config"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
)

// dynamoJob is the item shape of a posting in the jobs table
type dynamoJob struct {
	ID        string    `dynamodbav:"id"`
	Title     string    `dynamodbav:"title"`
	Company   string    `dynamodbav:"company"`
	Category  string    `dynamodbav:"category"`
	Location  string    `dynamodbav:"location"`
	URL       string    `dynamodbav:"url"`
	Email     string    `dynamodbav:"email"`
	Status    string    `dynamodbav:"status"`
	Timestamp time.Time `dynamodbav:"timestamp"`
}

func (d dynamoJob) toModel() models.JobPosting {
	return models.JobPosting{
		ID:           d.ID,
		Title:        d.Title,
		Company:      d.Company,
		Category:     d.Category,
		Location:     d.Location,
		Link:         d.URL,
		ContactEmail: d.Email,
		Status:       models.Status(d.Status),
		CreatedAt:    d.Timestamp.UTC(),
	}
}

// DynamoDBStorage implements Storage interface using AWS DynamoDB
type DynamoDBStorage struct {
	client    dynamodbiface.DynamoDBAPI
	tableName string
}

// NewDynamoDBStorage creates a new DynamoDB storage instance
func NewDynamoDBStorage(cfg config.StorageConfig) (*DynamoDBStorage, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with DynamoDB Local
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	storage := newDynamoDBStorageWithClient(dynamodb.New(sess), cfg.TableName)

	// Create table if it doesn't exist (for local testing)
	if err := storage.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}

	return storage, nil
}

func newDynamoDBStorageWithClient(client dynamodbiface.DynamoDBAPI, tableName string) *DynamoDBStorage {
	return &DynamoDBStorage{client: client, tableName: tableName}
}

// ensureTable creates the DynamoDB table if it doesn't exist
func (d *DynamoDBStorage) ensureTable() error {
	_, err := d.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	if err == nil {
		return nil
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(d.tableName),
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	}

	if _, err := d.client.CreateTable(input); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return d.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
}

// Insert stores a new pending posting
func (d *DynamoDBStorage) Insert(ctx context.Context, posting models.JobPosting) (string, error) {
	posting = prepareInsert(posting)
	item, err := dynamodbattribute.MarshalMap(dynamoJob{
		ID:        uuid.NewString(),
		Title:     posting.Title,
		Company:   posting.Company,
		Category:  posting.Category,
		Location:  posting.Location,
		URL:       posting.Link,
		Email:     posting.ContactEmail,
		Status:    string(posting.Status),
		Timestamp: posting.CreatedAt,
	})
	if err != nil {
		return "", apperrors.Storage("failed to marshal posting", err)
	}

	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return "", apperrors.Storage("failed to store posting", err)
	}

	return aws.StringValue(item["id"].S), nil
}

// Get retrieves a posting by id
func (d *DynamoDBStorage) Get(ctx context.Context, id string) (*models.JobPosting, error) {
	result, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("failed to get posting %s", id), err)
	}
	if result.Item == nil {
		return nil, notFound(id)
	}

	var item dynamoJob
	if err := dynamodbattribute.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.Storage("failed to unmarshal posting", err)
	}
	posting := item.toModel()
	return &posting, nil
}

// GetByStatus retrieves postings with the given status in insertion order
func (d *DynamoDBStorage) GetByStatus(ctx context.Context, status models.Status) ([]models.JobPosting, error) {
	return d.Find(ctx, models.Filter{Status: status})
}

// GetAll retrieves every posting in insertion order
func (d *DynamoDBStorage) GetAll(ctx context.Context) ([]models.JobPosting, error) {
	return d.Find(ctx, models.Filter{})
}

// Find scans the table with a filter expression. DynamoDB scans are unordered, so
// insertion order is reconstructed from the creation timestamp.
func (d *DynamoDBStorage) Find(ctx context.Context, filter models.Filter) ([]models.JobPosting, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(d.tableName),
		ConsistentRead: aws.Bool(true),
	}

	if cond, ok := filterCondition(filter); ok {
		expr, err := expression.NewBuilder().WithFilter(cond).Build()
		if err != nil {
			return nil, apperrors.Storage("failed to build filter expression", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var postings []models.JobPosting
	for {
		result, err := d.client.ScanWithContext(ctx, input)
		if err != nil {
			return nil, apperrors.Storage("failed to scan postings", err)
		}

		var items []dynamoJob
		if err := dynamodbattribute.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, apperrors.Storage("failed to unmarshal postings", err)
		}
		for _, item := range items {
			postings = append(postings, item.toModel())
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].CreatedAt.Before(postings[j].CreatedAt)
	})
	return applyOrdering(postings, filter), nil
}

func filterCondition(filter models.Filter) (expression.ConditionBuilder, bool) {
	var (
		cond expression.ConditionBuilder
		set  bool
	)
	add := func(name, value string) {
		if value == "" {
			return
		}
		c := expression.Name(name).Equal(expression.Value(value))
		if set {
			cond = cond.And(c)
		} else {
			cond = c
			set = true
		}
	}
	add("status", string(filter.Status))
	add("category", filter.Category)
	add("company", filter.Company)
	add("location", filter.Location)
	return cond, set
}

// UpdateStatus sets the status unconditionally
func (d *DynamoDBStorage) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	if err := checkStatus(status); err != nil {
		return err
	}

	cond := expression.AttributeExists(expression.Name("id"))
	err := d.updateStatus(ctx, id, status, cond)
	if isConditionalCheckFailed(err) {
		return notFound(id)
	}
	if err != nil {
		return apperrors.Storage(fmt.Sprintf("failed to update posting %s", id), err)
	}
	return nil
}

// TransitionStatus sets the status only if it is currently from
func (d *DynamoDBStorage) TransitionStatus(ctx context.Context, id string, from, to models.Status) error {
	if err := checkStatus(to); err != nil {
		return err
	}

	cond := expression.AttributeExists(expression.Name("id")).
		And(expression.Name("status").Equal(expression.Value(string(from))))
	err := d.updateStatus(ctx, id, to, cond)
	if err == nil {
		return nil
	}
	if !isConditionalCheckFailed(err) {
		return apperrors.Storage(fmt.Sprintf("failed to transition posting %s", id), err)
	}

	current, getErr := d.Get(ctx, id)
	if getErr != nil {
		return getErr
	}
	return transitionMismatch(id, from, current.Status)
}

func (d *DynamoDBStorage) updateStatus(ctx context.Context, id string, status models.Status, cond expression.ConditionBuilder) error {
	update := expression.Set(expression.Name("status"), expression.Value(string(status)))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return err
	}

	_, err = d.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       d.key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

func (d *DynamoDBStorage) key(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"id": {S: aws.String(id)},
	}
}

func isConditionalCheckFailed(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}

// Ping checks the table is reachable
func (d *DynamoDBStorage) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	if err != nil {
		return apperrors.Storage("failed to describe table", err)
	}
	return nil
}

// Close closes the DynamoDB connection
func (d *DynamoDBStorage) Close() error {
	// DynamoDB client doesn't need explicit closing
	return nil
}

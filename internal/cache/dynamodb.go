package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	pkgerrors "github.com/pkg/errors"
)

const (
	entryPartitionPrefix = "CACHE#"
	tagPartitionPrefix   = "TAG#"
)

// DynamoDBAPI is the subset of the DynamoDB client the cache uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type tagItem struct {
	PK   string   `dynamodbav:"pk"`
	Keys []string `dynamodbav:"keys,stringset,omitempty"`
}

// DynamoDBService uses one table keyed by "pk". Entries are stored under
// CACHE#<key>; each tag is an item TAG#<tag> holding a string set of keys.
// The table's TTL attribute should be set to "ttl" so stale items are reaped.
type DynamoDBService struct {
	client DynamoDBAPI
	table  string
	now    func() time.Time
}

// NewDynamoDBClient loads the default AWS configuration. A non-empty endpoint
// targets DynamoDB Local, which accepts any static credentials.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*awsConfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsConfig.WithRegion(region))
	}
	if endpoint != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")))
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load aws config")
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewDynamoDBService connects and creates the table when it does not exist yet.
func NewDynamoDBService(ctx context.Context, region, table, endpoint string) (*DynamoDBService, error) {
	client, err := NewDynamoDBClient(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	svc := NewDynamoDBServiceFromClient(client, table)
	if err := svc.EnsureTable(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func NewDynamoDBServiceFromClient(client DynamoDBAPI, table string) *DynamoDBService {
	return &DynamoDBService{client: client, table: table, now: time.Now}
}

func (s *DynamoDBService) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return pkgerrors.Wrapf(err, "describe table %s", s.table)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	return pkgerrors.Wrapf(err, "create table %s", s.table)
}

func partitionKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: pk}}
}

func (s *DynamoDBService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	entry := newEntry(entryPartitionPrefix+key, data, tags, duration, s.now())
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal cache entry")
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return pkgerrors.Wrap(err, "cache set")
	}

	for _, tag := range tags {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:        aws.String(s.table),
			Key:              partitionKey(tagPartitionPrefix + tag),
			UpdateExpression: aws.String("ADD #keys :key SET #ttl = :ttl"),
			ExpressionAttributeNames: map[string]string{
				"#keys": "keys",
				"#ttl":  "ttl",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":key": &types.AttributeValueMemberSS{Value: []string{key}},
				":ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(entry.TTL, 10)},
			},
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "cache tag %s", tag)
		}
	}
	return nil
}

func (s *DynamoDBService) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       partitionKey(entryPartitionPrefix + key),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "cache get")
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var entry Entry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return nil, pkgerrors.Wrap(err, "unmarshal cache entry")
	}
	if entry.expired(s.now()) {
		return nil, nil
	}
	return entry.Data, nil
}

func (s *DynamoDBService) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := partitionKey(tagPartitionPrefix + tag)
		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.table),
			Key:       tagKey,
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "cache invalidate %s", tag)
		}
		if len(out.Item) == 0 {
			continue
		}

		var index tagItem
		if err := attributevalue.UnmarshalMap(out.Item, &index); err != nil {
			return pkgerrors.Wrap(err, "unmarshal cache tag")
		}
		for _, key := range index.Keys {
			if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.table),
				Key:       partitionKey(entryPartitionPrefix + key),
			}); err != nil {
				return pkgerrors.Wrapf(err, "cache invalidate %s", tag)
			}
		}
		if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.table),
			Key:       tagKey,
		}); err != nil {
			return pkgerrors.Wrapf(err, "cache invalidate %s", tag)
		}
	}
	return nil
}

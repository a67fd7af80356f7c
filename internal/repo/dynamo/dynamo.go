package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/repo"
)

var _ repo.ClusterRegistry = (*Store)(nil)

// API is the slice of the DynamoDB client the store uses.
type API interface {
	dynamodb.ScanAPIClient
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store uses a table named after the environment with cluster_name as the
// hash key.
type Store struct {
	api   API
	table string
}

// New loads the default AWS config chain (env, shared config, IRSA, ...).
// endpoint overrides the service endpoint, e.g. for DynamoDB Local.
func New(ctx context.Context, table, endpoint string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewWithAPI(client, table), nil
}

func NewWithAPI(api API, table string) *Store {
	return &Store{api: api, table: table}
}

type item struct {
	ClusterName string `dynamodbav:"cluster_name"`
	LastSeen    int64  `dynamodbav:"last_seen"`
	AlertActive bool   `dynamodbav:"alert_active"`
}

func (s *Store) key(cluster string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"cluster_name": &types.AttributeValueMemberS{Value: cluster},
	}
}

func (s *Store) UpsertLastSeen(ctx context.Context, cluster string, epochSeconds int64) error {
	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.key(cluster),
		UpdateExpression: aws.String("SET last_seen = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberN{Value: strconv.FormatInt(epochSeconds, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb update last_seen: %w", err)
	}
	return nil
}

func (s *Store) UpsertAlertState(ctx context.Context, cluster string, active bool) error {
	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.key(cluster),
		UpdateExpression: aws.String("SET alert_active = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberBOOL{Value: active},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb update alert_active: %w", err)
	}
	return nil
}

// GetAll scans the whole table, page by page.
func (s *Store) GetAll(ctx context.Context) ([]domain.ClusterRecord, error) {
	p := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{
		TableName:            aws.String(s.table),
		ProjectionExpression: aws.String("cluster_name, last_seen, alert_active"),
	})

	var out []domain.ClusterRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan: %w", err)
		}
		var items []item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("dynamodb decode: %w", err)
		}
		for _, it := range items {
			out = append(out, domain.ClusterRecord{
				ClusterName: it.ClusterName,
				LastSeen:    it.LastSeen,
				AlertActive: it.AlertActive,
			})
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, cluster string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(cluster),
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete: %w", err)
	}
	return nil
}

package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/repo"
)

var _ repo.ClusterRegistry = (*Store)(nil)

// Store keeps one collection per environment; documents use the cluster
// name as _id.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func New(ctx context.Context, uri, database, environment string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{client: client, coll: client.Database(database).Collection(environment)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type document struct {
	ClusterName string `bson:"_id"`
	LastSeen    int64  `bson:"last_seen,omitempty"`
	AlertActive bool   `bson:"alert_active,omitempty"`
}

func (s *Store) upsert(ctx context.Context, cluster string, set bson.D) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: cluster}},
		bson.D{{Key: "$set", Value: set}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) UpsertLastSeen(ctx context.Context, cluster string, epochSeconds int64) error {
	if err := s.upsert(ctx, cluster, bson.D{{Key: "last_seen", Value: epochSeconds}}); err != nil {
		return fmt.Errorf("mongo upsert last_seen: %w", err)
	}
	return nil
}

func (s *Store) UpsertAlertState(ctx context.Context, cluster string, active bool) error {
	if err := s.upsert(ctx, cluster, bson.D{{Key: "alert_active", Value: active}}); err != nil {
		return fmt.Errorf("mongo upsert alert_active: %w", err)
	}
	return nil
}

// GetAll drains the cursor; the driver fetches batches transparently.
func (s *Store) GetAll(ctx context.Context) ([]domain.ClusterRecord, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	out := make([]domain.ClusterRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.ClusterRecord{
			ClusterName: d.ClusterName,
			LastSeen:    d.LastSeen,
			AlertActive: d.AlertActive,
		})
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, cluster string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: cluster}}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/repo"
)

var _ repo.ClusterRegistry = (*Store)(nil)

// Store keeps one table per environment, named after the environment.
type Store struct {
	pool  *pgxpool.Pool
	log   *zap.Logger
	table string // already quoted
}

func New(ctx context.Context, dsn, environment string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log, table: TableName(environment)}, nil
}

// TableName quotes the environment name for use as an identifier.
func TableName(environment string) string {
	return pgx.Identifier{environment}.Sanitize()
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the environment table if it is missing.
// last_seen and alert_active are nullable: either upsert may create the row.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS `+s.table+` (
  cluster_name TEXT PRIMARY KEY,
  last_seen    BIGINT NULL,
  alert_active BOOLEAN NULL
)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	s.log.Debug("postgres_schema_ready", zap.String("table", s.table))
	return nil
}

func (s *Store) UpsertLastSeen(ctx context.Context, cluster string, epochSeconds int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (cluster_name, last_seen)
		 VALUES ($1, $2)
		 ON CONFLICT (cluster_name) DO UPDATE SET last_seen = EXCLUDED.last_seen`,
		cluster, epochSeconds,
	)
	if err != nil {
		return fmt.Errorf("upsert last_seen: %w", err)
	}
	return nil
}

func (s *Store) UpsertAlertState(ctx context.Context, cluster string, active bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (cluster_name, alert_active)
		 VALUES ($1, $2)
		 ON CONFLICT (cluster_name) DO UPDATE SET alert_active = EXCLUDED.alert_active`,
		cluster, active,
	)
	if err != nil {
		return fmt.Errorf("upsert alert_active: %w", err)
	}
	return nil
}

func (s *Store) GetAll(ctx context.Context) ([]domain.ClusterRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cluster_name, COALESCE(last_seen, 0), COALESCE(alert_active, false)
		   FROM `+s.table+`
		  ORDER BY cluster_name`)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var out []domain.ClusterRecord
	for rows.Next() {
		var r domain.ClusterRecord
		if err := rows.Scan(&r.ClusterName, &r.LastSeen, &r.AlertActive); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, cluster string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE cluster_name = $1`, cluster); err != nil {
		return fmt.Errorf("delete cluster: %w", err)
	}
	return nil
}

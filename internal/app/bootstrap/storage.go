package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	appconfig "github.com/nevloh/nevloh-website-sub001/internal/config"
	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

// LeadStores bundles the lead repository with its subscriber store.
type LeadStores struct {
	Backend     string
	Repo        leads.Repository
	Subscribers leads.SubscriberStore
	close       func()
}

// Close releases connections held by the stores.
func (s *LeadStores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// BuildLeadStores selects the backend named by LEAD_STORE. dynamo may be nil
// unless that backend is selected.
func BuildLeadStores(ctx context.Context, cfg *appconfig.Config, dynamo *dynamodb.Client, logger *logging.Logger) (*LeadStores, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.LeadStore {
	case appconfig.LeadStoreMemory, "":
		logger.Warn("using in-memory lead store; leads are lost on restart")
		return &LeadStores{
			Backend:     appconfig.LeadStoreMemory,
			Repo:        leads.NewInMemoryRepository(),
			Subscribers: leads.NewInMemorySubscriberStore(),
		}, nil

	case appconfig.LeadStorePostgres:
		dsn := strings.TrimSpace(cfg.DatabaseURL)
		if dsn == "" {
			return nil, errors.New("bootstrap: DATABASE_URL is required for the postgres lead store")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		sqlDB := stdlib.OpenDBFromPool(pool)
		logger.Info("using postgres lead store")
		return &LeadStores{
			Backend:     appconfig.LeadStorePostgres,
			Repo:        leads.NewPostgresRepository(pool),
			Subscribers: leads.NewPostgresSubscriberStore(sqlDB),
			close: func() {
				_ = sqlDB.Close()
				pool.Close()
			},
		}, nil

	case appconfig.LeadStoreDynamo:
		if dynamo == nil {
			return nil, errors.New("bootstrap: dynamodb client is required for the dynamodb lead store")
		}
		logger.Info("using dynamodb lead store", "leads_table", cfg.LeadsTable, "subscribers_table", cfg.SubscribersTable)
		return &LeadStores{
			Backend:     appconfig.LeadStoreDynamo,
			Repo:        leads.NewDynamoRepository(dynamo, cfg.LeadsTable),
			Subscribers: leads.NewDynamoSubscriberStore(dynamo, cfg.SubscribersTable),
		}, nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown LEAD_STORE %q", cfg.LeadStore)
	}
}

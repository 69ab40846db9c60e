// Package storage opens the store backend selected by STORE_BACKEND and
// exposes it through the narrow interfaces the services consume.
package storage

import (
	"context"
	"fmt"

	"github.com/mroshb/moodgram/internal/config"
	"github.com/mroshb/moodgram/internal/database"
	"github.com/mroshb/moodgram/internal/dynamo"
	"github.com/mroshb/moodgram/internal/memstore"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/internal/report"
	"github.com/mroshb/moodgram/internal/repositories"
	"github.com/mroshb/moodgram/internal/services"
	"github.com/mroshb/moodgram/pkg/logger"
)

// Backend bundles one store under every role it plays.
type Backend struct {
	Name   string
	Store  relationship.Store
	Users  services.UserStore
	Graph  services.RelationshipReader
	Export report.Source
	// Recounter is nil when the backend cannot rebuild counters.
	Recounter services.CounterRecounter

	closeFn func() error
}

func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// Open connects to the configured backend, creating tables when needed.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store := memstore.New()
		logger.Warn("Using in-memory store, data is lost on restart")
		return &Backend{
			Name:      cfg.StoreBackend,
			Store:     store,
			Users:     store,
			Graph:     store,
			Export:    exportSource{users: store, graph: store},
			Recounter: store,
		}, nil

	case config.BackendPostgres, config.BackendSQLite:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}

		users := repositories.NewUserRepository(db)
		graph := repositories.NewRelationshipRepository(db)
		return &Backend{
			Name:      cfg.StoreBackend,
			Store:     graph,
			Users:     users,
			Graph:     graph,
			Export:    exportSource{users: users, graph: graph},
			Recounter: graph,
			closeFn:   sqlDB.Close,
		}, nil

	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		store := dynamo.NewStore(client, dynamo.Tables{
			Users:         cfg.DynamoUsersTable,
			Relationships: cfg.DynamoRelationshipsTable,
		})
		if err := store.CreateTables(ctx); err != nil {
			return nil, err
		}
		logger.Info("DynamoDB store ready", "region", cfg.AWSRegion, "users_table", cfg.DynamoUsersTable)
		return &Backend{
			Name:   cfg.StoreBackend,
			Store:  store,
			Users:  store,
			Graph:  store,
			Export: exportSource{users: store, graph: store},
		}, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

type userLister interface {
	AllUsers(ctx context.Context) ([]models.User, error)
}

type edgeLister interface {
	AllRelationships(ctx context.Context) ([]models.Relationship, error)
}

// exportSource joins the user and edge listings, which the relational
// backend keeps on separate repositories.
type exportSource struct {
	users userLister
	graph edgeLister
}

func (s exportSource) AllUsers(ctx context.Context) ([]models.User, error) {
	return s.users.AllUsers(ctx)
}

func (s exportSource) AllRelationships(ctx context.Context) ([]models.Relationship, error) {
	return s.graph.AllRelationships(ctx)
}

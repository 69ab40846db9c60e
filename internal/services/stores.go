package services

import (
	"context"

	"github.com/mroshb/moodgram/internal/models"
)

// UserStore is the user directory every store backend provides.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	SetAccountPublic(ctx context.Context, id string, public bool) error
}

// RelationshipReader serves read-only relationship queries outside of
// transactions.
type RelationshipReader interface {
	// GetRelationship returns the edge for key, or the implicit none edge.
	GetRelationship(ctx context.Context, key models.EdgeKey) (*models.Relationship, error)
	ListIncoming(ctx context.Context, targetID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error)
	ListOutgoing(ctx context.Context, sourceID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error)
}

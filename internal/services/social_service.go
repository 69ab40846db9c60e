package services

import (
	"context"
	"time"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/mroshb/moodgram/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// SocialService is the caller side of the relationship engine: it resolves
// the target user, retries conflicts and answers relationship queries.
type SocialService struct {
	engine     *relationship.Engine
	users      UserStore
	graph      RelationshipReader
	maxRetries int
	retryDelay time.Duration
}

func NewSocialService(engine *relationship.Engine, users UserStore, graph RelationshipReader, maxRetries int) *SocialService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &SocialService{
		engine:     engine,
		users:      users,
		graph:      graph,
		maxRetries: maxRetries,
		retryDelay: 20 * time.Millisecond,
	}
}

// Act applies action from actingID towards targetID. A CONFLICT from the
// store is retried from scratch, target lookup included, up to maxRetries
// attempts.
func (s *SocialService) Act(ctx context.Context, actingID, targetID string, action relationship.Action) (relationship.Outcome, error) {
	if _, err := s.users.GetUserByID(ctx, actingID); err != nil {
		return relationship.Outcome{}, err
	}

	for attempt := 1; ; attempt++ {
		target, err := s.users.GetUserByID(ctx, targetID)
		if err != nil {
			return relationship.Outcome{}, err
		}

		outcome, err := s.engine.ApplyAction(ctx, actingID, relationship.Target{
			ID:              target.ID,
			IsAccountPublic: target.IsAccountPublic,
		}, action)
		if err == nil {
			logger.Info("Relationship action",
				"acting_id", actingID,
				"target_id", targetID,
				"action", action.String(),
				"applied", outcome.Applied,
				"status", outcome.Status,
				"attempt", attempt,
			)
			return outcome, nil
		}

		if !errors.Is(err, errors.ErrCodeConflict) || attempt >= s.maxRetries {
			logger.Error("Relationship action failed",
				"acting_id", actingID,
				"target_id", targetID,
				"action", action.String(),
				"attempt", attempt,
				"error", err,
			)
			return relationship.Outcome{}, err
		}

		logger.Warn("Relationship action conflicted, retrying",
			"acting_id", actingID,
			"target_id", targetID,
			"action", action.String(),
			"attempt", attempt,
		)
		select {
		case <-ctx.Done():
			return relationship.Outcome{}, errors.Wrap(ctx.Err(), errors.ErrCodeUnavailable, "retry abandoned")
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}
}

// RelationshipView is the pair of edges between two users as seen by the
// first one.
type RelationshipView struct {
	Outgoing models.Relationship `json:"outgoing"`
	Incoming models.Relationship `json:"incoming"`
}

func (s *SocialService) Between(ctx context.Context, userID, otherID string) (*RelationshipView, error) {
	key := models.EdgeKey{SourceID: userID, TargetID: otherID}
	out, err := s.graph.GetRelationship(ctx, key)
	if err != nil {
		return nil, err
	}
	in, err := s.graph.GetRelationship(ctx, key.Inverse())
	if err != nil {
		return nil, err
	}
	return &RelationshipView{Outgoing: *out, Incoming: *in}, nil
}

// PendingRequests lists requests waiting for userID to approve or ignore
func (s *SocialService) PendingRequests(ctx context.Context, userID string, limit int) ([]models.Relationship, error) {
	return s.graph.ListIncoming(ctx, userID, models.StatusRequest, clampLimit(limit))
}

func (s *SocialService) Followers(ctx context.Context, userID string, limit int) ([]models.Relationship, error) {
	return s.graph.ListIncoming(ctx, userID, models.StatusFollow, clampLimit(limit))
}

func (s *SocialService) Following(ctx context.Context, userID string, limit int) ([]models.Relationship, error) {
	return s.graph.ListOutgoing(ctx, userID, models.StatusFollow, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

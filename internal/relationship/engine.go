package relationship

import (
	"context"
	"time"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/pkg/errors"
)

// Target describes the user an action is aimed at.
type Target struct {
	ID              string
	IsAccountPublic bool
}

// Outcome reports what an action did. Applied is false for no-ops. Status is
// the resulting status of the edge the action is about: the acting user's
// forward edge, or the requester's edge for approve and ignore.
type Outcome struct {
	Applied bool
	Status  models.RelationshipStatus
}

// Engine applies relationship actions against a Store. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	store Store
	now   func() time.Time
}

type Option func(*Engine)

// WithClock overrides the timestamp source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyAction runs one action as a single store transaction. Store errors,
// including CONFLICT, are returned unchanged; retrying is up to the caller.
func (e *Engine) ApplyAction(ctx context.Context, actingUserID string, target Target, action Action) (Outcome, error) {
	if !action.Valid() {
		return Outcome{}, errors.New(errors.ErrCodeValidation, "invalid relationship action")
	}
	if actingUserID == "" || target.ID == "" {
		return Outcome{}, errors.New(errors.ErrCodeValidation, "acting and target user ids are required")
	}
	if actingUserID == target.ID {
		return Outcome{}, errors.New(errors.ErrCodeValidation, "cannot act on own relationship")
	}

	fwdKey := models.EdgeKey{SourceID: actingUserID, TargetID: target.ID}
	invKey := fwdKey.Inverse()

	var outcome Outcome
	err := e.store.RunInTransaction(ctx, func(tx Tx) error {
		edges, err := tx.GetEdges(ctx, fwdKey, invKey)
		if err != nil {
			return err
		}
		if len(edges) != 2 {
			return errors.New(errors.ErrCodeInternalError, "store returned wrong number of edges")
		}
		fwd, inv := edges[0], edges[1]
		if fwd == nil {
			fwd = models.NewRelationship(fwdKey)
		}
		if inv == nil {
			inv = models.NewRelationship(invKey)
		}

		p := decide(action, fwd, inv, target.IsAccountPublic)
		outcome = p.outcome

		now := e.now()
		for _, edge := range p.edges {
			edge.UpdatedAt = now
			if err := tx.PutEdge(ctx, edge); err != nil {
				return err
			}
		}
		for _, userID := range p.users() {
			if err := tx.IncrementCounters(ctx, userID, p.deltas[userID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// Package memstore is an in-process document store with optimistic
// transactions. It backs STORE_BACKEND=memory and most unit tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/pkg/errors"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]*models.User
	edges map[models.EdgeKey]models.Relationship
	now   func() time.Time
}

func New() *Store {
	return &Store{
		users: make(map[string]*models.User),
		edges: make(map[models.EdgeKey]models.Relationship),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

var _ relationship.Store = (*Store)(nil)

type tx struct {
	store  *Store
	reads  map[models.EdgeKey]int64
	writes map[models.EdgeKey]models.Relationship
	deltas map[string]models.Counters
	order  []string
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(relationship.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "transaction not started")
	}

	t := &tx{
		store:  s,
		reads:  make(map[models.EdgeKey]int64),
		writes: make(map[models.EdgeKey]models.Relationship),
		deltas: make(map[string]models.Counters),
	}
	if err := fn(t); err != nil {
		return err
	}
	return s.commit(ctx, t)
}

func (t *tx) GetEdges(ctx context.Context, keys ...models.EdgeKey) ([]*models.Relationship, error) {
	if len(t.writes) > 0 || len(t.deltas) > 0 {
		return nil, errors.New(errors.ErrCodeInternalError, "reads must precede writes in a transaction")
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make([]*models.Relationship, len(keys))
	for i, key := range keys {
		edge, ok := t.store.edges[key]
		if !ok {
			t.reads[key] = 0
			continue
		}
		t.reads[key] = edge.Version
		out[i] = &edge
	}
	return out, nil
}

func (t *tx) PutEdge(ctx context.Context, edge *models.Relationship) error {
	key := edge.Key()
	version, ok := t.reads[key]
	if !ok {
		return errors.New(errors.ErrCodeInternalError, "edge written without being read: "+key.String())
	}
	doc := *edge
	doc.Version = version + 1
	t.writes[key] = doc
	return nil
}

func (t *tx) IncrementCounters(ctx context.Context, userID string, delta models.Counters) error {
	if _, ok := t.deltas[userID]; !ok {
		t.order = append(t.order, userID)
	}
	t.deltas[userID] = t.deltas[userID].Add(delta)
	return nil
}

func (s *Store) commit(ctx context.Context, t *tx) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "transaction abandoned before commit")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, version := range t.reads {
		if s.edges[key].Version != version {
			return errors.New(errors.ErrCodeConflict, "edge changed during transaction: "+key.String())
		}
	}

	for key, doc := range t.writes {
		s.edges[key] = doc
	}
	now := s.now()
	for _, userID := range t.order {
		u, ok := s.users[userID]
		if !ok {
			u = &models.User{ID: userID, CreatedAt: now}
			s.users[userID] = u
		}
		u.Counters = u.Counters.Add(t.deltas[userID])
		u.UpdatedAt = now
	}
	return nil
}

// Relationship returns a copy of the stored edge, or the implicit none edge.
func (s *Store) Relationship(key models.EdgeKey) models.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if edge, ok := s.edges[key]; ok {
		return edge
	}
	return *models.NewRelationship(key)
}

// Counters returns the user's counters, zero for unknown users.
func (s *Store) Counters(userID string) models.Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return u.Counters
	}
	return models.Counters{}
}

// AllRelationships returns every stored edge ordered by key.
func (s *Store) AllRelationships(ctx context.Context) ([]models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Relationship, 0, len(s.edges))
	for _, edge := range s.edges {
		out = append(out, edge)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out, nil
}

// ListUserIDs returns the ids of every user document in ascending order.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// RecountUser rebuilds the user's counters from the stored edges.
func (s *Store) RecountUser(ctx context.Context, userID string) (stored, actual models.Counters, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return stored, actual, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	var edges []models.Relationship
	for _, edge := range s.edges {
		if edge.SourceID == userID || edge.TargetID == userID {
			edges = append(edges, edge)
		}
	}
	stored = u.Counters
	actual = models.CountEdges(userID, edges)
	if stored != actual {
		u.Counters = actual
		u.UpdatedAt = s.now()
	}
	return stored, actual, nil
}

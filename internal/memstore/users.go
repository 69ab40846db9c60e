package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/pkg/errors"
)

// CreateUser stores a new user. A document created implicitly by counter
// increments is adopted, keeping its counters.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == user.ID && u.Username != "" {
			return errors.New(errors.ErrCodeAlreadyExists, "user already exists")
		}
		if strings.EqualFold(u.Username, user.Username) {
			return errors.New(errors.ErrCodeAlreadyExists, "username is taken")
		}
		if user.TelegramID != nil && u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
			return errors.New(errors.ErrCodeAlreadyExists, "telegram account already registered")
		}
	}

	now := s.now()
	doc := *user
	if existing, ok := s.users[user.ID]; ok {
		doc.Counters = existing.Counters
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	s.users[user.ID] = &doc
	*user = doc
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.Username == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	out := *u
	return &out, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username != "" && strings.EqualFold(u.Username, username) {
			out := *u
			return &out, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			out := *u
			return &out, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

func (s *Store) SetAccountPublic(ctx context.Context, id string, public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.Username == "" {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	u.IsAccountPublic = public
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) GetRelationship(ctx context.Context, key models.EdgeKey) (*models.Relationship, error) {
	edge := s.Relationship(key)
	return &edge, nil
}

// ListIncoming returns edges pointing at targetID with the given status,
// most recently updated first.
func (s *Store) ListIncoming(ctx context.Context, targetID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	return s.list(func(e models.Relationship) bool {
		return e.TargetID == targetID && e.Status == status
	}, limit), nil
}

// ListOutgoing returns edges leaving sourceID with the given status,
// most recently updated first.
func (s *Store) ListOutgoing(ctx context.Context, sourceID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	return s.list(func(e models.Relationship) bool {
		return e.SourceID == sourceID && e.Status == status
	}, limit), nil
}

func (s *Store) list(match func(models.Relationship) bool, limit int) []models.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Relationship{}
	for _, edge := range s.edges {
		if match(edge) {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Key().String() < out[j].Key().String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AllUsers returns every registered user ordered by id.
func (s *Store) AllUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Username == "" {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository stores edges and counters in SQL. Concurrent
// actions on the same pair of users serialize on the users' row locks.
type RelationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

var _ relationship.Store = (*RelationshipRepository)(nil)

type sqlTx struct {
	db     *gorm.DB
	reads  map[models.EdgeKey]int64
	writes bool
}

// RunInTransaction runs fn inside a database transaction
func (r *RelationshipRepository) RunInTransaction(ctx context.Context, fn func(relationship.Tx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&sqlTx{db: db, reads: make(map[models.EdgeKey]int64)})
	})
	return translateError(err, "relationship transaction failed")
}

// GetEdges locks every endpoint user, in id order, then reads the edges.
func (t *sqlTx) GetEdges(ctx context.Context, keys ...models.EdgeKey) ([]*models.Relationship, error) {
	if t.writes {
		return nil, errors.New(errors.ErrCodeInternalError, "reads must precede writes in a transaction")
	}

	seen := map[string]bool{}
	var ids []string
	for _, key := range keys {
		for _, id := range []string{key.SourceID, key.TargetID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)

	var locked []models.User
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id IN ?", ids).
		Order("id").
		Find(&locked).Error; err != nil {
		return nil, translateError(err, "failed to lock users")
	}
	if len(locked) != len(ids) {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}

	var rows []models.Relationship
	if err := t.db.Where("source_id IN ? AND target_id IN ?", ids, ids).Find(&rows).Error; err != nil {
		return nil, translateError(err, "failed to read relationships")
	}
	byKey := make(map[models.EdgeKey]models.Relationship, len(rows))
	for _, row := range rows {
		byKey[row.Key()] = row
	}

	out := make([]*models.Relationship, len(keys))
	for i, key := range keys {
		row, ok := byKey[key]
		if !ok {
			t.reads[key] = 0
			continue
		}
		t.reads[key] = row.Version
		out[i] = &row
	}
	return out, nil
}

func (t *sqlTx) PutEdge(ctx context.Context, edge *models.Relationship) error {
	key := edge.Key()
	version, ok := t.reads[key]
	if !ok {
		return errors.New(errors.ErrCodeInternalError, "edge written without being read: "+key.String())
	}
	t.writes = true

	doc := *edge
	doc.Version = version + 1
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "is_blocked", "version", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return translateError(err, "failed to write relationship")
	}
	return nil
}

func (t *sqlTx) IncrementCounters(ctx context.Context, userID string, delta models.Counters) error {
	cols := delta.Columns()
	if len(cols) == 0 {
		return nil
	}
	t.writes = true

	updates := make(map[string]interface{}, len(cols)+1)
	for col, v := range cols {
		updates[col] = gorm.Expr(col+" + ?", v)
	}
	updates["updated_at"] = time.Now().UTC()

	result := t.db.Model(&models.User{}).Where("id = ?", userID).UpdateColumns(updates)
	if result.Error != nil {
		return translateError(result.Error, "failed to update counters")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return nil
}

// GetRelationship returns the stored edge or the implicit none edge
func (r *RelationshipRepository) GetRelationship(ctx context.Context, key models.EdgeKey) (*models.Relationship, error) {
	var edge models.Relationship
	err := r.db.WithContext(ctx).
		Where("source_id = ? AND target_id = ?", key.SourceID, key.TargetID).
		Take(&edge).Error
	if err == gorm.ErrRecordNotFound {
		return models.NewRelationship(key), nil
	}
	if err != nil {
		return nil, translateError(err, "failed to get relationship")
	}
	return &edge, nil
}

// ListIncoming returns edges pointing at targetID with the given status
func (r *RelationshipRepository) ListIncoming(ctx context.Context, targetID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	return r.list(ctx, "target_id = ? AND status = ?", targetID, status, limit)
}

// ListOutgoing returns edges leaving sourceID with the given status
func (r *RelationshipRepository) ListOutgoing(ctx context.Context, sourceID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	return r.list(ctx, "source_id = ? AND status = ?", sourceID, status, limit)
}

func (r *RelationshipRepository) list(ctx context.Context, where string, userID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	var edges []models.Relationship
	query := r.db.WithContext(ctx).
		Where(where, userID, status).
		Order("updated_at DESC").
		Order("source_id").
		Order("target_id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&edges).Error; err != nil {
		return nil, translateError(err, "failed to list relationships")
	}
	if edges == nil {
		edges = []models.Relationship{}
	}
	return edges, nil
}

// AllRelationships returns every stored edge ordered by key
func (r *RelationshipRepository) AllRelationships(ctx context.Context) ([]models.Relationship, error) {
	var edges []models.Relationship
	if err := r.db.WithContext(ctx).Order("source_id").Order("target_id").Find(&edges).Error; err != nil {
		return nil, translateError(err, "failed to list relationships")
	}
	return edges, nil
}

// ListUserIDs returns every user id in ascending order
func (r *RelationshipRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err, "failed to list users")
	}
	return ids, nil
}

// RecountUser recomputes the user's counters from the edges touching it and
// overwrites the stored values when they drifted.
func (r *RelationshipRepository) RecountUser(ctx context.Context, userID string) (stored, actual models.Counters, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).Take(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "user not found")
			}
			return err
		}
		stored = user.Counters

		var edges []models.Relationship
		if err := tx.Where("source_id = ? OR target_id = ?", userID, userID).Find(&edges).Error; err != nil {
			return err
		}
		actual = models.CountEdges(userID, edges)
		if actual == stored {
			return nil
		}

		return tx.Model(&models.User{}).Where("id = ?", userID).UpdateColumns(map[string]interface{}{
			models.ColFollowCount:    actual.FollowCount,
			models.ColFollowByCount:  actual.FollowByCount,
			models.ColRequestCount:   actual.RequestCount,
			models.ColRequestByCount: actual.RequestByCount,
			models.ColIgnoreCount:    actual.IgnoreCount,
			models.ColIgnoreByCount:  actual.IgnoreByCount,
			models.ColBlockCount:     actual.BlockCount,
			models.ColBlockByCount:   actual.BlockByCount,
			"updated_at":             time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return models.Counters{}, models.Counters{}, translateError(err, "failed to recount user")
	}
	return stored, actual, nil
}

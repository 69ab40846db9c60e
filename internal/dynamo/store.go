package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/mroshb/moodgram/pkg/logger"
)

var _ relationship.Store = (*Store)(nil)

type tx struct {
	store  *Store
	reads  map[models.EdgeKey]int64
	order  []models.EdgeKey
	writes map[models.EdgeKey]models.Relationship
	deltas map[string]models.Counters
	users  []string
}

// RunInTransaction buffers fn's writes and commits them atomically. Every
// edge fn read is re-checked at commit, so a concurrent change to either
// edge of the pair fails the commit with CONFLICT.
func (s *Store) RunInTransaction(ctx context.Context, fn func(relationship.Tx) error) error {
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

	checked := map[string]bool{}
	for _, key := range keys {
		for _, id := range []string{key.SourceID, key.TargetID} {
			if checked[id] {
				continue
			}
			checked[id] = true
			out, err := t.store.client.GetItem(ctx, &dynamodb.GetItemInput{
				TableName:      aws.String(t.store.tables.Users),
				Key:            userKey(id),
				ConsistentRead: aws.Bool(true),
			})
			if err != nil {
				return nil, translateError(err, "failed to read user")
			}
			if out.Item == nil {
				return nil, errors.New(errors.ErrCodeNotFound, "user not found")
			}
		}
	}

	edges := make([]*models.Relationship, len(keys))
	for i, key := range keys {
		out, err := t.store.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(t.store.tables.Relationships),
			Key:            edgeKey(key),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return nil, translateError(err, "failed to read relationship")
		}
		if _, seen := t.reads[key]; !seen {
			t.order = append(t.order, key)
		}
		if out.Item == nil {
			t.reads[key] = 0
			continue
		}
		var edge models.Relationship
		if err := attributevalue.UnmarshalMap(out.Item, &edge); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "malformed relationship item")
		}
		t.reads[key] = edge.Version
		edges[i] = &edge
	}
	return edges, nil
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
	if delta.IsZero() {
		return nil
	}
	if _, ok := t.deltas[userID]; !ok {
		t.users = append(t.users, userID)
	}
	t.deltas[userID] = t.deltas[userID].Add(delta)
	return nil
}

func (s *Store) commit(ctx context.Context, t *tx) error {
	if len(t.writes) == 0 && len(t.deltas) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(t.order)+len(t.users))
	for _, key := range t.order {
		cond, names, values := edgeCondition(t.reads[key])
		doc, written := t.writes[key]
		if !written {
			items = append(items, types.TransactWriteItem{
				ConditionCheck: &types.ConditionCheck{
					TableName:                 aws.String(s.tables.Relationships),
					Key:                       edgeKey(key),
					ConditionExpression:       aws.String(cond),
					ExpressionAttributeNames:  names,
					ExpressionAttributeValues: values,
				},
			})
			continue
		}
		item, err := attributevalue.MarshalMap(doc)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to marshal relationship")
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:                 aws.String(s.tables.Relationships),
				Item:                      item,
				ConditionExpression:       aws.String(cond),
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			},
		})
	}

	now := s.now().Format(time.RFC3339Nano)
	for _, userID := range t.users {
		update, values := counterUpdate(t.deltas[userID], now)
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:                 aws.String(s.tables.Users),
				Key:                       userKey(userID),
				UpdateExpression:          aws.String(update),
				ConditionExpression:       aws.String(condUserExists),
				ExpressionAttributeValues: values,
			},
		})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		logger.Debug("Relationship commit rejected", "items", len(items), "error", err)
		return translateError(err, "relationship transaction failed")
	}
	return nil
}

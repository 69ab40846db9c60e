package dynamo

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/pkg/errors"
)

// CreateUser writes the user together with its username and telegram
// markers, so uniqueness holds without a unique index.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to marshal user")
	}

	markers := []marker{{ID: usernameMarker(user.Username), MarkerOf: user.ID}}
	if user.TelegramID != nil {
		markers = append(markers, marker{ID: telegramMarker(*user.TelegramID), MarkerOf: user.ID})
	}

	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(s.tables.Users),
			Item:                item,
			ConditionExpression: aws.String(condItemAbsent),
		},
	}}
	for _, m := range markers {
		mItem, err := attributevalue.MarshalMap(m)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to marshal marker")
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.tables.Users),
				Item:                mItem,
				ConditionExpression: aws.String(condItemAbsent),
			},
		})
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if cancelledBy(err, reasonConditionalCheckFailed) {
		return errors.Wrap(err, errors.ErrCodeAlreadyExists, "username or telegram account already registered")
	}
	return translateError(err, "failed to create user")
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Users),
		Key:            userKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, translateError(err, "failed to get user")
	}
	if out.Item == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if _, isMarker := out.Item[attrMarkerOf]; isMarker {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "malformed user item")
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.byMarker(ctx, usernameMarker(username))
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.byMarker(ctx, telegramMarker(telegramID))
}

func (s *Store) byMarker(ctx context.Context, id string) (*models.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Users),
		Key:            userKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, translateError(err, "failed to get user")
	}
	if out.Item == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}

	var m marker
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "malformed marker item")
	}
	return s.GetUserByID(ctx, m.MarkerOf)
}

func (s *Store) SetAccountPublic(ctx context.Context, id string, public bool) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.Users),
		Key:                 userKey(id),
		UpdateExpression:    aws.String("SET " + attrPublic + " = :public, " + attrUpdated + " = :" + attrUpdated),
		ConditionExpression: aws.String(condUserExists),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":public":         &types.AttributeValueMemberBOOL{Value: public},
			":" + attrUpdated: str(s.now().Format(time.RFC3339Nano)),
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if stderrors.As(err, &ccf) {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return translateError(err, "failed to update privacy")
}

func (s *Store) GetRelationship(ctx context.Context, key models.EdgeKey) (*models.Relationship, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Relationships),
		Key:       edgeKey(key),
	})
	if err != nil {
		return nil, translateError(err, "failed to get relationship")
	}
	if out.Item == nil {
		return models.NewRelationship(key), nil
	}

	var edge models.Relationship
	if err := attributevalue.UnmarshalMap(out.Item, &edge); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "malformed relationship item")
	}
	return &edge, nil
}

// ListIncoming queries the target index. The index is eventually
// consistent, so a just-committed edge may be missing for a moment.
func (s *Store) ListIncoming(ctx context.Context, targetID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	return s.queryEdges(ctx, aws.String(targetIndex), attrTargetID, targetID, status, limit)
}

func (s *Store) ListOutgoing(ctx context.Context, sourceID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	return s.queryEdges(ctx, nil, attrSourceID, sourceID, status, limit)
}

// queryEdges pages through every match before sorting; DynamoDB applies
// Limit before FilterExpression, so it cannot be pushed down.
func (s *Store) queryEdges(ctx context.Context, index *string, keyAttr, userID string, status models.RelationshipStatus, limit int) ([]models.Relationship, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Relationships),
		IndexName:              index,
		KeyConditionExpression: aws.String(keyAttr + " = :user"),
		FilterExpression:       aws.String(filterStatus),
		ExpressionAttributeNames: map[string]string{
			"#status": attrStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user":   str(userID),
			":status": str(string(status)),
		},
	}

	edges := []models.Relationship{}
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, translateError(err, "failed to query relationships")
		}
		var page []models.Relationship
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "malformed relationship item")
		}
		edges = append(edges, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].UpdatedAt.Equal(edges[j].UpdatedAt) {
			return edges[i].UpdatedAt.After(edges[j].UpdatedAt)
		}
		return edges[i].Key().String() < edges[j].Key().String()
	})
	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}
	return edges, nil
}

// AllUsers scans the users table, skipping uniqueness markers.
func (s *Store) AllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.Users),
		FilterExpression: aws.String(filterNoMarker),
	}, func(items []map[string]types.AttributeValue) error {
		var page []models.User
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return err
		}
		users = append(users, page...)
		return nil
	})
	if err != nil {
		return nil, translateError(err, "failed to scan users")
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) AllRelationships(ctx context.Context) ([]models.Relationship, error) {
	var edges []models.Relationship
	err := s.scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tables.Relationships),
	}, func(items []map[string]types.AttributeValue) error {
		var page []models.Relationship
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return err
		}
		edges = append(edges, page...)
		return nil
	})
	if err != nil {
		return nil, translateError(err, "failed to scan relationships")
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		return edges[i].TargetID < edges[j].TargetID
	})
	return edges, nil
}

func (s *Store) scan(ctx context.Context, input *dynamodb.ScanInput, fn func([]map[string]types.AttributeValue) error) error {
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return err
		}
		if err := fn(out.Items); err != nil {
			return err
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

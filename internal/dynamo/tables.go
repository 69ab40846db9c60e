package dynamo

import (
	"context"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mroshb/moodgram/pkg/logger"
)

// CreateTables creates both tables with on-demand billing. Tables that
// already exist are left untouched.
func (s *Store) CreateTables(ctx context.Context) error {
	inputs := []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(s.tables.Users),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
			},
		},
		{
			TableName:   aws.String(s.tables.Relationships),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(attrSourceID), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String(attrTargetID), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(attrSourceID), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(attrTargetID), KeyType: types.KeyTypeRange},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				{
					IndexName: aws.String(targetIndex),
					KeySchema: []types.KeySchemaElement{
						{AttributeName: aws.String(attrTargetID), KeyType: types.KeyTypeHash},
						{AttributeName: aws.String(attrSourceID), KeyType: types.KeyTypeRange},
					},
					Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				},
			},
		},
	}

	for _, input := range inputs {
		_, err := s.client.CreateTable(ctx, input)
		var inUse *types.ResourceInUseException
		if stderrors.As(err, &inUse) {
			continue
		}
		if err != nil {
			return translateError(err, "failed to create table "+aws.ToString(input.TableName))
		}
		logger.Info("DynamoDB table created", "table", aws.ToString(input.TableName))
	}
	return nil
}

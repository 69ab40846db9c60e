package dynamo

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mroshb/moodgram/internal/models"
)

// Attribute, index and expression names shared by every request.
const (
	attrID       = "id"
	attrSourceID = "source_id"
	attrTargetID = "target_id"
	attrStatus   = "status"
	attrVersion  = "version"
	attrUpdated  = "updated_at"
	attrMarkerOf = "marker_of"
	attrPublic   = "is_account_public"

	targetIndex = "target-index"

	condEdgeAbsent = "attribute_not_exists(source_id)"
	condEdgeAt     = "#version = :expected"
	condUserExists = "attribute_exists(id)"
	condItemAbsent = "attribute_not_exists(id)"
	filterNoMarker = "attribute_not_exists(marker_of)"
	filterStatus   = "#status = :status"
)

// marker reserves a unique value (username, telegram id) for a user. It
// lives in the users table under a prefixed id.
type marker struct {
	ID       string `dynamodbav:"id"`
	MarkerOf string `dynamodbav:"marker_of"`
}

func usernameMarker(username string) string {
	return "username#" + strings.ToLower(username)
}

func telegramMarker(telegramID int64) string {
	return "telegram#" + strconv.FormatInt(telegramID, 10)
}

func str(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func num(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func userKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{attrID: str(id)}
}

func edgeKey(key models.EdgeKey) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSourceID: str(key.SourceID),
		attrTargetID: str(key.TargetID),
	}
}

// edgeCondition guards a write to an edge read at version.
func edgeCondition(version int64) (string, map[string]string, map[string]types.AttributeValue) {
	if version == 0 {
		return condEdgeAbsent, nil, nil
	}
	return condEdgeAt,
		map[string]string{"#version": attrVersion},
		map[string]types.AttributeValue{":expected": num(version)}
}

// counterUpdate builds "ADD col :col, ... SET updated_at = :updated_at" for
// the non-zero fields of delta, columns in sorted order.
func counterUpdate(delta models.Counters, updatedAt string) (string, map[string]types.AttributeValue) {
	cols := delta.Columns()
	names := make([]string, 0, len(cols))
	for col := range cols {
		names = append(names, col)
	}
	sort.Strings(names)

	values := make(map[string]types.AttributeValue, len(cols)+1)
	parts := make([]string, 0, len(cols))
	for _, col := range names {
		parts = append(parts, col+" :"+col)
		values[":"+col] = num(cols[col])
	}
	values[":"+attrUpdated] = str(updatedAt)
	return "ADD " + strings.Join(parts, ", ") + " SET " + attrUpdated + " = :" + attrUpdated, values
}

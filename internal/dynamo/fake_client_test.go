package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type attrs = map[string]types.AttributeValue

// fakeClient keeps tables in memory and understands exactly the condition,
// update and filter expressions the store emits.
type fakeClient struct {
	mu      sync.Mutex
	tables  Tables
	data    map[string]map[string]attrs
	created map[string]bool

	transactCalls int
	// beforeTransact runs, unlocked, before each TransactWriteItems call is
	// evaluated.
	beforeTransact func()
}

func newFakeClient(tables Tables) *fakeClient {
	return &fakeClient{
		tables: tables,
		data: map[string]map[string]attrs{
			tables.Users:         {},
			tables.Relationships: {},
		},
		created: map[string]bool{},
	}
}

func (f *fakeClient) keyOf(table string, key attrs) string {
	if table == f.tables.Relationships {
		return sOf(key[attrSourceID]) + "|" + sOf(key[attrTargetID])
	}
	return sOf(key[attrID])
}

func sOf(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func nOf(v types.AttributeValue) int64 {
	if n, ok := v.(*types.AttributeValueMemberN); ok {
		i, _ := strconv.ParseInt(n.Value, 10, 64)
		return i
	}
	return 0
}

func clone(in attrs) attrs {
	if in == nil {
		return nil
	}
	out := make(attrs, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *fakeClient) get(table string, key attrs) attrs {
	return f.data[table][f.keyOf(table, key)]
}

// put overwrites an attrs directly, bypassing conditions.
func (f *fakeClient) put(table string, it attrs) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[table][f.keyOf(table, it)] = clone(it)
}

func check(current attrs, cond string, values attrs) bool {
	switch cond {
	case "":
		return true
	case condEdgeAbsent, condItemAbsent:
		return current == nil
	case condUserExists:
		return current != nil
	case condEdgeAt:
		return current != nil && nOf(current[attrVersion]) == nOf(values[":expected"])
	}
	panic("fake: unsupported condition " + cond)
}

func splitClauses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyUpdate(current attrs, expr string, values attrs) {
	var addPart, setPart string
	switch {
	case strings.HasPrefix(expr, "ADD "):
		addPart = strings.TrimPrefix(expr, "ADD ")
		if i := strings.Index(addPart, " SET "); i >= 0 {
			setPart = addPart[i+len(" SET "):]
			addPart = addPart[:i]
		}
	case strings.HasPrefix(expr, "SET "):
		setPart = strings.TrimPrefix(expr, "SET ")
	default:
		panic("fake: unsupported update " + expr)
	}

	for _, clause := range splitClauses(addPart) {
		fields := strings.Fields(clause)
		name, placeholder := fields[0], fields[1]
		current[name] = num(nOf(current[name]) + nOf(values[placeholder]))
	}
	for _, clause := range splitClauses(setPart) {
		parts := strings.SplitN(clause, "=", 2)
		current[strings.TrimSpace(parts[0])] = values[strings.TrimSpace(parts[1])]
	}
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: clone(f.get(aws.ToString(in.TableName), in.Key))}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := aws.ToString(in.TableName)
	current := f.get(table, in.Key)
	if !check(current, aws.ToString(in.ConditionExpression), in.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	next := clone(current)
	if next == nil {
		next = clone(in.Key)
	}
	applyUpdate(next, aws.ToString(in.UpdateExpression), in.ExpressionAttributeValues)
	f.data[table][f.keyOf(table, in.Key)] = next
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keyAttr := attrSourceID
	if aws.ToString(in.IndexName) == targetIndex {
		keyAttr = attrTargetID
	}
	if aws.ToString(in.KeyConditionExpression) != keyAttr+" = :user" {
		return nil, fmt.Errorf("fake: unsupported key condition %q", aws.ToString(in.KeyConditionExpression))
	}

	user := sOf(in.ExpressionAttributeValues[":user"])
	status := sOf(in.ExpressionAttributeValues[":status"])
	var items []attrs
	for _, it := range f.data[aws.ToString(in.TableName)] {
		if sOf(it[keyAttr]) != user {
			continue
		}
		if in.FilterExpression != nil && sOf(it[attrStatus]) != status {
			continue
		}
		items = append(items, clone(it))
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeClient) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []attrs
	for _, it := range f.data[aws.ToString(in.TableName)] {
		if aws.ToString(in.FilterExpression) == filterNoMarker {
			if _, isMarker := it[attrMarkerOf]; isMarker {
				continue
			}
		}
		items = append(items, clone(it))
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeClient) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	if f.beforeTransact != nil {
		f.beforeTransact()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactCalls++

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		var table, cond string
		var key, values attrs
		switch {
		case ti.Put != nil:
			table, cond, values = aws.ToString(ti.Put.TableName), aws.ToString(ti.Put.ConditionExpression), ti.Put.ExpressionAttributeValues
			key = ti.Put.Item
		case ti.Update != nil:
			table, cond, values = aws.ToString(ti.Update.TableName), aws.ToString(ti.Update.ConditionExpression), ti.Update.ExpressionAttributeValues
			key = ti.Update.Key
		case ti.ConditionCheck != nil:
			table, cond, values = aws.ToString(ti.ConditionCheck.TableName), aws.ToString(ti.ConditionCheck.ConditionExpression), ti.ConditionCheck.ExpressionAttributeValues
			key = ti.ConditionCheck.Key
		}
		reasons[i].Code = aws.String("None")
		if !check(f.get(table, key), cond, values) {
			reasons[i].Code = aws.String(reasonConditionalCheckFailed)
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			table := aws.ToString(ti.Put.TableName)
			f.data[table][f.keyOf(table, ti.Put.Item)] = clone(ti.Put.Item)
		case ti.Update != nil:
			table := aws.ToString(ti.Update.TableName)
			next := clone(f.get(table, ti.Update.Key))
			if next == nil {
				next = clone(ti.Update.Key)
			}
			applyUpdate(next, aws.ToString(ti.Update.UpdateExpression), ti.Update.ExpressionAttributeValues)
			f.data[table][f.keyOf(table, ti.Update.Key)] = next
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeClient) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.TableName)
	if f.created[name] {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	f.created[name] = true
	return &dynamodb.CreateTableOutput{}, nil
}

package dynamo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeTable is an in-memory stand-in for a DynamoDB table with one global
// secondary index on (userId, createdAt). It understands the subset of
// expressions TaskStore produces.
type fakeTable struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int

	// err, when set, is returned by every call.
	err error

	lastQuery  *dynamodb.QueryInput
	lastPut    *dynamodb.PutItemInput
	lastUpdate *dynamodb.UpdateItemInput
	queryCalls int
}

func newFakeTable(pageSize int) *fakeTable {
	return &fakeTable{
		items:    make(map[string]map[string]types.AttributeValue),
		pageSize: pageSize,
	}
}

var _ API = (*fakeTable)(nil)

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func keyOf(m map[string]types.AttributeValue) string {
	return str(m[attrTaskID]) + "\x00" + str(m[attrUserID])
}

func copyItem(m map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
}

func strPtr(s string) *string { return &s }

// checkCondition evaluates attribute_exists / attribute_not_exists on the key.
func checkCondition(cond *string, exists bool) error {
	if cond == nil {
		return nil
	}
	switch {
	case strings.Contains(*cond, "attribute_not_exists"):
		if exists {
			return conditionFailed()
		}
	case strings.Contains(*cond, "attribute_exists"):
		if !exists {
			return conditionFailed()
		}
	default:
		return errors.New("fake: unsupported condition " + *cond)
	}
	return nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[keyOf(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPut = in
	if f.err != nil {
		return nil, f.err
	}
	key := keyOf(in.Item)
	_, exists := f.items[key]
	if err := checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	f.items[key] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = in
	if f.err != nil {
		return nil, f.err
	}
	key := keyOf(in.Key)
	item, exists := f.items[key]
	if err := checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	if !exists {
		item = copyItem(in.Key)
	} else {
		item = copyItem(item)
	}

	expr := strings.TrimSpace(*in.UpdateExpression)
	expr = strings.TrimSpace(strings.TrimPrefix(expr, "SET"))
	for _, clause := range strings.Split(expr, ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			return nil, errors.New("fake: unsupported update clause " + clause)
		}
		name := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
		value, ok := in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
		if name == "" || !ok {
			return nil, errors.New("fake: unresolved placeholder in " + clause)
		}
		item[name] = value
	}
	f.items[key] = item

	out := &dynamodb.UpdateItemOutput{}
	if in.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query returns items of the single user named in the key condition, ordered
// by createdAt, pageSize at a time.
func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = in
	f.queryCalls++
	if f.err != nil {
		return nil, f.err
	}
	if len(in.ExpressionAttributeValues) != 1 {
		return nil, errors.New("fake: expected a single key condition value")
	}
	var userID string
	for _, v := range in.ExpressionAttributeValues {
		userID = str(v)
	}

	matched := make([]map[string]types.AttributeValue, 0)
	for _, item := range f.items {
		if str(item[attrUserID]) == userID {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		ci, cj := str(matched[i][attrCreatedAt]), str(matched[j][attrCreatedAt])
		if ci == cj {
			return str(matched[i][attrTaskID]) < str(matched[j][attrTaskID])
		}
		return ci < cj
	})

	start := 0
	if len(in.ExclusiveStartKey) > 0 {
		after := keyOf(in.ExclusiveStartKey)
		for i, item := range matched {
			if keyOf(item) == after {
				start = i + 1
				break
			}
		}
	}

	end := len(matched)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}

	out := &dynamodb.QueryOutput{}
	for _, item := range matched[start:end] {
		out.Items = append(out.Items, copyItem(item))
	}
	out.Count = int32(len(out.Items))
	if end < len(matched) {
		last := matched[end-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			attrTaskID:    last[attrTaskID],
			attrUserID:    last[attrUserID],
			attrCreatedAt: last[attrCreatedAt],
		}
	}
	return out, nil
}

package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/platform/logger"
	"github.com/phrazzld/servertask/internal/store"
)

// Attribute names of the task table.
const (
	attrTaskID      = "taskId"
	attrUserID      = "userId"
	attrTitle       = "title"
	attrDescription = "description"
	attrDueDate     = "dueDate"
	attrStatus      = "status"
	attrCreatedAt   = "createdAt"
	attrUpdatedAt   = "updatedAt"
	attrImageLabels = "imageLabels"
)

// taskItem is the stored shape of a task.
type taskItem struct {
	TaskID      string      `dynamodbav:"taskId"`
	UserID      string      `dynamodbav:"userId"`
	Title       string      `dynamodbav:"title"`
	Description string      `dynamodbav:"description"`
	DueDate     string      `dynamodbav:"dueDate,omitempty"`
	Status      string      `dynamodbav:"status"`
	CreatedAt   string      `dynamodbav:"createdAt"`
	UpdatedAt   string      `dynamodbav:"updatedAt"`
	ImageLabels []labelItem `dynamodbav:"imageLabels,omitempty"`
}

// labelItem keeps the attribute names Rekognition uses, so label lists
// written by earlier deployments read back unchanged.
type labelItem struct {
	Name       string  `dynamodbav:"Name"`
	Confidence float64 `dynamodbav:"Confidence"`
}

// TaskStore implements store.TaskStore on a DynamoDB table.
type TaskStore struct {
	client    API
	tableName string
	indexName string
	logger    *slog.Logger
}

// NewTaskStore creates a TaskStore for tableName, listing through the
// secondary index indexName.
func NewTaskStore(client API, tableName, indexName string, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger.With(slog.String("component", "dynamo_task_store")),
	}
}

// Verify TaskStore implements store.TaskStore.
var _ store.TaskStore = (*TaskStore)(nil)

// ListByUser implements store.TaskStore.
func (s *TaskStore) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	keyCond := expression.Key(attrUserID).Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, store.NewStoreError("task", "list", "failed to build query", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})

	tasks := make([]*domain.Task, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			log.Error("failed to query tasks", "user_id", userID, "error", err)
			return nil, store.NewStoreError("task", "list", "query failed", err)
		}

		var items []taskItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, store.NewStoreError("task", "list", "failed to decode items", err)
		}
		for i := range items {
			tasks = append(tasks, items[i].toDomain())
		}
	}

	return tasks, nil
}

// Get implements store.TaskStore.
func (s *TaskStore) Get(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            itemKey(taskID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			"task_id", taskID, "user_id", userID, "error", err)
		return nil, store.NewStoreError("task", "get", "get item failed", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrTaskNotFound
	}

	var item taskItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, store.NewStoreError("task", "get", "failed to decode item", err)
	}
	return item.toDomain(), nil
}

// Create implements store.TaskStore. The put is conditional on the key being
// unused so a colliding identifier never overwrites an existing task.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "invalid task", err)
	}

	item, err := attributevalue.MarshalMap(fromDomain(task))
	if err != nil {
		return store.NewStoreError("task", "create", "failed to encode item", err)
	}

	cond := expression.AttributeNotExists(expression.Name(attrTaskID))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return store.NewStoreError("task", "create", "failed to build condition", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return store.ErrTaskExists
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to put task",
			"task_id", task.TaskID, "user_id", task.UserID, "error", err)
		return store.NewStoreError("task", "create", "put item failed", err)
	}
	return nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(
	ctx context.Context,
	taskID, userID string,
	fields domain.TaskFields,
	updatedAt string,
) (*domain.Task, error) {
	update := expression.
		Set(expression.Name(attrTitle), expression.Value(fields.Title)).
		Set(expression.Name(attrDescription), expression.Value(fields.Description)).
		Set(expression.Name(attrDueDate), expression.Value(fields.DueDate)).
		Set(expression.Name(attrStatus), expression.Value(fields.Status)).
		Set(expression.Name(attrUpdatedAt), expression.Value(updatedAt))

	out, err := s.updateExisting(ctx, "update", taskID, userID, update, types.ReturnValueAllNew)
	if err != nil {
		return nil, err
	}

	var item taskItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, store.NewStoreError("task", "update", "failed to decode item", err)
	}
	return item.toDomain(), nil
}

// SetImageLabels implements store.TaskStore.
func (s *TaskStore) SetImageLabels(
	ctx context.Context,
	taskID, userID string,
	labels []domain.Label,
	updatedAt string,
) error {
	items := make([]labelItem, 0, len(labels))
	for _, l := range labels {
		items = append(items, labelItem{Name: l.Name, Confidence: l.Confidence})
	}

	update := expression.
		Set(expression.Name(attrImageLabels), expression.Value(items)).
		Set(expression.Name(attrUpdatedAt), expression.Value(updatedAt))

	_, err := s.updateExisting(ctx, "set_image_labels", taskID, userID, update, types.ReturnValueNone)
	return err
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, taskID, userID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(taskID, userID),
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			"task_id", taskID, "user_id", userID, "error", err)
		return store.NewStoreError("task", "delete", "delete item failed", err)
	}
	return nil
}

// updateExisting applies update to an existing item; a missing item yields
// store.ErrTaskNotFound instead of an upsert.
func (s *TaskStore) updateExisting(
	ctx context.Context,
	op, taskID, userID string,
	update expression.UpdateBuilder,
	returnValues types.ReturnValue,
) (*dynamodb.UpdateItemOutput, error) {
	cond := expression.AttributeExists(expression.Name(attrTaskID))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, store.NewStoreError("task", op, "failed to build update", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       itemKey(taskID, userID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              returnValues,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			"operation", op, "task_id", taskID, "user_id", userID, "error", err)
		return nil, store.NewStoreError("task", op, "update item failed", err)
	}
	return out, nil
}

func itemKey(taskID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrTaskID: &types.AttributeValueMemberS{Value: taskID},
		attrUserID: &types.AttributeValueMemberS{Value: userID},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func fromDomain(t *domain.Task) taskItem {
	item := taskItem{
		TaskID:      t.TaskID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, l := range t.ImageLabels {
		item.ImageLabels = append(item.ImageLabels, labelItem{Name: l.Name, Confidence: l.Confidence})
	}
	return item
}

func (i taskItem) toDomain() *domain.Task {
	t := &domain.Task{
		TaskID:      i.TaskID,
		UserID:      i.UserID,
		Title:       i.Title,
		Description: i.Description,
		DueDate:     i.DueDate,
		Status:      i.Status,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if i.ImageLabels != nil {
		t.ImageLabels = make([]domain.Label, 0, len(i.ImageLabels))
		for _, l := range i.ImageLabels {
			t.ImageLabels = append(t.ImageLabels, domain.Label{Name: l.Name, Confidence: l.Confidence})
		}
	}
	return t
}


package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focustache/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tasksCollection = "tasks"

// MongoTaskRepository is a MongoDB implementation of TaskRepository.
type MongoTaskRepository struct {
	coll *mongo.Collection
}

// NewMongoTaskRepository creates a new instance of MongoTaskRepository.
func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{
		coll: db.Collection(tasksCollection),
	}
}

// EnsureIndexes creates the owner/creation index used by ListByOwner.
func (r *MongoTaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_tasks_owner_created"),
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks owner index: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's tasks, newest first.
func (r *MongoTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"user": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]models.Task, 0)
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// Create inserts a new task document.
func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID returns a task by ID if ownerID owns it.
func (r *MongoTaskRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "user": ownerID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task by ID %s: %w", id, err)
	}
	return &task, nil
}

// Update sets the changed fields of a task owned by ownerID.
func (r *MongoTaskRepository) Update(ctx context.Context, ownerID, id string, changes models.TaskChanges) (*models.Task, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.DueDateSet {
		set["dueDate"] = changes.DueDate
	}
	if changes.Priority != nil {
		set["priority"] = *changes.Priority
	}
	if changes.Completed != nil {
		set["completed"] = *changes.Completed
	}

	var task models.Task
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task with ID %s not found for update: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return &task, nil
}

// Delete removes a task owned by ownerID.
func (r *MongoTaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("task with ID %s not found for deletion: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteByOwner removes every task owned by ownerID.
func (r *MongoTaskRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user": ownerID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks of user %s: %w", ownerID, err)
	}
	return res.DeletedCount, nil
}

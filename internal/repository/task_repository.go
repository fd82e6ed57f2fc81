package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"museum-sunday/internal/model"
)

// TaskRepository handles CRUD for subscriptions.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByUserAndMuseum(ctx context.Context, userID int64, museumID int) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND museum_id = ?", userID, museumID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("museum_id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Delete(task).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// DeleteByMuseum retires every subscription for the given museum.
func (r *TaskRepository) DeleteByMuseum(ctx context.Context, museumID int) error {
	if err := r.db.WithContext(ctx).
		Where("museum_id = ?", museumID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete tasks for museum %d: %w", museumID, err)
	}
	return nil
}

// GroupedByMuseum returns all subscribers keyed by museum id.
func (r *TaskRepository) GroupedByMuseum(ctx context.Context) (map[int][]model.User, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Preload("User").Find(&tasks).Error; err != nil {
		return nil, err
	}

	grouped := make(map[int][]model.User)
	for _, task := range tasks {
		grouped[task.MuseumID] = append(grouped[task.MuseumID], task.User)
	}
	return grouped, nil
}

// Toggle creates a subscription if the (user, museum) pair has none and
// deletes the existing one otherwise. Returns whether one was created.
func (r *TaskRepository) Toggle(ctx context.Context, userID int64, museumID int) (bool, error) {
	task, err := r.FindByUserAndMuseum(ctx, userID, museumID)
	switch {
	case err == nil:
		return false, r.Delete(ctx, task)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, r.Create(ctx, &model.Task{UserID: userID, MuseumID: museumID})
	default:
		return false, fmt.Errorf("find task: %w", err)
	}
}

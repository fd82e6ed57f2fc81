package repository

import (
	"context"
	"sync"

	"museum-sunday/internal/model"
)

// UserCache is a read-through index over UserRepository. Message handling
// hits it on every update, so known users are served from memory; every
// write goes to the database first and then updates the map. One mutex,
// never held across a database call that follows a hit.
type UserCache struct {
	repo  *UserRepository
	mu    sync.Mutex
	users map[int64]model.User
}

func NewUserCache(repo *UserRepository) *UserCache {
	return &UserCache{
		repo:  repo,
		users: make(map[int64]model.User),
	}
}

// Warm preloads every known user. Called once at startup.
func (c *UserCache) Warm(ctx context.Context) error {
	users, err := c.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, user := range users {
		c.users[user.ID] = user
	}
	return nil
}

// Get returns a cached user, falling back to the database on a miss.
func (c *UserCache) Get(ctx context.Context, id int64) (*model.User, error) {
	c.mu.Lock()
	user, ok := c.users[id]
	c.mu.Unlock()
	if ok {
		return &user, nil
	}

	found, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.users[found.ID] = *found
	c.mu.Unlock()
	return found, nil
}

func (c *UserCache) Create(ctx context.Context, user *model.User) error {
	if err := c.repo.Create(ctx, user); err != nil {
		return err
	}
	c.mu.Lock()
	c.users[user.ID] = *user
	c.mu.Unlock()
	return nil
}

func (c *UserCache) Update(ctx context.Context, user *model.User) error {
	if err := c.repo.Update(ctx, user); err != nil {
		return err
	}
	c.mu.Lock()
	c.users[user.ID] = *user
	c.mu.Unlock()
	return nil
}

func (c *UserCache) Delete(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.users, id)
	c.mu.Unlock()
	return nil
}

func (c *UserCache) ListAll(ctx context.Context) ([]model.User, error) {
	return c.repo.ListAll(ctx)
}

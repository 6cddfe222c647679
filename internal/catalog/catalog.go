// Package catalog holds the fixed, ordered list of tasks offered to a session.
package catalog

import (
	"sync"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
)

// Catalog is the per-session task list. The completed flag is its only
// mutable field and is only written through MarkCompleted.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]*domain.Task
}

// Default returns the tasks every new session starts with.
func Default() []domain.Task {
	return []domain.Task{
		{ID: "1", Title: "Watch Welcome Ad", Reward: 6, DurationSeconds: 60, Type: domain.TaskTypeAd},
		{ID: "2", Title: "Product Video Review", Reward: 12, DurationSeconds: 120, Type: domain.TaskTypeVideo},
		{ID: "3", Title: "AdMob Bonus Task", Reward: 18, DurationSeconds: 60, Type: domain.TaskTypeAd},
		{ID: "4", Title: "Daily Check-in Video", Reward: 6, DurationSeconds: 30, Type: domain.TaskTypeVideo},
	}
}

// New copies tasks into a fresh catalog with every completed flag cleared.
// Later duplicates of an ID are dropped.
func New(tasks []domain.Task) *Catalog {
	c := &Catalog{tasks: make(map[string]*domain.Task, len(tasks))}
	for _, t := range tasks {
		if _, dup := c.tasks[t.ID]; dup {
			continue
		}
		t.Completed = false
		task := t
		c.tasks[t.ID] = &task
		c.order = append(c.order, t.ID)
	}
	return c
}

// List returns a snapshot in catalog order.
func (c *Catalog) List() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.tasks[id])
	}
	return out
}

// Get returns a copy of the task with the given ID.
func (c *Catalog) Get(id string) (domain.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	if !ok {
		return domain.Task{}, &domain.TaskNotFoundError{TaskID: id}
	}
	return *t, nil
}

// MarkCompleted sets the completed flag. flipped is true only for the call
// that changed it from false to true.
func (c *Catalog) MarkCompleted(id string) (task domain.Task, flipped bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[id]
	if !ok {
		return domain.Task{}, false, &domain.TaskNotFoundError{TaskID: id}
	}
	if t.Completed {
		return *t, false, nil
	}
	t.Completed = true
	return *t, true, nil
}

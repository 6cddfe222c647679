package catalog_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/catalog"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
)

func TestDefault_MatchesOfferedTasks(t *testing.T) {
	tasks := catalog.Default()
	require.Len(t, tasks, 4)
	assert.Equal(t, "Watch Welcome Ad", tasks[0].Title)
	assert.Equal(t, 12, tasks[1].Reward)
	assert.Equal(t, 120, tasks[1].DurationSeconds)
	assert.Equal(t, domain.TaskTypeVideo, tasks[3].Type)
}

func TestNew_PreservesOrderAndClearsCompleted(t *testing.T) {
	c := catalog.New([]domain.Task{
		{ID: "b", Reward: 1, DurationSeconds: 1, Completed: true},
		{ID: "a", Reward: 2, DurationSeconds: 2},
		{ID: "b", Reward: 99, DurationSeconds: 99},
	})

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, 1, list[0].Reward, "first occurrence of a duplicate ID wins")
	assert.False(t, list[0].Completed)
	assert.Equal(t, "a", list[1].ID)
}

func TestGet_Unknown(t *testing.T) {
	c := catalog.New(catalog.Default())
	_, err := c.Get("nope")

	var notFound *domain.TaskNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nope", notFound.TaskID)
}

func TestMarkCompleted_FlipsOnce(t *testing.T) {
	c := catalog.New(catalog.Default())

	task, flipped, err := c.MarkCompleted("1")
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.True(t, task.Completed)

	_, flipped, err = c.MarkCompleted("1")
	require.NoError(t, err)
	assert.False(t, flipped, "second completion must not report a flip")

	got, err := c.Get("1")
	require.NoError(t, err)
	assert.True(t, got.Completed)
}

func TestMarkCompleted_ConcurrentSingleFlip(t *testing.T) {
	c := catalog.New(catalog.Default())

	var flips atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, flipped, _ := c.MarkCompleted("2"); flipped {
				flips.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), flips.Load())
}

func TestList_IsSnapshot(t *testing.T) {
	c := catalog.New(catalog.Default())
	list := c.List()
	list[0].Completed = true

	got, err := c.Get(list[0].ID)
	require.NoError(t, err)
	assert.False(t, got.Completed, "mutating a snapshot must not leak into the catalog")
}

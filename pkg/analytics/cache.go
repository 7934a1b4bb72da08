package analytics

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// QueryKey identifies one source read.
type QueryKey struct {
	ProjectId int
	Query     string
}

// QueryCache memoizes source reads per key. For a key the latest issued
// fetch is authoritative: results of earlier fetches that finish late, and
// fetches overtaken by InvalidateProject, are returned to their caller but
// never stored. Failed fetches leave the cache untouched.
type QueryCache[T any] struct {
	mu          sync.Mutex
	values      map[QueryKey]T
	generations map[QueryKey]uint64
}

func NewQueryCache[T any]() *QueryCache[T] {
	return &QueryCache[T]{
		values:      make(map[QueryKey]T),
		generations: make(map[QueryKey]uint64),
	}
}

// Load returns the cached value for key, fetching it when absent.
func (c *QueryCache[T]) Load(ctx context.Context, key QueryKey, fetch func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	value, ok := c.values[key]
	c.mu.Unlock()
	if ok {
		return value, nil
	}
	return c.Fetch(ctx, key, fetch)
}

// Fetch always issues a new fetch for key and supersedes any fetch in flight.
func (c *QueryCache[T]) Fetch(ctx context.Context, key QueryKey, fetch func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	c.generations[key]++
	issued := c.generations[key]
	c.mu.Unlock()

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != issued {
		log.Debugf("discarding superseded result for %s of project %d", key.Query, key.ProjectId)
		return value, nil
	}
	c.values[key] = value
	return value, nil
}

// InvalidateProject drops every cached value of the project and supersedes
// its fetches in flight.
func (c *QueryCache[T]) InvalidateProject(projectId int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.generations {
		if key.ProjectId != projectId {
			continue
		}
		c.generations[key]++
		delete(c.values, key)
	}
}

func (c *QueryCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

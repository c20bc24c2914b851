package lastresult

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
)

const defaultTTL = time.Hour

// Memory keeps results in process; contents are lost on restart.
// Entries expire after ttl, matching the Redis store.
type Memory struct {
	mu      sync.RWMutex
	results map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	result    domain.Result
	expiresAt time.Time
}

// NewMemory creates a store whose entries live for ttl (one hour when ttl <= 0)
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Memory{
		results: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Put(_ context.Context, sessionID string, result *domain.Result) error {
	if result == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.results[sessionID]; !exists {
		m.evictExpired(now)
	}
	m.results[sessionID] = entry{
		result:    cloneResult(result),
		expiresAt: now.Add(m.ttl),
	}
	return nil
}

func (m *Memory) Get(_ context.Context, sessionID string) (*domain.Result, error) {
	m.mu.RLock()
	e, ok := m.results[sessionID]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, ErrNotFound
	}

	result := cloneResult(&e.result)
	return &result, nil
}

// Len reports how many entries are held, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}

func (m *Memory) evictExpired(now time.Time) {
	for key, e := range m.results {
		if !now.Before(e.expiresAt) {
			delete(m.results, key)
		}
	}
}

// cloneResult copies r including every slice, so callers never share backing arrays with the store
func cloneResult(r *domain.Result) domain.Result {
	out := *r
	out.Engagement = cloneCategory(r.Engagement)
	out.Quality = cloneCategory(r.Quality)
	out.Relevance = cloneCategory(r.Relevance)
	out.AudienceBehavior = cloneCategory(r.AudienceBehavior)
	out.OverallPros = slices.Clone(r.OverallPros)
	out.OverallCons = slices.Clone(r.OverallCons)
	return out
}

func cloneCategory(c domain.CategoryAnalysis) domain.CategoryAnalysis {
	c.Pros = slices.Clone(c.Pros)
	c.Cons = slices.Clone(c.Cons)
	c.Tips = slices.Clone(c.Tips)
	return c
}

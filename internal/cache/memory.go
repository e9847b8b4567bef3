package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryService keeps entries in process. Suited to a single instance only.
type MemoryService struct {
	store *gocache.Cache

	mu   sync.Mutex
	tags map[string]map[string]struct{}
}

func NewMemoryService(defaultTTL time.Duration) *MemoryService {
	s := &MemoryService{
		store: gocache.New(defaultTTL, 2*defaultTTL),
		tags:  make(map[string]map[string]struct{}),
	}
	s.store.OnEvicted(s.untag)
	return s
}

// untag drops an evicted key from every tag it was filed under.
func (s *MemoryService) untag(key string, _ interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tag, keys := range s.tags {
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.tags, tag)
		}
	}
}

func (s *MemoryService) Set(_ context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	s.store.Set(key, data, duration)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (s *MemoryService) Get(_ context.Context, key string) ([]byte, error) {
	x, found := s.store.Get(key)
	if !found {
		return nil, nil
	}
	data, _ := x.([]byte)
	return data, nil
}

func (s *MemoryService) Invalidate(_ context.Context, tags ...string) error {
	s.mu.Lock()
	var keys []string
	for _, tag := range tags {
		for key := range s.tags[tag] {
			keys = append(keys, key)
		}
		delete(s.tags, tag)
	}
	s.mu.Unlock()

	// Delete runs the eviction callback, which takes mu.
	for _, key := range keys {
		s.store.Delete(key)
	}
	return nil
}

func (s *MemoryService) taggedKeys(tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags[tag])
}

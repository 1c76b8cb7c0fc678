package catalog

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/fardannozami/scoopquest/internal/domain"
)

const defaultCacheSize = 256

// Cache keeps recently read quest definitions in memory. Every activity
// report looks up the quest of each in-progress record, so this sits on the
// hot path. Unknown ids are not cached.
type Cache struct {
	src   domain.QuestCatalog
	cache *lru.Cache
}

func NewCache(src domain.QuestCatalog, size int) (*Cache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{src: src, cache: cache}, nil
}

func (c *Cache) GetQuest(ctx context.Context, id string) (*domain.Quest, error) {
	if v, ok := c.cache.Get(id); ok {
		return v.(*domain.Quest), nil
	}
	q, err := c.src.GetQuest(ctx, id)
	if err != nil || q == nil {
		return q, err
	}
	c.cache.Add(id, q)
	return q, nil
}

// GetActiveQuests always asks the source since the window moves with now,
// and refreshes the cached definitions it sees on the way.
func (c *Cache) GetActiveQuests(ctx context.Context, now time.Time) ([]*domain.Quest, error) {
	quests, err := c.src.GetActiveQuests(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, q := range quests {
		c.cache.Add(q.ID, q)
	}
	return quests, nil
}
